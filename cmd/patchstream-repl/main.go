package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/phroun/patchstream"
)

// REPL holds the state of the interactive session
type REPL struct {
	stream *patchstream.PatchStream
	file   *patchstream.FileStream
	reader *bufio.Reader
}

func main() {
	fmt.Println("Patchstream REPL - Copy-on-Write Editing Demo")
	fmt.Println("Type 'help' for available commands, 'quit' to exit")
	fmt.Println()

	repl := &REPL{
		reader: bufio.NewReader(os.Stdin),
		stream: patchstream.NewFromBytes(nil),
	}

	for {
		fmt.Print("patchstream> ")
		input, err := repl.reader.ReadString('\n')
		if err != nil {
			fmt.Println("\nGoodbye!")
			break
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if !repl.handleCommand(input) {
			break
		}
	}

	if repl.file != nil {
		repl.file.Close()
	}
}

func (r *REPL) handleCommand(input string) bool {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return true
	}

	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help":
		r.printHelp()

	case "quit", "exit":
		fmt.Println("Goodbye!")
		return false

	case "new":
		r.cmdNew(args)

	case "open":
		r.cmdOpen(args)

	case "status":
		r.cmdStatus()

	case "seek":
		r.cmdSeek(args)

	case "read":
		r.cmdRead(args)

	case "print":
		r.cmdPrint()

	case "insert":
		r.cmdInsert(args)

	case "write":
		r.cmdWrite(args)

	case "delete":
		r.cmdDelete(args)

	case "mode":
		r.cmdMode(args)

	case "undo":
		r.report(r.stream.Undo())

	case "redo":
		r.report(r.stream.Redo())

	case "mark":
		r.report(r.stream.SetRestorePoint(true))

	case "unmark":
		r.report(r.stream.SetRestorePoint(false))

	case "points":
		r.cmdPoints()

	case "restore":
		r.cmdRestore(args)

	case "back":
		r.report(r.stream.RestorePointUndo())

	case "forward":
		r.report(r.stream.RestorePointRedo())

	case "history":
		r.cmdHistory()

	case "find":
		r.cmdFind(args)

	case "flush":
		r.cmdFlush()

	default:
		fmt.Printf("Unknown command: %s (try 'help')\n", cmd)
	}

	return true
}

func (r *REPL) printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  new [text]          start a new document, optionally with content")
	fmt.Println("  open <path>         edit a file (flush writes changes back)")
	fmt.Println("  status              show length, position, mode, history state")
	fmt.Println("  seek <pos>          move the position")
	fmt.Println("  read <n>            read n bytes at the position")
	fmt.Println("  print               print the whole content")
	fmt.Println("  insert <text>       insert text at the position")
	fmt.Println("  write <text>        write text (overwrite or insert per mode)")
	fmt.Println("  delete [n]          delete n bytes at the position (default: to end)")
	fmt.Println("  mode insert|over    switch write mode")
	fmt.Println("  undo / redo         step through the history")
	fmt.Println("  mark / unmark       toggle a restore point on the active patch")
	fmt.Println("  points              list restore points")
	fmt.Println("  restore <index>     jump to a history index")
	fmt.Println("  back / forward      jump between restore points")
	fmt.Println("  history             list all patches")
	fmt.Println("  find <text>         find text from the current position")
	fmt.Println("  flush               write changed regions back to the file")
	fmt.Println("  quit                exit")
}

func (r *REPL) report(ok bool) {
	if ok {
		fmt.Println("ok")
	} else {
		fmt.Println("no")
	}
}

func (r *REPL) closeFile() {
	if r.file != nil {
		r.file.Close()
		r.file = nil
	}
}

func (r *REPL) cmdNew(args []string) {
	r.closeFile()
	r.stream = patchstream.NewFromString(strings.Join(args, " "))
	fmt.Printf("New document, %d bytes\n", r.stream.Length())
}

func (r *REPL) cmdOpen(args []string) {
	if len(args) != 1 {
		fmt.Println("Usage: open <path>")
		return
	}

	f, err := patchstream.OpenFileStream(args[0], patchstream.OpenModeReadWrite)
	if err != nil {
		fmt.Printf("Error opening file: %v\n", err)
		return
	}

	r.closeFile()
	r.file = f
	r.stream = patchstream.NewFromStreams(f)
	fmt.Printf("Opened %s, %d bytes\n", args[0], r.stream.Length())
}

func (r *REPL) cmdStatus() {
	h := r.stream.History()
	active := r.stream.ActivePatch()
	mode := "overwrite"
	if r.stream.InsertMode() {
		mode = "insert"
	}
	fmt.Printf("Length:   %d\n", r.stream.Length())
	fmt.Printf("Position: %d\n", r.stream.Position())
	fmt.Printf("Mode:     %s\n", mode)
	fmt.Printf("History:  patch %d of %d (id %d)\n", h.Cursor(), h.Len(), active.ID())
	fmt.Printf("Undo/Redo: %v/%v  Flushable: %d bytes\n",
		r.stream.CanUndo(), r.stream.CanRedo(), r.stream.CanFlush())
}

func (r *REPL) cmdSeek(args []string) {
	if len(args) != 1 {
		fmt.Println("Usage: seek <pos>")
		return
	}
	pos, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Printf("Bad position: %v\n", err)
		return
	}
	if err := r.stream.SetPosition(pos); err != nil {
		fmt.Printf("Error: %v\n", err)
	}
}

func (r *REPL) cmdRead(args []string) {
	if len(args) != 1 {
		fmt.Println("Usage: read <n>")
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 0 {
		fmt.Println("Bad count")
		return
	}
	buf := make([]byte, n)
	read, err := r.stream.Read(buf)
	if err != nil && read == 0 {
		fmt.Printf("(%v)\n", err)
		return
	}
	fmt.Printf("%q\n", buf[:read])
}

func (r *REPL) cmdPrint() {
	data, err := r.stream.Bytes()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("%q\n", data)
}

func (r *REPL) cmdInsert(args []string) {
	data := []byte(strings.Join(args, " "))
	inserted, err := r.stream.Insert(data, 0)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("Inserted %d bytes\n", inserted)
}

func (r *REPL) cmdWrite(args []string) {
	data := []byte(strings.Join(args, " "))
	n, err := r.stream.Write(data)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("Wrote %d bytes\n", n)
}

func (r *REPL) cmdDelete(args []string) {
	length := int64(-1)
	if len(args) == 1 {
		n, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			fmt.Printf("Bad count: %v\n", err)
			return
		}
		length = n
	}
	deleted, err := r.stream.Delete(length)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("Deleted %d bytes\n", deleted)
}

func (r *REPL) cmdMode(args []string) {
	if len(args) != 1 {
		fmt.Println("Usage: mode insert|over")
		return
	}
	switch args[0] {
	case "insert":
		r.stream.SetInsertMode(true)
	case "over", "overwrite":
		r.stream.SetInsertMode(false)
	default:
		fmt.Println("Usage: mode insert|over")
	}
}

func (r *REPL) cmdPoints() {
	for _, p := range r.stream.RestorePoints(true) {
		label := p.Description()
		if label == "" {
			label = "(unnamed)"
		}
		fmt.Printf("  [%d] id=%d size=%d %s\n", p.Index(), p.ID(), p.Size(), label)
	}
}

func (r *REPL) cmdRestore(args []string) {
	if len(args) != 1 {
		fmt.Println("Usage: restore <index>")
		return
	}
	idx, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Printf("Bad index: %v\n", err)
		return
	}
	r.report(r.stream.Restore(idx))
}

func (r *REPL) cmdHistory() {
	h := r.stream.History()
	for i := 0; i < h.Len(); i++ {
		p := h.PatchAt(i)
		marker := "  "
		if i == h.Cursor() {
			marker = "->"
		}
		flag := " "
		if p.RestorePoint() {
			flag = "*"
		}
		fmt.Printf("%s [%d]%s id=%d size=%d change=%d+%d\n",
			marker, i, flag, p.ID(), p.Size(), p.ChangeOffset(), p.AffectedByteCount())
	}
}

func (r *REPL) cmdFind(args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: find <text>")
		return
	}
	pos, err := r.stream.Find([]byte(strings.Join(args, " ")), r.stream.Position())
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if pos < 0 {
		fmt.Println("Not found")
		return
	}
	fmt.Printf("Found at %d\n", pos)
}

func (r *REPL) cmdFlush() {
	if r.file != nil {
		info, err := r.file.CheckSource()
		if err == nil && info.Type != patchstream.SourceUnchanged {
			fmt.Printf("Declined: file %s on disk (%d -> %d bytes)\n",
				info.Type, info.PreviousSize, info.CurrentSize)
			return
		}
	}

	flushable := r.stream.CanFlush()
	if flushable == 0 {
		fmt.Println("Nothing to flush")
		return
	}
	if err := r.stream.Flush(); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("Flushed %d bytes\n", flushable)
}
