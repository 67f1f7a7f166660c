package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. The real App
// satisfies it; tests provide a lightweight stub.
type execIface interface {
	List(ctx context.Context, args []string) error
	ChangeDir(ctx context.Context, args []string) error
	MakeDir(ctx context.Context, args []string) error
	Upload(ctx context.Context, args []string) error
	Move(ctx context.Context, args []string) error
	Rename(ctx context.Context, args []string) error
	Star(ctx context.Context, args []string, value bool) error
	Trash(ctx context.Context, args []string, value bool) error
	Remove(ctx context.Context, args []string) error
	Path(ctx context.Context, args []string) error
}

const helpText = "Available commands: ls [id], cd <id|..|/>, path <id>, mkdir <name>, upload <file>, " +
	"mv <id> <folder-id|/>, rename <id> <name>, star|unstar <id>, trash|untrash <id>, rm [-r] <id>, exit"

// runREPL reads commands from scanner until EOF or "exit"/"quit" and
// dispatches them to a. Handlers report their own errors; the loop keeps going.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("gd %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			printlnFn(helpText)
		case "l", "ls":
			_ = a.List(ctx, args)
		case "cd":
			_ = a.ChangeDir(ctx, args)
		case "path":
			_ = a.Path(ctx, args)
		case "mkdir":
			_ = a.MakeDir(ctx, args)
		case "upload":
			_ = a.Upload(ctx, args)
		case "mv":
			_ = a.Move(ctx, args)
		case "rename":
			_ = a.Rename(ctx, args)
		case "star", "unstar":
			_ = a.Star(ctx, args, cmd == "star")
		case "trash", "untrash":
			_ = a.Trash(ctx, args, cmd == "trash")
		case "rm":
			_ = a.Remove(ctx, args)
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
