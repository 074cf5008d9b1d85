package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to.
type execIface interface {
	Create(ctx context.Context) error
	List(ctx context.Context) error
	Show(ctx context.Context, id string) error
	Logs(ctx context.Context, id string) error
	Wait(ctx context.Context) error
}

const helpText = `Available commands:
  create       train a new model from image files
  (l)ist       list models
  show <id>    show one model
  logs <id>    print the training log of a model
  wait         wait for the running submission
  exit | quit  leave the program`

// runREPL reads commands from reader until EOF, "exit" or "quit". The
// prompt shows statusFn, which is the current submission phase. Handler
// errors are reported by the handlers themselves.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("mc%s> ", statusFn()))
		line, err := readLine(reader)
		if err != nil {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			printlnFn(helpText)

		case "create":
			_ = a.Create(ctx)

		case "l", "list":
			_ = a.List(ctx)

		case "show", "logs":
			if len(args) == 0 {
				printlnFn(fmt.Sprintf("Usage: %s <id>", cmd))
				continue
			}
			if cmd == "show" {
				_ = a.Show(ctx, args[0])
			} else {
				_ = a.Logs(ctx, args[0])
			}

		case "wait":
			_ = a.Wait(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
