package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	UseDate(ctx context.Context) error
	Areas(ctx context.Context) error
	Rows(ctx context.Context) error
	Add(ctx context.Context) error
	Set(ctx context.Context) error
	Confirm(ctx context.Context) error
	ConfirmAll(ctx context.Context) error
	Total(ctx context.Context) error
	Audit(ctx context.Context) error
	Suggest(ctx context.Context) error
	Export(ctx context.Context) error
}

// runREPL reads a line from the provided reader, parses the first token as
// the command, and dispatches to methods on 'a'. Unknown commands are
// reported back to the user. The loop exits on EOF or when the user types
// "exit" or "quit".
//
// Any errors returned by command handlers are ignored here; handlers print
// their own errors. This keeps the loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func(context.Context) string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("ct> %s > ", statusFn(ctx)))
		line, err := reader.ReadString('\n')
		if err != nil && (len(line) == 0 || !errors.Is(err, io.EOF)) {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			if err != nil {
				return
			}
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			printlnFn("Available commands: register, login, logout, use, areas, rows, add, set, confirm, confirmall, total, audit, suggest, export, exit")

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "use":
			_ = a.UseDate(ctx)

		case "areas":
			_ = a.Areas(ctx)

		case "rows":
			_ = a.Rows(ctx)

		case "add":
			_ = a.Add(ctx)

		case "set":
			_ = a.Set(ctx)

		case "confirm":
			_ = a.Confirm(ctx)

		case "confirmall":
			_ = a.ConfirmAll(ctx)

		case "total":
			_ = a.Total(ctx)

		case "audit":
			_ = a.Audit(ctx)

		case "suggest":
			_ = a.Suggest(ctx)

		case "export":
			_ = a.Export(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			return
		}
	}
}
