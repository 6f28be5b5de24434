package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/deckviewer/internal/common"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	Help() string
	Status(ctx context.Context) error
	Next(ctx context.Context) error
	Prev(ctx context.Context) error
	GoTo(ctx context.Context, args []string) error
	Password(ctx context.Context, args []string) error
	Email(ctx context.Context, args []string) error
	Dismiss(ctx context.Context, args []string) error
	OpenPrompt(ctx context.Context, args []string) error
	SetVisible(ctx context.Context, visible bool) error
	Tour(ctx context.Context, args []string) error
	RestartTour(ctx context.Context) error
	Toggle(ctx context.Context, what string) error
	Download(ctx context.Context, args []string) error
	Retry(ctx context.Context) error
}

const helpText = `Available commands:
  status                 show the deck, page and access state
  n | next, p | prev     turn the page
  goto <page>            jump to a page
  password [value]       answer the password prompt
  email [address]        answer the email prompt
  open password|email    reopen a dismissed prompt
  dismiss password|email close a prompt
  hide | show            move the viewer to the background or foreground
  tour [next|back|cancel]
  ?                      restart the tour
  sidebar | fullscreen | theme
  download <path>        save the document
  retry                  retry after an error
  exit | quit`

// runREPL starts a simple read-eval-print loop over the viewer.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Errors are printed using their
// user-facing message; the loop keeps running. It exits on scanner EOF or
// when the user types "exit" or "quit".
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("deck %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help", "h":
			printlnFn(a.Help())
		case "status", "s":
			err = a.Status(ctx)
		case "n", "next":
			err = a.Next(ctx)
		case "p", "prev":
			err = a.Prev(ctx)
		case "goto", "page":
			err = a.GoTo(ctx, args)
		case "password":
			err = a.Password(ctx, args)
		case "email":
			err = a.Email(ctx, args)
		case "dismiss":
			err = a.Dismiss(ctx, args)
		case "open":
			err = a.OpenPrompt(ctx, args)
		case "hide":
			err = a.SetVisible(ctx, false)
		case "show":
			err = a.SetVisible(ctx, true)
		case "tour":
			err = a.Tour(ctx, args)
		case "?":
			err = a.RestartTour(ctx)
		case "sidebar", "fullscreen", "theme":
			err = a.Toggle(ctx, cmd)
		case "download":
			err = a.Download(ctx, args)
		case "retry":
			err = a.Retry(ctx)
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", common.Message(err, err.Error()))
		}
	}
}
