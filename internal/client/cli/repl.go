package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/contactbook/internal/client/client"
	"github.com/dmitrijs2005/contactbook/internal/common"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

type command func(ctx context.Context, args []string) error

// execIface defines the command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context, args []string) error
	Verify(ctx context.Context, args []string) error
	Resend(ctx context.Context, args []string) error
	Login(ctx context.Context, args []string) error
	Logout(ctx context.Context, args []string) error
	Me(ctx context.Context, args []string) error
	Subscription(ctx context.Context, args []string) error
	Avatar(ctx context.Context, args []string) error
	List(ctx context.Context, args []string) error
	Add(ctx context.Context, args []string) error
	Show(ctx context.Context, args []string) error
	Edit(ctx context.Context, args []string) error
	Fav(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
}

const (
	helpLoggedOut = "Available commands: register, verify [token], resend [email], login, exit"
	helpLoggedIn  = "Available commands: (l)ist [fav] [page=N] [limit=N], add, show <id>, edit <id>, fav <id> [yes|no], " +
		"delete <id>, me, subscription <tier>, avatar <path>, logout, exit"
)

// runREPL starts a simple read-eval-print loop for the contactbook CLI.
//
// It reads a line from in, parses the first token as the command and passes
// the rest as arguments. Command errors are printed and the loop goes on.
// The loop exits on EOF, on "exit" or "quit", or when ctx is done.
func runREPL(ctx context.Context, a execIface, statusFn func() string, in *bufio.Reader) {
	commands := map[string]command{
		"register":     a.Register,
		"verify":       a.Verify,
		"resend":       a.Resend,
		"login":        a.Login,
		"logout":       a.Logout,
		"me":           a.Me,
		"subscription": a.Subscription,
		"avatar":       a.Avatar,
		"l":            a.List,
		"list":         a.List,
		"add":          a.Add,
		"show":         a.Show,
		"edit":         a.Edit,
		"fav":          a.Fav,
		"delete":       a.Delete,
	}

	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("cb%s> ", statusFn()))

		line, err := in.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpLoggedIn)
			} else {
				printlnFn(helpLoggedOut)
			}
			continue
		case "exit", "quit":
			printlnFn("Bye!")
			return
		}

		fn, ok := commands[cmd]
		if !ok {
			printlnFn("Unknown command:", cmd)
			continue
		}
		if err := fn(ctx, args); err != nil {
			printlnFn("Error:", describe(err))
		}
	}
}

// describe turns a command error into a line for the user.
func describe(err error) string {
	var apiErr *client.APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Message
	case errors.Is(err, client.ErrNotLoggedIn):
		return "please login first"
	case errors.Is(err, client.ErrUnavailable):
		return "server unavailable"
	case errors.Is(err, common.ErrorValidation):
		return strings.TrimPrefix(err.Error(), common.ErrorValidation.Error()+": ")
	default:
		return err.Error()
	}
}
