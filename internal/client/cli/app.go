package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/contactbook/internal/client/client"
	"github.com/dmitrijs2005/contactbook/internal/client/config"
)

type App struct {
	config   *config.Config
	api      client.Client
	userName string
	reader   *bufio.Reader
	out      io.Writer
}

func NewApp(c *config.Config) *App {
	return &App{
		config: c,
		api:    client.NewHTTPClient(c.ServerBaseURL, c.RequestTimeout),
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}
}

// Run blocks in the REPL until the user exits, stdin closes or ctx is done.
func (a *App) Run(ctx context.Context) {
	fmt.Fprintf(a.out, "Welcome to contactbook CLI, server %s (type 'help' for commands)\n", a.config.ServerBaseURL)
	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) isLoggedIn() bool {
	return a.api.LoggedIn()
}

func (a *App) getStatus() string {
	if a.isLoggedIn() && a.userName != "" {
		return fmt.Sprintf("(%s)", a.userName)
	}
	return ""
}

func (a *App) prompt(text string) (string, error) {
	return getSimpleText(a.reader, text, a.out)
}

// argOrPrompt returns args[0] when present and asks for it otherwise.
func (a *App) argOrPrompt(args []string, text string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	return a.prompt(text)
}
