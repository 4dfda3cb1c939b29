// Package console runs the interactive CLIcafe prompt on a terminal.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/clicafe/clicafe/internal/logging"
	"github.com/clicafe/clicafe/internal/session"
	"github.com/clicafe/clicafe/internal/shell"
)

const expiredMessage = "Your session has expired. Please sign in again."

// Config wires a Console.
type Config struct {
	In  io.Reader
	Out io.Writer

	Dispatcher *shell.Dispatcher
	Session    *session.Session

	// Expired receives a value when the background token refresh fails.
	Expired <-chan struct{}

	// OpenURL opens a payment page. Nil only prints it.
	OpenURL func(url string) error

	// OnExit runs when the shell terminates through exit or session
	// expiry. It drops the stored credentials.
	OnExit func()
}

// Console is the read-execute-render loop.
type Console struct {
	cfg     Config
	scanner *bufio.Scanner
	fd      int
	tty     bool
}

// New creates a Console. Input from a terminal gets masked password entry.
func New(cfg Config) *Console {
	if cfg.In == nil {
		cfg.In = os.Stdin
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	c := &Console{cfg: cfg, scanner: bufio.NewScanner(cfg.In)}
	if f, ok := cfg.In.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		c.fd = int(f.Fd())
		c.tty = true
	}
	return c
}

// Run reads and executes lines until exit, session expiry, end of input or
// ctx cancellation.
func (c *Console) Run(ctx context.Context) error {
	s := c.cfg.Session
	c.greet()

	masked := false
	for {
		if c.expired() {
			c.printLine(s.Color, expiredMessage)
			s.SignOut()
			c.exit()
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
		if !masked {
			c.prompt()
		}

		line, ok, err := c.readLine(masked)
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		if !ok {
			fmt.Fprintln(c.cfg.Out)
			return nil
		}

		cmdCtx := logging.WithRequestID(ctx, "")
		res := c.cfg.Dispatcher.Execute(cmdCtx, line, s)
		c.render(res)
		masked = res.MaskInput

		if res.Terminate {
			c.exit()
			return nil
		}
	}
}

func (c *Console) greet() {
	s := c.cfg.Session
	c.printLine(s.Color, "Welcome to CLIcafe, the coffee shop in your terminal.")
	if s.LoggedIn() {
		for _, l := range c.cfg.Dispatcher.Banner(s.User, s.LastLogin) {
			c.printLine(s.Color, l)
		}
	}
	c.printLine(s.Color, `Type "help" to see available commands.`)
}

func (c *Console) expired() bool {
	select {
	case <-c.cfg.Expired:
		return true
	default:
		return false
	}
}

func (c *Console) exit() {
	if c.cfg.OnExit != nil {
		c.cfg.OnExit()
	}
}

// Prompt renders "<name>@clicafe:<path>$ ".
func Prompt(s *session.Session) string {
	return fmt.Sprintf("%s@clicafe:%s$ ", s.User.DisplayName(), s.Path)
}

func (c *Console) prompt() {
	colorFor(c.cfg.Session.Color).Add(color.Bold).Fprint(c.cfg.Out, Prompt(c.cfg.Session))
}

func (c *Console) readLine(masked bool) (string, bool, error) {
	if masked && c.tty {
		b, err := term.ReadPassword(c.fd)
		fmt.Fprintln(c.cfg.Out)
		if err != nil {
			return "", false, err
		}
		return string(b), true, nil
	}
	if !c.scanner.Scan() {
		return "", false, c.scanner.Err()
	}
	return c.scanner.Text(), true, nil
}

func (c *Console) render(res shell.Result) {
	for _, l := range res.Lines {
		c.printLine(res.Color, l)
	}
	if res.Popup != nil {
		for _, l := range Card(res.Popup, cardWidth) {
			colorFor(res.Color).Fprintln(c.cfg.Out, l)
		}
	}
	if res.RedirectURL != "" && c.cfg.OpenURL != nil {
		if err := c.cfg.OpenURL(res.RedirectURL); err != nil {
			logging.Warn("open payment page", logging.String("url", res.RedirectURL), logging.Err(err))
			c.printLine(res.Color, "Open the address above in your browser to pay.")
		}
	}
}

func (c *Console) printLine(name, line string) {
	if strings.HasPrefix(line, "Error:") {
		color.New(color.FgRed).Fprintln(c.cfg.Out, line)
		return
	}
	colorFor(name).Fprintln(c.cfg.Out, line)
}

var palette = map[string]color.Attribute{
	"green":  color.FgGreen,
	"blue":   color.FgBlue,
	"red":    color.FgRed,
	"yellow": color.FgYellow,
	"purple": color.FgMagenta,
}

func colorFor(name string) *color.Color {
	attr, ok := palette[name]
	if !ok {
		attr = color.FgGreen
	}
	return color.New(attr)
}
