// Package console implements the hbnb line-oriented command interpreter.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"regexp"
	"strings"

	"github.com/louisbranch/hbnb/internal/platform/i18n/catalog"
	"github.com/louisbranch/hbnb/internal/services/hbnb/registry"
	"github.com/mattn/go-isatty"
	"golang.org/x/text/message"
)

// Prompt is printed before each command when input is a terminal.
const Prompt = "(hbnb) "

const maxLineSize = 1 << 20

var dotCall = regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_]*)\.([A-Za-z_][A-Za-z0-9_]*)\((.*)\)\s*$`)

// Option configures a Console.
type Option func(*Console)

// WithLocale selects the message catalog locale.
func WithLocale(locale string) Option {
	return func(c *Console) {
		c.locale = catalog.Default().Match(locale)
	}
}

// WithLogger sets the logger used for recovery messages.
func WithLogger(logger *log.Logger) Option {
	return func(c *Console) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithPrompt forces the prompt on or off regardless of the input kind.
func WithPrompt(enabled bool) Option {
	return func(c *Console) {
		c.prompt = &enabled
	}
}

// Console reads commands and applies them to a registry.
type Console struct {
	reg      *registry.Registry
	out      io.Writer
	locale   string
	printer  *message.Printer
	logger   *log.Logger
	prompt   *bool
	commands map[string]command
}

type command func(c *Console, ctx context.Context, args string) bool

// New returns a console writing to out.
func New(reg *registry.Registry, out io.Writer, opts ...Option) (*Console, error) {
	if reg == nil {
		return nil, errors.New("registry is required")
	}
	if out == nil {
		out = io.Discard
	}
	c := &Console{
		reg:    reg,
		out:    out,
		locale: catalog.BaseLocale,
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.printer = catalog.Default().Printer(c.locale)
	c.commands = map[string]command{
		"create":  (*Console).doCreate,
		"show":    (*Console).doShow,
		"destroy": (*Console).doDestroy,
		"all":     (*Console).doAll,
		"update":  (*Console).doUpdate,
		"count":   (*Console).doCount,
		"help":    (*Console).doHelp,
		"quit":    (*Console).doQuit,
		"EOF":     (*Console).doEOF,
	}
	return c, nil
}

// Run reads commands from in until quit, EOF, end of input or ctx is done.
// A cancelled ctx stops the loop even while a read is blocked.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	interactive := c.interactive(in)
	done := make(chan struct{})
	defer close(done)
	lines := c.readLines(in, done)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if interactive {
			fmt.Fprint(c.out, Prompt)
		}
		var line scanned
		select {
		case <-ctx.Done():
			if interactive {
				fmt.Fprintln(c.out)
			}
			return ctx.Err()
		case line = <-lines:
		}
		if line.eof {
			if line.err != nil {
				return fmt.Errorf("read command: %w", line.err)
			}
			if interactive {
				fmt.Fprintln(c.out)
			}
			c.OneCmd(ctx, "EOF")
			return nil
		}
		if c.OneCmd(ctx, c.PreCmd(line.text)) {
			return nil
		}
	}
}

type scanned struct {
	text string
	eof  bool
	err  error
}

// readLines scans in on its own goroutine, one line per receive, so the
// loop can observe cancellation between reads.
func (c *Console) readLines(in io.Reader, done <-chan struct{}) <-chan scanned {
	lines := make(chan scanned)
	go func() {
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		for {
			var line scanned
			if scanner.Scan() {
				line.text = scanner.Text()
			} else {
				line.eof, line.err = true, scanner.Err()
			}
			select {
			case lines <- line:
			case <-done:
				return
			}
			if line.eof {
				return
			}
		}
	}()
	return lines
}

// PreCmd rewrites "Class.command(args)" into "command Class args". A
// dictionary argument to update is kept whole; other arguments are
// separated by commas.
func (c *Console) PreCmd(line string) string {
	match := dotCall.FindStringSubmatch(line)
	if match == nil {
		return line
	}
	class, name, args := match[1], match[2], strings.TrimSpace(match[3])
	parts := []string{name, class}
	if name == "update" {
		if id, rest, ok := strings.Cut(args, ","); ok && strings.HasPrefix(strings.TrimSpace(rest), "{") {
			parts = append(parts, strings.TrimSpace(id), strings.TrimSpace(rest))
			return strings.Join(parts, " ")
		}
	}
	for _, arg := range splitCommas(args) {
		if arg = strings.TrimSpace(arg); arg != "" {
			parts = append(parts, arg)
		}
	}
	return strings.Join(parts, " ")
}

// OneCmd executes one command line and reports whether the loop should stop.
func (c *Console) OneCmd(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	name, args, _ := strings.Cut(line, " ")
	cmd, ok := c.commands[name]
	if !ok {
		c.unknownSyntax(line)
		return false
	}
	return cmd(c, ctx, strings.TrimSpace(args))
}

func (c *Console) interactive(in io.Reader) bool {
	if c.prompt != nil {
		return *c.prompt
	}
	f, ok := in.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
