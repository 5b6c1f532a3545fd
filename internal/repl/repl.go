// Package repl implements the interactive mathparser shell.
package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"

	"github.com/zephyrtronium/mathparser"
)

// ErrQuit is returned by Exec when the line asks the shell to exit.
var ErrQuit = errors.New("quit")

const helpMessage = `Enter an expression to evaluate it.

  x = expr         set x to the current value of expr
  x := expr        make x an alias of expr, following later changes
  f(a, b) = expr   define a function of a and b
  $x               show the definition of x
  $f(a, b)         show the definition of f with two arguments

Commands:
  :help    print this message
  :vars    list variables
  :funcs   list functions
  :quit    exit`

// Shell executes lines of input against a context.
type Shell struct {
	ctx *mathparser.Context
	log *slog.Logger
}

// New creates a shell that works in ctx.
func New(ctx *mathparser.Context, log *slog.Logger) *Shell {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Shell{ctx: ctx, log: log}
}

// Context returns the context of the shell.
func (s *Shell) Context() *mathparser.Context {
	return s.ctx
}

// Exec executes one line and returns the text to show for it.
func (s *Shell) Exec(line string) (string, error) {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return "", nil
	case strings.HasPrefix(line, ":") && !strings.HasPrefix(line, ":="):
		s.log.Debug("command", slog.String("line", line))
		return s.command(line)
	case strings.HasPrefix(line, "$"):
		s.log.Debug("show", slog.String("line", line))
		return s.show(strings.TrimSpace(line[1:]))
	}
	if name, rhs, ok := strings.Cut(line, ":="); ok {
		s.log.Debug("alias", slog.String("line", line))
		return s.alias(strings.TrimSpace(name), rhs)
	}
	if name, params, body, ok := mathparser.SplitDefinition(line); ok {
		s.log.Debug("define", slog.String("line", line))
		fn, err := s.ctx.Define(name, params, body)
		if err != nil {
			return "", err
		}
		return fn.String(), nil
	}
	if name, rhs, ok := strings.Cut(line, "="); ok {
		s.log.Debug("assign", slog.String("line", line))
		return s.assign(strings.TrimSpace(name), rhs)
	}
	s.log.Debug("eval", slog.String("line", line))
	r, err := s.eval(line)
	if err != nil {
		return "", err
	}
	return r.String(), nil
}

func (s *Shell) eval(text string) (mathparser.Number, error) {
	n, err := s.ctx.Parse(text)
	if err != nil {
		return mathparser.Undefined, err
	}
	return s.ctx.Eval(n)
}

func (s *Shell) assign(name, rhs string) (string, error) {
	if !mathparser.IsName(name) {
		return "", fmt.Errorf("can't assign to %q", name)
	}
	r, err := s.eval(rhs)
	if err != nil {
		return "", err
	}
	s.ctx.Set(name, r)
	return r.String(), nil
}

func (s *Shell) alias(name, rhs string) (string, error) {
	if !mathparser.IsName(name) {
		return "", fmt.Errorf("can't assign to %q", name)
	}
	n, err := s.ctx.Parse(rhs)
	if err != nil {
		return "", err
	}
	old := s.ctx.Link(name)
	s.ctx.SetLink(name, n)
	r, err := s.ctx.Eval(s.ctx.Var(name))
	if err != nil {
		// Keep the old definition rather than leave a cycle behind.
		s.ctx.SetLink(name, old)
		return "", err
	}
	return r.String(), nil
}

func (s *Shell) show(text string) (string, error) {
	if mathparser.IsCallShaped(text) {
		k := mathparser.CallKey(text)
		fn, ok := s.ctx.Func(k.Name, k.Arity)
		if !ok {
			return "", &mathparser.UnknownFunctionError{Name: k.Name, Arity: k.Arity}
		}
		return describe(fn), nil
	}
	if _, ok := s.ctx.Lookup(text); !ok {
		return "", fmt.Errorf("no variable %q", text)
	}
	return text + " := " + nodeString(s.ctx.Link(text)), nil
}

func (s *Shell) command(line string) (string, error) {
	switch cmd := strings.ToLower(strings.TrimSpace(line[1:])); cmd {
	case "help", "h", "?":
		return helpMessage, nil
	case "vars":
		return strings.TrimSuffix(s.ctx.String(), "\n"), nil
	case "funcs":
		var b strings.Builder
		for i, k := range s.ctx.Funcs() {
			if i > 0 {
				b.WriteByte('\n')
			}
			fn, _ := s.ctx.Func(k.Name, k.Arity)
			b.WriteString(describe(fn))
		}
		return b.String(), nil
	case "quit", "q", "exit":
		return "", ErrQuit
	default:
		return "", fmt.Errorf("unknown command %q; try :help", cmd)
	}
}

// describe renders a function's definition.
func describe(fn mathparser.Functional) string {
	if s, ok := fn.(fmt.Stringer); ok {
		return s.String()
	}
	return fn.Name() + "(" + strings.Join(fn.ArgumentNames(), ", ") + ")"
}

func nodeString(n *mathparser.Node) string {
	if n == nil {
		return "null"
	}
	return n.String()
}

// printer writes styled shell output.
type printer struct {
	w io.Writer

	result     lipgloss.Style
	err        lipgloss.Style
	hint       lipgloss.Style
	suggestion lipgloss.Style
}

func newPrinter(w io.Writer) *printer {
	r := lipgloss.NewRenderer(w)
	return &printer{
		w:          w,
		result:     r.NewStyle().Foreground(lipgloss.Color("2")),
		err:        r.NewStyle().Foreground(lipgloss.Color("1")),
		hint:       r.NewStyle().Foreground(lipgloss.Color("8")),
		suggestion: r.NewStyle().Foreground(lipgloss.Color("4")),
	}
}

// step executes a line and prints its result. It returns ErrQuit when the
// shell should stop.
func (s *Shell) step(p *printer, line string) error {
	r, err := s.Exec(line)
	switch {
	case errors.Is(err, ErrQuit):
		return err
	case err != nil:
		fmt.Fprintln(p.w, p.err.Render("error: "+err.Error()))
		var u *mathparser.UnknownFunctionError
		if errors.As(err, &u) {
			if sug := s.Suggest(u.Name); len(sug) != 0 {
				fmt.Fprintln(p.w, p.hint.Render("did you mean:"), p.suggestion.Render(strings.Join(sug, ", ")))
			}
		}
	case r != "":
		for _, l := range strings.Split(r, "\n") {
			fmt.Fprintln(p.w, p.result.Render(l))
		}
	}
	return nil
}

// Script executes each line read from r, writing results and errors to w.
// It stops at the end of r or at a :quit command.
func (s *Shell) Script(ctx context.Context, r io.Reader, w io.Writer) error {
	p := newPrinter(w)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.step(p, sc.Text()); err != nil {
			return nil
		}
	}
	return sc.Err()
}

// Run runs the interactive shell on the terminal until the user quits. If
// history is not empty, it names a file from which to read and to which to
// save the line history.
func (s *Shell) Run(ctx context.Context, prompt, history string) error {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	ln.SetTabCompletionStyle(liner.TabPrints)
	ln.SetCompleter(s.Complete)

	if history != "" {
		if f, err := os.Open(history); err == nil {
			if _, err := ln.ReadHistory(f); err != nil {
				s.log.Warn("couldn't read history", slog.String("path", history), slog.Any("error", err))
			}
			f.Close()
		}
		defer func() {
			f, err := os.Create(history)
			if err != nil {
				s.log.Warn("couldn't save history", slog.String("path", history), slog.Any("error", err))
				return
			}
			defer f.Close()
			if _, err := ln.WriteHistory(f); err != nil {
				s.log.Warn("couldn't save history", slog.String("path", history), slog.Any("error", err))
			}
		}()
	}

	p := newPrinter(os.Stdout)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			fmt.Println()
			return nil
		}
		if err != nil {
			return fmt.Errorf("couldn't read input: %w", err)
		}
		if strings.TrimSpace(line) != "" {
			ln.AppendHistory(line)
		}
		if err := s.step(p, line); err != nil {
			return nil
		}
	}
}
