package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/zephyrtronium/mathparser"
	"github.com/zephyrtronium/mathparser/internal/config"
	"github.com/zephyrtronium/mathparser/internal/logging"
	"github.com/zephyrtronium/mathparser/internal/repl"
)

// CLI is the command line interface of mathparser.
type CLI struct {
	Config    string `help:"Configuration file." placeholder:"FILE" default:"${config}"`
	Prec      uint   `help:"Precision in bits of arbitrary-precision functions." short:"p" default:"64"`
	MaxDepth  int    `help:"Maximum depth of nested function calls." default:"256"`
	LogLevel  string `help:"Log level: debug, info, warn, or error." default:"warn"`
	LogFormat string `help:"Log format: text or json." default:"text"`

	Repl   Repl   `cmd:"" default:"1" help:"Start the interactive shell."`
	Eval   Eval   `cmd:"" help:"Evaluate expressions."`
	Script Script `cmd:"" help:"Execute shell lines from a file."`
}

// run parses args and runs the selected command.
func run(ctx context.Context, exit func(int), stdin io.Reader, stdout, stderr io.Writer, args ...string) error {
	var cli CLI
	path := configPath(args)
	parser, err := kong.New(&cli,
		kong.Name("mathparser"),
		kong.Description("Parse and evaluate algebraic expressions."),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.Writers(stdout, stderr),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true, Summary: true}),
		kong.Configuration(config.Loader, path),
		kong.Vars{
			"config":  path,
			"history": config.DefaultHistory(),
		},
	)
	if err != nil {
		return err
	}
	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	log := logging.New(stderr,
		logging.WithLevel(logging.ParseLevel(cli.LogLevel)),
		logging.WithFormat(logging.ParseFormat(cli.LogFormat)),
		logging.WithPretty(true),
	)
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}
	// Flags already hold file values unless given on the command line.
	cfg.Prec = cli.Prec
	cfg.MaxDepth = cli.MaxDepth
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("bad configuration: %w", err)
	}
	mctx, err := cfg.NewContext(log)
	if err != nil {
		return err
	}
	log.Debug("start", slog.String("command", ktx.Command()), slog.String("config", cli.Config))

	ktx.BindTo(ctx, (*context.Context)(nil))
	ktx.BindTo(stdin, (*io.Reader)(nil))
	ktx.BindTo(stdout, (*io.Writer)(nil))
	return ktx.Run(mctx, log)
}

// configPath finds the configuration file named on the command line before
// flags are parsed, so that the file can supply flag defaults.
func configPath(args []string) string {
	for i, a := range args {
		if a == "--" {
			break
		}
		if v, ok := strings.CutPrefix(a, "--config="); ok {
			return v
		}
		if a == "--config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return config.DefaultPath()
}

// Repl starts the interactive shell.
type Repl struct {
	Prompt  string `help:"Shell prompt." default:"> "`
	History string `help:"History file. Empty disables history." default:"${history}"`
}

// Run runs the shell.
func (r *Repl) Run(ctx context.Context, mctx *mathparser.Context, log *slog.Logger) error {
	return repl.New(mctx, log).Run(ctx, r.Prompt, r.History)
}

// Script executes shell lines from a file.
type Script struct {
	File string `arg:"" optional:"" help:"Script file, or - for stdin." default:"-"`
}

// Run executes the script.
func (s *Script) Run(ctx context.Context, mctx *mathparser.Context, log *slog.Logger, stdin io.Reader, stdout io.Writer) error {
	in := stdin
	if s.File != "-" {
		f, err := os.Open(s.File)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	return repl.New(mctx, log).Script(ctx, in, stdout)
}

// Eval evaluates expressions given as arguments or read one per line.
type Eval struct {
	Exprs []string `arg:"" optional:"" sep:"none" help:"Expressions to evaluate. With none, each line of the input is one."`
	In    string   `help:"Input file, or - for stdin. Read after any expression arguments." short:"i"`
	Fmt   string   `help:"Result formatting verb." default:"%g"`
	Given []string `sep:"none" help:"name=value variable definition (any number of times)." placeholder:"NAME=VALUE"`
	Echo  bool     `help:"Print parse trees."`
}

// Run evaluates the expressions.
func (e *Eval) Run(ctx context.Context, mctx *mathparser.Context, log *slog.Logger, stdin io.Reader, stdout io.Writer) error {
	for _, g := range e.Given {
		name, val, ok := strings.Cut(g, "=")
		name = strings.TrimSpace(name)
		if !ok || !mathparser.IsName(name) {
			return fmt.Errorf(`variable definitions must be "name=value", not %q`, g)
		}
		n, err := mctx.Parse(val)
		if err != nil {
			return fmt.Errorf("setting %s: %w", name, err)
		}
		r, err := mctx.Eval(n)
		if err != nil {
			return fmt.Errorf("setting %s: %w", name, err)
		}
		mctx.Set(name, r)
	}

	src := e.Exprs
	if e.In != "" || len(src) == 0 {
		in := stdin
		if e.In != "" && e.In != "-" {
			f, err := os.Open(e.In)
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			if line := strings.TrimSpace(sc.Text()); line != "" {
				src = append(src, line)
			}
		}
		if err := sc.Err(); err != nil {
			return fmt.Errorf("couldn't read input: %w", err)
		}
	}

	verb := e.Fmt + "\n"
	for _, s := range src {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := mctx.Parse(s)
		if err != nil {
			return err
		}
		if e.Echo {
			fmt.Fprintf(stdout, "%v : ", n)
		}
		r, err := mctx.Eval(n)
		if err != nil {
			log.Warn("evaluation failed", slog.String("expr", s), slog.Any("error", err))
			fmt.Fprintln(stdout, err)
			continue
		}
		x, ok := r.Float64()
		if !ok {
			fmt.Fprintln(stdout, r)
			continue
		}
		fmt.Fprintf(stdout, verb, x)
	}
	return nil
}
