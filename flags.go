package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/peterbourgon/ff/v3"
	"go.abhg.dev/fetchcode/internal/flagvalue"
	"go.abhg.dev/fetchcode/internal/snippet"
)

var (
	errHelp             = flag.ErrHelp
	errInvalidArguments = errors.New("invalid arguments")
)

// _envPrefix is the prefix for environment variables
// that may be used in place of flags.
const _envPrefix = "FETCHCODE"

// params holds all arguments for fetchcode.
type params struct {
	version bool
	help    Help

	Config string
	Debug  flagvalue.FileSwitch

	// Output:
	Write  bool
	OutDir string

	// Snippets:
	Base     string
	Selector string
	Sanitize bool
	Jobs     int
	Timeout  time.Duration
	Headers  []flagvalue.Header

	// Highlighting:
	Style   string
	Classes bool
	CSS     string

	Serve string

	Files []string
}

// cliParser parses the command line arguments for fetchcode.
type cliParser struct {
	Stdout io.Writer
	Stderr io.Writer
}

func (cmd *cliParser) newFlagSet() (*params, *flag.FlagSet) {
	flag := flag.NewFlagSet("fetchcode", flag.ContinueOnError)
	flag.SetOutput(cmd.Stderr)
	flag.Usage = func() {
		DefaultHelp.Write(cmd.Stderr)
	}

	var p params

	// Output:
	flag.BoolVar(&p.Write, "w", false, "")
	flag.StringVar(&p.OutDir, "out", "", "")

	// Snippets:
	flag.StringVar(&p.Base, "base", "", "")
	flag.StringVar(&p.Selector, "select", snippet.DefaultSelector, "")
	flag.BoolVar(&p.Sanitize, "sanitize", false, "")
	flag.IntVar(&p.Jobs, "jobs", 0, "")
	flag.DurationVar(&p.Timeout, "timeout", 0, "")
	flag.Var(flagvalue.ListOf(&p.Headers), "header", "")

	// Highlighting:
	flag.StringVar(&p.Style, "style", "plain", "")
	flag.BoolVar(&p.Classes, "classes", false, "")
	flag.StringVar(&p.CSS, "css", "", "")

	// Preview server:
	flag.StringVar(&p.Serve, "serve", "", "")

	// Program-level:
	flag.StringVar(&p.Config, "config", "", "")
	flag.Var(&p.Debug, "debug", "")
	flag.BoolVar(&p.version, "version", false, "")
	flag.Var(&p.help, "help", "")
	flag.Var(&p.help, "h", "")

	return &p, flag
}

func (cmd *cliParser) Parse(args []string) (*params, error) {
	p, flag := cmd.newFlagSet()
	err := ff.Parse(flag, args,
		ff.WithEnvVarPrefix(_envPrefix),
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(yamlConfigParser),
	)
	if err != nil {
		if !errors.Is(err, errHelp) {
			fmt.Fprintln(cmd.Stderr, err)
		}
		return nil, err
	}
	args = flag.Args()

	if p.version {
		fmt.Fprintln(cmd.Stdout, "fetchcode", _version)
		return nil, errHelp
	}

	if p.help == DefaultHelp && len(args) > 0 {
		// The user might have done "-h foo"
		// instead of "-h=foo".
		// If the argument is a known help topic,
		// take it.
		var h Help
		if err := h.Set(args[0]); err == nil {
			p.help = h
		}
	}

	switch p.help {
	case NoHelp:
		// proceed as usual
	default:
		if err := p.help.Write(cmd.Stderr); err != nil {
			fmt.Fprintln(cmd.Stderr, err)
		}
		return nil, errHelp
	}

	p.Files = args
	if err := p.validate(); err != nil {
		fmt.Fprintln(cmd.Stderr, err)
		UsageHelp.Write(cmd.Stderr)
		return nil, errInvalidArguments
	}

	return p, nil
}

func (p *params) validate() error {
	if p.Serve != "" {
		switch {
		case len(p.Files) > 1:
			return errors.New("-serve accepts at most one directory")
		case p.Write || p.OutDir != "":
			return errors.New("-serve cannot be used with -w or -out")
		}
		return nil
	}

	if p.Write && p.OutDir != "" {
		return errors.New("-w and -out cannot be used together")
	}

	if p.Write && p.readsStdin() {
		return errors.New("-w requires at least one file")
	}

	if len(p.Files) > 1 && !p.Write && p.OutDir == "" {
		return errors.New("multiple files require -w or -out")
	}

	return nil
}

// readsStdin reports whether input comes from stdin.
func (p *params) readsStdin() bool {
	return len(p.Files) == 0 || (len(p.Files) == 1 && p.Files[0] == "-")
}
