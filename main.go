// fetchcode renders snippet references in HTML pages.
//
// A snippet reference is an element with a src attribute,
// like <code src="main.go" lang="go"></code>.
// fetchcode fetches the referenced file, highlights it,
// and places it inside the element under a caption.
//
// See 'fetchcode -help' for usage.
package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/microcosm-cc/bluemonday"
	"go.abhg.dev/fetchcode/internal/errdefer"
	"go.abhg.dev/fetchcode/internal/fetch"
	"go.abhg.dev/fetchcode/internal/flagvalue"
	"go.abhg.dev/fetchcode/internal/highlight"
	"go.abhg.dev/fetchcode/internal/snippet"
)

func main() {
	cmd := mainCmd{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
	os.Exit(cmd.Run(os.Args[1:]))
}

// mainCmd is the actual entry point to the program.
type mainCmd struct {
	Stdin  io.Reader // == os.Stdin
	Stdout io.Writer // == os.Stdout
	Stderr io.Writer // == os.Stderr

	log *log.Logger
}

func (cmd *mainCmd) Run(args []string) (exitCode int) {
	cmd.log = log.New(cmd.Stderr, "", 0)

	opts, err := (&cliParser{
		Stdout: cmd.Stdout,
		Stderr: cmd.Stderr,
	}).Parse(args)
	if err != nil {
		// '$cmd -h' should exit with zero.
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		// No need to print anything.
		// Parse prints messages.
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cmd.run(ctx, opts); err != nil {
		cmd.log.Printf("fetchcode: %v", err)
		return 1
	}
	return 0
}

func (cmd *mainCmd) run(ctx context.Context, opts *params) (err error) {
	debugw, err := opts.Debug.Create(cmd.Stderr)
	if err != nil {
		return err
	}
	defer errdefer.Close(&err, debugw)
	debugLog := log.New(debugw, "", 0)

	style, err := highlight.LookupStyle(opts.Style)
	if err != nil {
		return err
	}
	highlighter := &highlight.Highlighter{
		Style:      style,
		UseClasses: opts.Classes,
	}
	if opts.CSS != "" {
		if err := writeCSS(opts.CSS, highlighter); err != nil {
			return err
		}
	}

	renderer := &snippet.Renderer{
		Highlighter: highlighter,
		Selector:    opts.Selector,
		Jobs:        opts.Jobs,
		Log:         cmd.log,
		DebugLog:    debugLog,
	}
	if opts.Sanitize {
		renderer.Sanitizer = newSanitizer()
	}

	client := &fetch.Client{
		Header:  flagvalue.HTTPHeader(opts.Headers),
		Timeout: opts.Timeout,
		Log:     debugLog,
	}

	proc := Processor{
		Log:      debugLog,
		Renderer: renderer,
		Fetcher:  client,
	}

	if opts.Serve != "" {
		dir := "."
		if len(opts.Files) > 0 {
			dir = opts.Files[0]
		}
		return (&server{
			Addr:      opts.Serve,
			Root:      dir,
			Processor: &proc,
			Log:       cmd.log,
		}).ListenAndServe(ctx)
	}

	if opts.Base != "" {
		proc.Base, err = parseBase(opts.Base)
		if err != nil {
			return err
		}
	}

	switch {
	case opts.readsStdin():
		return proc.ProcessStdin(ctx, cmd.Stdout, cmd.Stdin)
	case opts.Write:
		return proc.ProcessFiles(ctx, opts.Files, func(name string) string { return name })
	case opts.OutDir != "":
		if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
			return err
		}
		return proc.ProcessFiles(ctx, opts.Files, outputIn(opts.OutDir))
	default:
		return proc.ProcessFileTo(ctx, cmd.Stdout, opts.Files[0])
	}
}

func writeCSS(path string, h *highlight.Highlighter) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer errdefer.Close(&err, f)

	return h.WriteCSS(f)
}

// newSanitizer builds a policy that keeps common formatting
// along with the markup produced by the highlighter.
func newSanitizer() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("span")
	policy.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("span")
	policy.AllowStyles(
		"color", "background-color",
		"font-weight", "font-style", "text-decoration",
	).OnElements("span")
	return policy
}
