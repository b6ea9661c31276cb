package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"go.abhg.dev/fetchcode/internal/errdefer"
	"go.abhg.dev/fetchcode/internal/fetch"
	"go.abhg.dev/fetchcode/internal/snippet"
	"golang.org/x/net/html"
)

// Processor renders snippets in HTML pages.
//
// In terms of code organization,
// Processor's purpose is to add a separation between main
// and the program's core logic to aid in testability.
type Processor struct {
	Log      *log.Logger
	Renderer *snippet.Renderer
	Fetcher  *fetch.Client

	// Base, if set, overrides the location
	// against which snippet sources are resolved.
	Base *url.URL
}

// Process reads an HTML page from r, renders its snippets,
// and writes the result to w.
// Snippet sources are resolved against base unless p.Base is set.
//
// Snippets that fail to render are logged and left unchanged.
// They do not cause Process to fail.
func (p *Processor) Process(ctx context.Context, w io.Writer, r io.Reader, base *url.URL) error {
	doc, err := html.Parse(r)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	if _, err := p.render(ctx, doc, base); err != nil {
		return err
	}

	if err := html.Render(w, doc); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}

// render renders snippets in doc and reports how many were found.
func (p *Processor) render(ctx context.Context, doc *html.Node, base *url.URL) (int, error) {
	if p.Base != nil {
		base = p.Base
	}

	renderer := *p.Renderer
	renderer.Fetcher = p.Fetcher.WithBase(base)
	results, err := renderer.Render(ctx, doc)
	if err != nil {
		return 0, err
	}
	if failed := snippet.Failed(results); len(failed) > 0 {
		p.Log.Printf("%v of %v snippets failed to render", len(failed), len(results))
	}
	return len(results), nil
}

// ProcessStdin processes a page read from standard input.
// Snippets are resolved relative to the working directory.
func (p *Processor) ProcessStdin(ctx context.Context, w io.Writer, r io.Reader) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	base, err := dirURL(cwd)
	if err != nil {
		return err
	}
	return p.Process(ctx, w, r, base)
}

// ProcessFileTo processes the page at path and writes it to w.
func (p *Processor) ProcessFileTo(ctx context.Context, w io.Writer, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	base, err := fetch.FileURL(path)
	if err != nil {
		return err
	}

	p.Log.Printf("Rendering %v", path)
	if err := p.Process(ctx, w, bytes.NewReader(src), base); err != nil {
		return fmt.Errorf("%v: %w", path, err)
	}
	return nil
}

// ProcessFiles processes each page in paths,
// writing each one to the path returned by output.
// The output path may be the same as the input.
func (p *Processor) ProcessFiles(ctx context.Context, paths []string, output func(string) string) error {
	for _, path := range paths {
		if err := p.processFile(ctx, path, output(path)); err != nil {
			return err
		}
	}
	return nil
}

// processFile renders the page at path into dest.
//
// Pages without snippets are copied as-is
// instead of going through the HTML serializer,
// and are not rewritten at all if dest is the same file.
func (p *Processor) processFile(ctx context.Context, path, dest string) (err error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	doc, err := html.Parse(bytes.NewReader(src))
	if err != nil {
		return fmt.Errorf("%v: parse: %w", path, err)
	}

	base, err := fetch.FileURL(path)
	if err != nil {
		return err
	}

	p.Log.Printf("Rendering %v", path)
	n, err := p.render(ctx, doc, base)
	if err != nil {
		return fmt.Errorf("%v: %w", path, err)
	}

	// Render to memory first so that in-place rewrites
	// don't clobber the input before it's been read.
	out := src
	if n > 0 {
		var buf bytes.Buffer
		if err := html.Render(&buf, doc); err != nil {
			return fmt.Errorf("%v: render: %w", path, err)
		}
		out = buf.Bytes()
	} else if samePath(path, dest) {
		p.Log.Printf("No snippets in %v: leaving it unchanged", path)
		return nil
	}

	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer errdefer.Close(&err, f)

	_, err = f.Write(out)
	return err
}

func samePath(a, b string) bool {
	if filepath.Clean(a) == filepath.Clean(b) {
		return true
	}
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}

// outputIn places output files in dir, keeping their base names.
func outputIn(dir string) func(string) string {
	return func(path string) string {
		return filepath.Join(dir, filepath.Base(path))
	}
}

// parseBase parses the value of -base.
// URLs with a scheme are used as-is.
// Anything else is a local path;
// directories are resolved with a trailing slash
// so that sources are looked up inside them.
func parseBase(s string) (*url.URL, error) {
	if u, err := url.Parse(s); err == nil && len(u.Scheme) > 1 {
		return u, nil
	}

	if info, err := os.Stat(s); err == nil && info.IsDir() {
		return dirURL(s)
	}
	return fetch.FileURL(s)
}

func dirURL(dir string) (*url.URL, error) {
	u, err := fetch.FileURL(dir)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u, nil
}
