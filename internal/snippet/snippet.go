// Package snippet renders external source snippets into HTML documents.
//
// A snippet reference is an element (<code> by default)
// with a src attribute naming a text file to display,
// and an optional lang attribute naming its language:
//
//	<code src="example/main.go" lang="go"></code>
//
// [Renderer.Run] finds all such elements in a document,
// labels each one with a caption showing its source path,
// and replaces its contents with the fetched (and highlighted) text.
package snippet

import (
	"context"
	"io"
	"log"
	"strings"
	"sync"

	"braces.dev/errtrace"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/sync/errgroup"
)

// DefaultSelector matches elements that may be snippet references.
const DefaultSelector = "code"

// Fetcher retrieves the text of a snippet source.
type Fetcher interface {
	Fetch(ctx context.Context, src string) (string, error)
}

// Highlighter renders text in a language into HTML markup.
type Highlighter interface {
	Highlight(lang, text string) (string, error)
}

// Sanitizer cleans up untrusted HTML markup.
type Sanitizer interface {
	Sanitize(string) string
}

// Reference is a snippet reference found in a document.
type Reference struct {
	// Node is the element that will hold the rendered snippet.
	Node *html.Node

	// Caption is the label inserted right before Node.
	Caption *html.Node

	Src  string // value of the src attribute
	Lang string // value of the lang attribute, if any
}

// Result is the outcome of rendering a single reference.
type Result struct {
	Reference *Reference

	// Err is non-nil if the snippet could not be rendered.
	// The contents of the reference's node are unchanged in that case.
	Err error
}

// Renderer renders snippet references in HTML documents.
type Renderer struct {
	// Fetcher retrieves snippet sources. Required.
	Fetcher Fetcher

	// Highlighter highlights snippets that specify a lang.
	// If unset, all snippets are inserted as-is.
	Highlighter Highlighter

	// Sanitizer, if set, cleans up rendered content
	// before it is inserted into the document.
	//
	// Without a sanitizer, fetched text is inserted as HTML.
	Sanitizer Sanitizer

	// Selector is a CSS selector for candidate elements.
	// Defaults to DefaultSelector.
	Selector string

	// Jobs is the maximum number of snippets rendered at the same time.
	// Zero or negative means no limit.
	Jobs int

	// Log receives messages about snippets that failed to render.
	Log *log.Logger

	// DebugLog, if set, receives a message for every snippet found.
	DebugLog *log.Logger
}

var _discard = log.New(io.Discard, "", 0)

func (r *Renderer) logger() *log.Logger {
	if r.Log != nil {
		return r.Log
	}
	return _discard
}

func (r *Renderer) debugf(format string, args ...any) {
	if r.DebugLog != nil {
		r.DebugLog.Printf(format, args...)
	}
}

// Scan finds snippet references in the document, in document order,
// and inserts a caption before each one.
//
// Elements that match the selector but have no src, or an empty src,
// are skipped.
// Elements already preceded by their caption,
// such as those in a page that was rendered before,
// keep that caption instead of getting a second one.
func (r *Renderer) Scan(doc *html.Node) ([]*Reference, error) {
	selector := r.Selector
	if selector == "" {
		selector = DefaultSelector
	}
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, errtrace.Errorf("bad selector %q: %w", selector, err)
	}

	var refs []*Reference
	for _, n := range cascadia.QueryAll(doc, sel) {
		src := attr(n, "src")
		if src == "" || n.Parent == nil {
			continue
		}

		caption := n.PrevSibling
		if !isCaption(caption, src) {
			caption = newCaption(src)
			n.Parent.InsertBefore(caption, n)
		}

		lang := attr(n, "lang")
		r.debugf("found %q %v", lang, src)
		refs = append(refs, &Reference{
			Node:    n,
			Caption: caption,
			Src:     src,
			Lang:    lang,
		})
	}
	return refs, nil
}

// Run scans the document for snippet references
// and starts rendering each one in the background.
//
// Snippets render independently of each other:
// a failure in one does not affect the others.
// Use [Pending.Wait] to wait for all of them to finish
// before reading the document.
//
// If Jobs is set, Run may block until enough snippets finish
// to start the remaining ones.
func (r *Renderer) Run(ctx context.Context, doc *html.Node) (*Pending, error) {
	refs, err := r.Scan(doc)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}

	p := &Pending{results: make([]*Result, len(refs))}
	if r.Jobs > 0 {
		p.group.SetLimit(r.Jobs)
	}
	for i, ref := range refs {
		res := &Result{Reference: ref}
		p.results[i] = res
		p.group.Go(func() error {
			if err := r.render(ctx, &p.mu, ref); err != nil {
				r.logger().Printf("%v: %v", ref.Src, err)
				res.Err = err
			}
			// Failures stay with their own snippet.
			return nil
		})
	}
	return p, nil
}

// Render renders all snippet references in the document
// and waits for them to finish.
func (r *Renderer) Render(ctx context.Context, doc *html.Node) ([]*Result, error) {
	p, err := r.Run(ctx, doc)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	return p.Wait(), nil
}

func (r *Renderer) render(ctx context.Context, mu *sync.Mutex, ref *Reference) error {
	content, err := r.Fetcher.Fetch(ctx, ref.Src)
	if err != nil {
		return errtrace.Wrap(err)
	}

	if ref.Lang != "" && r.Highlighter != nil {
		content, err = r.Highlighter.Highlight(ref.Lang, content)
		if err != nil {
			return errtrace.Wrap(err)
		}
	}

	if r.Sanitizer != nil {
		content = r.Sanitizer.Sanitize(content)
	}

	// Other snippets may be nested inside this one, or vice versa.
	// Parsing reads the ancestors of the node, so hold the lock for both.
	mu.Lock()
	defer mu.Unlock()

	return errtrace.Wrap(setInnerHTML(ref.Node, content))
}

// Pending is a set of snippets being rendered.
type Pending struct {
	group   errgroup.Group
	mu      sync.Mutex // guards the document
	results []*Result
}

// Wait blocks until all snippets have finished rendering,
// and reports the outcome for each one in document order.
func (p *Pending) Wait() []*Result {
	_ = p.group.Wait() // tasks never fail the group
	return p.results
}

// Failed returns the results that have errors.
func Failed(results []*Result) []*Result {
	var failed []*Result
	for _, res := range results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

const _captionStyle = "text-align: center; display: block"

// newCaption builds a caption for a snippet:
//
//	<b style="text-align: center; display: block">src</b>
func newCaption(src string) *html.Node {
	caption := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.B,
		Data:     atom.B.String(),
		Attr: []html.Attribute{
			{Key: "style", Val: _captionStyle},
		},
	}
	caption.AppendChild(&html.Node{
		Type: html.TextNode,
		Data: src,
	})
	return caption
}

// isCaption reports whether n is a caption for src.
func isCaption(n *html.Node, src string) bool {
	if n == nil || n.Type != html.ElementNode || n.DataAtom != atom.B {
		return false
	}
	if attr(n, "style") != _captionStyle {
		return false
	}
	text := n.FirstChild
	return text != nil && text.NextSibling == nil &&
		text.Type == html.TextNode && text.Data == src
}

// setInnerHTML replaces the children of n
// with the result of parsing content as HTML inside n.
func setInnerHTML(n *html.Node, content string) error {
	nodes, err := html.ParseFragment(strings.NewReader(content), n)
	if err != nil {
		return errtrace.Wrap(err)
	}

	for c := n.FirstChild; c != nil; c = n.FirstChild {
		n.RemoveChild(c)
	}
	for _, c := range nodes {
		n.AppendChild(c)
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}
