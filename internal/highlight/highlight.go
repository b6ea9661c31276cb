package highlight

import (
	"bytes"
	"io"
	"sync"

	"braces.dev/errtrace"
	chroma "github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
)

// Highlighter turns source text into HTML.
type Highlighter struct {
	// Style used for syntax highlighting of code.
	// Defaults to PlainStyle.
	Style *chroma.Style

	// UseClasses specifies whether the highlighter
	// uses inline 'style' attributes for highlighting,
	// or classes, assuming use of an appropriate style sheet.
	UseClasses bool

	once      sync.Once
	style     *chroma.Style
	formatter *chromahtml.Formatter
}

func (h *Highlighter) init() {
	h.once.Do(func() {
		h.style = h.Style
		if h.style == nil {
			h.style = PlainStyle
		}
		h.formatter = chromahtml.New(
			chromahtml.PreventSurroundingPre(true),
			chromahtml.WithClasses(h.UseClasses),
		)
	})
}

// WriteCSS writes the style classes for this highlighter to writer.
// If this highlighter is not using classes, WriteCSS is a no-op.
func (h *Highlighter) WriteCSS(w io.Writer) error {
	h.init()

	if !h.UseClasses {
		return nil
	}

	return errtrace.Wrap(h.formatter.WriteCSS(w, h.style))
}

// Highlight renders text written in the given language into HTML.
//
// lang is a Chroma lexer name, alias, or file extension
// (e.g. "go", "Go", "golang", or "main.go").
// Returns an error matching [ErrUnknownLanguage]
// if no lexer is known for lang.
func (h *Highlighter) Highlight(lang, text string) (string, error) {
	lexer, err := LexerFor(lang)
	if err != nil {
		return "", errtrace.Wrap(err)
	}

	tokens, err := lexer.Lex(text)
	if err != nil {
		return "", errtrace.Wrap(err)
	}

	return errtrace.Wrap2(h.format(tokens))
}

func (h *Highlighter) format(tokens []chroma.Token) (string, error) {
	h.init()

	var buf bytes.Buffer
	if err := h.formatter.Format(&buf, h.style, chroma.Literator(tokens...)); err != nil {
		return "", errtrace.Wrap(err)
	}
	return buf.String(), nil
}
