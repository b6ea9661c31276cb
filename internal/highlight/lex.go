package highlight

import (
	"errors"
	"strings"

	"braces.dev/errtrace"
	chroma "github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
)

// ErrUnknownLanguage indicates that there's no lexer
// for the requested language.
var ErrUnknownLanguage = errors.New("unknown language")

// Lexer analyzes source code and generates a stream of tokens.
type Lexer interface {
	Lex(src string) ([]chroma.Token, error)
}

// LexerFor looks up a lexer for the given language.
// The language may be a lexer name, one of its aliases,
// or a file name matched against the lexer's file patterns.
func LexerFor(lang string) (Lexer, error) {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return nil, errtrace.Wrap(ErrUnknownLanguage)
	}

	l := lexers.Get(lang)
	if l == nil {
		return nil, errtrace.Errorf("%q: %w", lang, ErrUnknownLanguage)
	}
	return &chromaLexer{l: chroma.Coalesce(l)}, nil
}

// chromaLexer builds a [Lexer] from a Chroma lexer.
type chromaLexer struct{ l chroma.Lexer }

// Lex lexically analyzes the given source code using Chroma.
func (cl *chromaLexer) Lex(src string) ([]chroma.Token, error) {
	return errtrace.Wrap2(chroma.Tokenise(cl.l, nil, src))
}
