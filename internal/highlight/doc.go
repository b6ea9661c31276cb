// Package highlight turns source text into syntax highlighted HTML.
// It uses the Chroma library to do this work.
//
// The output of [Highlighter.Highlight] is a sequence of spans
// meant to be placed inside an existing code element.
// It is not wrapped in a <pre> block.
package highlight
