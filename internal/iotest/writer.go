// Package iotest provides IO helpers for tests.
package iotest

import (
	"bytes"
	"io"
	"testing"

	"go.abhg.dev/fetchcode/internal/linebuf"
)

// Writer builds an io.Writer that writes to the given testing.TB,
// one t.Logf call per line.
// Partial lines are flushed when the test finishes.
func Writer(t testing.TB) io.Writer {
	w, done := linebuf.Writer(func(line []byte) {
		t.Logf("%s", bytes.TrimSuffix(line, []byte{'\n'}))
	})
	t.Cleanup(done)
	return w
}
