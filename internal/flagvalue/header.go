package flagvalue

import (
	"flag"
	"net/http"
	"strings"

	"braces.dev/errtrace"
)

// Header is a flag value holding a single HTTP header
// in the form "Name: value".
type Header struct {
	Name  string
	Value string
}

var _ flag.Getter = (*Header)(nil)

// Get returns the header.
func (h *Header) Get() any { return *h }

// String returns the header in the form "Name: value".
func (h *Header) String() string {
	if h.Name == "" {
		return ""
	}
	return h.Name + ": " + h.Value
}

// Set parses a header in the form "Name: value".
func (h *Header) Set(s string) error {
	name, value, ok := strings.Cut(s, ":")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return errtrace.Errorf("expected form 'Name: value', got %q", s)
	}

	h.Name = http.CanonicalHeaderKey(name)
	h.Value = strings.TrimSpace(value)
	return nil
}

// HTTPHeader collects a list of headers into an [http.Header].
// It returns nil if the list is empty.
func HTTPHeader(hs []Header) http.Header {
	if len(hs) == 0 {
		return nil
	}

	out := make(http.Header, len(hs))
	for _, h := range hs {
		out.Add(h.Name, h.Value)
	}
	return out
}
