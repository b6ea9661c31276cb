// Package fetch retrieves the text of snippet sources
// over HTTP or from the local filesystem.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"braces.dev/errtrace"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrOutsideRoot is returned when a file source
// resolves to a path outside of [Client.Root].
var ErrOutsideRoot = errors.New("path is outside the root directory")

// StatusError is returned when an HTTP source
// responds with a non-2xx status.
type StatusError struct {
	URL    string
	Status string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %v: %v", e.URL, e.Status)
}

// Client fetches snippet sources.
//
// Sources are resolved relative to Base.
// http and https URLs are requested with GET,
// and file URLs are read from disk.
type Client struct {
	// HTTP is the client used for http and https sources.
	// Defaults to http.DefaultClient.
	HTTP *http.Client

	// Header holds additional headers sent with every HTTP request.
	Header http.Header

	// Base is the URL against which relative sources are resolved.
	// If unset, sources must be absolute URLs or absolute paths.
	Base *url.URL

	// Root, if set, is the only directory from which
	// file sources may be read.
	Root string

	// Timeout bounds each fetch.
	// Zero means no timeout.
	Timeout time.Duration

	// Log receives debug messages.
	Log *log.Logger
}

// WithBase returns a copy of this client that resolves sources
// relative to the given base URL.
func (c *Client) WithBase(base *url.URL) *Client {
	out := *c
	out.Base = base
	return &out
}

// FileURL builds a file URL for the given local path.
// Relative paths are made absolute against the working directory.
func FileURL(path string) (*url.URL, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	abs = filepath.ToSlash(abs)
	if !strings.HasPrefix(abs, "/") {
		// Windows paths like C:/foo.
		abs = "/" + abs
	}
	return &url.URL{Scheme: "file", Path: abs}, nil
}

// Resolve resolves src against the client's base URL.
func (c *Client) Resolve(src string) (*url.URL, error) {
	ref, err := url.Parse(src)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	if c.Base != nil {
		ref = c.Base.ResolveReference(ref)
	}
	return ref, nil
}

// Fetch retrieves the text at src, decoded to UTF-8.
func (c *Client) Fetch(ctx context.Context, src string) (string, error) {
	u, err := c.Resolve(src)
	if err != nil {
		return "", errtrace.Wrap(err)
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	c.logf("Fetching %v", u)
	switch u.Scheme {
	case "http", "https":
		return errtrace.Wrap2(c.fetchHTTP(ctx, u))
	case "file", "":
		return errtrace.Wrap2(c.fetchFile(ctx, u))
	default:
		return "", errtrace.Errorf("%v: unsupported scheme %q", u, u.Scheme)
	}
}

func (c *Client) fetchHTTP(ctx context.Context, u *url.URL) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", errtrace.Wrap(err)
	}
	for k, vs := range c.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}

	res, err := client.Do(req)
	if err != nil {
		return "", errtrace.Wrap(err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return "", errtrace.Wrap(&StatusError{
			URL:    u.String(),
			Status: res.Status,
			Code:   res.StatusCode,
		})
	}

	return errtrace.Wrap2(decode(res.Body, res.Header.Get("Content-Type")))
}

func (c *Client) fetchFile(ctx context.Context, u *url.URL) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", errtrace.Wrap(err)
	}

	path := u.Path
	if len(path) >= 3 && path[0] == '/' && path[2] == ':' {
		// file:///C:/foo
		path = path[1:]
	}
	path = filepath.FromSlash(path)
	if u.Scheme == "" && !filepath.IsAbs(path) {
		// Relative path without a base.
		// Resolve against the working directory.
		var err error
		path, err = filepath.Abs(path)
		if err != nil {
			return "", errtrace.Wrap(err)
		}
	}

	if c.Root != "" {
		var err error
		path, err = c.confine(path)
		if err != nil {
			return "", errtrace.Wrap(err)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return "", errtrace.Wrap(err)
	}
	defer func() { _ = f.Close() }()

	return errtrace.Wrap2(decode(f, ""))
}

// confine resolves symbolic links in path
// and verifies that the result is inside c.Root.
// It returns the resolved path.
func (c *Client) confine(path string) (string, error) {
	root, err := filepath.Abs(c.Root)
	if err != nil {
		return "", errtrace.Wrap(err)
	}
	root, err = filepath.EvalSymlinks(root)
	if err != nil {
		return "", errtrace.Wrap(err)
	}

	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", errtrace.Wrap(err)
	}

	rel, err := filepath.Rel(root, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errtrace.Errorf("%v: %w", path, ErrOutsideRoot)
	}
	return resolved, nil
}

// decode reads r to completion and converts it to UTF-8.
//
// The charset parameter of contentType picks the encoding,
// defaulting to UTF-8. A byte order mark takes precedence.
func decode(r io.Reader, contentType string) (string, error) {
	var enc encoding.Encoding = unicode.UTF8
	if _, params, err := mime.ParseMediaType(contentType); err == nil {
		if name := params["charset"]; name != "" {
			if e, err := htmlindex.Get(name); err == nil {
				enc = e
			}
		}
	}

	r = transform.NewReader(r, unicode.BOMOverride(enc.NewDecoder()))
	body, err := io.ReadAll(r)
	if err != nil {
		return "", errtrace.Wrap(err)
	}
	return string(body), nil
}

func (c *Client) logf(format string, args ...any) {
	if c.Log != nil {
		c.Log.Printf(format, args...)
	}
}
