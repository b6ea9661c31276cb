package main

import (
	"bytes"
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.abhg.dev/fetchcode/internal/fetch"
)

// server serves a directory of HTML pages,
// rendering snippets in each page as it's requested.
type server struct {
	Addr      string
	Root      string
	Processor *Processor
	Log       *log.Logger
}

// ListenAndServe serves until ctx is canceled.
func (s *server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.Log.Printf("Serving %v on http://%v", s.Root, ln.Addr())
	if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Handler builds the HTTP handler for the server.
func (s *server) Handler() http.Handler {
	// Pages may only pull snippets from inside the served directory.
	proc := *s.Processor
	fetcher := *proc.Fetcher
	fetcher.Root = s.Root
	proc.Fetcher = &fetcher

	r := chi.NewRouter()
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  s.Log,
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)
	r.Use(middleware.GetHead)

	files := http.FileServer(http.Dir(s.Root))
	r.Get("/*", func(w http.ResponseWriter, req *http.Request) {
		page, ok := s.pagePath(req.URL.Path)
		if !ok {
			files.ServeHTTP(w, req)
			return
		}
		s.servePage(&proc, w, req, page)
	})
	return r
}

// pagePath reports the file for the HTML page at urlPath, if any.
func (s *server) pagePath(urlPath string) (string, bool) {
	clean := path.Clean("/" + urlPath)
	name := filepath.Join(s.Root, filepath.FromSlash(clean))
	if strings.HasSuffix(urlPath, "/") {
		name = filepath.Join(name, "index.html")
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".html", ".htm":
	default:
		return "", false
	}

	info, err := os.Stat(name)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return name, true
}

func (s *server) servePage(proc *Processor, w http.ResponseWriter, req *http.Request, name string) {
	src, err := os.ReadFile(name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	base, err := fetch.FileURL(name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := proc.Process(req.Context(), &buf, bytes.NewReader(src), base); err != nil {
		s.Log.Printf("%v: %v", name, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
