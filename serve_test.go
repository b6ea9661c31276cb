package main

import (
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.abhg.dev/fetchcode/internal/fetch"
	"go.abhg.dev/fetchcode/internal/highlight"
	"go.abhg.dev/fetchcode/internal/iotest"
	"go.abhg.dev/fetchcode/internal/snippet"
)

func TestServer(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	root := filepath.Join(dir, "site")
	writeFiles(t, dir, map[string]string{
		"site/index.html":      `<code src="a.txt"></code>`,
		"site/docs/page.html":  `<code src="../a.txt"></code><code src="../../secret.txt"></code>`,
		"site/docs/index.html": `<p>docs</p>`,
		"site/a.txt":           "A",
		"site/style.css":       "body {}",
		"secret.txt":           "hunter2",
	})

	logger := log.New(iotest.Writer(t), "", 0)
	srv := httptest.NewServer((&server{
		Root: root,
		Processor: &Processor{
			Log: logger,
			Renderer: &snippet.Renderer{
				Highlighter: new(highlight.Highlighter),
				Log:         logger,
			},
			Fetcher: new(fetch.Client),
		},
		Log: logger,
	}).Handler())
	t.Cleanup(srv.Close)

	tests := []struct {
		desc     string
		path     string
		wantCode int
		wantType string
		wantBody string
	}{
		{
			desc:     "index",
			path:     "/",
			wantCode: http.StatusOK,
			wantType: "text/html; charset=utf-8",
			wantBody: `<html><head></head><body>` +
				_caption + `a.txt</b><code src="a.txt">A</code>` +
				`</body></html>`,
		},
		{
			desc:     "page",
			path:     "/docs/page.html",
			wantCode: http.StatusOK,
			wantType: "text/html; charset=utf-8",
			wantBody: `<html><head></head><body>` +
				_caption + `../a.txt</b><code src="../a.txt">A</code>` +
				_caption + `../../secret.txt</b><code src="../../secret.txt"></code>` +
				`</body></html>`,
		},
		{
			desc:     "directory index",
			path:     "/docs/",
			wantCode: http.StatusOK,
			wantType: "text/html; charset=utf-8",
			wantBody: `<html><head></head><body><p>docs</p></body></html>`,
		},
		{
			desc:     "static file",
			path:     "/style.css",
			wantCode: http.StatusOK,
			wantType: "text/css; charset=utf-8",
			wantBody: "body {}",
		},
		{
			desc:     "not found",
			path:     "/nope.html",
			wantCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			t.Parallel()

			res, err := srv.Client().Get(srv.URL + tt.path)
			require.NoError(t, err)
			defer func() { _ = res.Body.Close() }()

			body, err := io.ReadAll(res.Body)
			require.NoError(t, err)

			assert.Equal(t, tt.wantCode, res.StatusCode)
			if tt.wantType != "" {
				assert.Equal(t, tt.wantType, res.Header.Get("Content-Type"))
			}
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, string(body))
			}
		})
	}
}

func TestServer_pagePath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"index.html":     "",
		"docs/page.HTM":  "",
		"docs/notes.txt": "",
	})
	s := &server{Root: dir}

	tests := []struct {
		give   string
		want   string
		wantOK bool
	}{
		{give: "/", want: "index.html", wantOK: true},
		{give: "/index.html", want: "index.html", wantOK: true},
		{give: "/docs/page.HTM", want: "docs/page.HTM", wantOK: true},
		{give: "/../index.html", want: "index.html", wantOK: true},
		{give: "/docs/", wantOK: false},
		{give: "/docs", wantOK: false},
		{give: "/docs/notes.txt", wantOK: false},
		{give: "/missing.html", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.give, func(t *testing.T) {
			t.Parallel()

			got, ok := s.pagePath(tt.give)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, filepath.Join(dir, filepath.FromSlash(tt.want)), got)
			}
		})
	}
}
