package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileNameForContentType(t *testing.T) {
	cases := map[string]string{
		"text/html; charset=utf-8":        "index.html",
		"application/json":                "data.json",
		"application/json; charset=utf-8": "data.json",
		"text/plain":                      "index.html",
		"image/png":                       "index.html",
		"":                                "index.html",
	}
	for contentType, want := range cases {
		assert.Equal(t, want, FileNameForContentType(contentType), contentType)
	}
}

func TestFetcherFetch(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/data":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"ok":true}`))
		case "/plain":
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write([]byte("just text"))
		case "/big":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(strings.Repeat("x", 64)))
		default:
			http.NotFound(w, r)
		}
	}))
	defer upstream.Close()

	fetcher := NewFetcher(5*time.Second, 32)

	page, err := fetcher.Fetch(context.Background(), upstream.URL+"/data")
	require.NoError(t, err)
	assert.Equal(t, "data.json", page.FileName)
	assert.Equal(t, `{"ok":true}`, string(page.Body))

	page, err = fetcher.Fetch(context.Background(), upstream.URL+"/plain")
	require.NoError(t, err)
	assert.Equal(t, "index.html", page.FileName)

	_, err = fetcher.Fetch(context.Background(), upstream.URL+"/missing")
	var upstreamErr *UpstreamFetchError
	require.True(t, errors.As(err, &upstreamErr))
	assert.Equal(t, http.StatusNotFound, upstreamErr.Status)
	assert.Equal(t, "Failed to fetch: Not Found", err.Error())

	_, err = fetcher.Fetch(context.Background(), upstream.URL+"/big")
	assert.Error(t, err)
}

func TestFetcherTimeout(t *testing.T) {
	release := make(chan struct{})
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer upstream.Close()
	defer close(release)

	fetcher := NewFetcher(50*time.Millisecond, 0)
	_, err := fetcher.Fetch(context.Background(), upstream.URL)
	assert.Error(t, err)
}
