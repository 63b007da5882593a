package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Fetcher downloads the single page behind a URL deployment.
type Fetcher struct {
	Client   *http.Client
	MaxBytes int64
}

func NewFetcher(timeout time.Duration, maxBytes int64) *Fetcher {
	return &Fetcher{
		Client:   &http.Client{Timeout: timeout},
		MaxBytes: maxBytes,
	}
}

type FetchedPage struct {
	FileName string
	Body     []byte
}

// FileNameForContentType maps a response content type to the stored file
// name. Only JSON is kept apart; everything else becomes the home page.
func FileNameForContentType(contentType string) string {
	switch {
	case strings.Contains(contentType, "text/html"):
		return DefaultIndexFile
	case strings.Contains(contentType, "application/json"):
		return "data.json"
	default:
		return DefaultIndexFile
	}
}

func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (FetchedPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return FetchedPage{}, err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return FetchedPage{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return FetchedPage{}, &UpstreamFetchError{Status: resp.StatusCode, StatusText: http.StatusText(resp.StatusCode)}
	}

	reader := io.Reader(resp.Body)
	if f.MaxBytes > 0 {
		reader = io.LimitReader(resp.Body, f.MaxBytes+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return FetchedPage{}, WrapError(err, "read response")
	}
	if f.MaxBytes > 0 && int64(len(body)) > f.MaxBytes {
		return FetchedPage{}, fmt.Errorf("response exceeds %d bytes", f.MaxBytes)
	}

	return FetchedPage{
		FileName: FileNameForContentType(resp.Header.Get("Content-Type")),
		Body:     body,
	}, nil
}
