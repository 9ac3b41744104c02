package syncer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// Fingerprint identifies one published version of the source document.
type Fingerprint struct {
	ETag         string
	LastModified string
	ContentHash  string
}

// HasValidator reports whether the server sent an HTTP validator.
func (f *Fingerprint) HasValidator() bool {
	return f != nil && (f.ETag != "" || f.LastModified != "")
}

// Prober reads the current validators of the source without its body.
type Prober interface {
	Probe(ctx context.Context, url string) (*Fingerprint, error)
}

// Downloader streams the source into dest and returns the hex SHA-256 of
// the bytes written.
type Downloader interface {
	Download(ctx context.Context, url, dest string) (string, error)
}

// HTTPDownloader implements Prober and Downloader over plain HTTP.
type HTTPDownloader struct {
	Client *http.Client
}

var (
	_ Prober     = (*HTTPDownloader)(nil)
	_ Downloader = (*HTTPDownloader)(nil)
)

func NewHTTPDownloader(timeout time.Duration) *HTTPDownloader {
	return &HTTPDownloader{
		Client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Probe issues a HEAD request. Servers that refuse HEAD yield an empty
// fingerprint, which callers treat as changed.
func (d *HTTPDownloader) Probe(ctx context.Context, url string) (*Fingerprint, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := d.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HEAD %s: %w", url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusMethodNotAllowed || resp.StatusCode == http.StatusNotImplemented:
		return &Fingerprint{}, nil
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("HEAD %s: unexpected status %d", url, resp.StatusCode)
	}

	return &Fingerprint{
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
	}, nil
}

// Download writes the response body to dest while hashing it. dest is
// truncated first; a partial file is left for the caller to remove.
func (d *HTTPDownloader) Download(ctx context.Context, url, dest string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := d.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("GET %s: unexpected status %d", url, resp.StatusCode)
	}

	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dest, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(io.MultiWriter(f, h), resp.Body); err != nil {
		return "", fmt.Errorf("failed to read body: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", dest, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
