// SPDX-License-Identifier: MPL-2.0

package plugin

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// maxDownloadBytes caps a plugin download (512MB).
const maxDownloadBytes = 512 << 20

var (
	// ErrChecksumMismatch indicates the downloaded content does not match the expected hash.
	ErrChecksumMismatch = errors.New("checksum mismatch")
	// ErrDownloadTooLarge indicates the response body exceeded the download limit.
	ErrDownloadTooLarge = errors.New("download too large")
)

type (
	// Fetcher downloads a URL to a local path.
	Fetcher struct {
		client    *http.Client
		userAgent string
		maxBytes  int64
	}

	// FetchOption configures a Fetcher.
	FetchOption func(*Fetcher)

	// ChecksumError provides details about a checksum verification failure.
	ChecksumError struct {
		URL      string
		Expected string
		Got      string
	}
)

// Error implements the error interface.
func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum verification failed for %s\nExpected: %s\nGot:      %s", e.URL, e.Expected, e.Got)
}

// Unwrap returns ErrChecksumMismatch so callers can use errors.Is.
func (e *ChecksumError) Unwrap() error { return ErrChecksumMismatch }

// NewFetcher creates a Fetcher using http.DefaultClient.
func NewFetcher(opts ...FetchOption) *Fetcher {
	f := &Fetcher{
		client:    http.DefaultClient,
		userAgent: "stackgraph",
		maxBytes:  maxDownloadBytes,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// WithHTTPClient sets the client used for downloads.
func WithHTTPClient(c *http.Client) FetchOption {
	return func(f *Fetcher) {
		f.client = c
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) FetchOption {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// Fetch downloads rawURL to dest. dest is only replaced once the whole body was
// received; when sha256Hex is not empty the content must hash to it.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, dest, sha256Hex string) (err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("downloading %s: %w", redactURL(rawURL), err)
	}
	defer func() { _ = resp.Body.Close() }() // read-only HTTP response body

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("downloading %s: unexpected status %d", redactURL(rawURL), resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("creating destination directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".stackgraph-download-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer func() {
		if err != nil {
			// Best-effort removal of a partial download.
			_ = os.Remove(tmp.Name())
		}
	}()

	h := sha256.New()
	n, copyErr := io.Copy(io.MultiWriter(tmp, h), io.LimitReader(resp.Body, f.maxBytes+1))
	closeErr := tmp.Close()
	if copyErr != nil {
		return fmt.Errorf("writing %s: %w", dest, copyErr)
	}
	if closeErr != nil {
		return fmt.Errorf("writing %s: %w", dest, closeErr)
	}
	if n > f.maxBytes {
		return fmt.Errorf("downloading %s: %w (limit %d bytes)", redactURL(rawURL), ErrDownloadTooLarge, f.maxBytes)
	}

	if sha256Hex != "" {
		got := hex.EncodeToString(h.Sum(nil))
		if !strings.EqualFold(got, sha256Hex) {
			return &ChecksumError{URL: redactURL(rawURL), Expected: strings.ToLower(sha256Hex), Got: got}
		}
	}

	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("moving download into place: %w", err)
	}
	return nil
}

// redactURL drops credentials and query parameters from rawURL for messages.
func redactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid url>"
	}
	u.User = nil
	u.RawQuery = ""
	return u.String()
}
