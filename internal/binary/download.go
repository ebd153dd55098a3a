package binary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/Enterprise-CMCS/mac-fc-scan-github-action/internal/logger"
	"github.com/Enterprise-CMCS/mac-fc-scan-github-action/internal/version"
)

const (
	// DefaultRetries is the default number of download retries
	DefaultRetries = 0
	// maxRedirects bounds redirects followed per request
	maxRedirects = 10
)

// Downloader handles HTTP downloads
type Downloader struct {
	client    *http.Client
	userAgent string
	retries   int
	backoff   time.Duration
}

// DownloaderOption configures a Downloader
type DownloaderOption func(*Downloader)

// WithRetries sets how many times a failed download is retried
func WithRetries(n int) DownloaderOption {
	return func(d *Downloader) {
		if n >= 0 {
			d.retries = n
		}
	}
}

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(c *http.Client) DownloaderOption {
	return func(d *Downloader) {
		if c != nil {
			d.client = c
		}
	}
}

// WithBackoff sets the delay before the first retry; later retries double it
func WithBackoff(b time.Duration) DownloaderOption {
	return func(d *Downloader) {
		d.backoff = b
	}
}

// NewDownloader creates a new downloader
func NewDownloader(opts ...DownloaderOption) *Downloader {
	d := &Downloader{
		client: &http.Client{
			// No client timeout; the caller's context governs cancellation.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		userAgent: version.UserAgent(),
		retries:   DefaultRetries,
		backoff:   time.Second,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DownloadToFile downloads a URL to a specific file path.
// Nothing is left at destPath unless the whole body was written.
func (d *Downloader) DownloadToFile(ctx context.Context, url, destPath string) error {
	var lastErr error

	for attempt := 0; attempt <= d.retries; attempt++ {
		// Check context before each attempt
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if attempt > 0 {
			// Exponential backoff
			wait := d.backoff * time.Duration(1<<uint(attempt-1))
			logger.Debugf(ctx, "retrying download of %s in %s (attempt %d)", url, wait, attempt+1)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := d.downloadOnce(ctx, url, destPath)
		if err == nil {
			return nil
		}

		lastErr = err

		// Don't retry on context cancellation or client errors
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var se *StatusError
		if errors.As(err, &se) && se.StatusCode >= 400 && se.StatusCode < 500 {
			return err
		}
	}

	if d.retries == 0 {
		return lastErr
	}
	return fmt.Errorf("download failed after %d retries: %w", d.retries, lastErr)
}

// downloadOnce performs a single download attempt
func (d *Downloader) downloadOnce(ctx context.Context, url, destPath string) error {
	// Create request
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", d.userAgent)
	req.Header.Set("Accept", "application/octet-stream")

	// Execute request
	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	// Check status code
	if resp.StatusCode != http.StatusOK {
		return &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	// Create destination directory
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}

	// Create temporary file
	tmpPath := destPath + ".tmp"
	tmpFile, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	cleanupNeeded := true
	defer func() {
		tmpFile.Close()
		if cleanupNeeded {
			os.Remove(tmpPath)
		}
	}()

	if _, err := io.Copy(tmpFile, resp.Body); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(destPath), err)
	}

	// Close before rename so every byte is on disk
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	cleanupNeeded = false
	return nil
}
