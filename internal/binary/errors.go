package binary

import (
	"errors"
	"fmt"
)

var (
	// ErrDownloadFailed is matched by every error Fetch returns.
	ErrDownloadFailed = errors.New("download failed")
	// ErrVerificationFailed is matched when the downloaded asset failed verification.
	ErrVerificationFailed = errors.New("verification failed")
)

// DownloadError reports an asset that could not be obtained.
type DownloadError struct {
	Asset string
	URL   string
	Err   error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download %s from %s: %v", e.Asset, e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrDownloadFailed) succeed.
func (e *DownloadError) Is(target error) bool {
	return target == ErrDownloadFailed
}

// StatusError reports a non-200 download response.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %s", e.Status)
}
