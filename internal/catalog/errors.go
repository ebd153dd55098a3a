package catalog

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// ErrCatalogUnavailable is matched by every error ListReleases returns.
var ErrCatalogUnavailable = errors.New("release catalog unavailable")

// UnavailableError reports a failed release listing.
type UnavailableError struct {
	Owner string
	Repo  string
	Err   error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("list releases of %s/%s: %v", e.Owner, e.Repo, e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrCatalogUnavailable) succeed.
func (e *UnavailableError) Is(target error) bool {
	return target == ErrCatalogUnavailable
}

// StatusError reports a non-200 response from the API.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Sprintf("github api: %s (check the access token)", e.Status)
	case http.StatusNotFound:
		return fmt.Sprintf("github api: %s (repository missing or token lacks access)", e.Status)
	default:
		return fmt.Sprintf("github api: %s", e.Status)
	}
}

// RateLimitError indicates GitHub's API rate limit was hit.
type RateLimitError struct {
	StatusCode int
	Status     string
	Remaining  *int
	Reset      string
}

func (e *RateLimitError) Error() string {
	remainingText := "unknown"
	if e.Remaining != nil {
		remainingText = strconv.Itoa(*e.Remaining)
	}
	msg := fmt.Sprintf("github api rate limit exceeded (%s, remaining=%s", e.Status, remainingText)
	if e.Reset != "" {
		msg += ", reset=" + e.Reset
	}
	return msg + ")"
}

// IsRateLimitError reports whether err represents a GitHub API rate-limit condition.
func IsRateLimitError(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}

func rateLimitErrorFromResponse(resp *http.Response) *RateLimitError {
	if resp == nil {
		return nil
	}
	reset := strings.TrimSpace(resp.Header.Get("X-RateLimit-Reset"))
	if resp.StatusCode == http.StatusTooManyRequests {
		return &RateLimitError{StatusCode: resp.StatusCode, Status: resp.Status, Reset: reset}
	}
	// GitHub answers 403 on exhaustion; confirm with the rate-limit header.
	if resp.StatusCode == http.StatusForbidden {
		remaining, err := strconv.Atoi(strings.TrimSpace(resp.Header.Get("X-RateLimit-Remaining")))
		if err != nil {
			return nil
		}
		if remaining == 0 {
			return &RateLimitError{StatusCode: resp.StatusCode, Status: resp.Status, Remaining: &remaining, Reset: reset}
		}
	}
	return nil
}
