package runner

import (
	"fmt"
	"strings"
)

const redactedMarker = "***"

// RedactedError wraps an error with a message that has secrets removed
// while preserving the error chain for errors.Is/errors.As checks.
type RedactedError struct {
	message string
	wrapped error
}

// Error returns the redacted error message.
func (e *RedactedError) Error() string {
	return e.message
}

// Unwrap returns the wrapped error, preserving the error chain.
func (e *RedactedError) Unwrap() error {
	return e.wrapped
}

// NewRedactedError returns err with every secret removed from its message.
// It returns nil for a nil error and err itself when nothing needed redaction.
func NewRedactedError(err error, secrets ...string) error {
	if err == nil {
		return nil
	}

	msg := err.Error()
	redacted := Redact(msg, secrets...)
	if redacted == msg {
		return err
	}

	return &RedactedError{message: redacted, wrapped: err}
}

// Redact replaces every occurrence of the non-empty secrets in msg.
func Redact(msg string, secrets ...string) string {
	for _, s := range secrets {
		if s == "" {
			continue
		}
		msg = strings.ReplaceAll(msg, s, redactedMarker)
	}
	return msg
}

// EnvPair formats a KEY=VALUE environment entry.
func EnvPair(key, value string) string {
	return fmt.Sprintf("%s=%s", key, value)
}
