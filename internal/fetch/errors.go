package fetch

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// SourceUnavailableError marks a genuine transport failure: every retry
// against a source was exhausted on rate limiting, server errors, or
// network-level faults. Orchestrators treat it the same as an empty
// result (degrade, don't abort).
type SourceUnavailableError struct {
	Source string
	Status int   // last HTTP status, 0 when the failure was network-level
	Err    error // last underlying error, nil when only statuses were seen
}

func (e *SourceUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("source %s unavailable: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("source %s unavailable: last status %d", e.Source, e.Status)
}

func (e *SourceUnavailableError) Unwrap() error {
	return e.Err
}

// IsSourceUnavailable reports whether err carries a SourceUnavailableError.
func IsSourceUnavailable(err error) bool {
	var target *SourceUnavailableError
	return errors.As(err, &target)
}

// StatusError is a non-retryable HTTP status (anything other than 2xx,
// 429, and 5xx). Callers interpret it as "source unavailable for this
// query", not as a transient fault.
type StatusError struct {
	Source string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("source %s: http status %d", e.Source, e.Status)
}

// retryable reports whether an attempt error is worth another attempt:
// network-level faults and timeouts are, context cancellation is not.
func retryable(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	lower := strings.ToLower(err.Error())
	for _, token := range transientMessageTokens {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}

var transientMessageTokens = []string{
	"timeout",
	"timed out",
	"deadline exceeded",
	"temporar",
	"unavailable",
	"connection reset",
	"connection refused",
	"broken pipe",
	"econnreset",
	"econnrefused",
	"no such host",
	"server closed idle connection",
	"eof",
}
