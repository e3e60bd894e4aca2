// Package apierr categorizes provider SDK failures by HTTP status so the
// retry layer can tell transient faults from permanent ones.
package apierr

import (
	"net/http"
	"strconv"
	"time"

	"github.com/spetersoncode/sage"
)

// Categorize determines the error category from an HTTP status code.
func Categorize(code int) sage.ErrorCategory {
	switch {
	case code == 429:
		return sage.ErrorTransient // Rate limited
	case code >= 500 && code < 600:
		return sage.ErrorTransient // Server error
	case code == 401 || code == 403:
		return sage.ErrorPermanent // Authentication/authorization
	case code == 400 || code == 404 || code == 413 || code == 422:
		return sage.ErrorUserInput // Bad request, unknown model, oversized context
	default:
		return sage.ErrorPermanent
	}
}

// New builds a categorized error for an API failure with the given status.
// A positive retryAfter always makes the error transient.
func New(msg string, code int, retryAfter time.Duration, cause error) *sage.Error {
	if retryAfter > 0 {
		return sage.NewTransientErrorWithRetry(msg, code, retryAfter, cause)
	}
	switch Categorize(code) {
	case sage.ErrorTransient:
		return sage.NewTransientError(msg, code, cause)
	case sage.ErrorUserInput:
		return sage.NewUserInputError(msg, code, cause)
	default:
		return sage.NewPermanentError(msg, code, cause)
	}
}

// RetryAfter extracts the Retry-After duration from an HTTP response.
// Returns 0 if the header is not present or cannot be parsed.
func RetryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}

	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(header); err == nil {
		return time.Duration(seconds) * time.Second
	}

	// HTTP-date form (RFC 7231)
	if t, err := http.ParseTime(header); err == nil {
		if delay := time.Until(t); delay > 0 {
			return delay
		}
	}

	return 0
}
