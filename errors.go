package sage

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCategory tells callers whether a failed backend call is worth
// repeating.
type ErrorCategory string

const (
	// ErrorTransient covers rate limits, overload and 5xx responses.
	ErrorTransient ErrorCategory = "transient"

	// ErrorPermanent covers bad credentials, missing permissions and
	// anything unclassified.
	ErrorPermanent ErrorCategory = "permanent"

	// ErrorUserInput covers requests the backend rejected as malformed:
	// unknown model, oversized context, invalid parameters.
	ErrorUserInput ErrorCategory = "user_input"
)

// CategorizedError is implemented by errors that know their category.
// The retry package consults it before falling back to heuristics.
type CategorizedError interface {
	error
	Category() ErrorCategory
	Retryable() bool
	StatusCode() int           // HTTP status, 0 if none
	RetryAfter() time.Duration // server-suggested delay, 0 if none
}

// Error is the categorized error produced by the provider adapters.
type Error struct {
	Msg        string
	Cat        ErrorCategory
	Code       int
	RetryDelay time.Duration
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Cause)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Cause }
func (e *Error) Category() ErrorCategory { return e.Cat }
func (e *Error) Retryable() bool { return e.Cat == ErrorTransient }
func (e *Error) StatusCode() int { return e.Code }
func (e *Error) RetryAfter() time.Duration { return e.RetryDelay }

// NewTransientError creates a retryable error.
func NewTransientError(msg string, statusCode int, cause error) *Error {
	return &Error{Msg: msg, Cat: ErrorTransient, Code: statusCode, Cause: cause}
}

// NewTransientErrorWithRetry creates a retryable error carrying the delay
// the server asked for.
func NewTransientErrorWithRetry(msg string, statusCode int, retryAfter time.Duration, cause error) *Error {
	return &Error{Msg: msg, Cat: ErrorTransient, Code: statusCode, RetryDelay: retryAfter, Cause: cause}
}

// NewPermanentError creates an error that must not be retried.
func NewPermanentError(msg string, statusCode int, cause error) *Error {
	return &Error{Msg: msg, Cat: ErrorPermanent, Code: statusCode, Cause: cause}
}

// NewUserInputError creates an error for a request the backend rejected.
func NewUserInputError(msg string, statusCode int, cause error) *Error {
	return &Error{Msg: msg, Cat: ErrorUserInput, Code: statusCode, Cause: cause}
}

// CategoryOf returns the category of the first CategorizedError in err's
// chain, or "" if there is none.
func CategoryOf(err error) ErrorCategory {
	if ce := categorized(err); ce != nil {
		return ce.Category()
	}
	return ""
}

func categorized(err error) CategorizedError {
	var ce CategorizedError
	if errors.As(err, &ce) {
		return ce
	}
	return nil
}

// IsTransient reports whether err is categorized as transient.
func IsTransient(err error) bool { return CategoryOf(err) == ErrorTransient }

// IsPermanent reports whether err is categorized as permanent.
func IsPermanent(err error) bool { return CategoryOf(err) == ErrorPermanent }

// IsUserInput reports whether err is categorized as a rejected request.
func IsUserInput(err error) bool { return CategoryOf(err) == ErrorUserInput }

// StatusCodeOf returns the HTTP status carried by err, or 0.
func StatusCodeOf(err error) int {
	if ce := categorized(err); ce != nil {
		return ce.StatusCode()
	}
	return 0
}

// RetryAfterOf returns the server-suggested retry delay carried by err, or 0.
func RetryAfterOf(err error) time.Duration {
	if ce := categorized(err); ce != nil {
		return ce.RetryAfter()
	}
	return 0
}

// ErrBackendUnavailable is matched by every error produced when the model
// backend could not deliver an assistant turn.
var ErrBackendUnavailable = errors.New("model backend unavailable")

// BackendError reports a failed model invocation. It matches
// ErrBackendUnavailable with errors.Is and exposes the categorized cause.
type BackendError struct {
	Provider Provider
	Model    string
	Err      error
}

// Error returns a formatted error message including provider and model.
func (e *BackendError) Error() string {
	if e.Model != "" {
		return fmt.Sprintf("%s: %s/%s: %v", ErrBackendUnavailable, e.Provider, e.Model, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", ErrBackendUnavailable, e.Provider, e.Err)
}

// Unwrap returns the underlying error.
func (e *BackendError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrBackendUnavailable.
func (e *BackendError) Is(target error) bool {
	return target == ErrBackendUnavailable
}
