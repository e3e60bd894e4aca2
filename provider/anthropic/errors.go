package anthropic

import (
	"errors"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/spetersoncode/sage/internal/apierr"
)

// wrapError categorizes an Anthropic SDK error by status code and
// Retry-After. Errors without a status are returned as-is.
func wrapError(err error) error {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	return apierr.New(err.Error(), apiErr.StatusCode, apierr.RetryAfter(apiErr.Response), err)
}
