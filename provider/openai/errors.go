package openai

import (
	"errors"

	"github.com/openai/openai-go"

	"github.com/spetersoncode/sage/internal/apierr"
)

// wrapError categorizes an OpenAI SDK error by status code and Retry-After.
// Errors without a status (network failures) are returned as-is and left to
// the retry heuristics.
func wrapError(err error) error {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	return apierr.New(err.Error(), apiErr.StatusCode, apierr.RetryAfter(apiErr.Response), err)
}
