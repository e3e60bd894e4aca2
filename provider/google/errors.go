package google

import (
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/spetersoncode/sage/internal/apierr"
)

// BlockedError indicates the prompt was blocked by content filtering.
type BlockedError struct {
	Reason string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("google: request blocked: %s", e.Reason)
}

// wrapError categorizes a GenAI error by status code. genai.APIError does
// not expose response headers, so Retry-After is never available.
func wrapError(err error) error {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	return apierr.New(err.Error(), apiErr.Code, 0, err)
}
