package sage

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCategorizedErrors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		transient bool
		permanent bool
		userInput bool
		status    int
	}{
		{"transient", NewTransientError("rate limited", 429, nil), true, false, false, 429},
		{"permanent", NewPermanentError("bad key", 401, nil), false, true, false, 401},
		{"user input", NewUserInputError("bad request", 400, nil), false, false, true, 400},
		{"plain", errors.New("plain"), false, false, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("outer: %w", tt.err)
			assert.Equal(t, tt.transient, IsTransient(wrapped))
			assert.Equal(t, tt.permanent, IsPermanent(wrapped))
			assert.Equal(t, tt.userInput, IsUserInput(wrapped))
			assert.Equal(t, tt.status, StatusCodeOf(wrapped))
			if tt.status == 0 {
				assert.Empty(t, CategoryOf(wrapped))
			}
		})
	}

	t.Run("retry after is exposed", func(t *testing.T) {
		err := NewTransientErrorWithRetry("slow down", 429, 3*time.Second, nil)
		assert.Equal(t, 3*time.Second, RetryAfterOf(err))
		assert.True(t, err.Retryable())
	})

	t.Run("message includes cause", func(t *testing.T) {
		err := NewPermanentError("failed", 500, errors.New("boom"))
		assert.Equal(t, "failed: boom", err.Error())
	})
}

func TestBackendError(t *testing.T) {
	cause := NewTransientError("server error", 503, errors.New("upstream"))
	err := &BackendError{Provider: ProviderCerebras, Model: "llama-3.3-70b", Err: cause}

	assert.ErrorIs(t, err, ErrBackendUnavailable)
	assert.True(t, IsTransient(err))
	assert.Equal(t, 503, StatusCodeOf(err))
	assert.Contains(t, err.Error(), "cerebras/llama-3.3-70b")

	var be *BackendError
	assert.True(t, errors.As(fmt.Errorf("run: %w", err), &be))
	assert.Equal(t, ProviderCerebras, be.Provider)
}
