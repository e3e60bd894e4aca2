package store

import (
	"errors"
	"fmt"
)

var (
	// ErrThreadNotFound indicates the requested thread has never been written.
	ErrThreadNotFound = errors.New("store: thread not found")

	// ErrThreadBusy indicates another run holds the thread's lease.
	ErrThreadBusy = errors.New("store: thread busy")

	// ErrAdapterClosed indicates the adapter has been closed.
	ErrAdapterClosed = errors.New("store: adapter closed")

	// ErrSystemMessage indicates an attempt to append a system message.
	// Use EnsureSystemPrompt, which keeps a single system message per thread.
	ErrSystemMessage = errors.New("store: system messages are set with EnsureSystemPrompt")
)

// SerializationError wraps JSON marshaling/unmarshaling errors with context.
type SerializationError struct {
	Key string
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("store: serialization error for key %q: %v", e.Key, e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}
