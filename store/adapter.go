package store

import (
	"context"
	"encoding/json"
)

// Adapter is the persistence backend under Conversations: a flat map from
// string keys to JSON documents. Set replaces a document in one step, so a
// reader never sees half a thread. Implementations must be safe for
// concurrent use.
type Adapter interface {
	// Get returns the document at key; found is false if there is none.
	Get(ctx context.Context, key string) (value json.RawMessage, found bool, err error)

	// Set stores value at key, replacing any previous document.
	Set(ctx context.Context, key string, value json.RawMessage) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys returns the keys starting with prefix, in ascending order.
	Keys(ctx context.Context, prefix string) ([]string, error)
}
