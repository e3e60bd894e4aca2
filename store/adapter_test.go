package store

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adapters(t *testing.T) map[string]Adapter {
	t.Helper()
	sqlite, err := NewSQLiteAdapter(filepath.Join(t.TempDir(), "sage.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })

	return map[string]Adapter{
		"memory": NewMemoryAdapter(),
		"sqlite": sqlite,
	}
}

func TestAdapter_GetSet(t *testing.T) {
	ctx := context.Background()
	for name, adapter := range adapters(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, adapter.Set(ctx, "key1", json.RawMessage(`"value1"`)))

			raw, ok, err := adapter.Get(ctx, "key1")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.JSONEq(t, `"value1"`, string(raw))

			require.NoError(t, adapter.Set(ctx, "key1", json.RawMessage(`{"v":2}`)))
			raw, _, err = adapter.Get(ctx, "key1")
			require.NoError(t, err)
			assert.JSONEq(t, `{"v":2}`, string(raw))

			_, ok, err = adapter.Get(ctx, "nonexistent")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestAdapter_Delete(t *testing.T) {
	ctx := context.Background()
	for name, adapter := range adapters(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, adapter.Set(ctx, "key1", json.RawMessage(`1`)))
			require.NoError(t, adapter.Delete(ctx, "key1"))

			_, ok, err := adapter.Get(ctx, "key1")
			require.NoError(t, err)
			assert.False(t, ok)

			// Deleting a missing key is not an error.
			require.NoError(t, adapter.Delete(ctx, "nonexistent"))
		})
	}
}

func TestAdapter_Keys(t *testing.T) {
	ctx := context.Background()
	for name, adapter := range adapters(t) {
		t.Run(name, func(t *testing.T) {
			keys, err := adapter.Keys(ctx, "")
			require.NoError(t, err)
			assert.Empty(t, keys)

			for _, k := range []string{"thread:b", "other", "thread:a", "thread_x"} {
				require.NoError(t, adapter.Set(ctx, k, json.RawMessage(`true`)))
			}

			keys, err = adapter.Keys(ctx, "thread:")
			require.NoError(t, err)
			assert.Equal(t, []string{"thread:a", "thread:b"}, keys)

			keys, err = adapter.Keys(ctx, "")
			require.NoError(t, err)
			assert.Len(t, keys, 4)
		})
	}
}

func TestAdapter_Concurrent(t *testing.T) {
	ctx := context.Background()
	for name, adapter := range adapters(t) {
		t.Run(name, func(t *testing.T) {
			var wg sync.WaitGroup
			for i := range 20 {
				wg.Add(2)
				go func() {
					defer wg.Done()
					_ = adapter.Set(ctx, fmt.Sprintf("key%d", i%5), json.RawMessage(`"value"`))
				}()
				go func() {
					defer wg.Done()
					_, _, _ = adapter.Get(ctx, "key0")
				}()
			}
			wg.Wait()

			keys, err := adapter.Keys(ctx, "key")
			require.NoError(t, err)
			assert.Len(t, keys, 5)
		})
	}
}

func TestMemoryAdapter_CopiesValues(t *testing.T) {
	ctx := context.Background()
	adapter := NewMemoryAdapter()

	value := json.RawMessage(`"abc"`)
	require.NoError(t, adapter.Set(ctx, "k", value))
	value[1] = 'z'

	raw, _, err := adapter.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `"abc"`, string(raw))
}

func TestSQLiteAdapter_Persists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "persist.db")

	a, err := NewSQLiteAdapter(path)
	require.NoError(t, err)
	require.NoError(t, a.Set(ctx, "thread:1", json.RawMessage(`{"id":"1"}`)))
	require.NoError(t, a.Close())

	_, _, err = a.Get(ctx, "thread:1")
	assert.ErrorIs(t, err, ErrAdapterClosed)

	b, err := NewSQLiteAdapter(path)
	require.NoError(t, err)
	defer b.Close()

	raw, ok, err := b.Get(ctx, "thread:1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"id":"1"}`, string(raw))
}
