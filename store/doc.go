// Package store persists conversation threads.
//
// A thread is one independently ordered message log keyed by an opaque id.
// Conversations keeps each thread as a single JSON record in an Adapter;
// MemoryAdapter is the default and SQLiteAdapter survives restarts:
//
//	adapter, err := store.NewSQLiteAdapter("sage.db")
//	if err != nil {
//	    return err
//	}
//	defer adapter.Close()
//	convs := store.NewConversations(adapter)
//
// Append is the only primitive that grows a thread. Runs take the thread's
// lease with Acquire (wait) or TryAcquire (fail fast with ErrThreadBusy) so
// two runs never interleave their messages.
package store
