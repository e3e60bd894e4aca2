package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spetersoncode/sage"
)

const threadKeyPrefix = "thread:"

// ErrInvalidThreadID is returned for an empty thread identifier.
var ErrInvalidThreadID = errors.New("store: thread id is required")

// Thread is the persisted record of one conversation.
type Thread struct {
	ID       string               `json:"id"`
	Messages []sage.Message       `json:"messages"`
	Routing  *sage.ProviderConfig `json:"routing,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Option configures Conversations.
type Option func(*Conversations)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Conversations) {
		if l != nil {
			c.log = l
		}
	}
}

// Conversations stores per-thread message histories on top of an Adapter.
//
// Every mutation rewrites the whole thread record with a single Adapter.Set,
// so a message is either fully persisted or not at all. Mutations on the same
// thread are serialized; different threads never share a lock.
type Conversations struct {
	adapter Adapter
	log     *slog.Logger

	mu      sync.Mutex
	threads map[string]*threadLock
}

type threadLock struct {
	mu    sync.Mutex    // guards read-modify-write of the record
	lease chan struct{} // run lease, capacity 1
}

// NewConversations creates a conversation store. A nil adapter selects a
// MemoryAdapter.
func NewConversations(adapter Adapter, opts ...Option) *Conversations {
	if adapter == nil {
		adapter = NewMemoryAdapter()
	}
	c := &Conversations{
		adapter: adapter,
		log:     slog.New(slog.DiscardHandler),
		threads: make(map[string]*threadLock),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Adapter returns the underlying persistence backend.
func (c *Conversations) Adapter() Adapter {
	return c.adapter
}

func (c *Conversations) lock(threadID string) *threadLock {
	c.mu.Lock()
	defer c.mu.Unlock()
	tl, ok := c.threads[threadID]
	if !ok {
		tl = &threadLock{lease: make(chan struct{}, 1)}
		c.threads[threadID] = tl
	}
	return tl
}

// Load returns a copy of the thread's messages in conversation order.
// An unknown thread yields an empty slice.
func (c *Conversations) Load(ctx context.Context, threadID string) ([]sage.Message, error) {
	if threadID == "" {
		return nil, ErrInvalidThreadID
	}
	tl := c.lock(threadID)
	tl.mu.Lock()
	defer tl.mu.Unlock()

	rec, _, err := c.read(ctx, threadID)
	if err != nil {
		return nil, err
	}
	return sage.CloneMessages(rec.Messages), nil
}

// Append adds exactly one message to the end of the thread. System
// messages are rejected with ErrSystemMessage.
func (c *Conversations) Append(ctx context.Context, threadID string, msg sage.Message) error {
	if threadID == "" {
		return ErrInvalidThreadID
	}
	if !msg.Role.Valid() {
		return fmt.Errorf("store: invalid message role %q", msg.Role)
	}
	if msg.Role == sage.RoleSystem {
		return ErrSystemMessage
	}
	if msg.ID == "" {
		msg.ID = sage.GenerateMessageID()
	}

	return c.update(ctx, threadID, func(rec *Thread) bool {
		rec.Messages = append(rec.Messages, msg.Clone())
		return true
	})
}

// EnsureSystemPrompt installs prompt as the thread's single system message.
// An empty thread gets it inserted; a leading system message is replaced in
// place; otherwise it is inserted at index 0. Repeated calls with the same
// prompt leave the thread unchanged.
func (c *Conversations) EnsureSystemPrompt(ctx context.Context, threadID, prompt string) error {
	if threadID == "" {
		return ErrInvalidThreadID
	}

	return c.update(ctx, threadID, func(rec *Thread) bool {
		if len(rec.Messages) > 0 && rec.Messages[0].Role == sage.RoleSystem {
			if rec.Messages[0].Content == prompt {
				return false
			}
			rec.Messages[0].Content = prompt
			return true
		}
		rec.Messages = append([]sage.Message{sage.NewSystemMessage(prompt)}, rec.Messages...)
		return true
	})
}

// Routing returns the provider selected for the thread, if any.
func (c *Conversations) Routing(ctx context.Context, threadID string) (sage.ProviderConfig, bool, error) {
	if threadID == "" {
		return sage.ProviderConfig{}, false, ErrInvalidThreadID
	}
	tl := c.lock(threadID)
	tl.mu.Lock()
	defer tl.mu.Unlock()

	rec, _, err := c.read(ctx, threadID)
	if err != nil || rec.Routing == nil {
		return sage.ProviderConfig{}, false, err
	}
	return *rec.Routing, true, nil
}

// SetRouting records the provider selected for the thread. The API key is
// never persisted.
func (c *Conversations) SetRouting(ctx context.Context, threadID string, cfg sage.ProviderConfig) error {
	if threadID == "" {
		return ErrInvalidThreadID
	}
	cfg.APIKey = ""

	return c.update(ctx, threadID, func(rec *Thread) bool {
		if rec.Routing != nil && *rec.Routing == cfg {
			return false
		}
		rec.Routing = &cfg
		return true
	})
}

// Thread returns the full record of a thread.
func (c *Conversations) Thread(ctx context.Context, threadID string) (*Thread, error) {
	if threadID == "" {
		return nil, ErrInvalidThreadID
	}
	tl := c.lock(threadID)
	tl.mu.Lock()
	defer tl.mu.Unlock()

	rec, found, err := c.read(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrThreadNotFound, threadID)
	}
	rec.Messages = sage.CloneMessages(rec.Messages)
	return rec, nil
}

// Threads returns the ids of all persisted threads, sorted.
func (c *Conversations) Threads(ctx context.Context) ([]string, error) {
	keys, err := c.adapter.Keys(ctx, threadKeyPrefix)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		if id, ok := strings.CutPrefix(k, threadKeyPrefix); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Delete removes a thread. Deleting an unknown thread is not an error.
func (c *Conversations) Delete(ctx context.Context, threadID string) error {
	if threadID == "" {
		return ErrInvalidThreadID
	}
	tl := c.lock(threadID)
	tl.mu.Lock()
	defer tl.mu.Unlock()

	return c.adapter.Delete(ctx, threadKeyPrefix+threadID)
}

// Acquire takes the thread's run lease, blocking until it is free or ctx is
// done. The returned release func is safe to call more than once.
func (c *Conversations) Acquire(ctx context.Context, threadID string) (func(), error) {
	if threadID == "" {
		return nil, ErrInvalidThreadID
	}
	tl := c.lock(threadID)
	select {
	case tl.lease <- struct{}{}:
		return releaser(tl), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// TryAcquire takes the thread's run lease without waiting. It fails with
// ErrThreadBusy if another run holds it.
func (c *Conversations) TryAcquire(threadID string) (func(), error) {
	if threadID == "" {
		return nil, ErrInvalidThreadID
	}
	tl := c.lock(threadID)
	select {
	case tl.lease <- struct{}{}:
		return releaser(tl), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrThreadBusy, threadID)
	}
}

func releaser(tl *threadLock) func() {
	var once sync.Once
	return func() {
		once.Do(func() { <-tl.lease })
	}
}

// update applies fn to the thread record under the thread lock and persists
// it when fn reports a change.
func (c *Conversations) update(ctx context.Context, threadID string, fn func(*Thread) bool) error {
	tl := c.lock(threadID)
	tl.mu.Lock()
	defer tl.mu.Unlock()

	rec, _, err := c.read(ctx, threadID)
	if err != nil {
		return err
	}
	if !fn(rec) {
		return nil
	}
	rec.UpdatedAt = time.Now().UTC()
	if err := c.write(ctx, rec); err != nil {
		return err
	}
	c.log.Debug("thread updated", "thread_id", threadID, "messages", len(rec.Messages))
	return nil
}

func (c *Conversations) read(ctx context.Context, threadID string) (*Thread, bool, error) {
	key := threadKeyPrefix + threadID
	raw, found, err := c.adapter.Get(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("store: load thread %s: %w", threadID, err)
	}
	if !found {
		now := time.Now().UTC()
		return &Thread{ID: threadID, Messages: []sage.Message{}, CreatedAt: now, UpdatedAt: now}, false, nil
	}

	var rec Thread
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, false, &SerializationError{Key: key, Err: err}
	}
	if rec.Messages == nil {
		rec.Messages = []sage.Message{}
	}
	rec.ID = threadID
	return &rec, true, nil
}

func (c *Conversations) write(ctx context.Context, rec *Thread) error {
	key := threadKeyPrefix + rec.ID
	raw, err := json.Marshal(rec)
	if err != nil {
		return &SerializationError{Key: key, Err: err}
	}
	if err := c.adapter.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("store: save thread %s: %w", rec.ID, err)
	}
	return nil
}
