package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Store is a TTL'd byte store. Get reports ok=false for missing or expired keys.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Entry is what GetOrFetch persists: the payload plus the moment it was fetched.
type Entry[T any] struct {
	Value     T         `json:"value"`
	FetchedAt time.Time `json:"fetched_at"`
}

// ErrorHandler receives store failures that GetOrFetch degrades past. op is "get", "decode",
// "encode" or "set".
type ErrorHandler func(op, key string, err error)

type options struct {
	onError ErrorHandler
}

type Option func(*options)

// WithErrorHandler reports store failures that would otherwise only cost a cache hit.
func WithErrorHandler(h ErrorHandler) Option {
	return func(o *options) { o.onError = h }
}

// GetOrFetch serves key from store while fresher than ttl, otherwise calls fetch, stores
// the result and returns it. A failed fetch is never cached. Store read/write failures
// degrade to a direct fetch and are passed to the ErrorHandler, if any.
func GetOrFetch[T any](ctx context.Context, store Store, key string, ttl time.Duration, fetch func(ctx context.Context) (T, error), opts ...Option) (T, bool, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	report := func(op string, err error) {
		if o.onError != nil {
			o.onError(op, key, err)
		}
	}

	var zero T
	if store != nil {
		raw, ok, err := store.Get(ctx, key)
		switch {
		case err != nil:
			report("get", err)
		case ok:
			var e Entry[T]
			if jerr := json.Unmarshal(raw, &e); jerr != nil {
				report("decode", jerr)
			} else if time.Since(e.FetchedAt) < ttl {
				return e.Value, true, nil
			}
		}
	}

	v, err := fetch(ctx)
	if err != nil {
		return zero, false, err
	}
	if store != nil {
		raw, jerr := json.Marshal(Entry[T]{Value: v, FetchedAt: time.Now()})
		if jerr != nil {
			report("encode", jerr)
		} else if serr := store.Set(ctx, key, raw, ttl); serr != nil {
			report("set", serr)
		}
	}
	return v, false, nil
}

var ErrClosed = errors.New("cache: store closed")

type memoryItem struct {
	val       []byte
	expiresAt time.Time
}

// MemoryStore is an in-process Store used when Redis is not configured.
type MemoryStore struct {
	mu     sync.Mutex
	items  map[string]memoryItem
	now    func() time.Time
	closed bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: map[string]memoryItem{}, now: time.Now}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, false, ErrClosed
	}
	it, ok := m.items[key]
	if !ok {
		return nil, false, nil
	}
	if !it.expiresAt.IsZero() && !m.now().Before(it.expiresAt) {
		delete(m.items, key)
		return nil, false, nil
	}
	return append([]byte(nil), it.val...), true, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	if key == "" {
		return fmt.Errorf("cache: empty key")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	it := memoryItem{val: append([]byte(nil), val...)}
	if ttl > 0 {
		it.expiresAt = m.now().Add(ttl)
	}
	m.items[key] = it
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.items = map[string]memoryItem{}
	return nil
}
