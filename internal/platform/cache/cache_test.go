package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestGetOrFetchCachesWithinTTL(t *testing.T) {
	store := NewMemoryStore()
	calls := 0
	fetch := func(ctx context.Context) ([]string, error) {
		calls++
		return []string{"a", "b"}, nil
	}
	ctx := context.Background()

	v, cached, err := GetOrFetch(ctx, store, "news:go", time.Hour, fetch)
	if err != nil || cached || len(v) != 2 {
		t.Fatalf("first call: v=%v cached=%v err=%v", v, cached, err)
	}
	v, cached, err = GetOrFetch(ctx, store, "news:go", time.Hour, fetch)
	if err != nil || !cached || len(v) != 2 {
		t.Fatalf("second call: v=%v cached=%v err=%v", v, cached, err)
	}
	if calls != 1 {
		t.Fatalf("fetch calls: want=1 got=%d", calls)
	}
}

func TestGetOrFetchRefetchesStaleEntry(t *testing.T) {
	store := NewMemoryStore()
	stale, _ := json.Marshal(Entry[int]{Value: 1, FetchedAt: time.Now().Add(-73 * time.Hour)})
	if err := store.Set(context.Background(), "k", stale, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, cached, err := GetOrFetch(context.Background(), store, "k", 72*time.Hour, func(context.Context) (int, error) { return 2, nil })
	if err != nil || cached || v != 2 {
		t.Fatalf("stale entry: v=%d cached=%v err=%v", v, cached, err)
	}
}

func TestGetOrFetchDoesNotCacheFailures(t *testing.T) {
	store := NewMemoryStore()
	boom := errors.New("upstream down")
	if _, _, err := GetOrFetch(context.Background(), store, "k", time.Hour, func(context.Context) (int, error) { return 0, boom }); !errors.Is(err, boom) {
		t.Fatalf("want upstream error got=%v", err)
	}
	if _, ok, _ := store.Get(context.Background(), "k"); ok {
		t.Fatalf("failure must not be cached")
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()
	_ = store.Set(ctx, "k", []byte("v"), time.Minute)

	if got, ok, _ := store.Get(ctx, "k"); !ok || string(got) != "v" {
		t.Fatalf("fresh: ok=%v got=%q", ok, got)
	}
	now = now.Add(time.Minute)
	if _, ok, _ := store.Get(ctx, "k"); ok {
		t.Fatalf("expired entry still served")
	}
}

func TestGetOrFetchNilStore(t *testing.T) {
	v, cached, err := GetOrFetch(context.Background(), nil, "k", time.Hour, func(context.Context) (string, error) { return "x", nil })
	if err != nil || cached || v != "x" {
		t.Fatalf("nil store: v=%q cached=%v err=%v", v, cached, err)
	}
}

// brokenStore fails every read and write, like an unreachable Redis.
type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("dial tcp: connection refused")
}
func (brokenStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("dial tcp: connection refused")
}
func (brokenStore) Delete(context.Context, string) error { return nil }

func TestGetOrFetchReportsStoreFailures(t *testing.T) {
	var ops []string
	v, cached, err := GetOrFetch(context.Background(), brokenStore{}, "news:go", time.Hour,
		func(context.Context) (string, error) { return "fresh", nil },
		WithErrorHandler(func(op, key string, err error) {
			if key != "news:go" || err == nil {
				t.Fatalf("handler: key=%q err=%v", key, err)
			}
			ops = append(ops, op)
		}))
	if err != nil || cached || v != "fresh" {
		t.Fatalf("broken store: v=%q cached=%v err=%v", v, cached, err)
	}
	if len(ops) != 2 || ops[0] != "get" || ops[1] != "set" {
		t.Fatalf("reported ops: want=[get set] got=%v", ops)
	}
}
