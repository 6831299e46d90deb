package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yungbote/iof-learning/internal/platform/cache"
	"github.com/yungbote/iof-learning/internal/platform/logger"
	"github.com/yungbote/iof-learning/internal/platform/newsapi"
)

type fakeNewsClient struct {
	calls atomic.Int32
	fail  atomic.Bool
}

func (f *fakeNewsClient) Everything(context.Context, newsapi.Query) (*newsapi.Result, error) {
	f.calls.Add(1)
	if f.fail.Load() {
		return nil, &newsapi.APIError{StatusCode: 429, Code: "rateLimited", Message: "slow down"}
	}
	return &newsapi.Result{Status: "ok", TotalResults: 1, Articles: []newsapi.Article{{Title: "Rates hold", URL: "https://news.test/1"}}}, nil
}

func TestNewsSearchServesFromCache(t *testing.T) {
	client := &fakeNewsClient{}
	svc := NewNewsService(logger.Nop(), client, cache.NewMemoryStore(), time.Hour)
	ctx := context.Background()

	first := svc.Search(ctx, "  Finance  ")
	if first.Cached || len(first.Articles) != 1 || first.Query != "finance" {
		t.Fatalf("first search: %+v", first)
	}
	second := svc.Search(ctx, "FINANCE")
	if !second.Cached || len(second.Articles) != 1 || !second.FetchedAt.Equal(first.FetchedAt) {
		t.Fatalf("second search: %+v", second)
	}
	if n := client.calls.Load(); n != 1 {
		t.Fatalf("upstream calls: want=1 got=%d", n)
	}

	// Empty queries use the default topic.
	if feed := svc.Search(ctx, ""); feed.Query != defaultNewsQuery || !feed.Cached {
		t.Fatalf("default query: %+v", feed)
	}
}

func TestNewsSearchFailureYieldsEmptyFeed(t *testing.T) {
	client := &fakeNewsClient{}
	client.fail.Store(true)
	svc := NewNewsService(logger.Nop(), client, cache.NewMemoryStore(), time.Hour)

	feed := svc.Search(context.Background(), "bonds")
	if feed == nil || feed.Articles == nil || len(feed.Articles) != 0 || feed.Cached {
		t.Fatalf("failed search: %+v", feed)
	}
	// Failures are not cached.
	client.fail.Store(false)
	if feed := svc.Search(context.Background(), "bonds"); len(feed.Articles) != 1 || feed.Cached {
		t.Fatalf("retry after failure: %+v", feed)
	}
	if n := client.calls.Load(); n != 2 {
		t.Fatalf("upstream calls: want=2 got=%d", n)
	}
}

func TestNewsWithoutClient(t *testing.T) {
	svc := NewNewsService(logger.Nop(), nil, nil, 0)
	if feed := svc.Search(context.Background(), "x"); len(feed.Articles) != 0 {
		t.Fatalf("disabled feed: %+v", feed)
	}
	if err := svc.Warm(context.Background(), []string{"x"}); err != nil {
		t.Fatalf("Warm: %v", err)
	}
}

func TestNewsWarm(t *testing.T) {
	client := &fakeNewsClient{}
	store := cache.NewMemoryStore()
	svc := NewNewsService(logger.Nop(), client, store, time.Hour)
	ctx := context.Background()

	if err := svc.Warm(ctx, []string{"finance", "markets"}); err != nil {
		t.Fatalf("Warm: %v", err)
	}
	if err := svc.Warm(ctx, []string{"finance", "markets"}); err != nil {
		t.Fatalf("second Warm: %v", err)
	}
	if n := client.calls.Load(); n != 2 {
		t.Fatalf("warm should fetch each query once, got %d calls", n)
	}

	client.fail.Store(true)
	var apiErr *newsapi.APIError
	if err := svc.Warm(ctx, []string{"crypto"}); !errors.As(err, &apiErr) {
		t.Fatalf("Warm failure: want APIError, got %v", err)
	}
}
