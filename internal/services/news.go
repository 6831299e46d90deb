package services

import (
	"context"
	"strings"
	"time"

	"github.com/yungbote/iof-learning/internal/platform/cache"
	"github.com/yungbote/iof-learning/internal/platform/logger"
	"github.com/yungbote/iof-learning/internal/platform/newsapi"
)

const (
	DefaultNewsTTL   = 72 * time.Hour
	defaultNewsQuery = "finance"
	newsPageSize     = 20
)

type NewsFeed struct {
	Query     string            `json:"query"`
	Articles  []newsapi.Article `json:"articles"`
	FetchedAt time.Time         `json:"fetched_at,omitempty"`
	Cached    bool              `json:"cached"`
}

type NewsService interface {
	// Search never fails: upstream or cache errors yield an empty feed.
	Search(ctx context.Context, query string) *NewsFeed
	Warm(ctx context.Context, queries []string) error
}

type newsService struct {
	log    *logger.Logger
	client newsapi.Client
	store  cache.Store
	ttl    time.Duration
	now    func() time.Time
}

// NewNewsService wires the feed. A nil client disables upstream fetches.
func NewNewsService(log *logger.Logger, client newsapi.Client, store cache.Store, ttl time.Duration) NewsService {
	if ttl <= 0 {
		ttl = DefaultNewsTTL
	}
	return &newsService{
		log:    log.With("service", "NewsService"),
		client: client,
		store:  store,
		ttl:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

type newsSnapshot struct {
	Articles  []newsapi.Article `json:"articles"`
	FetchedAt time.Time         `json:"fetched_at"`
}

func normalizeNewsQuery(q string) string {
	q = strings.ToLower(strings.Join(strings.Fields(q), " "))
	if q == "" {
		return defaultNewsQuery
	}
	return q
}

func newsCacheKey(q string) string { return "news:everything:" + q }

func (s *newsService) fetch(ctx context.Context, q string) (newsSnapshot, bool, error) {
	return cache.GetOrFetch(ctx, s.store, newsCacheKey(q), s.ttl, func(ctx context.Context) (newsSnapshot, error) {
		res, err := s.client.Everything(ctx, newsapi.Query{Q: q, PageSize: newsPageSize})
		if err != nil {
			return newsSnapshot{}, err
		}
		articles := res.Articles
		if articles == nil {
			articles = []newsapi.Article{}
		}
		return newsSnapshot{Articles: articles, FetchedAt: s.now()}, nil
	}, cache.WithErrorHandler(func(op, key string, err error) {
		s.log.Warn("news cache "+op+" failed", "error", err, "key", key)
	}))
}

func (s *newsService) Search(ctx context.Context, query string) *NewsFeed {
	q := normalizeNewsQuery(query)
	feed := &NewsFeed{Query: q, Articles: []newsapi.Article{}}
	if s.client == nil {
		return feed
	}
	entry, cached, err := s.fetch(ctx, q)
	if err != nil {
		s.log.Warn("news fetch failed", "error", err, "query", q)
		return feed
	}
	if entry.Articles != nil {
		feed.Articles = entry.Articles
	}
	feed.FetchedAt = entry.FetchedAt
	feed.Cached = cached
	return feed
}

// Warm refetches every query whose cache entry is missing or expired.
func (s *newsService) Warm(ctx context.Context, queries []string) error {
	if s.client == nil {
		return nil
	}
	var firstErr error
	for _, raw := range queries {
		q := normalizeNewsQuery(raw)
		_, cached, err := s.fetch(ctx, q)
		if err != nil {
			s.log.Warn("news warm failed", "error", err, "query", q)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		s.log.Debug("news warmed", "query", q, "cached", cached)
	}
	return firstErr
}
