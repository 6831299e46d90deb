package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/iof-learning/internal/platform/logger"
)

// CacheStore implements cache.Store on top of Redis string keys with native expiry.
type CacheStore struct {
	log    *logger.Logger
	rdb    goredis.UniversalClient
	prefix string
}

func NewCacheStore(log *logger.Logger, addr, password, prefix string) (*CacheStore, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	if strings.TrimSpace(prefix) == "" {
		prefix = "iof:"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    password,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewCacheStoreWithClient(log, rdb, prefix), nil
}

func NewCacheStoreWithClient(log *logger.Logger, rdb goredis.UniversalClient, prefix string) *CacheStore {
	return &CacheStore{log: log.With("service", "RedisCacheStore"), rdb: rdb, prefix: prefix}
}

func (s *CacheStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := s.rdb.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		s.log.Warn("Redis get failed", "key", key, "error", err)
		return nil, false, err
	}
	return raw, true, nil
}

func (s *CacheStore) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, s.prefix+key, val, ttl).Err(); err != nil {
		s.log.Warn("Redis set failed", "key", key, "error", err)
		return err
	}
	return nil
}

func (s *CacheStore) Delete(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, s.prefix+key).Err()
}

func (s *CacheStore) Close() error {
	return s.rdb.Close()
}
