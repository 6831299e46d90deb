package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/iof-learning/internal/clients/redis"
	"github.com/yungbote/iof-learning/internal/platform/cache"
	"github.com/yungbote/iof-learning/internal/platform/gcp"
	"github.com/yungbote/iof-learning/internal/platform/logger"
	"github.com/yungbote/iof-learning/internal/platform/markdown"
	"github.com/yungbote/iof-learning/internal/platform/newsapi"
	"github.com/yungbote/iof-learning/internal/platform/render"
	"github.com/yungbote/iof-learning/internal/platform/sendgrid"
	"github.com/yungbote/iof-learning/internal/services"
)

// Clients holds the external integrations. Optional ones are nil when unconfigured.
type Clients struct {
	Cache    cache.Store
	Bucket   gcp.BucketService
	Mailer   sendgrid.Client
	News     newsapi.Client
	Google   services.GoogleVerifier
	Renderer *render.CertificateRenderer
	Markdown *markdown.Renderer

	closers []func() error
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var c Clients

	// Cache
	if strings.TrimSpace(cfg.RedisAddr) != "" {
		store, err := redis.NewCacheStore(log, cfg.RedisAddr, cfg.RedisPassword, cfg.CachePrefix)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis cache: %w", err)
		}
		c.Cache = store
		c.closers = append(c.closers, store.Close)
	} else {
		mem := cache.NewMemoryStore()
		c.Cache = mem
		c.closers = append(c.closers, mem.Close)
		log.Info("REDIS_ADDR not set, using in-process cache")
	}

	// Gcs
	if strings.TrimSpace(cfg.ImageBucket) != "" {
		storageCfg, err := gcp.ResolveObjectStorageConfig(cfg.ObjectStorageMode, cfg.StorageEmulatorHost)
		if err != nil {
			c.Close()
			return Clients{}, fmt.Errorf("object storage config: %w", err)
		}
		storageCfg.Credentials = cfg.GCPCredentials
		bucket, err := gcp.NewBucketService(ctx, log, gcp.Config{
			Storage:           storageCfg,
			ImageBucket:       cfg.ImageBucket,
			CertificateBucket: cfg.CertificateBucket,
			CDNDomain:         cfg.ImageCDNDomain,
		})
		if err != nil {
			c.Close()
			return Clients{}, fmt.Errorf("init bucket client: %w", err)
		}
		c.Bucket = bucket
	} else {
		log.Warn("GCS_IMAGE_BUCKET not set, uploads disabled")
	}

	// Sendgrid
	if strings.TrimSpace(cfg.SendGridAPIKey) != "" {
		mailer, err := sendgrid.New(log, sendgrid.Config{
			APIKey:           cfg.SendGridAPIKey,
			DefaultFromEmail: cfg.SendGridFromEmail,
			DefaultFromName:  cfg.SendGridFromName,
		})
		if err != nil {
			c.Close()
			return Clients{}, fmt.Errorf("init sendgrid: %w", err)
		}
		c.Mailer = mailer
	} else {
		log.Warn("SENDGRID_API_KEY not set, password reset emails disabled")
	}

	// News
	if strings.TrimSpace(cfg.NewsAPIKey) != "" {
		news, err := newsapi.New(log, newsapi.Config{APIKey: cfg.NewsAPIKey, BaseURL: cfg.NewsAPIBaseURL})
		if err != nil {
			c.Close()
			return Clients{}, fmt.Errorf("init news client: %w", err)
		}
		c.News = news
	} else {
		log.Warn("NEWS_API_KEY not set, news feed serves empty results")
	}

	// Google
	if strings.TrimSpace(cfg.GoogleOIDCClientID) != "" {
		g, err := services.NewGoogleVerifier(log, services.GoogleVerifierConfig{ClientID: cfg.GoogleOIDCClientID})
		if err != nil {
			c.Close()
			return Clients{}, fmt.Errorf("init google verifier: %w", err)
		}
		c.Google = g
	}

	// Rendering
	renderer, err := render.NewCertificateRenderer(cfg.CertificateFontPath)
	if err != nil {
		c.Close()
		return Clients{}, fmt.Errorf("init certificate renderer: %w", err)
	}
	c.Renderer = renderer
	c.Markdown = markdown.NewRenderer()

	return c, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		_ = c.closers[i]()
	}
	c.closers = nil
}
