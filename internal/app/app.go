package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/iof-learning/internal/data/db"
	"github.com/yungbote/iof-learning/internal/http"
	"github.com/yungbote/iof-learning/internal/jobs"
	"github.com/yungbote/iof-learning/internal/observability"
	"github.com/yungbote/iof-learning/internal/platform/logger"
)

type App struct {
	Log       *logger.Logger
	DB        *gorm.DB
	Server    *http.Server
	Cfg       Config
	Repos     Repos
	Services  Services
	Clients   Clients
	Scheduler *jobs.Scheduler

	pg           *db.PostgresService
	otelShutdown func(context.Context) error
}

func New(ctx context.Context) (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg, err := LoadConfig(log)
	if err != nil {
		log.Sync()
		return nil, err
	}

	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		Enabled:     cfg.OtelEnabled,
		ServiceName: cfg.ServiceName,
		Environment: cfg.LogMode,
		Version:     cfg.Version,
		Endpoint:    cfg.OtelEndpoint,
		Headers:     cfg.OtelHeaders,
		Insecure:    cfg.OtelInsecure,
		SampleRatio: cfg.OtelSampleRatio,
	})

	pg, err := db.NewPostgresService(log, db.PostgresConfig{
		Host:         cfg.PostgresHost,
		Port:         cfg.PostgresPort,
		User:         cfg.PostgresUser,
		Password:     cfg.PostgresPassword,
		Name:         cfg.PostgresName,
		SSLMode:      cfg.PostgresSSLMode,
		MaxOpenConns: cfg.PostgresMaxOpen,
		MaxIdleConns: cfg.PostgresMaxIdle,
	})
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		_ = pg.Close()
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	theDB := pg.DB()

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		_ = pg.Close()
		log.Sync()
		return nil, err
	}

	reposet := wireRepos(theDB, log)
	serviceset := wireServices(theDB, log, cfg, reposet, clients)
	middleware := wireMiddleware(log, cfg, serviceset)
	handlerset, err := wireHandlers(log, theDB, serviceset, middleware)
	if err != nil {
		clients.Close()
		_ = pg.Close()
		log.Sync()
		return nil, fmt.Errorf("wire handlers: %w", err)
	}
	server := wireServer(log, cfg, handlerset, middleware)

	scheduler, err := wireJobs(log, cfg, reposet, serviceset)
	if err != nil {
		clients.Close()
		_ = pg.Close()
		log.Sync()
		return nil, err
	}

	return &App{
		Log:          log,
		DB:           theDB,
		Server:       server,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		Clients:      clients,
		Scheduler:    scheduler,
		pg:           pg,
		otelShutdown: otelShutdown,
	}, nil
}

func wireJobs(log *logger.Logger, cfg Config, repos Repos, services Services) (*jobs.Scheduler, error) {
	log.Info("Wiring jobs...")
	registry := jobs.NewRegistry()
	if err := registry.Register(&jobs.NewsWarm{News: services.News, Queries: cfg.NewsWarmQueries}); err != nil {
		return nil, err
	}
	if err := registry.Register(&jobs.TokenCleanup{Tokens: repos.UserToken}); err != nil {
		return nil, err
	}
	scheduler := jobs.NewScheduler(log, registry, 2*time.Minute)
	if err := scheduler.Schedule(jobs.TypeNewsWarm, cfg.NewsWarmSchedule); err != nil {
		return nil, err
	}
	if err := scheduler.Schedule(jobs.TypeTokenCleanup, cfg.TokenCleanup); err != nil {
		return nil, err
	}
	return scheduler, nil
}

// Start launches the scheduler and warms the news cache in the background.
func (a *App) Start() {
	if a == nil || a.Scheduler == nil {
		return
	}
	a.Scheduler.Start()
	go func() { _ = a.Scheduler.RunNow(jobs.TypeNewsWarm) }()
}

func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	addr := ":" + a.Cfg.Port
	a.Log.Info("HTTP server listening", "addr", addr)
	return a.Server.Run(addr)
}

// Close drains the HTTP server and jobs, then releases clients and the database.
func (a *App) Close(ctx context.Context) {
	if a == nil {
		return
	}
	if a.Server != nil {
		if err := a.Server.Shutdown(ctx); err != nil {
			a.Log.Warn("http shutdown", "error", err)
		}
	}
	if a.Scheduler != nil {
		a.Scheduler.Stop(ctx)
	}
	a.Clients.Close()
	if a.pg != nil {
		_ = a.pg.Close()
	}
	if a.otelShutdown != nil {
		_ = a.otelShutdown(ctx)
	}
	a.Log.Sync()
}
