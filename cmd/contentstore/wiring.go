package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/Adithya-Monish-Kumar-K/content-store/internal/activity"
	"github.com/Adithya-Monish-Kumar-K/content-store/internal/cli"
	"github.com/Adithya-Monish-Kumar-K/content-store/internal/persistence/filestore"
	"github.com/Adithya-Monish-Kumar-K/content-store/internal/persistence/pgstore"
	"github.com/Adithya-Monish-Kumar-K/content-store/internal/ranking/cache"
	"github.com/Adithya-Monish-Kumar-K/content-store/internal/store"
	"github.com/Adithya-Monish-Kumar-K/content-store/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/content-store/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/content-store/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/content-store/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/content-store/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/content-store/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/content-store/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/content-store/pkg/tracing"
)

// app holds everything a subcommand may need. Optional parts stay nil when
// disabled or unreachable.
type app struct {
	cfg     *config.Config
	files   *filestore.Store
	pg      *pgstore.Store
	cache   *cache.RankCache
	metrics *metrics.Metrics
	checker *health.Checker
	closers []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func newApp(cfg *config.Config) *app {
	return &app{
		cfg:     cfg,
		files:   filestore.New(cfg.Store),
		checker: health.NewChecker(),
	}
}

// connectPostgres opens the database and makes sure the schema exists.
func (a *app) connectPostgres(ctx context.Context) error {
	db, err := postgres.New(a.cfg.Postgres)
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	a.closers = append(a.closers, func() { db.Close() })
	pg := pgstore.New(db, a.cfg.Persistence.Timeout)
	if err := pg.Migrate(ctx); err != nil {
		return fmt.Errorf("migrating postgres schema: %w", err)
	}
	a.pg = pg
	a.checker.Register("postgres", health.PingCheck(db, false))
	return nil
}

// backend returns the configured persister and activity log.
func (a *app) backend(ctx context.Context) (store.Persister, store.ActivityLog, error) {
	if a.cfg.Store.Backend == config.BackendPostgres {
		if err := a.connectPostgres(ctx); err != nil {
			return nil, nil, err
		}
		return a.pg, a.pg, nil
	}
	a.checker.Register("data_dir", health.DirWritable(a.cfg.Store.DataDir))
	return a.files, a.files, nil
}

// rankCache connects to Redis when enabled. The cache is optional, so a
// failed connection only logs a warning.
func (a *app) rankCache() store.RankCache {
	if !a.cfg.Redis.Enabled {
		return nil
	}
	client, err := redis.NewClient(a.cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, ranking cache disabled", "addr", a.cfg.Redis.Addr, "error", err)
		return nil
	}
	a.cache = cache.New(client, a.cfg.Redis.CacheTTL)
	a.closers = append(a.closers, func() {
		hits, misses := a.cache.Stats()
		slog.Info("ranking cache usage", "hits", hits, "misses", misses)
		client.Close()
	})
	a.checker.Register("redis", health.PingCheck(client, true))
	return a.cache
}

// eventSink starts the Kafka activity publisher when enabled.
func (a *app) eventSink(ctx context.Context) activity.Sink {
	if !a.cfg.Kafka.Enabled {
		return nil
	}
	producer := kafka.NewProducer(a.cfg.Kafka, a.cfg.Kafka.Topics.Activity)
	pub := activity.NewPublisher(producer, activity.PublisherConfig{
		BufferSize:    a.cfg.Kafka.BufferSize,
		BatchSize:     a.cfg.Kafka.BatchSize,
		FlushInterval: a.cfg.Kafka.FlushInterval,
		Breaker: resilience.CircuitBreakerConfig{
			FailureThreshold: 3,
			ResetTimeout:     15 * time.Second,
		},
	}, a.metrics)
	pub.Start(ctx)
	a.closers = append(a.closers, func() {
		pub.Close()
		if err := producer.Close(); err != nil {
			slog.Warn("closing kafka producer", "error", err)
		}
	})
	a.checker.Register("kafka", func(ctx context.Context) health.ComponentHealth {
		return health.ComponentHealth{Status: health.StatusUp, Message: "publisher active"}
	})
	slog.Info("activity publisher started", "topic", a.cfg.Kafka.Topics.Activity)
	return pub
}

// startAdmin serves metrics and health probes when metrics are enabled.
func (a *app) startAdmin() {
	if !a.cfg.Metrics.Enabled {
		return
	}
	a.metrics = metrics.New()
	shutdown := metrics.StartServer(a.cfg.Metrics.Port, func(mux *http.ServeMux) {
		mux.HandleFunc("GET /health/live", a.checker.LiveHandler())
		mux.HandleFunc("GET /health/ready", a.checker.ReadyHandler())
	})
	a.closers = append(a.closers, func() {
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := shutdown(ctx); err != nil {
			slog.Error("admin server shutdown error", "error", err)
		}
	})
}

// openStore loads the store from the configured backend with every
// optional collaborator attached.
func (a *app) openStore(ctx context.Context) (*store.Store, error) {
	a.startAdmin()
	persister, actlog, err := a.backend(ctx)
	if err != nil {
		return nil, err
	}
	return store.Open(ctx, store.Options{
		UndoLimit:         a.cfg.Store.UndoLimit,
		NotificationLimit: a.cfg.Store.NotificationLimit,
		Persister:         persister,
		ActivityLog:       actlog,
		Events:            a.eventSink(ctx),
		Cache:             a.rankCache(),
		Metrics:           a.metrics,
		Retry: resilience.RetryConfig{
			MaxAttempts:  a.cfg.Persistence.MaxAttempts,
			InitialDelay: a.cfg.Persistence.InitialDelay,
			MaxDelay:     a.cfg.Persistence.MaxDelay,
		},
	})
}

func runMenu(ctx context.Context, cfg *config.Config) error {
	a := newApp(cfg)
	defer a.close()
	st, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	return cli.New(st, os.Stdin, os.Stdout, tracing.NewTracer(cfg.Tracing.Enabled)).Run(ctx)
}

// runCache handles "cache flush", which drops every cached ranking.
func runCache(ctx context.Context, cfg *config.Config, action string) error {
	if action != "flush" {
		return fmt.Errorf("%w: cache needs flush, got %q", errUsage, action)
	}
	if !cfg.Redis.Enabled {
		return fmt.Errorf("redis is disabled in the configuration")
	}
	a := newApp(cfg)
	defer a.close()
	if a.rankCache() == nil {
		return fmt.Errorf("redis at %s is unreachable", cfg.Redis.Addr)
	}
	if err := a.cache.Invalidate(ctx); err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, "ranking cache cleared")
	return nil
}

func runStats(ctx context.Context, cfg *config.Config) error {
	a := newApp(cfg)
	defer a.close()
	persister, _, err := a.backend(ctx)
	if err != nil {
		return err
	}
	st, err := store.Open(ctx, store.Options{Persister: persister})
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "backend:       %s\n", cfg.Store.Backend)
	cli.WriteStats(os.Stdout, st.Stats())
	if a.pg != nil {
		lines, err := a.pg.ActivityLines(ctx, 5)
		if err != nil {
			return err
		}
		for _, l := range lines {
			fmt.Fprintf(os.Stdout, "  %s\n", l)
		}
	}
	return nil
}
