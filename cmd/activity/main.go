// Command activity consumes content-store activity events from Kafka,
// aggregates them in memory (totals per type, net likes per post, most
// active users), and serves the result at GET /api/v1/activity.
//
// When Postgres is reachable the aggregate is snapshotted periodically.
//
// Usage:
//
//	go run ./cmd/activity [-config configs/development.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/content-store/internal/activity"
	"github.com/Adithya-Monish-Kumar-K/content-store/internal/activity/snapshot"
	"github.com/Adithya-Monish-Kumar-K/content-store/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/content-store/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/content-store/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/content-store/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/content-store/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/content-store/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/content-store/pkg/postgres"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting activity service", "port", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	aggregator := activity.NewAggregator(10, m)
	checker := health.NewChecker()

	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.Activity, aggregator.HandleMessage())
	defer consumer.Close()
	go func() {
		if err := consumer.Start(ctx); err != nil {
			slog.Error("activity consumer error", "error", err)
		}
	}()
	checker.Register("kafka", func(ctx context.Context) health.ComponentHealth {
		return health.ComponentHealth{Status: health.StatusUp, Message: "consumer active"}
	})
	slog.Info("activity consumer started", "topic", cfg.Kafka.Topics.Activity)

	handler := activity.NewHandler(aggregator)

	// Snapshots are optional; without Postgres the service still serves
	// in-memory stats.
	if db, err := postgres.New(cfg.Postgres); err != nil {
		slog.Warn("postgres unavailable, activity snapshots disabled", "error", err)
	} else {
		defer db.Close()
		snapshots := snapshot.NewStore(db)
		if err := snapshots.Migrate(ctx); err != nil {
			slog.Error("snapshot migration failed", "error", err)
		} else {
			if last, err := snapshots.Latest(ctx); err == nil && last != nil {
				slog.Info("last activity snapshot", "total_events", last.TotalEvents, "last_event_at", last.LastEventAt)
			}
			snapshots.StartPeriodicSave(ctx, aggregator, cfg.Postgres.SnapshotEvery)
			handler.WithSnapshots(snapshots)
		}
		checker.Register("postgres", health.PingCheck(db, true))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/activity", handler.Stats)
	mux.HandleFunc("GET /api/v1/activity/snapshot", handler.Snapshot)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())
	mux.Handle("GET /metrics", metrics.Handler())

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.RequestTimeout)(chain)
	chain = middleware.Metrics(m)(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("activity service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("activity service stopped")
}
