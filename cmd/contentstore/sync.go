package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/Adithya-Monish-Kumar-K/content-store/internal/persistence"
	"github.com/Adithya-Monish-Kumar-K/content-store/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/content-store/pkg/tracing"
)

// runSync copies the whole snapshot between the text files and Postgres.
// push: files to Postgres. pull: Postgres to files.
func runSync(ctx context.Context, cfg *config.Config, direction string) error {
	if direction != "push" && direction != "pull" {
		return fmt.Errorf("%w: sync needs push or pull, got %q", errUsage, direction)
	}

	a := newApp(cfg)
	defer a.close()
	if err := a.connectPostgres(ctx); err != nil {
		return err
	}

	tracer := tracing.NewTracer(cfg.Tracing.Enabled)
	ctx, span := tracer.Start(ctx, "sync."+direction)
	defer tracer.Finish(span)

	var (
		src persistence.Loader = a.files
		dst persistence.Saver  = a.pg
	)
	if direction == "pull" {
		src, dst = a.pg, a.files
	}
	snap, err := persistence.Copy(ctx, src, dst)
	if err != nil {
		span.SetAttr("error", err.Error())
		return fmt.Errorf("sync %s: %w", direction, err)
	}
	span.SetAttr("posts", len(snap.Posts))

	slog.Info("sync complete", "direction", direction,
		"users", len(snap.Users), "posts", len(snap.Posts),
		"comments", len(snap.Comments), "likes", len(snap.Likes))
	fmt.Fprintf(os.Stdout, "synced %d users, %d posts, %d comments, %d likes (%s)\n",
		len(snap.Users), len(snap.Posts), len(snap.Comments), len(snap.Likes), direction)
	return nil
}
