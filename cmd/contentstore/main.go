// Command contentstore runs the interactive content store menu and its
// maintenance subcommands.
//
// Usage:
//
//	contentstore [-config configs/development.yaml] [menu]
//	contentstore [-config ...] sync push|pull
//	contentstore [-config ...] stats
//	contentstore [-config ...] cache flush
//
// "sync push" copies the file backend into Postgres; "sync pull" copies
// Postgres back into the files. "stats" prints record counts.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/content-store/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/content-store/pkg/logger"
)

var errUsage = errors.New("usage: contentstore [-config path] [menu | stats | sync push|pull | cache flush]")

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cmd := flag.Arg(0); cmd {
	case "", "menu":
		err = runMenu(ctx, cfg)
	case "stats":
		err = runStats(ctx, cfg)
	case "sync":
		err = runSync(ctx, cfg, flag.Arg(1))
	case "cache":
		err = runCache(ctx, cfg, flag.Arg(1))
	default:
		err = fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}

	if errors.Is(err, errUsage) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err != nil {
		slog.Error("contentstore failed", "error", err)
		os.Exit(1)
	}
}
