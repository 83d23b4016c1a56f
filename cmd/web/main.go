package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/entity-resolver/internal/config"
	"github.com/entity-resolver/internal/db"
	"github.com/entity-resolver/internal/logging"
	"github.com/entity-resolver/internal/normalize"
	"github.com/entity-resolver/internal/postal"
	"github.com/entity-resolver/internal/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	// Load environment configuration
	if err := config.LoadEnv(); err != nil {
		return err
	}
	cfg, err := config.Load(config.GetEnv("RESOLVER_CONFIG", ""))
	if err != nil {
		return err
	}
	logger, err := logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store *db.Store
	if config.GetEnvBool("WEB_STORE", false) {
		conn, err := db.NewConnection(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer conn.Close()

		store = db.NewStore(conn.DB, logger)
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		logger.Info("database connected", "host", cfg.Database.Host, "database", cfg.Database.Name)
	}

	svc := postal.New()
	canon := normalize.NewCanonicalizer(svc, svc, normalize.CanonicalizerOptions{
		Concurrency: cfg.Normalize.AddressConcurrency,
		Logger:      logger,
	})

	return web.NewServer(web.ConfigFrom(cfg), canon, store, logger).Start(ctx)
}
