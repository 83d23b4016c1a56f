package main

import (
	"context"
	"fmt"
	"os"

	"github.com/entity-resolver/internal/db"
	import_pkg "github.com/entity-resolver/internal/import"
	"github.com/entity-resolver/internal/match"
	"github.com/entity-resolver/internal/normalize"
	"github.com/entity-resolver/internal/postal"
)

func newCanonicalizer() *normalize.Canonicalizer {
	svc := postal.New()
	return normalize.NewCanonicalizer(svc, svc, normalize.CanonicalizerOptions{
		Concurrency: app.cfg.Normalize.AddressConcurrency,
		Logger:      app.logger,
	})
}

func engineConfig() match.EngineConfig {
	return match.EngineConfig{
		NameThreshold: app.cfg.Resolve.NameThreshold,
		AddrThreshold: app.cfg.Resolve.AddrThreshold,
		Workers:       app.cfg.Resolve.Workers,
		Logger:        app.logger,
	}
}

// loadRecords reads the input table. A missing file is an error.
func loadRecords(path string) ([]normalize.Record, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("input path %q not found", path)
	}
	importer := import_pkg.NewImporter(import_pkg.Columns{
		ID:      app.cfg.Input.IDColumn,
		Name:    app.cfg.Input.NameColumn,
		Address: app.cfg.Input.AddressColumn,
	}, app.logger)
	return importer.ReadFile(path)
}

// loadNormalized reads and normalises the input table.
func loadNormalized(ctx context.Context, path string) ([]normalize.NormalizedRecord, error) {
	records, err := loadRecords(path)
	if err != nil {
		return nil, err
	}
	return newCanonicalizer().NormalizeRecords(ctx, records, app.cfg.Normalize.Workers)
}

func openStore(ctx context.Context) (*db.Store, func(), error) {
	conn, err := db.NewConnection(ctx, app.cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	store := db.NewStore(conn.DB, app.logger)
	if err := store.EnsureSchema(ctx); err != nil {
		conn.Close()
		return nil, nil, err
	}
	return store, func() { conn.Close() }, nil
}
