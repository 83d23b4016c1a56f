package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/entity-resolver/internal/db"
	"github.com/entity-resolver/internal/export"
	"github.com/entity-resolver/internal/match"
)

func createResolveCmd() *cobra.Command {
	var (
		nameThreshold int
		addrThreshold int
		workers       int
		outPath       string
		format        string
		store         bool
		label         string
	)

	cmd := &cobra.Command{
		Use:   "resolve [file]",
		Short: "Resolve records into canonical entities",
		Long:  `Normalise every record, compare all pairs and merge those whose name and address scores both reach their thresholds. Without a file argument CSV_PATH is used, then sample.csv.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("name-threshold") {
				app.cfg.Resolve.NameThreshold = nameThreshold
			}
			if cmd.Flags().Changed("addr-threshold") {
				app.cfg.Resolve.AddrThreshold = addrThreshold
			}
			if cmd.Flags().Changed("workers") {
				app.cfg.Resolve.Workers = workers
			}
			if err := app.cfg.Validate(); err != nil {
				return err
			}

			path := app.cfg.Input.Path
			if len(args) == 1 {
				path = args[0]
			}

			ctx := cmd.Context()
			records, err := loadNormalized(ctx, path)
			if err != nil {
				return err
			}
			cfg := engineConfig()
			entities, err := match.NewEngine(cfg).Resolve(ctx, records)
			if err != nil {
				return err
			}

			if err := writeEntities(cmd.OutOrStdout(), outPath, format, entities); err != nil {
				return err
			}

			if store {
				st, closeStore, err := openStore(ctx)
				if err != nil {
					return err
				}
				defer closeStore()
				if label == "" {
					label = fmt.Sprintf("resolve-%d", time.Now().Unix())
				}
				run := db.NewRun(label, cfg, len(records), entities)
				if err := st.SaveRun(ctx, run); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Stored run %s (%s)\n", run.ID, label)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&nameThreshold, "name-threshold", 85, "minimum name score (0-100) to merge")
	cmd.Flags().IntVar(&addrThreshold, "addr-threshold", 75, "minimum address score (0-100) to merge")
	cmd.Flags().IntVar(&workers, "workers", 1, "pairwise comparison workers")
	cmd.Flags().StringVar(&outPath, "out", "", "write entities to this file instead of stdout")
	cmd.Flags().StringVar(&format, "format", export.FormatTable, "output format: table, csv or json")
	cmd.Flags().BoolVar(&store, "store", false, "persist the run to PostgreSQL")
	cmd.Flags().StringVar(&label, "label", "", "run label when storing")

	return cmd
}

// writeEntities writes to outPath when set, otherwise to stdout with a
// heading for the table format.
func writeEntities(stdout io.Writer, outPath, format string, entities []match.Entity) error {
	if outPath == "" {
		if format == export.FormatTable {
			fmt.Fprintln(stdout, "\nCanonical entities:")
		}
		return export.WriteEntities(stdout, entities, format)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", outPath, err)
	}
	if err := export.WriteEntities(f, entities, format); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", outPath, err)
	}
	return nil
}
