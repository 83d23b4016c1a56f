package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/entity-resolver/internal/adjudicate"
	"github.com/entity-resolver/internal/db"
	"github.com/entity-resolver/internal/export"
	import_pkg "github.com/entity-resolver/internal/import"
)

func createAdjudicateCmd() *cobra.Command {
	var ambiguousPath, outDir, oracleURL, model, runID string
	var store bool

	cmd := &cobra.Command{
		Use:   "adjudicate",
		Short: "Ask the model oracle about ambiguous pairs",
		Long:  `Send each pair of an ambiguous list to a chat-completions model once and write final_decisions.json. Pairs the oracle could not decide go to adjudication_errors.json. With --store the decisions are also persisted, attached to --run or to a new run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var existing uuid.UUID
			if runID != "" {
				if !store {
					return fmt.Errorf("--run requires --store")
				}
				id, err := uuid.Parse(runID)
				if err != nil {
					return fmt.Errorf("invalid run id %q: %w", runID, err)
				}
				existing = id
			}

			requests, err := import_pkg.ReadPairs(ambiguousPath)
			if err != nil {
				return err
			}

			oc := app.cfg.Oracle
			if oracleURL != "" {
				oc.URL = oracleURL
			}
			if model != "" {
				oc.Model = model
			}
			oracle := adjudicate.NewLLMOracle(adjudicate.LLMConfig{
				URL:            oc.URL,
				APIKey:         oc.APIKey,
				Model:          oc.Model,
				TimeoutSeconds: oc.TimeoutSeconds,
			})

			res, runErr := adjudicate.Run(cmd.Context(), oracle, requests, adjudicate.Options{
				RatePerSecond: oc.RatePerSecond,
				Logger:        app.logger,
			})

			exporter, err := export.NewExporter(outDir, app.logger)
			if err != nil {
				return err
			}
			if err := exporter.WriteAdjudication(res); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "decided: %d  failed: %d  (written to %s)\n",
				len(res.Decisions), len(res.Failures), exporter.Dir())

			if store {
				if err := storeDecisions(cmd.Context(), cmd.ErrOrStderr(), existing, res.Decisions); err != nil {
					return err
				}
			}
			return runErr
		},
	}

	cmd.Flags().StringVar(&ambiguousPath, "ambiguous", export.AmbiguousFile, "ambiguous pair list")
	cmd.Flags().StringVar(&outDir, "out", ".", "output directory")
	cmd.Flags().StringVar(&oracleURL, "oracle-url", "", "chat-completions endpoint (overrides ORACLE_URL)")
	cmd.Flags().StringVar(&model, "model", "", "model name (overrides ORACLE_MODEL)")
	cmd.Flags().BoolVar(&store, "store", false, "persist decisions to PostgreSQL")
	cmd.Flags().StringVar(&runID, "run", "", "attach decisions to this stored run instead of a new one")

	return cmd
}

// storeDecisions attaches decisions to runID, or to a new entity-less run
// when runID is nil.
func storeDecisions(ctx context.Context, stderr io.Writer, runID uuid.UUID, decisions []adjudicate.Decision) error {
	st, closeStore, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	if runID != uuid.Nil {
		if err := st.SaveDecisions(ctx, runID, decisions); err != nil {
			return err
		}
		fmt.Fprintf(stderr, "Stored %d decisions on run %s\n", len(decisions), runID)
		return nil
	}

	label := fmt.Sprintf("adjudicate-%d", time.Now().Unix())
	run := db.NewRun(label, engineConfig(), 0, nil)
	run.Decisions = decisions
	if err := st.SaveRun(ctx, run); err != nil {
		return err
	}
	fmt.Fprintf(stderr, "Stored run %s (%s) with %d decisions\n", run.ID, label, len(decisions))
	return nil
}
