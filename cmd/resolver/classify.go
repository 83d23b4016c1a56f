package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/entity-resolver/internal/export"
	import_pkg "github.com/entity-resolver/internal/import"
	"github.com/entity-resolver/internal/match"
)

func createClassifyCmd() *cobra.Command {
	var (
		pairsPath string
		inputPath string
		outDir    string
		high      float64
		low       float64
	)

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Split scored pairs into merge, discard and ambiguous lists",
		Long:  `Triage pairs from a JSON pair file (--pairs) or score every pair of an input table (--input), then write merge.json, discard.json and ambiguous.json.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (pairsPath == "") == (inputPath == "") {
				return errors.New("exactly one of --pairs or --input is required")
			}
			if cmd.Flags().Changed("high") {
				app.cfg.Classifier.High = high
			}
			if cmd.Flags().Changed("low") {
				app.cfg.Classifier.Low = low
			}
			if err := app.cfg.Validate(); err != nil {
				return err
			}

			ctx := cmd.Context()
			var pairs []match.ScoredPair
			var err error
			if pairsPath != "" {
				pairs, err = import_pkg.ReadPairs(pairsPath)
			} else {
				records, lerr := loadNormalized(ctx, inputPath)
				if lerr != nil {
					return lerr
				}
				pairs, err = match.NewEngine(engineConfig()).ScorePairs(ctx, records)
			}
			if err != nil {
				return err
			}

			tiers := match.Tiers{High: app.cfg.Classifier.High, Low: app.cfg.Classifier.Low}
			triage := match.NewClassifier(tiers, app.logger).Classify(pairs)

			exporter, err := export.NewExporter(outDir, app.logger)
			if err != nil {
				return err
			}
			if err := exporter.WriteTriage(triage); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "merge: %d  discard: %d  ambiguous: %d  (written to %s)\n",
				len(triage.Merge), len(triage.Discard), len(triage.Ambiguous), exporter.Dir())
			return nil
		},
	}

	cmd.Flags().StringVar(&pairsPath, "pairs", "", "JSON file of scored pairs")
	cmd.Flags().StringVar(&inputPath, "input", "", "record table to score pairwise")
	cmd.Flags().StringVar(&outDir, "out", ".", "output directory")
	cmd.Flags().Float64Var(&high, "high", 0.85, "auto-merge at or above this score")
	cmd.Flags().Float64Var(&low, "low", 0.60, "auto-discard at or below this score")

	return cmd
}
