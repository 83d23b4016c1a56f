package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/entity-resolver/internal/config"
	"github.com/entity-resolver/internal/logging"
)

// app holds what every subcommand needs once flags are parsed.
var app struct {
	cfg    *config.Config
	logger *slog.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath, envFile, logLevel, logFormat string

	rootCmd := &cobra.Command{
		Use:           "resolver",
		Short:         "Fuzzy entity resolution for name and address records",
		Long:          `Groups records that refer to the same real-world party by comparing canonical names and addresses, and triages scored pairs for review`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadEnv(envFile); err != nil {
				return err
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.Logging.Level = logLevel
			}
			if logFormat != "" {
				cfg.Logging.Format = logFormat
			}
			logger, err := logging.New(logging.Options{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
				Output: cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}
			app.cfg, app.logger = cfg, logger
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "TOML configuration file")
	flags.StringVar(&envFile, "env-file", "", ".env file to load before ./.env")
	flags.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&logFormat, "log-format", "", "log format: console or json")

	rootCmd.AddCommand(createResolveCmd())
	rootCmd.AddCommand(createClassifyCmd())
	rootCmd.AddCommand(createAdjudicateCmd())
	rootCmd.AddCommand(createParseCmd())
	rootCmd.AddCommand(createServeCmd())

	return rootCmd
}
