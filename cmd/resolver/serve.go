package main

import (
	"github.com/spf13/cobra"

	"github.com/entity-resolver/internal/db"
	"github.com/entity-resolver/internal/web"
)

func createServeCmd() *cobra.Command {
	var store bool
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				app.cfg.Server.Port = port
			}
			ctx := cmd.Context()

			var st *db.Store
			if store {
				s, closeStore, err := openStore(ctx)
				if err != nil {
					return err
				}
				defer closeStore()
				st = s
			}

			server := web.NewServer(web.ConfigFrom(app.cfg), newCanonicalizer(), st, app.logger)
			return server.Start(ctx)
		},
	}

	cmd.Flags().BoolVar(&store, "store", false, "connect to PostgreSQL and enable run persistence")
	cmd.Flags().IntVar(&port, "port", 8080, "listen port (overrides WEB_PORT)")
	return cmd
}
