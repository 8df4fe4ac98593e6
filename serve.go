package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/mastermind/assets"
	"github.com/robalobadob/mastermind/internal/driver"
	"github.com/robalobadob/mastermind/internal/httpserver"
	"github.com/robalobadob/mastermind/internal/store"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port, dbPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			opts.code = driver.ExitInternal

			db, err := store.Open(dbPath)
			if err != nil {
				return err
			}
			defer db.Close()
			mig, err := assets.Migrations()
			if err != nil {
				return err
			}
			if err := store.Migrate(db, mig); err != nil {
				return err
			}

			srv := httpserver.New(cfg, store.NewMemoryStore(), db)
			log.Info().Str("port", port).Str("db", dbPath).Msg("starting mastermind server")
			return srv.Start(":" + port)
		},
	}
	cmd.Flags().StringVar(&port, "port", getEnv("PORT", "5175"), "listen port")
	cmd.Flags().StringVar(&dbPath, "db", getEnv("DB_PATH", "./data/mastermind.db"), "SQLite database path")
	return cmd
}
