// Package main provides the reference store: a SQLite-backed implementation
// of the college store API for local runs.
package main

import (
	"github.com/spf13/cobra"

	"mhdb/internal/cli"
	"mhdb/internal/metrics"
	"mhdb/internal/store"
)

func main() {
	var (
		flags cli.Flags
		addr  string
		dsn   string
	)

	cmd := &cobra.Command{
		Use:   "refstore",
		Short: "Serve the college store API from a SQLite database.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := flags.Load()
			if err != nil {
				return err
			}

			st, err := store.Open(cmd.Context(), dsn)
			if err != nil {
				return err
			}
			defer st.Close()

			if cfg.Store.APIKey == "" {
				log.Warn("⚠️  no API key configured, writes are open")
			}

			srv := store.NewServer(store.ServerOptions{
				Store:   st,
				Logger:  log,
				Metrics: metrics.NewRecorder(),
				Addr:    addr,
				APIKey:  cfg.Store.APIKey,
			})

			return srv.Run(cmd.Context())
		},
	}

	flags.Register(cmd)
	cmd.Flags().StringVar(&addr, "addr", ":58346", "listen address")
	cmd.Flags().StringVar(&dsn, "db", "refstore.db", "SQLite database path (\":memory:\" for a throwaway store)")

	cli.Execute(cmd)
}
