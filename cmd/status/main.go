// Package main provides the status command: what the store holds and which
// targets are missing from it.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mhdb/internal/cli"
	"mhdb/internal/config"
	"mhdb/internal/dataset"
	"mhdb/internal/extract"
	"mhdb/internal/formatter"
	"mhdb/internal/models"
	"mhdb/internal/payload"
)

func main() {
	var (
		flags    cli.Flags
		targets  string
		storeURL string
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "List the colleges in the store and the targets that failed to scrape.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := flags.Load(func(c *config.Config) {
				if storeURL != "" {
					c.Store.BaseURL = storeURL
				}
			})
			if err != nil {
				return err
			}

			client := payload.NewStoreClient(payload.StoreOptions{
				Logger:        log,
				BaseURL:       cfg.Store.BaseURL,
				APIKey:        cfg.Store.APIKey,
				HealthTimeout: cfg.Store.HealthTimeout(),
			})

			if !client.HealthCheck(cmd.Context()) {
				return fmt.Errorf("%w: %s", payload.ErrStoreUnreachable, cfg.Store.BaseURL)
			}

			colleges, err := client.ListAll(cmd.Context())
			if err != nil {
				return err
			}

			var missing []string

			if targets != "" {
				set, err := dataset.LoadTargets(targets)
				if err != nil {
					return err
				}

				missing = missingTargets(set.Colleges, colleges)
			}

			return flags.Render(formatter.StatusTables(colleges, missing)...)
		},
	}

	flags.Register(cmd)
	cmd.Flags().StringVar(&targets, "targets", "", "targets file to check coverage against")
	cmd.Flags().StringVar(&storeURL, "store-url", "", "override store.base_url")

	cli.Execute(cmd)
}

// missingTargets returns the targets with no college of the same name in the store.
func missingTargets(targets []models.Target, stored []payload.StoredCollege) []string {
	have := make(map[string]struct{}, len(stored))
	for _, c := range stored {
		have[extract.DedupKey(c.Name)] = struct{}{}
	}

	var missing []string

	for _, t := range targets {
		if _, ok := have[extract.DedupKey(t.Name)]; !ok {
			missing = append(missing, t.Name)
		}
	}

	return missing
}
