// Package main provides the pipeline command that combines scraping,
// validation and the store import in one run.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mhdb/internal/cli"
	"mhdb/internal/config"
	"mhdb/internal/pipeline"
)

func main() {
	var (
		flags     cli.Flags
		targets   string
		storeURL  string
		assumeYes bool
		noImport  bool
	)

	cmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Scrape, validate and import the college catalogue in one confirmed run.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := flags.Load(func(c *config.Config) {
				if targets != "" {
					c.Scraper.TargetsPath = targets
				}

				if storeURL != "" {
					c.Store.BaseURL = storeURL
				}
			})
			if err != nil {
				return err
			}

			runner, err := pipeline.New(pipeline.Options{
				Config:  cfg,
				Logger:  log,
				Confirm: cli.Confirm(os.Stdin, os.Stderr, assumeYes),
			})
			if err != nil {
				return err
			}

			log.Info("🚀 Starting catalogue pipeline", "run_id", runner.RunID())
			log.Info(fmt.Sprintf("📍 Targets: %s", cfg.Scraper.TargetsPath))
			log.Info(fmt.Sprintf("🎯 Store: %s", cfg.Store.BaseURL))

			sum, err := runner.Run(cmd.Context(), !noImport)
			if sum != nil {
				if rerr := flags.Render(sum.Tables()...); rerr != nil {
					log.Warn("could not render summary", "error", rerr)
				}
			}

			if err != nil {
				return err
			}

			log.Info("✨ Pipeline complete!")

			return nil
		},
	}

	flags.Register(cmd)
	cmd.Flags().StringVar(&targets, "targets", "", "override scraper.targets_path")
	cmd.Flags().StringVar(&storeURL, "store-url", "", "override store.base_url")
	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "import without asking")
	cmd.Flags().BoolVar(&noImport, "no-import", false, "stop after writing the snapshot")

	cli.Execute(cmd)
}
