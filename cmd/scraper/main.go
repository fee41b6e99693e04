// Package main provides the scraper command: crawl the target list, merge the
// seed file and write the validated snapshot.
package main

import (
	"github.com/spf13/cobra"

	"mhdb/internal/cli"
	"mhdb/internal/config"
	"mhdb/internal/pipeline"
)

func main() {
	var (
		flags       cli.Flags
		targets     string
		output      string
		seed        string
		placeholder bool
	)

	cmd := &cobra.Command{
		Use:   "scraper",
		Short: "Crawl mental-health pages and write a validated college snapshot.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := flags.Load(func(c *config.Config) {
				if targets != "" {
					c.Scraper.TargetsPath = targets
				}

				if output != "" {
					c.Output.Path = output
				}

				if seed != "" {
					c.Output.SeedPath = seed
				}

				if placeholder {
					c.Extraction.PlaceholderOnEmpty = true
				}
			})
			if err != nil {
				return err
			}

			log.Info("🚀 Starting scraper")

			runner, err := pipeline.New(pipeline.Options{Config: cfg, Logger: log})
			if err != nil {
				return err
			}

			sum, err := runner.Run(cmd.Context(), false)
			if sum != nil {
				if rerr := flags.Render(sum.Tables()...); rerr != nil {
					log.Warn("could not render summary", "error", rerr)
				}
			}

			if err != nil {
				return err
			}

			log.Info("✨ Scrape complete!")

			return nil
		},
	}

	flags.Register(cmd)
	cmd.Flags().StringVar(&targets, "targets", "", "override scraper.targets_path")
	cmd.Flags().StringVarP(&output, "output", "o", "", "override output.path")
	cmd.Flags().StringVar(&seed, "seed", "", "override output.seed_path")
	cmd.Flags().BoolVar(&placeholder, "placeholder", false, "add a generic resource to institutions with no extracted services")

	cli.Execute(cmd)
}
