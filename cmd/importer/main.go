// Package main provides the importer command: push a snapshot file to the store.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"mhdb/internal/cli"
	"mhdb/internal/config"
	"mhdb/internal/dataset"
	"mhdb/internal/formatter"
	"mhdb/internal/metrics"
	"mhdb/internal/payload"
	"mhdb/internal/pipeline"
)

func main() {
	var (
		flags     cli.Flags
		input     string
		storeURL  string
		assumeYes bool
		expect    string
	)

	cmd := &cobra.Command{
		Use:   "importer",
		Short: "Import a college snapshot into the store and verify the result.",
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

			if input == "" {
				input = cfg.Output.Path
			}

			if expect != "" {
				if err := dataset.VerifyFile(input, expect); err != nil {
					return err
				}
			}

			insts, err := dataset.LoadInstitutions(input)
			if err != nil {
				return err
			}

			log.Info(fmt.Sprintf("📂 Loaded %d colleges from %s", len(insts), input))

			ok, err := cli.Confirm(os.Stdin, os.Stderr, assumeYes)(cmd.Context(), len(insts))
			if err != nil {
				return err
			}

			if !ok {
				return pipeline.ErrDeclined
			}

			rec := metrics.NewRecorder()
			uploader := payload.NewUploader(payload.StoreOptions{
				Logger:        log,
				Metrics:       rec,
				BaseURL:       cfg.Store.BaseURL,
				APIKey:        cfg.Store.APIKey,
				HealthTimeout: cfg.Store.HealthTimeout(),
			})

			res, err := uploader.Import(cmd.Context(), insts)
			if res != nil {
				if rerr := flags.Render(importTable(res)); rerr != nil {
					log.Warn("could not render summary", "error", rerr)
				}
			}

			if path := cfg.Output.MetricsPath; path != "" {
				if werr := rec.WriteTextfile(path); werr != nil {
					log.Warn("⚠️  could not write metrics", "error", werr)
				}
			}

			return err
		},
	}

	flags.Register(cmd)
	cmd.Flags().StringVarP(&input, "input", "i", "", "snapshot file to import (default output.path)")
	cmd.Flags().StringVar(&storeURL, "store-url", "", "override store.base_url")
	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "import without asking")
	cmd.Flags().StringVar(&expect, "digest", "", "refuse to import unless the snapshot has this SHA-256")

	cli.Execute(cmd)
}

func importTable(res *payload.ImportResult) formatter.Table {
	return formatter.Table{
		Title:  "Import",
		Header: []string{"Item", "Value"},
		Rows: [][]string{
			{"Message", formatter.Cell(res.Message)},
			{"Payload digest", res.Digest[:12]},
			{"Sent colleges", strconv.Itoa(res.SentColleges)},
			{"Sent resources", strconv.Itoa(res.SentResources)},
			{"Store colleges", strconv.Itoa(res.Colleges)},
			{"Store resources", strconv.Itoa(res.Resources)},
		},
	}
}
