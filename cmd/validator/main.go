// Package main provides the validator command: a data-quality report over
// snapshot or seed files.
package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"mhdb/internal/cli"
	"mhdb/internal/config"
	"mhdb/internal/dataset"
	"mhdb/internal/formatter"
	"mhdb/internal/normalizer"
)

var errIssues = errors.New("validation issues found")

func main() {
	var (
		flags  cli.Flags
		policy string
		strict bool
	)

	cmd := &cobra.Command{
		Use:   "validator [file ...]",
		Short: "Report data-quality issues in college snapshot files.",
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, log, err := flags.Load(func(c *config.Config) {
				if policy != "" {
					c.Validation.Policy = policy
				}
			})
			if err != nil {
				return err
			}

			pol, err := normalizer.PolicyByName(cfg.Validation.Policy)
			if err != nil {
				return err
			}

			files := args
			if len(files) == 0 {
				files = []string{cfg.Output.Path}
			}

			v := normalizer.NewValidator(pol)
			failed := 0

			for _, path := range files {
				insts, err := dataset.LoadInstitutions(path)
				if err != nil {
					return err
				}

				log.Info(fmt.Sprintf("📋 Validating %d colleges from %s", len(insts), path))

				rep := v.Report(insts)
				if rep.HasIssues() {
					failed++
				}

				if err := flags.Render(formatter.ValidationTables(rep)...); err != nil {
					return err
				}
			}

			if strict && failed > 0 {
				return fmt.Errorf("%w in %d of %d file(s)", errIssues, failed, len(files))
			}

			return nil
		},
	}

	flags.Register(cmd)
	cmd.Flags().StringVar(&policy, "policy", "", "override validation.policy (strict, loose)")
	cmd.Flags().BoolVar(&strict, "fail-on-issues", false, "exit with status 1 when any college has issues")

	cli.Execute(cmd)
}
