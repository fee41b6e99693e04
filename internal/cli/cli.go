// Package cli holds the flag handling and start-up plumbing shared by the
// command binaries.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"mhdb/internal/config"
	"mhdb/internal/formatter"
	"mhdb/internal/logger"
	"mhdb/internal/pipeline"
)

// Flags are the options every binary accepts.
type Flags struct {
	ConfigPath  string
	LogLevel    string
	LogFormat   string
	Format      string
	// WriteConfig, when set, receives the effective configuration after overrides.
	WriteConfig string
}

// Register adds the shared flags to cmd.
func (f *Flags) Register(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringVarP(&f.ConfigPath, "config", "c", "", "path to the YAML config file (built-in defaults when empty)")
	pf.StringVar(&f.LogLevel, "log-level", "", "override logging.level (debug, info, warn, error)")
	pf.StringVar(&f.LogFormat, "log-format", "", "override logging.format (text, json)")
	pf.StringVar(&f.Format, "format", formatter.FormatTable, "report format (table, markdown)")
	pf.StringVar(&f.WriteConfig, "write-config", "", "write the effective configuration to this path")
}

// Load reads the configuration, applies overrides and builds the logger.
// Overrides run before validation so a bad flag is reported as a config error.
func (f *Flags) Load(overrides ...func(*config.Config)) (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(f.ConfigPath)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", pipeline.ErrConfig, err)
	}

	if f.LogLevel != "" {
		cfg.Logging.Level = f.LogLevel
	}

	if f.LogFormat != "" {
		cfg.Logging.Format = f.LogFormat
	}

	for _, apply := range overrides {
		apply(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", pipeline.ErrConfig, err)
	}

	if f.WriteConfig != "" {
		if err := cfg.SaveConfig(f.WriteConfig); err != nil {
			return nil, nil, fmt.Errorf("%w: %w", pipeline.ErrConfig, err)
		}
	}

	return cfg, logger.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format), nil
}

// Render writes tables to stdout in the selected format.
func (f *Flags) Render(tables ...formatter.Table) error {
	return formatter.Render(os.Stdout, f.Format, tables...)
}

// Execute runs cmd with a context cancelled on SIGINT or SIGTERM and exits
// with status 1 on failure.
func Execute(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	err := cmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, FatalMessage(err))
		os.Exit(1)
	}
}

// FatalMessage formats err with its category for the operator.
func FatalMessage(err error) string {
	return fmt.Sprintf("❌ %s: %v", pipeline.Category(err), err)
}

// Confirm returns a ConfirmFunc that prompts on out and reads a y/N answer
// from in. When assumeYes is set it never prompts.
func Confirm(in io.Reader, out io.Writer, assumeYes bool) pipeline.ConfirmFunc {
	reader := bufio.NewReader(in)

	return func(ctx context.Context, n int) (bool, error) {
		if assumeYes {
			return true, nil
		}

		if err := ctx.Err(); err != nil {
			return false, err
		}

		fmt.Fprintf(out, "Import %d college(s) to the store? [y/N]: ", n)

		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			if err == io.EOF {
				return false, nil
			}

			return false, fmt.Errorf("failed to read confirmation: %w", err)
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		}

		return false, nil
	}
}
