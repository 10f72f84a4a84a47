// Package cmd provides the policyragctl commands.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/policyrag/internal/app"
	"github.com/kailas-cloud/policyrag/internal/config"
	logpkg "github.com/kailas-cloud/policyrag/internal/logger"
	"github.com/kailas-cloud/policyrag/internal/version"
)

// options are the persistent flags shared by every command.
type options struct {
	env        string
	configPath string
	logLevel   string
	jsonOutput bool
}

// NewRootCmd creates the root command for the policyragctl CLI.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "policyragctl",
		Short: "Query and operate the auto-insurance policy RAG pipeline",
		Long: `policyragctl runs the retrieval pipeline in-process against the
configured corpus, vector index and answer cache.

Use it to ask questions, inspect ranked evidence, and inspect or clear
the answer cache without going through the HTTP API.`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.SetVersionTemplate("policyragctl version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&opts.env, "env", config.GetEnv(), "Config environment (config/<env>.yaml)")
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Explicit config file path (overrides --env)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	cmd.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "Output as JSON")

	cmd.AddCommand(newAskCmd(opts))
	cmd.AddCommand(newSearchCmd(opts))
	cmd.AddCommand(newCacheCmd(opts))

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// withApp loads configuration, builds the pipeline and runs fn.
func withApp(ctx context.Context, opts *options, fn func(*app.App) error) error {
	var (
		cfg config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.LoadFile(opts.configPath)
	} else {
		cfg, err = config.Load(opts.env)
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger("local", opts.logLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}
	defer a.Close()

	return fn(a)
}
