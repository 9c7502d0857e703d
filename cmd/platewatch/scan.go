package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"platewatch/internal/app"
	"platewatch/internal/config"
	"platewatch/internal/logging"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run one discovery pass",
		Long: `Scan runs a single discovery pass: candidates are drawn from the
selected strategy, resolved and enriched concurrently, filtered to
registrations from today or yesterday, and merged into the state file.

Examples:
  # Scan via the search API (default strategy)
  platewatch scan

  # Enumerate the configured plate range instead
  platewatch scan --strategy range

  # Use a custom configuration file and lower concurrency
  platewatch scan -c platewatch.yaml --concurrency 10`,
		Args: cobra.NoArgs,
		RunE: runScanCmd,
	}

	cmd.Flags().StringP("config", "c", "", "Configuration file path (default: $PLATEWATCH_CONFIG)")
	cmd.Flags().StringP("strategy", "s", "", "Discovery strategy: range or search")
	cmd.Flags().IntP("concurrency", "n", 0, "Maximum simultaneously in-flight requests")
	cmd.Flags().Bool("notify", false, "Send a desktop notification when new plates are found")
	cmd.Flags().Bool("deploy", false, "Deploy the static site after the run")

	return cmd
}

func runScanCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	logger := logging.New(cfg.Logging.Level)

	application, err := app.New(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return application.Run(ctx)
}

func buildConfig(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config

	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return cfg, err
	}
	if path != "" {
		cfg, err = config.LoadFile(path)
		if err != nil {
			return cfg, err
		}
	} else {
		cfg = config.Load()
	}

	strategy, err := cmd.Flags().GetString("strategy")
	if err != nil {
		return cfg, err
	}
	if strategy != "" {
		cfg.Scan.Strategy = strategy
	}

	concurrency, err := cmd.Flags().GetInt("concurrency")
	if err != nil {
		return cfg, err
	}
	if concurrency > 0 {
		cfg.Scan.Concurrency = concurrency
	}

	if notifyFlag, err := cmd.Flags().GetBool("notify"); err == nil && notifyFlag {
		cfg.Notifications.Desktop.Enabled = true
	}

	if deployFlag, err := cmd.Flags().GetBool("deploy"); err == nil && deployFlag {
		cfg.Deploy.Enabled = true
	}

	if verbose, err := cmd.Root().PersistentFlags().GetBool("verbose"); err == nil && verbose {
		cfg.Logging.Level = "debug"
	}

	return cfg, nil
}
