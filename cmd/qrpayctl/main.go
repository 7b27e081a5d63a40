// Command qrpayctl is the operator CLI: schema migration, ledger reports and
// ledger event tailing.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"qrpay/internal/config"
	"qrpay/internal/entity"
	"qrpay/pkg/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var Version = "dev"

type rootOptions struct {
	configPath string
	output     string
	verbose    bool
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Failed to load .env: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		cancel()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "qrpayctl",
		Short:         "Operator tooling for the QR payment service",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return validateFormat(opts.output)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Path to config file (defaults to $CONFIG_PATH)")
	flags.StringVarP(&opts.output, "output", "o", formatTable, "Output format: table, json or yaml")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Write service logs to stdout and the log file")

	rootCmd.AddCommand(migrateCmd(opts))
	rootCmd.AddCommand(revenueCmd(opts))
	rootCmd.AddCommand(transactionsCmd(opts))
	rootCmd.AddCommand(eventsCmd(opts))

	return rootCmd
}

func (o *rootOptions) load() (*config.Config, logger.Logger, error) {
	path := o.configPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		return nil, nil, fmt.Errorf("qrpayctl: %w", entity.ErrConfigPathNotSet)
	}

	cfg, err := config.LoadPath(path)
	if err != nil {
		return nil, nil, err
	}

	if !o.verbose {
		return cfg, logger.NewNop(), nil
	}
	log, err := logger.NewAdapter(cfg, logger.WithoutFile(), logger.Console(os.Stderr))
	if err != nil {
		return nil, nil, fmt.Errorf("qrpayctl: logger: %w", err)
	}
	return cfg, log, nil
}
