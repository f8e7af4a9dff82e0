// Package main provides the autoval CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/autoval/autoval/internal/logging"
)

var version = "dev"

// logger is set up by the root command before any subcommand runs.
var logger = zap.NewNop()

func newRootCmd() *cobra.Command {
	var (
		logLevel string
		verbose  bool
	)

	rootCmd := &cobra.Command{
		Use:   "autoval",
		Short: "Vehicle valuation adjustment engine",
		Long: `autoval turns a vehicle's base market price into an estimated value by
composing independent adjustment factors, and explains how each factor
moved the price.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := logLevel
			if verbose {
				level = "debug"
			}
			l, err := logging.New(level, true)
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default: search for .autoval/config.yaml)")

	rootCmd.AddCommand(
		newValueCmd(),
		newTablesCmd(),
	)
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
