package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/lodge/internal/cli"
	"github.com/aretw0/lodge/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lodge",
	Short: "Lodge collects property search preferences through a guided chat",
	Long: `Lodge runs a short scripted conversation that gathers where someone wants
to live, what they are looking for, and how to reach them, then hands the
result to the configured sinks.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "lodge.yaml", "Path to the YAML config file")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

// loadApp reads config and wires the service for a command.
func loadApp(ctx context.Context, cmd *cobra.Command) (*cli.App, error) {
	path, _ := cmd.Flags().GetString("config")
	debug, _ := cmd.Flags().GetBool("debug")

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	logger, err := cli.NewLogger(cfg, debug)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	return cli.Build(ctx, cfg, logger)
}
