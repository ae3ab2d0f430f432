// Package cmd implements the munch command line interface.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/munch-labs/munch/internal/config"
	"github.com/munch-labs/munch/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "munch",
	Short: "Restaurant recommendation chat service",
	Long: `Munch is a retrieval-augmented restaurant recommendation chatbot.

It stores per-session conversation history in PostgreSQL, retrieves
matching restaurants from a pgvector index, and answers through the
Gemini API. Run "munch serve" to start the HTTP server.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadApp loads configuration and builds the logger shared by all
// subcommands.
func loadApp() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading configuration: %w", err)
	}

	logger := log.New(log.Config{Level: log.ParseLevel(cfg.LogLevel), JSON: cfg.LogJSON})
	slog.SetDefault(logger)

	return cfg, logger, nil
}
