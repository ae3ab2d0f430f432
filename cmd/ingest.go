package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/munch-labs/munch/internal/app"
	"github.com/munch-labs/munch/internal/ingest"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load restaurant data into the vector index",
	Long: `Ingest embeds restaurant documents and stores them in pgvector.

Sources:
  munch ingest --query "Restaurants in Santa Monica, CA"
  munch ingest --file restaurants_with_reviews.json`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runIngest(cmd)
	},
}

func init() {
	ingestCmd.Flags().String("query", "", "Places API text search query")
	ingestCmd.Flags().String("file", "", "path to a restaurants JSON export")
	ingestCmd.Flags().Int("max", 60, "maximum places to fetch per query")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command) error {
	query, _ := cmd.Flags().GetString("query")
	file, _ := cmd.Flags().GetString("file")
	maxResults, _ := cmd.Flags().GetInt("max")

	if (query == "") == (file == "") {
		return fmt.Errorf("exactly one of --query or --file is required")
	}

	cfg, logger, err := loadApp()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	if file != "" {
		ix, err := ingest.NewIndexer(noSearch{}, a.Places, logger)
		if err != nil {
			return err
		}
		stored, err := ix.IndexFile(ctx, file)
		if err != nil {
			return err
		}
		fmt.Printf("Indexed %d restaurants from %s\n", stored, file)
		return nil
	}

	client, err := ingest.NewClient(cfg.PlacesAPIKey, logger)
	if err != nil {
		return fmt.Errorf("creating places client: %w", err)
	}
	ix, err := ingest.NewIndexer(client, a.Places, logger)
	if err != nil {
		return err
	}
	stored, err := ix.IndexQuery(ctx, query, maxResults)
	if err != nil {
		return err
	}
	fmt.Printf("Indexed %d restaurants for %q\n", stored, query)
	return nil
}

// noSearch satisfies ingest.Searcher for file-only runs, where the Places
// API is never called.
type noSearch struct{}

func (noSearch) SearchText(context.Context, string, int) ([]ingest.Place, error) {
	return nil, fmt.Errorf("places search not configured")
}
