package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/munch-labs/munch/internal/places"
)

// DocumentStore is the write side of the vector store. Implemented by
// places.Store.
type DocumentStore interface {
	Add(ctx context.Context, doc places.Document) error
}

// Searcher is the place lookup the indexer pulls from. Implemented by
// *Client.
type Searcher interface {
	SearchText(ctx context.Context, query string, maxResults int) ([]Place, error)
}

// Indexer embeds and stores restaurant documents.
type Indexer struct {
	client Searcher
	store  DocumentStore
	logger *slog.Logger
}

// NewIndexer creates an Indexer.
func NewIndexer(client Searcher, store DocumentStore, logger *slog.Logger) (*Indexer, error) {
	if client == nil {
		return nil, fmt.Errorf("places client is required")
	}
	if store == nil {
		return nil, fmt.Errorf("document store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{client: client, store: store, logger: logger}, nil
}

// IndexQuery searches the Places API and stores every result. A place that
// fails to index is logged and skipped; the count of stored documents is
// returned.
func (ix *Indexer) IndexQuery(ctx context.Context, query string, maxResults int) (int, error) {
	found, err := ix.client.SearchText(ctx, query, maxResults)
	if err != nil {
		return 0, fmt.Errorf("searching places: %w", err)
	}

	stored := 0
	for _, p := range found {
		doc := documentFromPlace(p)
		if doc.Review == "" {
			ix.logger.Debug("skipping place without reviews", "id", p.ID, "name", doc.Name)
			continue
		}
		if err := ix.store.Add(ctx, doc); err != nil {
			ix.logger.Warn("failed to index place", "id", p.ID, "name", doc.Name, "error", err)
			continue
		}
		stored++
	}

	ix.logger.Info("indexed query", "query", query, "found", len(found), "stored", stored)
	return stored, nil
}

// fileRestaurant matches the exported restaurants_with_reviews.json schema.
type fileRestaurant struct {
	PlaceID string   `json:"place_id"`
	Name    string   `json:"name"`
	Address string   `json:"address"`
	Rating  float64  `json:"rating"`
	Reviews []string `json:"reviews"`
}

// IndexFile loads restaurants from a JSON export and stores them. The file
// holds an array of objects with place_id, name, address, rating and reviews.
func (ix *Indexer) IndexFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}

	var restaurants []fileRestaurant
	if err := json.Unmarshal(data, &restaurants); err != nil {
		return 0, fmt.Errorf("parsing %s: %w", path, err)
	}

	stored := 0
	for _, r := range restaurants {
		doc := places.Document{
			ID:      r.PlaceID,
			Name:    r.Name,
			Address: r.Address,
			Rating:  r.Rating,
			Review:  strings.Join(r.Reviews, "\n"),
		}
		if doc.Review == "" {
			ix.logger.Debug("skipping restaurant without reviews", "id", doc.ID, "name", doc.Name)
			continue
		}
		if err := ix.store.Add(ctx, doc); err != nil {
			ix.logger.Warn("failed to index restaurant", "id", doc.ID, "name", doc.Name, "error", err)
			continue
		}
		stored++
	}

	ix.logger.Info("indexed file", "path", path, "found", len(restaurants), "stored", stored)
	return stored, nil
}

// documentFromPlace flattens an API place into a storable document. Review
// texts are joined so one embedding covers everything said about the place.
func documentFromPlace(p Place) places.Document {
	texts := make([]string, 0, len(p.Reviews))
	for _, r := range p.Reviews {
		if r.Text.Text != "" {
			texts = append(texts, r.Text.Text)
		}
	}
	return places.Document{
		ID:      p.ID,
		Name:    p.DisplayName.Text,
		Address: p.FormattedAddr,
		Rating:  p.Rating,
		Review:  strings.Join(texts, "\n"),
	}
}
