package places

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// Store manages restaurant documents with vector search.
type Store struct {
	pool     *pgxpool.Pool
	embedder Embedder
	logger   *slog.Logger
}

// NewStore creates a place Store.
func NewStore(pool *pgxpool.Pool, embedder Embedder, logger *slog.Logger) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, embedder: embedder, logger: logger}, nil
}

// embed generates and validates the embedding for the given text.
func (s *Store) embed(ctx context.Context, text string) (pgvector.Vector, error) {
	vec, err := s.embedder.EmbedText(ctx, text)
	if err != nil {
		return pgvector.Vector{}, fmt.Errorf("embedding text: %w", err)
	}
	if len(vec) != int(VectorDimension) {
		return pgvector.Vector{}, fmt.Errorf("embedding has %d dimensions, want %d", len(vec), VectorDimension)
	}
	return pgvector.NewVector(vec), nil
}

// Add embeds doc.Review and upserts the document. Re-adding an existing ID
// replaces its content and embedding.
func (s *Store) Add(ctx context.Context, doc Document) error {
	if doc.ID == "" {
		return fmt.Errorf("document id is required")
	}
	if doc.Name == "" {
		return fmt.Errorf("document name is required")
	}
	if strings.TrimSpace(doc.Review) == "" {
		return fmt.Errorf("document review is required")
	}

	vec, err := s.embed(ctx, doc.Review)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO places (id, name, address, rating, review, embedding)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE SET
		     name = EXCLUDED.name,
		     address = EXCLUDED.address,
		     rating = EXCLUDED.rating,
		     review = EXCLUDED.review,
		     embedding = EXCLUDED.embedding,
		     updated_at = now()`,
		doc.ID, doc.Name, doc.Address, doc.Rating, doc.Review, vec)
	if err != nil {
		return fmt.Errorf("upserting place %s: %w", doc.ID, err)
	}

	s.logger.Debug("indexed place", "id", doc.ID, "name", doc.Name)
	return nil
}

// Search embeds the query and returns up to topK documents ordered by
// cosine similarity, best first. Non-positive topK falls back to
// DefaultTopK.
func (s *Store) Search(ctx context.Context, query string, topK int) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query is required")
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	vec, err := s.embed(ctx, query)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, name, address, rating, review, 1 - (embedding <=> $1) AS similarity
		 FROM places
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		vec, topK)
	if err != nil {
		return nil, fmt.Errorf("searching places: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.ID, &r.Name, &r.Address, &r.Rating, &r.Review, &r.Similarity); err != nil {
			return nil, fmt.Errorf("scanning place row: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading place rows: %w", err)
	}

	s.logger.Debug("place search", "top_k", topK, "results", len(results))
	return results, nil
}

// Count returns the number of indexed places.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM places`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting places: %w", err)
	}
	return n, nil
}
