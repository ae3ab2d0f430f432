package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/munch-labs/munch/db"
	"github.com/munch-labs/munch/internal/chat"
	"github.com/munch-labs/munch/internal/config"
	"github.com/munch-labs/munch/internal/history"
	"github.com/munch-labs/munch/internal/llm"
	"github.com/munch-labs/munch/internal/places"
)

// Setup creates and initializes the application.
// Returns an App with embedded cleanup — call Close() to release.
func Setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, retErr error) {
	if cfg == nil {
		return nil, config.ErrConfigNil
	}
	if logger == nil {
		logger = slog.Default()
	}

	a := &App{Config: cfg, Logger: logger}

	// On error, clean up everything already initialized.
	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	pool, dbCleanup, err := provideDBPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.dbCleanup = dbCleanup
	a.Pool = pool

	a.Messages, err = history.NewStore(pool, logger)
	if err != nil {
		return nil, fmt.Errorf("creating message store: %w", err)
	}
	a.Guard = history.NewGuard(a.Messages, cfg.SpamWindow, cfg.SpamLimit, logger)
	a.Locks = history.NewLocks()

	a.LLM, err = llm.New(ctx, llm.Config{
		APIKey:         cfg.GeminiAPIKey,
		Model:          cfg.ModelName,
		EmbedModel:     cfg.EmbedderModel,
		EmbedDimension: cfg.EmbedDimension,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	a.Places, err = places.NewStore(pool, a.LLM, logger)
	if err != nil {
		return nil, fmt.Errorf("creating places store: %w", err)
	}

	a.Chat, err = chat.NewService(chat.Config{
		Store:     a.Messages,
		Guard:     a.Guard,
		Locks:     a.Locks,
		Retriever: a.Places,
		Completer: a.LLM,
		TopK:      cfg.RetrievalTopK,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating chat service: %w", err)
	}

	return a, nil
}

// provideDBPool runs migrations and creates a PostgreSQL connection pool
// with sensible defaults for connection management.
func provideDBPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, func(), error) {
	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresConnectionString())
	if err != nil {
		return nil, nil, fmt.Errorf("parsing connection config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, pool.Close, nil
}
