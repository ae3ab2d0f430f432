// Package app wires the application together: database pool, stores, the
// Gemini client and the chat service. Commands call Setup once and share
// the resulting App.
package app

import (
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/munch-labs/munch/internal/chat"
	"github.com/munch-labs/munch/internal/config"
	"github.com/munch-labs/munch/internal/history"
	"github.com/munch-labs/munch/internal/llm"
	"github.com/munch-labs/munch/internal/places"
)

// App holds the initialized application components.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	Pool     *pgxpool.Pool
	Messages *history.Store
	Guard    *history.Guard
	Locks    *history.Locks
	Places   *places.Store
	LLM      *llm.Client
	Chat     *chat.Service

	dbCleanup func()
}

// Close releases everything Setup acquired. Safe to call on a partially
// initialized App.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	if a.dbCleanup != nil {
		a.dbCleanup()
		a.dbCleanup = nil
	}
	return nil
}
