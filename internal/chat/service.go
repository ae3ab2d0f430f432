// Package chat orchestrates one conversation turn: rate-checked history
// writes, context retrieval, prompt composition, and the completion call.
package chat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/munch-labs/munch/internal/history"
	"github.com/munch-labs/munch/internal/places"
)

// Completer produces a model reply for a conversation whose final message
// is the augmented user prompt. Implemented by llm.Client.
type Completer interface {
	Complete(ctx context.Context, msgs []history.Message) (string, error)
}

// Retriever finds restaurant documents related to a query. Implemented by
// places.Store.
type Retriever interface {
	Search(ctx context.Context, query string, topK int) ([]places.Result, error)
}

// Config holds the service's collaborators and tuning values.
type Config struct {
	Store     history.MessageStore
	Guard     *history.Guard
	Locks     *history.Locks
	Retriever Retriever
	Completer Completer
	TopK      int // retrieval depth; non-positive uses places.DefaultTopK
	Logger    *slog.Logger
}

// Service handles chat turns for all users. It is safe for concurrent use;
// per-pair state lives in a request-scoped history.Manager.
type Service struct {
	store     history.MessageStore
	guard     *history.Guard
	locks     *history.Locks
	retriever Retriever
	completer Completer
	topK      int
	logger    *slog.Logger
}

// NewService creates a chat Service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg.Guard == nil {
		return nil, fmt.Errorf("guard is required")
	}
	if cfg.Locks == nil {
		return nil, fmt.Errorf("locks are required")
	}
	if cfg.Retriever == nil {
		return nil, fmt.Errorf("retriever is required")
	}
	if cfg.Completer == nil {
		return nil, fmt.Errorf("completer is required")
	}
	if cfg.TopK <= 0 {
		cfg.TopK = places.DefaultTopK
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Service{
		store:     cfg.Store,
		guard:     cfg.Guard,
		locks:     cfg.Locks,
		retriever: cfg.Retriever,
		completer: cfg.Completer,
		topK:      cfg.TopK,
		logger:    cfg.Logger,
	}, nil
}

// Send processes one chat turn and returns the assistant reply.
//
// Flow: open the session (seeding it if new) → persist the raw user input →
// retrieve context documents → persist the augmented prompt → complete →
// persist the reply. Errors propagate unmodified; a request that fails after
// the user message was persisted leaves that message without its AI pair,
// which is an accepted partial state.
func (s *Service) Send(ctx context.Context, userID, sessionID, userMessage string) (string, error) {
	mgr, err := history.Open(ctx, s.store, s.guard, s.locks, sessionID, userID, s.logger)
	if err != nil {
		return "", err
	}

	if err := mgr.Add(ctx, history.UserText(userMessage)); err != nil {
		return "", err
	}

	results, err := s.retriever.Search(ctx, userMessage, s.topK)
	if err != nil {
		return "", fmt.Errorf("retrieving context: %w", err)
	}

	prompt := Prompt(places.FormatResults(results), userMessage)
	if err := mgr.Add(ctx, history.HumanTurn(prompt)); err != nil {
		return "", err
	}

	reply, err := s.completer.Complete(ctx, mgr.Messages())
	if err != nil {
		return "", fmt.Errorf("completing turn: %w", err)
	}

	if err := mgr.Add(ctx, history.AITurn(reply)); err != nil {
		return "", err
	}

	s.logger.Info("chat turn completed",
		"session_id", sessionID, "user_id", userID,
		"context_docs", len(results), "reply_len", len(reply))
	return reply, nil
}

// Transcript returns the projected user-facing conversation for the pair.
// It reads straight from storage so it never seeds a session as a side
// effect.
func (s *Service) Transcript(ctx context.Context, userID, sessionID string) ([]history.Entry, error) {
	msgs, err := s.store.List(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	return history.BuildTranscript(msgs), nil
}

// Sessions lists all session IDs the user has conversed under.
func (s *Service) Sessions(ctx context.Context, userID string) ([]string, error) {
	return s.store.Sessions(ctx, userID)
}

// Clear deletes the pair's conversation. Clearing an unknown session is a
// no-op.
func (s *Service) Clear(ctx context.Context, userID, sessionID string) error {
	return s.store.Clear(ctx, sessionID, userID)
}
