package testutil

import (
	"context"
	"sync"

	"github.com/munch-labs/munch/internal/history"
	"github.com/munch-labs/munch/internal/places"
)

// StaticCompleter returns a canned reply and records the histories it was
// called with.
type StaticCompleter struct {
	mu    sync.Mutex
	Reply string
	Err   error
	Calls [][]history.Message
}

// Complete implements the chat service's completer interface.
func (c *StaticCompleter) Complete(_ context.Context, msgs []history.Message) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return "", c.Err
	}
	c.Calls = append(c.Calls, msgs)
	return c.Reply, nil
}

// StaticRetriever returns a fixed result set for every query.
type StaticRetriever struct {
	Results []places.Result
	Err     error
}

// Search implements the chat service's retriever interface.
func (r *StaticRetriever) Search(_ context.Context, _ string, _ int) ([]places.Result, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	return r.Results, nil
}

// StaticEmbedder returns a fixed vector for every input.
type StaticEmbedder struct {
	Vec []float32
	Err error
}

// EmbedText implements places.Embedder.
func (e *StaticEmbedder) EmbedText(_ context.Context, _ string) ([]float32, error) {
	if e.Err != nil {
		return nil, e.Err
	}
	return e.Vec, nil
}
