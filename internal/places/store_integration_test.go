//go:build integration

package places_test

import (
	"context"
	"testing"

	"github.com/munch-labs/munch/internal/log"
	"github.com/munch-labs/munch/internal/places"
	"github.com/munch-labs/munch/internal/testutil"
)

// mapEmbedder returns a fixed vector per known text, so similarity ordering
// is fully determined by the test.
type mapEmbedder struct {
	vecs map[string][]float32
}

func (e *mapEmbedder) EmbedText(_ context.Context, text string) ([]float32, error) {
	if v, ok := e.vecs[text]; ok {
		return v, nil
	}
	return axisVector(0, 1), nil
}

// axisVector builds a VectorDimension-length unit-ish vector with weight at
// two fixed axes. Different weights give different cosine similarities.
func axisVector(a, b float32) []float32 {
	v := make([]float32, places.VectorDimension)
	v[0] = a
	v[1] = b
	return v
}

func TestStoreAddAndSearch(t *testing.T) {
	tdb, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	embedder := &mapEmbedder{vecs: map[string][]float32{
		"Best al pastor in town.": axisVector(1, 0),
		"Rich tonkotsu broth.":    axisVector(0.2, 0.8),
		"good tacos":              axisVector(0.9, 0.1),
	}}

	store, err := places.NewStore(tdb.Pool, embedder, log.NewNop())
	if err != nil {
		t.Fatalf("NewStore() = %v", err)
	}
	ctx := context.Background()

	docs := []places.Document{
		{ID: "p1", Name: "La Taqueria", Address: "123 Main St", Rating: 4.5, Review: "Best al pastor in town."},
		{ID: "p2", Name: "Ramen Ichiba", Address: "456 First St", Rating: 4.2, Review: "Rich tonkotsu broth."},
	}
	for _, doc := range docs {
		if err := store.Add(ctx, doc); err != nil {
			t.Fatalf("Add(%s) = %v", doc.ID, err)
		}
	}

	n, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count() = %v", err)
	}
	if n != 2 {
		t.Fatalf("Count() = %d, want 2", n)
	}

	results, err := store.Search(ctx, "good tacos", 2)
	if err != nil {
		t.Fatalf("Search() = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Search() returned %d results, want 2", len(results))
	}
	if results[0].Name != "La Taqueria" {
		t.Errorf("best match = %q, want La Taqueria", results[0].Name)
	}
	if results[0].Similarity <= results[1].Similarity {
		t.Errorf("results not ordered by similarity: %v then %v",
			results[0].Similarity, results[1].Similarity)
	}
}

func TestStoreUpsertReplacesDocument(t *testing.T) {
	tdb, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	embedder := &mapEmbedder{vecs: map[string][]float32{}}
	store, err := places.NewStore(tdb.Pool, embedder, log.NewNop())
	if err != nil {
		t.Fatalf("NewStore() = %v", err)
	}
	ctx := context.Background()

	doc := places.Document{ID: "p1", Name: "Old Name", Rating: 3, Review: "meh"}
	if err := store.Add(ctx, doc); err != nil {
		t.Fatalf("Add() = %v", err)
	}

	doc.Name = "New Name"
	doc.Rating = 4.8
	if err := store.Add(ctx, doc); err != nil {
		t.Fatalf("re-Add() = %v", err)
	}

	n, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count() = %v", err)
	}
	if n != 1 {
		t.Fatalf("Count() = %d, want 1 after upsert", n)
	}

	results, err := store.Search(ctx, "meh", 1)
	if err != nil {
		t.Fatalf("Search() = %v", err)
	}
	if results[0].Name != "New Name" || results[0].Rating != 4.8 {
		t.Errorf("upsert did not replace fields: %+v", results[0])
	}
}

func TestStoreSearchLimitsTopK(t *testing.T) {
	tdb, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	embedder := &mapEmbedder{vecs: map[string][]float32{}}
	store, err := places.NewStore(tdb.Pool, embedder, log.NewNop())
	if err != nil {
		t.Fatalf("NewStore() = %v", err)
	}
	ctx := context.Background()

	for _, id := range []string{"p1", "p2", "p3"} {
		doc := places.Document{ID: id, Name: "Place " + id, Rating: 4, Review: "review " + id}
		if err := store.Add(ctx, doc); err != nil {
			t.Fatalf("Add(%s) = %v", id, err)
		}
	}

	results, err := store.Search(ctx, "anything", 2)
	if err != nil {
		t.Fatalf("Search() = %v", err)
	}
	if len(results) != 2 {
		t.Errorf("Search() returned %d results, want top_k of 2", len(results))
	}
}

func TestStoreValidation(t *testing.T) {
	tdb, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	embedder := &mapEmbedder{vecs: map[string][]float32{}}
	store, err := places.NewStore(tdb.Pool, embedder, log.NewNop())
	if err != nil {
		t.Fatalf("NewStore() = %v", err)
	}
	ctx := context.Background()

	if err := store.Add(ctx, places.Document{Name: "n", Review: "r"}); err == nil {
		t.Error("Add() without id succeeded")
	}
	if err := store.Add(ctx, places.Document{ID: "p1", Review: "r"}); err == nil {
		t.Error("Add() without name succeeded")
	}
	if err := store.Add(ctx, places.Document{ID: "p1", Name: "n", Review: "  "}); err == nil {
		t.Error("Add() with blank review succeeded")
	}
	if _, err := store.Search(ctx, "  ", 5); err == nil {
		t.Error("Search() with blank query succeeded")
	}
}
