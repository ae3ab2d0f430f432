// Package places manages the restaurant document store backed by
// PostgreSQL + pgvector.
//
// Documents carry the review text that gets embedded plus the metadata
// (name, address, rating) rendered into the prompt context block. Retrieval
// is cosine-distance nearest neighbor over the review embedding.
//
// Store is safe for concurrent use by multiple goroutines.
package places
