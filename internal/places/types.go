package places

import "context"

// VectorDimension is the embedding dimensionality of the places schema.
// Must match the vector(N) column in db/migrations.
const VectorDimension int32 = 768

// DefaultTopK is the reference retrieval depth used when composing prompts.
const DefaultTopK = 5

// Document is one restaurant entry in the vector store.
type Document struct {
	ID      string
	Name    string
	Address string
	Rating  float64
	Review  string
}

// Result is a retrieved document with its cosine similarity to the query
// (1 = identical direction, 0 = orthogonal).
type Result struct {
	Document
	Similarity float64
}

// Embedder turns text into a vector of VectorDimension length.
// Implemented by llm.Client; tests substitute a static fake.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}
