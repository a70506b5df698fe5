// Package embedding generates vector embeddings for combined movie text.
package embedding

import "context"

// Encoder turns text into fixed-dimension vectors. Implementations wrap
// an external embedding model; the dimension is fixed per model and
// must match across every vector in an artifact.
type Encoder interface {
	// Encode generates a raw (unnormalized) embedding for one text.
	Encode(ctx context.Context, text string) ([]float32, error)

	// EncodeBatch generates raw embeddings for texts, preserving input
	// order: result[i] corresponds to texts[i].
	EncodeBatch(ctx context.Context, texts []string) ([][]float32, error)

	// ModelName returns the name of the embedding model.
	ModelName() string

	// Dimensions returns the expected vector dimensions.
	Dimensions() int
}
