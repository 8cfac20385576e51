// Package embedding provides text embedding providers and content-hash caching.
package embedding

import "context"

// Embedder produces fixed-dimension vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}
