package embedding

import (
	"context"
	"fmt"

	"github.com/marketpulse/recall/pkg/utils"
)

// CachedEmbedder wraps an Embedder with content-hash memoization.
// Identical text always resolves to the identical vector: on a hit the stored
// vector is returned without invoking the inner embedder, and on a miss the
// freshly computed vector is L2-normalized before being stored and returned.
// Failed computations are never cached.
type CachedEmbedder struct {
	inner Embedder
	cache *Cache
}

// NewCachedEmbedder wraps inner with a cache of the given capacity.
func NewCachedEmbedder(inner Embedder, cacheCapacity int) *CachedEmbedder {
	return &CachedEmbedder{
		inner: inner,
		cache: NewCache(cacheCapacity),
	}
}

// Embed returns the embedding for text, from cache when available.
func (e *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := ContentHash(text)
	if vec, ok := e.cache.Get(key); ok {
		return vec, nil
	}
	vec, err := e.inner.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed text: %w", err)
	}
	utils.NormalizeL2(vec)
	e.cache.Put(key, vec)
	return vec, nil
}

// EmbedBatch embeds each text through the cache in order.
func (e *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// Dimensions returns the inner embedder's dimension.
func (e *CachedEmbedder) Dimensions() int {
	return e.inner.Dimensions()
}

// CacheLen returns the number of cached embeddings.
func (e *CachedEmbedder) CacheLen() int {
	return e.cache.Len()
}

// Close closes the inner embedder.
func (e *CachedEmbedder) Close() error {
	return e.inner.Close()
}
