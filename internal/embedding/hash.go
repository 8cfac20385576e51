package embedding

import (
	"crypto/sha256"
	"encoding/hex"
)

// ContentHash returns a deterministic hex digest of the exact text, used as
// the embedding cache key. Case and whitespace are significant.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
