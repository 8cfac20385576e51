// Package docstore provides the in-memory document store kept positionally
// aligned with the vector index.
package docstore

import (
	"fmt"
	"sync"

	"github.com/marketpulse/recall/internal/models"
)

// Store holds documents in insertion order. Position equals the document's
// index within the store. There is no update or delete; the store only grows.
type Store struct {
	docs []models.Document
	mu   sync.RWMutex
}

// New creates an empty store.
func New() *Store {
	return &Store{docs: make([]models.Document, 0)}
}

// Append adds doc, assigns its position, and returns it.
func (s *Store) Append(doc models.Document) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc.Position = len(s.docs)
	s.docs = append(s.docs, doc)
	return doc.Position
}

// Get returns the document at position.
func (s *Store) Get(position int) (models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if position < 0 || position >= len(s.docs) {
		return models.Document{}, fmt.Errorf("position %d out of range [0, %d)", position, len(s.docs))
	}
	return s.docs[position], nil
}

// Count returns the number of stored documents.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// All returns a copy of every document in insertion order.
func (s *Store) All() []models.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Document, len(s.docs))
	copy(out, s.docs)
	return out
}

// Replace swaps the entire contents, renumbering positions from 0.
// Used when restoring a snapshot at startup.
func (s *Store) Replace(docs []models.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = make([]models.Document, len(docs))
	copy(s.docs, docs)
	for i := range s.docs {
		s.docs[i].Position = i
	}
}

// Reset discards all documents.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = s.docs[:0]
}
