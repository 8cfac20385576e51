// Package storage persists the document half of the retrieval snapshot.
package storage

import (
	"context"

	"github.com/marketpulse/recall/internal/models"
)

// SnapshotStore persists documents in position order so the list can be
// restored alongside the vector index at startup. Documents are immutable
// and positions are never reused, so writes are append-shaped.
type SnapshotStore interface {
	AppendDocuments(ctx context.Context, docs []models.Document) error
	LoadDocuments(ctx context.Context) ([]models.Document, error)
	CountDocuments(ctx context.Context) (int64, error)
	Reset(ctx context.Context) error
	Close() error
}
