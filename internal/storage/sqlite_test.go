package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/marketpulse/recall/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "documents.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_AppendLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	docs := []models.Document{
		{Position: 0, Content: "Camera crashes on zoom", Module: "Camera", IssueType: "Crash", Source: "A"},
		{Position: 1, Content: "Battery drains fast", Module: "Battery", Source: "A"},
	}
	if err := store.AppendDocuments(ctx, docs); err != nil {
		t.Fatal(err)
	}

	loaded, err := store.LoadDocuments(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 2 {
		t.Fatalf("loaded %d documents, want 2", len(loaded))
	}
	for i, doc := range loaded {
		if doc.Position != i {
			t.Errorf("position order broken: %+v", doc)
		}
		if doc.Content != docs[i].Content || doc.Module != docs[i].Module || doc.Source != docs[i].Source {
			t.Errorf("document %d = %+v, want %+v", i, doc, docs[i])
		}
	}

	count, err := store.CountDocuments(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("CountDocuments = %d, want 2", count)
	}
}

func TestSQLiteStore_AppendIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	docs := []models.Document{{Position: 0, Content: "x", Source: "Unknown"}}
	if err := store.AppendDocuments(ctx, docs); err != nil {
		t.Fatal(err)
	}
	if err := store.AppendDocuments(ctx, docs); err != nil {
		t.Fatal(err)
	}
	count, _ := store.CountDocuments(ctx)
	if count != 1 {
		t.Errorf("CountDocuments = %d, want 1 after replayed save", count)
	}
}

func TestSQLiteStore_AppendEmpty(t *testing.T) {
	store := newTestStore(t)
	if err := store.AppendDocuments(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
}

func TestSQLiteStore_Reset(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	_ = store.AppendDocuments(ctx, []models.Document{{Position: 0, Content: "x", Source: "Unknown"}})
	if err := store.Reset(ctx); err != nil {
		t.Fatal(err)
	}
	count, _ := store.CountDocuments(ctx)
	if count != 0 {
		t.Errorf("CountDocuments after Reset = %d, want 0", count)
	}
}

func TestDiskUsageBytes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "documents.db")
	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	n, err := DiskUsageBytes(path, filepath.Join(dir, "missing.bin"))
	if err != nil {
		t.Fatal(err)
	}
	if n <= 0 {
		t.Errorf("DiskUsageBytes = %d, want > 0", n)
	}
}
