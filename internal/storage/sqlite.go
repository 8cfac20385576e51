// Package storage provides the SQLite implementation of the SnapshotStore.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/marketpulse/recall/internal/models"
)

// SQLiteStore implements SnapshotStore using SQLite with positions as the
// primary key.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes
// the schema. Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		position INTEGER PRIMARY KEY,
		content TEXT NOT NULL,
		module TEXT NOT NULL DEFAULT '',
		sub_module TEXT NOT NULL DEFAULT '',
		issue_type TEXT NOT NULL DEFAULT '',
		sub_issue_type TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL DEFAULT 'Unknown',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_documents_module ON documents(module);
	CREATE INDEX IF NOT EXISTS idx_documents_source ON documents(source);
	`
	_, err := db.Exec(schema)
	return err
}

// AppendDocuments writes docs in a single transaction. Positions must already
// be assigned; re-writing an existing position with identical content is a
// no-op by construction, which makes saves idempotent across retries.
func (s *SQLiteStore) AppendDocuments(ctx context.Context, docs []models.Document) error {
	if len(docs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO documents (position, content, module, sub_module, issue_type, sub_issue_type, source)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()
	for _, doc := range docs {
		if _, err := stmt.ExecContext(ctx,
			doc.Position, doc.Content, doc.Module, doc.SubModule,
			doc.IssueType, doc.SubIssueType, doc.Source,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert document at position %d: %w", doc.Position, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit documents: %w", err)
	}
	return nil
}

// LoadDocuments returns all documents ordered by position.
func (s *SQLiteStore) LoadDocuments(ctx context.Context) ([]models.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT position, content, module, sub_module, issue_type, sub_issue_type, source
		 FROM documents ORDER BY position ASC`)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		var doc models.Document
		if err := rows.Scan(
			&doc.Position, &doc.Content, &doc.Module, &doc.SubModule,
			&doc.IssueType, &doc.SubIssueType, &doc.Source,
		); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

// CountDocuments returns the number of persisted documents.
func (s *SQLiteStore) CountDocuments(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return count, nil
}

// Reset deletes all persisted documents. Used when the snapshot pair is
// detected as inconsistent at startup and the service degrades to empty.
func (s *SQLiteStore) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents`); err != nil {
		return fmt.Errorf("reset documents: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
