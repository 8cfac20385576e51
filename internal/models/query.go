package models

import (
	"errors"
	"strings"
)

// Validation errors surfaced to callers before any mutation happens.
var (
	// ErrEmptyQuery is returned when a retrieve request has no query text.
	ErrEmptyQuery = errors.New("query must not be empty")
	// ErrNoDocuments is returned when an add request carries no documents.
	ErrNoDocuments = errors.New("documents must not be empty")
)

// RetrieveQuery is a similarity search request. K <= 0 means "use the
// configured default". Filter is an exact-match conjunction over document
// fields, applied after ranking.
type RetrieveQuery struct {
	Query  string            `json:"query"`
	K      int               `json:"k,omitempty"`
	Filter map[string]string `json:"filter,omitempty"`
}

// Validate rejects empty or whitespace-only query text.
func (q *RetrieveQuery) Validate() error {
	if strings.TrimSpace(q.Query) == "" {
		return ErrEmptyQuery
	}
	return nil
}

// AddDocumentsRequest is a batch ingestion request. Source, when set, becomes
// the default source for documents that do not name their own.
type AddDocumentsRequest struct {
	Documents []DocumentInput `json:"documents"`
	Source    string          `json:"source,omitempty"`
}

// Validate rejects batches with no documents at all.
func (r *AddDocumentsRequest) Validate() error {
	if len(r.Documents) == 0 {
		return ErrNoDocuments
	}
	return nil
}
