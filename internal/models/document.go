// Package models defines core data structures for issue documents, queries, and retrieval results.
package models

import "strings"

// DefaultSource is used when neither a document nor its batch names a source.
const DefaultSource = "Unknown"

// Document is a stored issue report with classification metadata.
// Position is the stable 0-based insertion index shared with the vector index;
// documents are never mutated after insertion.
type Document struct {
	Content      string `json:"content"`
	Module       string `json:"module,omitempty"`
	SubModule    string `json:"sub_module,omitempty"`
	IssueType    string `json:"issue_type,omitempty"`
	SubIssueType string `json:"sub_issue_type,omitempty"`
	Source       string `json:"source"`
	Position     int    `json:"position"`
}

// DocumentInput is a raw document as submitted by callers. Content is required;
// classification fields default to empty and Source to the batch default.
type DocumentInput struct {
	Content      string `json:"content"`
	Module       string `json:"module,omitempty"`
	SubModule    string `json:"sub_module,omitempty"`
	IssueType    string `json:"issue_type,omitempty"`
	SubIssueType string `json:"sub_issue_type,omitempty"`
	Source       string `json:"source,omitempty"`
}

// Valid reports whether the input has non-empty, non-whitespace content.
func (d *DocumentInput) Valid() bool {
	return strings.TrimSpace(d.Content) != ""
}

// ToDocument builds a Document from the input, applying defaults.
// Position is assigned later by the retrieval service.
func (d *DocumentInput) ToDocument(defaultSource string) Document {
	source := d.Source
	if source == "" {
		source = defaultSource
	}
	if source == "" {
		source = DefaultSource
	}
	return Document{
		Content:      d.Content,
		Module:       d.Module,
		SubModule:    d.SubModule,
		IssueType:    d.IssueType,
		SubIssueType: d.SubIssueType,
		Source:       source,
	}
}

// Field returns the value of a named document field for filtering.
// Unknown names return ok=false.
func (d *Document) Field(name string) (string, bool) {
	switch name {
	case "module":
		return d.Module, true
	case "sub_module":
		return d.SubModule, true
	case "issue_type":
		return d.IssueType, true
	case "sub_issue_type":
		return d.SubIssueType, true
	case "source":
		return d.Source, true
	case "content":
		return d.Content, true
	}
	return "", false
}

// MatchesFilter reports whether the document satisfies an exact-match
// conjunction over all filter keys. Unknown keys never match.
func (d *Document) MatchesFilter(filter map[string]string) bool {
	for key, want := range filter {
		got, ok := d.Field(key)
		if !ok || got != want {
			return false
		}
	}
	return true
}
