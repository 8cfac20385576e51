// Package cli provides CLI output utilities for Recall.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/marketpulse/recall/internal/models"
	"github.com/marketpulse/recall/pkg/utils"
)

// OutputFormat is the format for retrieval result output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// WriteRetrieveResults writes retrieval results to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteRetrieveResults(w io.Writer, response *models.RetrieveResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(response)
	default:
		writeRetrieveResultsText(w, response)
		return nil
	}
}

func writeRetrieveResultsText(w io.Writer, response *models.RetrieveResponse) {
	fmt.Fprintf(w, "\nFound %d results for %q\n\n", len(response.Results), response.Query)
	for _, result := range response.Results {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "Rank: %d | Score: %.4f | Position: %d\n", result.Rank, result.Score, result.Position)
		if result.Module != "" || result.IssueType != "" {
			fmt.Fprintf(w, "Module: %s / %s | Issue: %s / %s\n",
				result.Module, result.SubModule, result.IssueType, result.SubIssueType)
		}
		fmt.Fprintf(w, "Source: %s\n", result.Source)
		fmt.Fprintf(w, "Content: %s\n", utils.Truncate(result.Content, 200))
	}
}
