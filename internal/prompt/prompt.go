// Package prompt formats retrieval results as contextual blocks for
// injection into analysis prompt templates.
package prompt

import (
	"fmt"
	"strings"

	"github.com/marketpulse/recall/internal/models"
)

// FormatContext renders ranked retrieval hits as one context line each,
// carrying the classification metadata alongside the content. Empty
// classification fields render as "N/A". Returns "" for no results.
func FormatContext(results []*models.RetrieveResult) string {
	if len(results) == 0 {
		return ""
	}
	parts := make([]string, 0, len(results))
	for i, result := range results {
		parts = append(parts, fmt.Sprintf(
			"[Context %d]: %s | Module: %s | Sub-Module: %s | Issue Type: %s | Sub-Issue Type: %s",
			i+1,
			strings.TrimSpace(result.Content),
			orNA(result.Module),
			orNA(result.SubModule),
			orNA(result.IssueType),
			orNA(result.SubIssueType),
		))
	}
	return strings.Join(parts, "\n")
}

// InjectContext prepends a contextual-information block to a prompt template.
// An empty context leaves the prompt unchanged.
func InjectContext(originalPrompt, context string) string {
	if context == "" {
		return originalPrompt
	}
	return fmt.Sprintf("Contextual Information:\n%s\n\nInstructions:\n%s", context, originalPrompt)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
