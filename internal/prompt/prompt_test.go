package prompt

import (
	"strings"
	"testing"

	"github.com/marketpulse/recall/internal/models"
)

func TestFormatContext(t *testing.T) {
	results := []*models.RetrieveResult{
		{
			Document: models.Document{
				Content:   "Camera crashes on zoom",
				Module:    "Camera",
				IssueType: "Crash",
			},
			Score: 0.91,
			Rank:  1,
		},
		{
			Document: models.Document{Content: "Battery drains fast"},
			Score:    0.42,
			Rank:     2,
		},
	}
	got := FormatContext(results)
	lines := strings.Split(got, "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), got)
	}
	if !strings.HasPrefix(lines[0], "[Context 1]: Camera crashes on zoom | Module: Camera") {
		t.Errorf("line 1 = %q", lines[0])
	}
	if !strings.Contains(lines[0], "Issue Type: Crash") {
		t.Errorf("line 1 missing issue type: %q", lines[0])
	}
	if !strings.Contains(lines[1], "Module: N/A") {
		t.Errorf("empty fields should render N/A: %q", lines[1])
	}
}

func TestFormatContext_Empty(t *testing.T) {
	if got := FormatContext(nil); got != "" {
		t.Errorf("FormatContext(nil) = %q, want empty", got)
	}
}

func TestInjectContext(t *testing.T) {
	original := "Analyze the issue and classify it."
	if got := InjectContext(original, ""); got != original {
		t.Errorf("empty context must leave prompt unchanged, got %q", got)
	}
	got := InjectContext(original, "[Context 1]: something")
	if !strings.HasPrefix(got, "Contextual Information:\n[Context 1]: something") {
		t.Errorf("context not prepended: %q", got)
	}
	if !strings.HasSuffix(got, "Instructions:\n"+original) {
		t.Errorf("original prompt not preserved: %q", got)
	}
}
