// Package integration provides end-to-end tests over the HTTP API.
package integration

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/marketpulse/recall/internal/client"
	"github.com/marketpulse/recall/internal/config"
	"github.com/marketpulse/recall/internal/docstore"
	"github.com/marketpulse/recall/internal/embedding"
	"github.com/marketpulse/recall/internal/models"
	"github.com/marketpulse/recall/internal/server"
	"github.com/marketpulse/recall/internal/service"
	"github.com/marketpulse/recall/internal/storage"
	"github.com/marketpulse/recall/internal/vector"
)

// topicEmbedder maps topic keywords to orthogonal unit vectors so scores are
// deterministic without a real model.
type topicEmbedder struct{}

func (topicEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, 4)
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "camera"):
		vec[0] = 1
	case strings.Contains(lower, "battery"):
		vec[1] = 1
	case strings.Contains(lower, "display"):
		vec[2] = 1
	default:
		vec[3] = 1
	}
	return vec, nil
}

func (e topicEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (topicEmbedder) Dimensions() int { return 4 }
func (topicEmbedder) Close() error    { return nil }

func newTestStack(t *testing.T, dir string) (*service.Service, *httptest.Server) {
	t.Helper()
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Storage.DatabasePath = filepath.Join(dir, "documents.db")
	cfg.Storage.VectorIndexPath = filepath.Join(dir, "vectors.bin")
	cfg.Embedding.Model = "topic"

	index, err := vector.NewFlatIndex(4)
	if err != nil {
		t.Fatal(err)
	}
	snapshots, err := storage.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		t.Fatal(err)
	}
	svc := service.New(embedding.NewCachedEmbedder(topicEmbedder{}, 100), index,
		docstore.New(), snapshots, cfg.Storage.VectorIndexPath, &cfg.Retrieval, zap.NewNop())
	if err := svc.LoadSnapshot(context.Background()); err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(server.NewServer(svc, cfg, zap.NewNop()).Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = svc.Close()
	})
	return svc, ts
}

func TestIntegration_Retrieve(t *testing.T) {
	_, ts := newTestStack(t, t.TempDir())
	c := client.New(ts.URL)
	ctx := context.Background()

	health, err := c.Health(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if health.Status != models.StatusHealthy || health.DocumentCount != 0 {
		t.Fatalf("initial health = %+v", health)
	}

	docs := []models.DocumentInput{
		{Content: "Camera app crashes when switching to video mode", Module: "Camera", IssueType: "Crash"},
		{Content: "Battery drains overnight while idle", Module: "Battery", IssueType: "Drain"},
		{Content: "Display flickers at low brightness", Module: "Display", IssueType: "Flicker"},
		{Content: "   "},
	}
	addResp, err := c.AddDocuments(ctx, docs, "PlayStore")
	if err != nil {
		t.Fatal(err)
	}
	if addResp.AddedCount != 3 || addResp.TotalDocuments != 3 {
		t.Fatalf("add response = %+v", addResp)
	}

	resp, err := c.Retrieve(ctx, "camera crashes during video", 2, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) == 0 {
		t.Fatal("no results")
	}
	top := resp.Results[0]
	if top.Module != "Camera" || top.Rank != 1 || top.Score <= 0 {
		t.Errorf("top result = %+v", top)
	}
	if top.Source != "PlayStore" {
		t.Errorf("source = %q, want PlayStore", top.Source)
	}

	filtered, err := c.Retrieve(ctx, "camera", 5, map[string]string{"issue_type": "Drain"})
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range filtered.Results {
		if r.IssueType != "Drain" {
			t.Errorf("filter leaked: %+v", r)
		}
	}

	count, err := c.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}

	stats, err := c.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats["documents_count"].(float64) != 3 {
		t.Errorf("stats = %v", stats)
	}
}

func TestIntegration_PersistenceAcrossRestart(t *testing.T) {
	dir := t.TempDir()

	svc, ts := newTestStack(t, dir)
	c := client.New(ts.URL)
	ctx := context.Background()

	if _, err := c.AddDocuments(ctx, []models.DocumentInput{
		{Content: "Camera freezes on zoom", Module: "Camera"},
		{Content: "Battery overheats while charging", Module: "Battery"},
	}, "beta"); err != nil {
		t.Fatal(err)
	}
	ts.Close()
	if err := svc.Close(); err != nil {
		t.Fatal(err)
	}

	// second stack over the same data directory picks up the snapshot
	_, ts2 := newTestStack(t, dir)
	c2 := client.New(ts2.URL)

	count, err := c2.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Fatalf("count after restart = %d, want 2", count)
	}
	resp, err := c2.Retrieve(ctx, "battery charging issue", 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 1 || resp.Results[0].Module != "Battery" {
		t.Errorf("post-restart retrieve = %+v", resp.Results)
	}
}

func TestIntegration_RetrieveValidation(t *testing.T) {
	_, ts := newTestStack(t, t.TempDir())
	c := client.New(ts.URL)
	if _, err := c.Retrieve(context.Background(), "   ", 3, nil); err == nil {
		t.Error("expected error for whitespace query")
	}
}
