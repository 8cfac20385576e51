package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" || cfg.Server.Port != 8080 {
		t.Errorf("server defaults = %+v", cfg.Server)
	}
	if cfg.Embedding.Provider != "openai" || cfg.Embedding.Dimensions != 1536 {
		t.Errorf("embedding defaults = %+v", cfg.Embedding)
	}
	if cfg.Embedding.CacheSize != 10000 {
		t.Errorf("cache size default = %d", cfg.Embedding.CacheSize)
	}
	if cfg.Retrieval.DefaultK != 5 || cfg.Retrieval.MaxK != 50 {
		t.Errorf("retrieval defaults = %+v", cfg.Retrieval)
	}
	if cfg.Ingest.DefaultSource != "Unknown" {
		t.Errorf("ingest default source = %q", cfg.Ingest.DefaultSource)
	}
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Port = 9999
	cfg.Embedding.Provider = "mock"
	cfg.Embedding.Dimensions = 8
	ApplyDefaults(cfg)
	if cfg.Server.Port != 9999 || cfg.Embedding.Provider != "mock" || cfg.Embedding.Dimensions != 8 {
		t.Errorf("explicit values overwritten: %+v", cfg)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
debug: true
server:
  port: 9090
storage:
  database_path: ./data/documents.db
  vector_index_path: /var/lib/recall/vectors.bin
embedding:
  provider: mock
  dimensions: 16
retrieval:
  default_k: 3
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug || cfg.Server.Port != 9090 {
		t.Errorf("loaded config = %+v", cfg)
	}
	if cfg.Embedding.Provider != "mock" || cfg.Embedding.Dimensions != 16 {
		t.Errorf("embedding = %+v", cfg.Embedding)
	}
	want := filepath.Join(dir, "data/documents.db")
	if cfg.Storage.DatabasePath != want {
		t.Errorf("database path = %q, want %q (./ paths resolve against the config dir)", cfg.Storage.DatabasePath, want)
	}
	if cfg.Storage.VectorIndexPath != "/var/lib/recall/vectors.bin" {
		t.Errorf("absolute path must be untouched: %q", cfg.Storage.VectorIndexPath)
	}
	if cfg.Retrieval.DefaultK != 3 || cfg.Retrieval.MaxK != 50 {
		t.Errorf("retrieval = %+v (defaults should fill unset fields)", cfg.Retrieval)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.Server.Port = 7070
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 7070 {
		t.Errorf("port = %d, want 7070", loaded.Server.Port)
	}
}

func TestAPIKey(t *testing.T) {
	cfg := EmbeddingConfig{APIKeyEnv: "RECALL_TEST_API_KEY"}
	t.Setenv("RECALL_TEST_API_KEY", "secret")
	if cfg.APIKey() != "secret" {
		t.Errorf("APIKey = %q", cfg.APIKey())
	}
	cfg.APIKeyEnv = ""
	if cfg.APIKey() != "" {
		t.Error("empty env name must yield empty key")
	}
}
