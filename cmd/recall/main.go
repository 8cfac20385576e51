// Package main is the Recall CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/marketpulse/recall/internal/client"
	"github.com/marketpulse/recall/internal/cli"
	"github.com/marketpulse/recall/internal/config"
	"github.com/marketpulse/recall/internal/docstore"
	"github.com/marketpulse/recall/internal/embedding"
	"github.com/marketpulse/recall/internal/models"
	"github.com/marketpulse/recall/internal/server"
	"github.com/marketpulse/recall/internal/service"
	"github.com/marketpulse/recall/internal/storage"
	"github.com/marketpulse/recall/internal/vector"
	"github.com/marketpulse/recall/internal/watcher"
	"github.com/marketpulse/recall/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/recall/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used, so that "recall server" from the project dir uses the project's
// config. Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "query":
		runQuery()
	case "ingest":
		runIngest()
	case "count":
		runCount()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("recall version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Usage: recall <command> [flags]

Commands:
  server    Start the retrieval API server
  query     Query the running server for similar issue reports
  ingest    Submit a JSON batch file of documents to the running server
  count     Print the number of indexed documents
  status    Print server health and stats
  version   Print version
  help      Show this help`)
}

// newEmbedder builds the configured embedding provider wrapped with the
// content-hash cache.
func newEmbedder(cfg *config.EmbeddingConfig) (embedding.Embedder, error) {
	var inner embedding.Embedder
	switch cfg.Provider {
	case "mock":
		inner = embedding.NewMockEmbedder(cfg.Dimensions)
	case "openai":
		e, err := embedding.NewOpenAIEmbedder(cfg.APIKey(), cfg.BaseURL, cfg.Model, cfg.Dimensions)
		if err != nil {
			return nil, fmt.Errorf("openai embedder: %w", err)
		}
		inner = e
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
	return embedding.NewCachedEmbedder(inner, cfg.CacheSize), nil
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	embedder, err := newEmbedder(&cfg.Embedding)
	if err != nil {
		logger.Fatal("Failed to create embedder", zap.Error(err))
	}
	index, err := vector.NewFlatIndex(cfg.Embedding.Dimensions)
	if err != nil {
		logger.Fatal("Failed to create vector index", zap.Error(err))
	}
	snapshots, err := storage.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Fatal("Failed to open document database", zap.Error(err))
	}

	svc := service.New(embedder, index, docstore.New(), snapshots,
		cfg.Storage.VectorIndexPath, &cfg.Retrieval, logger)
	defer svc.Close()

	if err := svc.LoadSnapshot(context.Background()); err != nil {
		logger.Fatal("Failed to load snapshot", zap.Error(err))
	}

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if cfg.Ingest.WatchDirectory != "" {
		watch := watcher.NewWatcher(cfg.Ingest.WatchDirectory, cfg.Ingest.DefaultSource, svc, logger)
		if err := watch.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start ingest watcher", zap.Error(err))
		}
		watch.SyncExistingFiles(watchCtx)
	}

	srv := server.NewServer(svc, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// serverAddr resolves the base URL of the running server for client commands:
// the -addr flag when set, else the configured host and port.
func serverAddr(addrFlag, configPath string) string {
	if addrFlag != "" {
		return addrFlag
	}
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return "http://localhost:8080"
	}
	return fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port)
}

// parseFilter parses "key=value,key=value" into a filter map.
func parseFilter(s string) (map[string]string, error) {
	if s == "" {
		return nil, nil
	}
	filter := make(map[string]string)
	for _, part := range strings.Split(s, ",") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 || kv[0] == "" {
			return nil, fmt.Errorf("invalid filter term %q, expected key=value", part)
		}
		filter[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
	}
	return filter, nil
}

func runQuery() {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	addr := fs.String("addr", "", "server base URL (overrides config)")
	k := fs.Int("k", 3, "number of results")
	filterStr := fs.String("filter", "", "exact-match filter, e.g. module=Camera,source=beta")
	jsonOut := fs.Bool("json", false, "output JSON")
	_ = fs.Parse(os.Args[2:])

	query := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if query == "" {
		fmt.Println("Usage: recall query [flags] <query text>")
		os.Exit(1)
	}
	filter, err := parseFilter(*filterStr)
	if err != nil {
		fmt.Printf("Invalid filter: %v\n", err)
		os.Exit(1)
	}

	c := client.New(serverAddr(*addr, *configPath))
	resp, err := c.Retrieve(context.Background(), query, *k, filter)
	if err != nil {
		fmt.Printf("Query failed: %v\n", err)
		os.Exit(1)
	}
	format := cli.OutputText
	if *jsonOut {
		format = cli.OutputJSON
	}
	if err := cli.WriteRetrieveResults(os.Stdout, resp, format); err != nil {
		fmt.Printf("Failed to write results: %v\n", err)
		os.Exit(1)
	}
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	addr := fs.String("addr", "", "server base URL (overrides config)")
	source := fs.String("source", "", "default source for documents in the batch")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() != 1 {
		fmt.Println("Usage: recall ingest [flags] <batch.json>")
		os.Exit(1)
	}
	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Printf("Failed to read batch file: %v\n", err)
		os.Exit(1)
	}

	// A batch file is either a full request object or a bare document array.
	var batch models.AddDocumentsRequest
	if err := json.Unmarshal(data, &batch); err != nil {
		var docs []models.DocumentInput
		if err2 := json.Unmarshal(data, &docs); err2 != nil {
			fmt.Printf("Invalid batch file: %v\n", err)
			os.Exit(1)
		}
		batch.Documents = docs
	}
	if *source != "" {
		batch.Source = *source
	}

	c := client.New(serverAddr(*addr, *configPath))
	resp, err := c.AddDocuments(context.Background(), batch.Documents, batch.Source)
	if err != nil {
		fmt.Printf("Ingest failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Added %d documents (source %q), %d total\n",
		resp.AddedCount, resp.Source, resp.TotalDocuments)
}

func runCount() {
	fs := flag.NewFlagSet("count", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	addr := fs.String("addr", "", "server base URL (overrides config)")
	_ = fs.Parse(os.Args[2:])

	c := client.New(serverAddr(*addr, *configPath))
	count, err := c.Count(context.Background())
	if err != nil {
		fmt.Printf("Count failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(count)
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	addr := fs.String("addr", "", "server base URL (overrides config)")
	_ = fs.Parse(os.Args[2:])

	c := client.New(serverAddr(*addr, *configPath))
	health, err := c.Health(context.Background())
	if err != nil {
		fmt.Printf("Status failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Status:     %s\n", health.Status)
	fmt.Printf("Documents:  %d\n", health.DocumentCount)
	fmt.Printf("Index size: %d\n", health.IndexSize)
	fmt.Printf("Dimension:  %d\n", health.Dimension)
	fmt.Printf("Model:      ready=%v\n", health.ModelReady)

	stats, err := c.Stats(context.Background())
	if err == nil {
		if v, ok := stats["disk_usage_bytes"]; ok {
			fmt.Printf("Disk usage: %v bytes\n", v)
		}
		if v, ok := stats["embedding_model"]; ok {
			fmt.Printf("Embedding:  %v\n", v)
		}
	}
}
