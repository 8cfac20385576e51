// Package watcher provides drop-directory ingestion: JSON batch files written
// into a watched directory are picked up and added to the retrieval service.
package watcher

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/marketpulse/recall/internal/models"
)

const defaultDebounce = 400 * time.Millisecond

// Ingestor is the slice of the retrieval service the watcher needs.
type Ingestor interface {
	AddDocuments(ctx context.Context, inputs []models.DocumentInput, defaultSource string) (int, error)
}

// Watcher watches a drop directory for *.json batch files shaped like
// AddDocumentsRequest, ingests them, and archives processed files with a
// batch-ID suffix so they are not picked up twice.
type Watcher struct {
	dir           string
	defaultSource string
	ingestor      Ingestor
	logger        *zap.Logger
	debounce      time.Duration
	watcher       *fsnotify.Watcher
	mu            sync.Mutex
	debounceMap   map[string]*time.Timer
	done          chan struct{}
	started       bool
	stopOnce      sync.Once
}

// NewWatcher creates a watcher over dir. Batches that do not name their own
// source are attributed to defaultSource.
func NewWatcher(dir, defaultSource string, ingestor Ingestor, logger *zap.Logger) *Watcher {
	return &Watcher{
		dir:           dir,
		defaultSource: defaultSource,
		ingestor:      ingestor,
		logger:        logger,
		debounce:      defaultDebounce,
		debounceMap:   make(map[string]*time.Timer),
		done:          make(chan struct{}),
	}
}

// Start begins watching. The directory is created if it does not exist.
// Runs until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		w.mu.Unlock()
		return fmt.Errorf("create watch directory: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	if err := watcher.Add(w.dir); err != nil {
		_ = watcher.Close()
		w.mu.Unlock()
		return fmt.Errorf("watch directory: %w", err)
	}
	w.watcher = watcher
	w.started = true
	w.mu.Unlock()
	w.logger.Info("ingest watcher started", zap.String("dir", w.dir))
	go w.run(ctx)
	return nil
}

func (w *Watcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if err != nil {
				w.logger.Debug("watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if !isBatchFile(ev.Name) {
		return
	}
	switch {
	case ev.Op.Has(fsnotify.Create), ev.Op.Has(fsnotify.Write):
		w.debounceIngest(ev.Name)
	case ev.Op.Has(fsnotify.Remove), ev.Op.Has(fsnotify.Rename):
		w.cancelDebounce(ev.Name)
	}
}

// isBatchFile matches unprocessed batch files: *.json, but not the archived
// *.<batch-id>.done.json names the watcher itself produces.
func isBatchFile(path string) bool {
	name := filepath.Base(path)
	return strings.HasSuffix(name, ".json") && !strings.Contains(name, ".done.")
}

// debounceIngest delays processing so a file still being written is read once,
// after the writes settle.
func (w *Watcher) debounceIngest(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.debounceMap[path]; ok {
		t.Stop()
	}
	w.debounceMap[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.debounceMap, path)
		w.mu.Unlock()
		w.IngestFile(context.Background(), path)
	})
}

func (w *Watcher) cancelDebounce(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.debounceMap[path]; ok {
		t.Stop()
		delete(w.debounceMap, path)
	}
}

// SyncExistingFiles ingests batch files already present in the directory,
// e.g. files dropped while the service was down.
func (w *Watcher) SyncExistingFiles(ctx context.Context) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.Warn("failed to list watch directory", zap.String("dir", w.dir), zap.Error(err))
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(w.dir, entry.Name())
		if isBatchFile(path) {
			w.IngestFile(ctx, path)
		}
	}
}

// IngestFile reads one batch file and adds its documents. On success the file
// is renamed to <name>.<batch-id>.done.json; failures leave the file in place
// for a later retry.
func (w *Watcher) IngestFile(ctx context.Context, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return
		}
		w.logger.Warn("failed to read batch file", zap.String("path", path), zap.Error(err))
		return
	}
	var batch models.AddDocumentsRequest
	if err := json.Unmarshal(data, &batch); err != nil {
		w.logger.Warn("invalid batch file, skipping", zap.String("path", path), zap.Error(err))
		return
	}
	source := batch.Source
	if source == "" {
		source = w.defaultSource
	}
	added, err := w.ingestor.AddDocuments(ctx, batch.Documents, source)
	if err != nil {
		w.logger.Error("batch ingestion failed", zap.String("path", path), zap.Error(err))
		return
	}
	batchID := uuid.NewString()
	archived := strings.TrimSuffix(path, ".json") + "." + batchID + ".done.json"
	if err := os.Rename(path, archived); err != nil {
		w.logger.Warn("failed to archive batch file", zap.String("path", path), zap.Error(err))
	}
	w.logger.Info("batch file ingested",
		zap.String("path", path),
		zap.String("batch_id", batchID),
		zap.Int("added", added),
		zap.String("source", source))
}

// Stop stops the watcher. Safe to call multiple times.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		close(w.done)
		for path, t := range w.debounceMap {
			t.Stop()
			delete(w.debounceMap, path)
		}
		if w.watcher != nil {
			_ = w.watcher.Close()
			w.watcher = nil
		}
		w.started = false
	})
}
