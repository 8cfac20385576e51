// Package service composes the embedding cache, vector index, and document
// store into the issue retrieval service.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/marketpulse/recall/internal/config"
	"github.com/marketpulse/recall/internal/docstore"
	"github.com/marketpulse/recall/internal/embedding"
	"github.com/marketpulse/recall/internal/models"
	"github.com/marketpulse/recall/internal/storage"
	"github.com/marketpulse/recall/internal/vector"
)

// Service owns the vector index, the document store, and the embedder, and is
// the only way either collection grows. A single reader/writer lock serializes
// mutation (including the snapshot writes it triggers) against reads, so the
// position-alignment invariant between index and store is never observably
// violated.
type Service struct {
	embedder  embedding.Embedder
	index     *vector.FlatIndex
	docs      *docstore.Store
	snapshots storage.SnapshotStore
	indexPath string
	defaultK  int
	maxK      int
	logger    *zap.Logger
	mu        sync.RWMutex

	// unsaved holds rows whose persistence failed; they ride along with the
	// next save so a successful save always leaves the database aligned with
	// the index file. Guarded by mu.
	unsaved []models.Document
}

// New creates a retrieval service. The embedder is expected to produce
// unit-normalized vectors of the index's dimension (wrap providers with
// embedding.NewCachedEmbedder).
func New(
	embedder embedding.Embedder,
	index *vector.FlatIndex,
	docs *docstore.Store,
	snapshots storage.SnapshotStore,
	indexPath string,
	cfg *config.RetrievalConfig,
	logger *zap.Logger,
) *Service {
	return &Service{
		embedder:  embedder,
		index:     index,
		docs:      docs,
		snapshots: snapshots,
		indexPath: indexPath,
		defaultK:  cfg.DefaultK,
		maxK:      cfg.MaxK,
		logger:    logger,
	}
}

// LoadSnapshot restores the index/document pair from durable storage.
// A missing, corrupt, or misaligned snapshot degrades to an empty,
// freshly-initialized state rather than failing startup. Artifacts that are
// intact but unreadable right now return an error instead, so a transient
// failure never destroys durable rows.
func (s *Service) LoadSnapshot(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Load(s.indexPath); err != nil {
		if !errors.Is(err, vector.ErrCorruptSnapshot) {
			return fmt.Errorf("load vector index: %w", err)
		}
		s.logger.Warn("vector index corrupt, starting empty",
			zap.String("path", s.indexPath), zap.Error(err))
		s.resetLocked(ctx)
		return nil
	}
	docs, err := s.snapshots.LoadDocuments(ctx)
	if err != nil {
		s.index.Reset()
		return fmt.Errorf("load documents: %w", err)
	}
	if s.index.Size() != len(docs) {
		s.logger.Warn("snapshot pair misaligned, starting empty",
			zap.Int("index_size", s.index.Size()), zap.Int("documents", len(docs)))
		s.resetLocked(ctx)
		return nil
	}
	s.docs.Replace(docs)
	s.logger.Info("snapshot loaded", zap.Int("documents", len(docs)))
	return nil
}

// resetLocked discards in-memory state and best-effort clears the persisted
// snapshot so the pair stays consistent. Callers must hold the write lock.
func (s *Service) resetLocked(ctx context.Context) {
	s.index.Reset()
	s.docs.Reset()
	s.unsaved = nil
	if err := s.snapshots.Reset(ctx); err != nil {
		s.logger.Warn("failed to clear persisted documents", zap.Error(err))
	}
}

// AddDocuments validates, embeds, and ingests a batch, returning the number
// of documents actually added. Inputs with empty or whitespace-only content
// are skipped. Embeddings are resolved through the cache outside the lock;
// the index and store appends happen pairwise under the write lock so
// positions are assigned in input order and never interleave with another
// batch. The snapshot is written once per batch.
func (s *Service) AddDocuments(ctx context.Context, inputs []models.DocumentInput, defaultSource string) (int, error) {
	batchID := uuid.NewString()
	s.logger.Info("adding documents",
		zap.String("batch_id", batchID),
		zap.Int("submitted", len(inputs)),
		zap.String("default_source", defaultSource))

	type pair struct {
		doc models.Document
		vec []float32
	}
	pairs := make([]pair, 0, len(inputs))
	skipped := 0
	var firstErr error
	for _, input := range inputs {
		if !input.Valid() {
			skipped++
			continue
		}
		vec, err := s.embedder.Embed(ctx, input.Content)
		if err != nil {
			s.logger.Warn("embedding failed, skipping document",
				zap.String("batch_id", batchID), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			skipped++
			continue
		}
		pairs = append(pairs, pair{doc: input.ToDocument(defaultSource), vec: vec})
	}

	if len(pairs) == 0 {
		if firstErr != nil {
			return 0, fmt.Errorf("embed batch %s: %w", batchID, firstErr)
		}
		s.logger.Warn("no valid documents in batch", zap.String("batch_id", batchID))
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	appended := make([]models.Document, 0, len(pairs))
	for _, p := range pairs {
		pos, err := s.index.Append(p.vec)
		if err != nil {
			return len(appended), fmt.Errorf("append vector: %w", err)
		}
		docPos := s.docs.Append(p.doc)
		if pos != docPos {
			return len(appended), fmt.Errorf("position mismatch: index assigned %d, store assigned %d", pos, docPos)
		}
		p.doc.Position = pos
		appended = append(appended, p.doc)
	}

	s.saveLocked(ctx, appended)

	s.logger.Info("documents added",
		zap.String("batch_id", batchID),
		zap.Int("added", len(appended)),
		zap.Int("skipped", skipped),
		zap.Int("total", s.docs.Count()))
	return len(appended), nil
}

// saveLocked persists the batch: new document rows and the full vector index
// snapshot. Persistence failures are logged and non-fatal; the in-memory
// state stays authoritative until the next successful save. Rows that failed
// to persist are carried in unsaved and retried with the next batch, so every
// successful save leaves a complete row set behind. Callers must hold the
// write lock.
func (s *Service) saveLocked(ctx context.Context, newDocs []models.Document) {
	s.unsaved = append(s.unsaved, newDocs...)
	if err := s.snapshots.AppendDocuments(ctx, s.unsaved); err != nil {
		s.logger.Error("document snapshot save failed",
			zap.Int("pending_rows", len(s.unsaved)), zap.Error(err))
		return
	}
	s.unsaved = nil
	if err := s.index.Save(s.indexPath); err != nil {
		s.logger.Error("vector index save failed",
			zap.String("path", s.indexPath), zap.Error(err))
	}
}

// Retrieve embeds the query through the same cache path as ingestion,
// searches the index for up to k candidates, joins them to their documents,
// applies the optional exact-match filter, and returns results in descending
// score order with 1-based ranks. An empty index yields an empty result list,
// not an error; the query is not embedded in that case.
func (s *Service) Retrieve(ctx context.Context, query *models.RetrieveQuery) (*models.RetrieveResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	k := query.K
	if k <= 0 {
		k = s.defaultK
	}
	if s.maxK > 0 && k > s.maxK {
		k = s.maxK
	}

	resp := &models.RetrieveResponse{Results: []*models.RetrieveResult{}, Query: query.Query}
	if s.index.Size() == 0 {
		return resp, nil
	}

	queryVec, err := s.embedder.Embed(ctx, query.Query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	s.mu.RLock()
	hits, err := s.index.Search(queryVec, k)
	if err != nil {
		s.mu.RUnlock()
		return nil, fmt.Errorf("search index: %w", err)
	}
	results := make([]*models.RetrieveResult, 0, len(hits))
	for _, hit := range hits {
		doc, err := s.docs.Get(hit.Position)
		if err != nil {
			s.logger.Warn("hit position missing from document store",
				zap.Int("position", hit.Position), zap.Error(err))
			continue
		}
		results = append(results, &models.RetrieveResult{Document: doc, Score: hit.Score})
	}
	s.mu.RUnlock()

	// Filtering happens after ranking and can reduce the count below k;
	// it never triggers a re-search for more candidates.
	if len(query.Filter) > 0 {
		filtered := results[:0]
		for _, r := range results {
			if r.MatchesFilter(query.Filter) {
				filtered = append(filtered, r)
			}
		}
		results = filtered
	}
	for i, r := range results {
		r.Rank = i + 1
	}
	resp.Results = results
	return resp, nil
}

// Count returns the number of stored documents.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.docs.Count()
}

// Health reports the service health. It never returns an error; a divergence
// between document count and index size is surfaced as a degraded status.
func (s *Service) Health() models.Health {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := s.docs.Count()
	size := s.index.Size()
	status := models.StatusHealthy
	if count != size {
		status = models.StatusDegraded
	}
	return models.Health{
		Status:        status,
		DocumentCount: count,
		IndexSize:     size,
		ModelReady:    s.embedder != nil,
		Dimension:     s.index.Dimension(),
	}
}

// CacheLen returns the embedding cache occupancy, or 0 when the embedder does
// not expose one.
func (s *Service) CacheLen() int {
	if c, ok := s.embedder.(interface{ CacheLen() int }); ok {
		return c.CacheLen()
	}
	return 0
}

// Close releases the embedder and the snapshot store.
func (s *Service) Close() error {
	var firstErr error
	if err := s.embedder.Close(); err != nil {
		firstErr = err
	}
	if err := s.snapshots.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
