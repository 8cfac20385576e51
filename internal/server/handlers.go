package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/marketpulse/recall/internal/models"
	"github.com/marketpulse/recall/internal/storage"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.svc.Health())
}

func (s *Server) handleRetrieve(w http.ResponseWriter, r *http.Request) {
	var query models.RetrieveQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("retrieve request",
		zap.String("query", query.Query), zap.Int("k", query.K), zap.Any("filter", query.Filter))
	response, err := s.svc.Retrieve(r.Context(), &query)
	if err != nil {
		if errors.Is(err, models.ErrEmptyQuery) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("retrieve failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleAddDocuments(w http.ResponseWriter, r *http.Request) {
	var req models.AddDocumentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	source := req.Source
	if source == "" {
		source = models.DefaultSource
	}
	added, err := s.svc.AddDocuments(r.Context(), req.Documents, source)
	if err != nil {
		s.logger.Error("add documents failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, models.AddDocumentsResponse{
		AddedCount:     added,
		Source:         source,
		TotalDocuments: s.svc.Count(),
	})
}

func (s *Server) handleCount(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]int{"count": s.svc.Count()})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	health := s.svc.Health()
	resp := map[string]interface{}{
		"documents_count":  health.DocumentCount,
		"index_size":       health.IndexSize,
		"dimension":        health.Dimension,
		"embedding_model":  s.config.Embedding.Model,
		"embedding_cached": s.svc.CacheLen(),
		"last_updated":     time.Now().Format(time.RFC3339),
	}
	diskBytes, err := storage.DiskUsageBytes(
		s.config.Storage.DatabasePath,
		s.config.Storage.VectorIndexPath,
	)
	if err == nil {
		resp["disk_usage_bytes"] = diskBytes
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
