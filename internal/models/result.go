package models

// RetrieveResult is a single ranked retrieval hit: the stored document joined
// with its similarity score and 1-based rank in the returned list.
type RetrieveResult struct {
	Document
	Score float64 `json:"score"`
	Rank  int     `json:"rank"`
}

// RetrieveResponse is the payload returned for a retrieve request.
type RetrieveResponse struct {
	Results []*RetrieveResult `json:"results"`
	Query   string            `json:"query"`
}

// AddDocumentsResponse reports the outcome of a batch ingestion.
type AddDocumentsResponse struct {
	AddedCount     int    `json:"added_count"`
	Source         string `json:"source"`
	TotalDocuments int    `json:"total_documents"`
}

// Health status values.
const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"
)

// Health is the service health snapshot. Degraded indicates the document
// count and index size have diverged, which the locking discipline should
// make unreachable.
type Health struct {
	Status        string `json:"status"`
	DocumentCount int    `json:"documents_count"`
	IndexSize     int    `json:"index_size"`
	ModelReady    bool   `json:"embedding_model_ready"`
	Dimension     int    `json:"dimension"`
}
