// Package client provides a Go client for the Recall HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/marketpulse/recall/internal/models"
)

// Client talks to a running Recall server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the server at baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Health returns the server health snapshot.
func (c *Client) Health(ctx context.Context) (*models.Health, error) {
	var health models.Health
	if err := c.get(ctx, "/health", &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// Retrieve runs a similarity query against the server.
func (c *Client) Retrieve(ctx context.Context, query string, k int, filter map[string]string) (*models.RetrieveResponse, error) {
	req := models.RetrieveQuery{Query: query, K: k, Filter: filter}
	var resp models.RetrieveResponse
	if err := c.post(ctx, "/retrieve", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AddDocuments submits a batch of documents for ingestion.
func (c *Client) AddDocuments(ctx context.Context, docs []models.DocumentInput, source string) (*models.AddDocumentsResponse, error) {
	req := models.AddDocumentsRequest{Documents: docs, Source: source}
	var resp models.AddDocumentsResponse
	if err := c.post(ctx, "/add_documents", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Count returns the number of indexed documents.
func (c *Client) Count(ctx context.Context) (int, error) {
	var resp struct {
		Count int `json:"count"`
	}
	if err := c.get(ctx, "/documents/count", &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// Stats returns the raw stats payload.
func (c *Client) Stats(ctx context.Context) (map[string]interface{}, error) {
	var resp map[string]interface{}
	if err := c.get(ctx, "/stats", &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server error (%d): %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("server error (%d)", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
