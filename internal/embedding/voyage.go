// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package embedding maps text to fixed-length vectors via the Voyage AI
// API. Document mode embeds article title+abstract text in batches; query
// mode embeds a single retrieval query. Embedding is on the critical path
// for both retrieval and ingestion, so failures are always surfaced.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prompt-health/evidence-engine/internal/httputil"
	"github.com/prompt-health/evidence-engine/pkg/types"
)

// voyageAPIURL is the Voyage embeddings endpoint. Declared as a var so
// tests can substitute an httptest server.
var voyageAPIURL = "https://api.voyageai.com/v1/embeddings"

// Input types per the Voyage API: documents and queries are embedded into
// the same space but with different instruction prefixes.
const (
	inputTypeDocument = "document"
	inputTypeQuery    = "query"
)

// ProviderError wraps any embedding API failure so callers can distinguish
// the embedding provider from other outbound dependencies.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("embedding provider: %s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Client calls the Voyage AI embeddings API.
type Client struct {
	cfg    types.EmbeddingConfig
	client *http.Client
}

// NewClient builds a Voyage client from config. A zero timeout defaults to
// 30 seconds; an empty model defaults to voyage-large-2.
func NewClient(cfg types.EmbeddingConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Model == "" {
		cfg.Model = "voyage-large-2"
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// voyageRequest is the request body for the Voyage embeddings API.
type voyageRequest struct {
	Input     []string `json:"input"`
	Model     string   `json:"model"`
	InputType string   `json:"input_type"`
}

// voyageResponse is the response body from the Voyage embeddings API.
type voyageResponse struct {
	Data []voyageEmbedding `json:"data"`
}

type voyageEmbedding struct {
	Embedding []float64 `json:"embedding"`
	Index     int       `json:"index"`
}

// EmbedDocuments embeds a batch of document texts in one API call and
// returns one vector per input, in input order.
func (c *Client) EmbedDocuments(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	return c.embed(ctx, texts, inputTypeDocument)
}

// EmbedQuery embeds a single query string.
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float64, error) {
	vectors, err := c.embed(ctx, []string{text}, inputTypeQuery)
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, &ProviderError{Op: "embed query", Err: fmt.Errorf("got %d vectors for one input", len(vectors))}
	}
	return vectors[0], nil
}

func (c *Client) embed(ctx context.Context, texts []string, inputType string) ([][]float64, error) {
	bodyBytes, err := json.Marshal(voyageRequest{
		Input:     texts,
		Model:     c.cfg.Model,
		InputType: inputType,
	})
	if err != nil {
		return nil, &ProviderError{Op: "marshaling request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, voyageAPIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, &ProviderError{Op: "creating request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, c.client, req, 0)
	if err != nil {
		return nil, &ProviderError{Op: "calling Voyage API", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &ProviderError{
			Op:  "calling Voyage API",
			Err: fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body)),
		}
	}

	var vResp voyageResponse
	if err := json.NewDecoder(resp.Body).Decode(&vResp); err != nil {
		return nil, &ProviderError{Op: "decoding response", Err: err}
	}
	if len(vResp.Data) != len(texts) {
		return nil, &ProviderError{
			Op:  "decoding response",
			Err: fmt.Errorf("got %d embeddings for %d inputs", len(vResp.Data), len(texts)),
		}
	}

	// The API reports an index per embedding; order by it rather than
	// trusting response order.
	vectors := make([][]float64, len(texts))
	for _, d := range vResp.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, &ProviderError{
				Op:  "decoding response",
				Err: fmt.Errorf("embedding index %d out of range", d.Index),
			}
		}
		vectors[d.Index] = d.Embedding
	}
	for i, v := range vectors {
		if len(v) == 0 {
			return nil, &ProviderError{
				Op:  "decoding response",
				Err: fmt.Errorf("missing embedding for input %d", i),
			}
		}
	}
	return vectors, nil
}
