// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prompt-health/evidence-engine/pkg/types"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	orig := voyageAPIURL
	voyageAPIURL = ts.URL
	t.Cleanup(func() { voyageAPIURL = orig })

	return NewClient(types.EmbeddingConfig{APIKey: "test-key"})
}

func TestEmbedDocumentsBatches(t *testing.T) {
	var gotReq voyageRequest
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(voyageResponse{Data: []voyageEmbedding{
			{Index: 0, Embedding: []float64{0.1, 0.2}},
			{Index: 1, Embedding: []float64{0.3, 0.4}},
		}})
	})

	vectors, err := c.EmbedDocuments(context.Background(), []string{"first text", "second text"})
	require.NoError(t, err)

	assert.Equal(t, "document", gotReq.InputType)
	assert.Equal(t, []string{"first text", "second text"}, gotReq.Input)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float64{0.1, 0.2}, vectors[0])
	assert.Equal(t, []float64{0.3, 0.4}, vectors[1])
}

func TestEmbedDocumentsOrdersByIndex(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		// Response order reversed relative to input order.
		json.NewEncoder(w).Encode(voyageResponse{Data: []voyageEmbedding{
			{Index: 1, Embedding: []float64{0.3}},
			{Index: 0, Embedding: []float64{0.1}},
		}})
	})

	vectors, err := c.EmbedDocuments(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1}, vectors[0])
	assert.Equal(t, []float64{0.3}, vectors[1])
}

func TestEmbedDocumentsEmptyInput(t *testing.T) {
	c := NewClient(types.EmbeddingConfig{})
	vectors, err := c.EmbedDocuments(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
}

func TestEmbedQuery(t *testing.T) {
	var gotReq voyageRequest
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(voyageResponse{Data: []voyageEmbedding{
			{Index: 0, Embedding: []float64{0.5, 0.6}},
		}})
	})

	vec, err := c.EmbedQuery(context.Background(), "knee osteoarthritis rehabilitation")
	require.NoError(t, err)

	assert.Equal(t, "query", gotReq.InputType)
	assert.Equal(t, []float64{0.5, 0.6}, vec)
}

func TestEmbedSurfacesHTTPError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "invalid api key", http.StatusUnauthorized)
	})

	_, err := c.EmbedQuery(context.Background(), "query")
	require.Error(t, err)

	var pe *ProviderError
	assert.True(t, errors.As(err, &pe), "error should be a ProviderError")
}

func TestEmbedSurfacesCountMismatch(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(voyageResponse{Data: []voyageEmbedding{
			{Index: 0, Embedding: []float64{0.1}},
		}})
	})

	_, err := c.EmbedDocuments(context.Background(), []string{"a", "b"})
	require.Error(t, err)

	var pe *ProviderError
	assert.True(t, errors.As(err, &pe))
}
