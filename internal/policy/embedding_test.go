package policy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddingClientEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "embedder-1", req.Model)
		assert.Equal(t, "some clause text", req.Input)

		json.NewEncoder(w).Encode(embeddingResponse{Embedding: []float32{0.1, 0.2, 0.3}})
	}))
	defer srv.Close()

	client, err := NewEmbeddingClient(EmbeddingConfig{
		Endpoint: srv.URL,
		APIKey:   "test-key",
		Model:    "embedder-1",
	})
	require.NoError(t, err)

	vec, err := client.Embed(context.Background(), "some clause text")

	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
}

func TestEmbeddingClientRejectsEmptyVector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(embeddingResponse{})
	}))
	defer srv.Close()

	client, err := NewEmbeddingClient(EmbeddingConfig{Endpoint: srv.URL, APIKey: "test-key"})
	require.NoError(t, err)

	_, err = client.Embed(context.Background(), "text")
	assert.Error(t, err)
}

func TestEmbeddingClientHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client, err := NewEmbeddingClient(EmbeddingConfig{Endpoint: srv.URL, APIKey: "test-key"})
	require.NoError(t, err)

	_, err = client.Embed(context.Background(), "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP error 503")
}

func TestNewEmbeddingClientValidation(t *testing.T) {
	_, err := NewEmbeddingClient(EmbeddingConfig{APIKey: "key"})
	assert.Error(t, err)

	_, err = NewEmbeddingClient(EmbeddingConfig{Endpoint: "http://localhost"})
	assert.Error(t, err)
}
