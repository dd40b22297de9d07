package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenAIEmbed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/embeddings", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req openAIEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "text-embedding-3-small", req.Model)
		require.Equal(t, "hello world", req.Input)

		_ = json.NewEncoder(w).Encode(openAIEmbedResponse{
			Data: []struct {
				Embedding []float32 `json:"embedding"`
			}{{Embedding: []float32{0.1, 0.2, 0.3}}},
		})
	}))
	defer server.Close()

	provider := &openAIEmbedProvider{apiKey: "test-key", baseURL: server.URL}
	vec, err := provider.Embed(context.Background(), "text-embedding-3-small", "hello world", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	require.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
}

func TestOpenAIEmbedNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	provider := &openAIEmbedProvider{apiKey: "test-key", baseURL: server.URL}
	_, err := provider.Embed(context.Background(), "m", "text", "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "429")
}

func TestOpenAIEmbedMissingKey(t *testing.T) {
	provider := &openAIEmbedProvider{baseURL: "http://unused"}
	_, err := provider.Embed(context.Background(), "m", "text", "")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestNewProviderRegistry(t *testing.T) {
	args := json.RawMessage(`{"api_key":"k","base_url":"http://localhost"}`)

	provider, err := NewProvider("OpenAI", args)
	require.NoError(t, err)
	require.Equal(t, "openai", provider.Name())

	provider, err = NewProvider("gemini", json.RawMessage(`{"api_key":"k"}`))
	require.NoError(t, err)
	require.Equal(t, "gemini", provider.Name())

	_, err = NewProvider("unknown", args)
	require.Error(t, err)
}
