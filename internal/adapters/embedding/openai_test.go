package embedding

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
)

func embedPayload(vec []float32) map[string]interface{} {
	return map[string]interface{}{
		"data": []map[string]interface{}{{"embedding": vec}},
	}
}

func TestOpenAIAdapter_Embed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header: %s", got)
		}
		json.NewEncoder(w).Encode(embedPayload([]float32{3, 4, 0}))
	}))
	defer server.Close()

	adapter := NewOpenAIAdapter(server.URL, "test-key", "test-model", 0)
	emb, err := adapter.Embed(context.Background(), "hello")

	if err != nil {
		t.Fatalf("embed failed: %v", err)
	}
	if len(emb) != 3 {
		t.Fatalf("expected 3 dims, got %d", len(emb))
	}
}

func TestOpenAIAdapter_Normalizes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(embedPayload([]float32{3, 4, 0}))
	}))
	defer server.Close()

	adapter := NewOpenAIAdapter(server.URL, "k", "m", 0)
	emb, err := adapter.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("embed failed: %v", err)
	}

	var norm float64
	for _, x := range emb {
		norm += float64(x) * float64(x)
	}
	if math.Abs(math.Sqrt(norm)-1.0) > 1e-5 {
		t.Errorf("expected unit L2 norm, got %f", math.Sqrt(norm))
	}
}

func TestOpenAIAdapter_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	adapter := NewOpenAIAdapter(server.URL, "k", "m", 0)
	if _, err := adapter.Embed(context.Background(), "hello"); err == nil {
		t.Error("should error on 429")
	}
}

func TestOpenAIAdapter_EmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"data": []interface{}{}})
	}))
	defer server.Close()

	adapter := NewOpenAIAdapter(server.URL, "k", "m", 0)
	if _, err := adapter.Embed(context.Background(), "hello"); err == nil {
		t.Error("should error when no embedding is returned")
	}
}

func TestOpenAIAdapter_DefaultValues(t *testing.T) {
	adapter := NewOpenAIAdapter("", "", "", 0)
	if adapter.baseURL != "https://api.openai.com/v1" {
		t.Error("should default to the OpenAI base url")
	}
	if adapter.model != "text-embedding-3-small" {
		t.Error("should default to text-embedding-3-small")
	}
}
