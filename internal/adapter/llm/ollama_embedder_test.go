package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOllamaEmbedderEncode_BatchRequest(t *testing.T) {
	var gotModel string
	var gotInput []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}

		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		gotModel = req.Model
		gotInput = req.Input

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(embedResponse{
			Embeddings: [][]float32{{0.1, 0.2}, {0.3, 0.4}},
		})
	}))
	defer server.Close()

	embedder := NewOllamaEmbedder(server.URL, "test-embed", 10)
	vectors, err := embedder.Encode(context.Background(), []string{"first text", "second text"})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	if gotModel != "test-embed" {
		t.Fatalf("expected model test-embed, got %s", gotModel)
	}
	if len(gotInput) != 2 {
		t.Fatalf("expected 2 inputs, got %d", len(gotInput))
	}
	if len(vectors) != 2 {
		t.Fatalf("expected 2 vectors, got %d", len(vectors))
	}
	if vectors[0][0] != 0.1 {
		t.Fatalf("unexpected vector value: %v", vectors[0][0])
	}
}

func TestOllamaEmbedderEncode_CountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(embedResponse{
			Embeddings: [][]float32{{0.1}},
		})
	}))
	defer server.Close()

	embedder := NewOllamaEmbedder(server.URL, "test-embed", 10)
	_, err := embedder.Encode(context.Background(), []string{"a", "b"})
	if err == nil {
		t.Fatal("expected error on embedding count mismatch")
	}
}

func TestOllamaEmbedderEncode_BadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	embedder := NewOllamaEmbedder(server.URL, "test-embed", 10)
	_, err := embedder.Encode(context.Background(), []string{"a"})
	if err == nil {
		t.Fatal("expected error on 500 response")
	}
}

func TestOllamaEmbedderVersion(t *testing.T) {
	embedder := NewOllamaEmbedder("http://localhost:11434", "mxbai-embed-large", 10)
	if embedder.Version() != "mxbai-embed-large" {
		t.Fatalf("unexpected version: %s", embedder.Version())
	}
}
