package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hyperjump/lexilaw/internal/config"
)

func TestMockEmbedder_deterministic(t *testing.T) {
	e := NewMockEmbedder(16)
	ctx := context.Background()
	a, _ := e.Embed(ctx, "oppression")
	b, _ := e.Embed(ctx, "oppression")
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("same text should give same embedding")
		}
	}
	var sum float64
	for _, v := range a {
		sum += float64(v * v)
	}
	if math.Abs(sum-1) > 1e-4 {
		t.Errorf("embedding not unit length: %v", sum)
	}
}

func TestMockEmbedder_FailWhen(t *testing.T) {
	e := NewMockEmbedder(4).FailWhen(func(s string) bool { return strings.Contains(s, "bad") })
	_, err := e.EmbedBatch(context.Background(), []string{"good", "bad text"})
	if !errors.Is(err, ErrMockFailure) {
		t.Fatalf("expected ErrMockFailure, got %v", err)
	}
}

func TestOpenAIEmbedder_EmbedBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer k" {
			t.Errorf("auth header = %q", got)
		}
		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req.Model != "m" || len(req.Input) != 2 {
			t.Errorf("unexpected request %+v", req)
		}
		// out of order on purpose
		_, _ = w.Write([]byte(`{"data":[{"index":1,"embedding":[0,2]},{"index":0,"embedding":[3,0]}]}`))
	}))
	defer srv.Close()

	e, err := NewOpenAIEmbedder(srv.URL, "k", "m", 2)
	if err != nil {
		t.Fatal(err)
	}
	vecs, err := e.EmbedBatch(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if vecs[0][0] != 1 || vecs[1][1] != 1 {
		t.Errorf("expected normalized vectors in input order, got %v", vecs)
	}
}

func TestOpenAIEmbedder_errorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()
	e, _ := NewOpenAIEmbedder(srv.URL, "k", "m", 2)
	if _, err := e.Embed(context.Background(), "a"); err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestOpenAIEmbedder_countMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()
	e, _ := NewOpenAIEmbedder(srv.URL, "k", "m", 2)
	if _, err := e.Embed(context.Background(), "a"); !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestNewOpenAIEmbedder_requiresKeyForDefaultURL(t *testing.T) {
	if _, err := NewOpenAIEmbedder("", "", "m", 2); err == nil {
		t.Error("expected error without API key")
	}
}

func TestNew(t *testing.T) {
	ctx := context.Background()
	e, err := New(ctx, config.EmbeddingConfig{Provider: "mock", Dimensions: 8, CacheSize: 4})
	if err != nil {
		t.Fatal(err)
	}
	if e.Dimensions() != 8 {
		t.Errorf("Dimensions() = %d", e.Dimensions())
	}
	if _, err := New(ctx, config.EmbeddingConfig{Provider: "word2vec"}); err == nil {
		t.Error("expected error for unknown provider")
	}
	if _, err := New(ctx, config.EmbeddingConfig{Provider: "gemini"}); err == nil {
		t.Error("expected error for gemini without key")
	}
	if _, err := New(ctx, config.EmbeddingConfig{Provider: "onnx"}); err == nil {
		t.Error("expected error for onnx without model path")
	}
}
