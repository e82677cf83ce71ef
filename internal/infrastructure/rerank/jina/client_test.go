package jina

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/paragraf-ai/lovdata-assistant/internal/core/domain"
)

func TestRerankMapsIndicesBackToCallerCandidates(t *testing.T) {
	var captured rerankRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rerank" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected auth header %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"results":[{"index":1,"relevance_score":0.9},{"index":0,"relevance_score":0.4}]}`))
	}))
	defer server.Close()

	client := New(server.URL, "secret", "rerank-model", nil)
	candidates := []domain.RerankCandidate{
		{Index: 3, Text: "Lov A"},
		{Index: 7, Text: "Lov B"},
	}

	ranked, err := client.Rerank(context.Background(), "arbeidsmiljø", candidates, 2)
	if err != nil {
		t.Fatalf("Rerank() error = %v", err)
	}
	if captured.Model != "rerank-model" || captured.Query != "arbeidsmiljø" || captured.TopN != 2 {
		t.Fatalf("unexpected request %+v", captured)
	}
	if len(ranked) != 2 {
		t.Fatalf("expected 2 ranked candidates, got %d", len(ranked))
	}
	if ranked[0].Index != 7 || ranked[0].RelevanceScore != 0.9 {
		t.Fatalf("expected caller index 7 first, got %+v", ranked[0])
	}
	if ranked[1].Index != 3 {
		t.Fatalf("expected caller index 3 second, got %+v", ranked[1])
	}
}

func TestRerankRejectsOutOfRangeResultIndex(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"results":[{"index":5,"relevance_score":0.9}]}`))
	}))
	defer server.Close()

	client := New(server.URL, "", "rerank-model", nil)
	_, err := client.Rerank(context.Background(), "q", []domain.RerankCandidate{{Index: 0, Text: "A"}}, 1)
	if err == nil {
		t.Fatal("expected error for out-of-range index")
	}
}

func TestRerankIncludesHTTPBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := New(server.URL, "", "rerank-model", nil)
	_, err := client.Rerank(context.Background(), "q", []domain.RerankCandidate{{Index: 0, Text: "A"}}, 1)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestRerankEmptyCandidatesSkipsCall(t *testing.T) {
	client := New("http://unused.invalid", "", "rerank-model", nil)
	ranked, err := client.Rerank(context.Background(), "q", nil, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ranked != nil {
		t.Fatalf("expected nil result, got %+v", ranked)
	}
}
