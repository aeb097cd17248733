package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mockmate/interview-engine/internal/core/domain"
	"github.com/mockmate/interview-engine/internal/infrastructure/resilience"
)

func TestEmbedSendsBatch(t *testing.T) {
	var captured struct {
		Model string   `json:"model"`
		Input []string `json:"input"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"embeddings":[[0.1,0.2],[0.3,0.4]]}`))
	}))
	defer server.Close()

	embedder := NewEmbedder(New(server.URL, "gen", "all-minilm"))
	vectors, err := embedder.Embed(context.Background(), []string{"python", "django"})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if captured.Model != "all-minilm" || len(captured.Input) != 2 {
		t.Fatalf("unexpected request %+v", captured)
	}
	if len(vectors) != 2 || vectors[1][1] != 0.4 {
		t.Fatalf("unexpected vectors %v", vectors)
	}
}

func TestEmbedRejectsVectorCountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"embeddings":[[0.1]]}`))
	}))
	defer server.Close()

	embedder := NewEmbedder(New(server.URL, "gen", "embed"))
	if _, err := embedder.Embed(context.Background(), []string{"a", "b"}); err == nil {
		t.Fatalf("expected mismatch error")
	}
}

func TestEmbedIncludesHTTPBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	embedder := NewEmbedder(New(server.URL, "gen", "embed"))
	_, err := embedder.Embed(context.Background(), []string{"hello"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "model unavailable") {
		t.Fatalf("expected response body in error, got %v", err)
	}
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected 502 to be temporary, got %v", err)
	}
}

func TestEmbedRetriesThroughExecutor(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "loading model", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"embeddings":[[1,0]]}`))
	}))
	defer server.Close()

	exec := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    2,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
		BreakerEnabled:      false,
	})
	embedder := NewEmbedder(NewWithOptions(server.URL, "gen", "embed", Options{ResilienceExecutor: exec}))
	if _, err := embedder.EmbedQuery(context.Background(), "hello"); err != nil {
		t.Fatalf("EmbedQuery() error = %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 calls, got %d", calls.Load())
	}
}

func TestGraderParsesJSONReply(t *testing.T) {
	var capturedPrompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		capturedPrompt, _ = payload["prompt"].(string)
		_, _ = w.Write([]byte(`{"response":"{\"score\":0.75,\"feedback\":\"Good coverage.\"}"}`))
	}))
	defer server.Close()

	grader := NewGrader(New(server.URL, "llama3", "embed"))
	grade, err := grader.Grade(context.Background(), "What is a goroutine?", "A green thread")
	if err != nil {
		t.Fatalf("Grade() error = %v", err)
	}
	if grade.Score != 0.75 || grade.Feedback != "Good coverage." {
		t.Fatalf("unexpected grade %+v", grade)
	}
	if !strings.Contains(capturedPrompt, "What is a goroutine?") || !strings.Contains(capturedPrompt, "A green thread") {
		t.Fatalf("unexpected prompt: %s", capturedPrompt)
	}
}

func TestGraderSummarizeReturnsSummaryText(t *testing.T) {
	var capturedPrompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		capturedPrompt, _ = payload["prompt"].(string)
		_, _ = w.Write([]byte(`{"response":"{\"summary\":\"Solid concurrency knowledge.\"}"}`))
	}))
	defer server.Close()

	grader := NewGrader(New(server.URL, "llama3", "embed"))
	summary, err := grader.Summarize(context.Background(), []domain.ScoredAnswer{
		{Question: "What is a goroutine?", Answer: "A green thread", Score: 0.8},
	})
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if summary != "Solid concurrency knowledge." {
		t.Fatalf("unexpected summary %q", summary)
	}
	if !strings.Contains(capturedPrompt, "Average Score: 0.80") {
		t.Fatalf("unexpected prompt: %s", capturedPrompt)
	}
}

func TestClassifyOllamaError(t *testing.T) {
	if c := classifyOllamaError(&HTTPStatusError{StatusCode: http.StatusBadRequest}); c.Retryable || c.RecordFailure {
		t.Fatalf("400 must be permanent and unrecorded, got %+v", c)
	}
	if c := classifyOllamaError(&HTTPStatusError{StatusCode: http.StatusTooManyRequests}); !c.Retryable {
		t.Fatalf("429 must be retryable, got %+v", c)
	}
	if c := classifyOllamaError(context.Canceled); c.Retryable || c.RecordFailure {
		t.Fatalf("cancellation must not be retried, got %+v", c)
	}
}
