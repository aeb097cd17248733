package usecase

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/mockmate/interview-engine/internal/core/domain"
)

func TestEnqueueMissingPublishesOnlyUncachedQuestions(t *testing.T) {
	catalog := &catalogFake{questions: []domain.Question{
		{Number: "Q1", Text: "a", Embedding: []float32{1}},
		{Number: "Q2", Text: "b"},
		{Number: "Q3", Text: "c"},
	}}
	queue := &queueFake{}
	uc := NewEmbeddingWarmupUseCase(catalog, &vectorEmbedder{}, queue)

	n, err := uc.EnqueueMissing(context.Background())
	if err != nil {
		t.Fatalf("EnqueueMissing() error = %v", err)
	}
	if n != 2 || !slices.Equal(queue.published, []string{"Q2", "Q3"}) {
		t.Fatalf("expected Q2,Q3 published, got %d %v", n, queue.published)
	}
}

func TestEnqueueMissingStopsOnPublishError(t *testing.T) {
	catalog := &catalogFake{questions: []domain.Question{{Number: "Q1", Text: "a"}}}
	uc := NewEmbeddingWarmupUseCase(catalog, &vectorEmbedder{}, &queueFake{err: errors.New("nats closed")})

	if _, err := uc.EnqueueMissing(context.Background()); err == nil {
		t.Fatalf("expected publish error")
	}
}

func TestWarmQuestionIsIdempotent(t *testing.T) {
	catalog := &catalogFake{questions: []domain.Question{{Number: "Q1", Text: "What is a channel?"}}}
	embedder := &vectorEmbedder{}
	uc := NewEmbeddingWarmupUseCase(catalog, embedder, &queueFake{})

	if err := uc.WarmQuestion(context.Background(), "Q1"); err != nil {
		t.Fatalf("WarmQuestion() error = %v", err)
	}
	if err := uc.WarmQuestion(context.Background(), "Q1"); err != nil {
		t.Fatalf("WarmQuestion() error = %v", err)
	}
	if embedder.calls != 1 {
		t.Fatalf("expected one embed call, got %d", embedder.calls)
	}
	if len(catalog.saved["Q1"]) == 0 {
		t.Fatalf("expected cached embedding for Q1")
	}
}

func TestWarmQuestionErrors(t *testing.T) {
	catalog := &catalogFake{questions: []domain.Question{{Number: "Q1", Text: "x"}}}
	uc := NewEmbeddingWarmupUseCase(catalog, &vectorEmbedder{err: errors.New("down")}, &queueFake{})

	if err := uc.WarmQuestion(context.Background(), "Q1"); !domain.IsKind(err, domain.ErrEmbeddingUnavailable) {
		t.Fatalf("expected ErrEmbeddingUnavailable, got %v", err)
	}
	if err := uc.WarmQuestion(context.Background(), "Q9"); !domain.IsKind(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected ErrQuestionNotFound, got %v", err)
	}
}
