package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mockmate/interview-engine/internal/core/domain"
	"github.com/mockmate/interview-engine/internal/core/ports"
)

// EmbeddingWarmupUseCase fills in missing question embeddings ahead of the
// first selection request.
type EmbeddingWarmupUseCase struct {
	catalog  ports.QuestionCatalog
	embedder ports.Embedder
	queue    ports.EmbeddingQueue
}

func NewEmbeddingWarmupUseCase(
	catalog ports.QuestionCatalog,
	embedder ports.Embedder,
	queue ports.EmbeddingQueue,
) *EmbeddingWarmupUseCase {
	return &EmbeddingWarmupUseCase{
		catalog:  catalog,
		embedder: embedder,
		queue:    queue,
	}
}

// EnqueueMissing publishes one job per question without an embedding.
func (uc *EmbeddingWarmupUseCase) EnqueueMissing(ctx context.Context) (int, error) {
	questions, err := uc.catalog.ListQuestions(ctx)
	if err != nil {
		return 0, fmt.Errorf("list questions: %w", err)
	}

	published := 0
	for _, q := range questions {
		if q.HasEmbedding() {
			continue
		}
		if err := uc.queue.PublishQuestionEmbedding(ctx, q.Number); err != nil {
			return published, fmt.Errorf("publish embedding job for %s: %w", q.Number, err)
		}
		published++
	}
	return published, nil
}

// WarmQuestion embeds and caches a single question. Already-cached questions
// are left untouched.
func (uc *EmbeddingWarmupUseCase) WarmQuestion(ctx context.Context, questionNumber string) error {
	q, err := uc.catalog.GetQuestion(ctx, questionNumber)
	if err != nil {
		return err
	}
	if q.HasEmbedding() {
		slog.Debug("question_embedding_cached", "question_number", q.Number)
		return nil
	}

	vector, err := uc.embedder.EmbedQuery(ctx, q.Text)
	if err != nil {
		return domain.WrapError(domain.ErrEmbeddingUnavailable, "embed question", err)
	}
	if err := uc.catalog.SaveEmbedding(ctx, q.Number, vector); err != nil {
		return fmt.Errorf("save embedding for %s: %w", q.Number, err)
	}

	slog.Info("question_embedding_warmed", "question_number", q.Number, "dims", len(vector))
	return nil
}
