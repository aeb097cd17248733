package ports

import (
	"context"

	"github.com/mockmate/interview-engine/internal/core/domain"
)

// InterviewService is the inbound contract for one adaptive interview.
type InterviewService interface {
	StartAssessment(ctx context.Context, candidateID, jobID string) (*domain.Session, error)
	GetNextQuestion(ctx context.Context, sessionID string) (*domain.NextQuestion, error)
	SubmitAnswer(ctx context.Context, sessionID, questionNumber, answerText string) (*domain.Evaluation, error)
	FinishInterview(ctx context.Context, sessionID string) (domain.Decision, error)
}

// EmbeddingWarmer precomputes and caches question embeddings.
type EmbeddingWarmer interface {
	EnqueueMissing(ctx context.Context) (int, error)
	WarmQuestion(ctx context.Context, questionNumber string) error
}
