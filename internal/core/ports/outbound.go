package ports

import (
	"context"

	"github.com/mockmate/interview-engine/internal/core/domain"
)

// Embedder builds vectors for question, skill and answer text.
// Identical text must yield identical vectors within a process lifetime.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// AnswerGrader asks a language model to judge an answer.
type AnswerGrader interface {
	Grade(ctx context.Context, question, answer string) (domain.Grade, error)
}

// InterviewSummarizer writes a short narrative of a finished interview.
type InterviewSummarizer interface {
	Summarize(ctx context.Context, answers []domain.ScoredAnswer) (string, error)
}

// QuestionCatalog is read-mostly access to the question bank.
type QuestionCatalog interface {
	ListQuestions(ctx context.Context) ([]domain.Question, error)
	GetQuestion(ctx context.Context, questionNumber string) (*domain.Question, error)
	SaveEmbedding(ctx context.Context, questionNumber string, embedding []float32) error
	UpsertQuestions(ctx context.Context, questions []domain.Question) error
}

// ProfileRepository resolves job and candidate skill sets.
type ProfileRepository interface {
	JobSkills(ctx context.Context, jobID string) ([]string, error)
	CandidateSkills(ctx context.Context, candidateID string) ([]string, error)
	CandidateCVMatchScore(ctx context.Context, candidateID string) (*float64, error)
	JobExists(ctx context.Context, jobID string) (bool, error)
	UpsertJob(ctx context.Context, job domain.Job) error
	UpsertCandidate(ctx context.Context, candidate domain.Candidate) error
}

// SessionRepository persists assessment sessions.
type SessionRepository interface {
	GetOrCreate(ctx context.Context, session *domain.Session) (*domain.Session, error)
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	Save(ctx context.Context, session *domain.Session) error
}

// AnswerRepository upserts one record per (assessment, question).
type AnswerRepository interface {
	Upsert(ctx context.Context, answer *domain.AnswerRecord) (*domain.AnswerRecord, error)
	ListByAssessment(ctx context.Context, assessmentID string) ([]domain.AnswerRecord, error)
}

// ArtifactStore keeps opaque model artifacts.
type ArtifactStore interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Store(ctx context.Context, key string, data []byte) error
}

// EmbeddingQueue publishes/consumes question embedding warm-up jobs.
type EmbeddingQueue interface {
	PublishQuestionEmbedding(ctx context.Context, questionNumber string) error
	SubscribeQuestionEmbedding(ctx context.Context, handler func(context.Context, string) error) error
}

// HireClassifier is a trained binary classifier over (cv_match_score, weighted_score).
type HireClassifier interface {
	Predict(features []float64) int
	PredictProba(features []float64) [2]float64
}

// HireModelTrainer fits a fresh classifier and round-trips its artifact.
type HireModelTrainer interface {
	Train(ctx context.Context) (HireClassifier, []byte, error)
	Decode(data []byte) (HireClassifier, error)
}
