package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mockmate/interview-engine/internal/core/domain"
	"github.com/mockmate/interview-engine/internal/core/ports"
)

const (
	priorScoreWeight       = 0.7
	answerSimilarityWeight = 0.3

	defaultGradeFeedback = "The answer demonstrates understanding but could be improved with more specific details."
)

// AnswerEvaluator scores a submitted answer and stores it.
type AnswerEvaluator struct {
	embedder ports.Embedder
	scorer   *SkillScorer
	answers  ports.AnswerRepository
	grader   ports.AnswerGrader
	now      func() time.Time
}

// NewAnswerEvaluator builds an evaluator. grader may be nil.
func NewAnswerEvaluator(
	embedder ports.Embedder,
	scorer *SkillScorer,
	answers ports.AnswerRepository,
	grader ports.AnswerGrader,
) *AnswerEvaluator {
	return &AnswerEvaluator{
		embedder: embedder,
		scorer:   scorer,
		answers:  answers,
		grader:   grader,
		now:      time.Now,
	}
}

// Evaluate blends the question's relevance score with the answer's semantic
// similarity to the canonical answer. Embedding failures degrade to a zero
// similarity and an unscored record; only persistence failures are returned.
func (e *AnswerEvaluator) Evaluate(
	ctx context.Context,
	question domain.Question,
	answerText string,
	session *domain.Session,
	profile domain.Profile,
) (*domain.Evaluation, error) {
	if strings.TrimSpace(answerText) == "" {
		return nil, domain.WrapError(domain.ErrInvalidAnswerPayload, "evaluate answer", errors.New("answer text is empty"))
	}

	similarity, err := e.similarity(ctx, question.CanonicalAnswer, answerText)
	var blended *float64
	if err != nil {
		slog.Warn("answer_similarity_failed",
			"assessment_id", session.ID,
			"question_number", question.Number,
			"error", err,
		)
		similarity = 0
	} else {
		prior, scoreErr := e.priorScore(ctx, question, profile)
		if scoreErr != nil {
			slog.Warn("answer_prior_score_failed",
				"assessment_id", session.ID,
				"question_number", question.Number,
				"error", scoreErr,
			)
		} else {
			value := priorScoreWeight*prior + answerSimilarityWeight*similarity
			blended = &value
		}
	}

	record := &domain.AnswerRecord{
		AssessmentID:    session.ID,
		QuestionNumber:  question.Number,
		AnswerText:      answerText,
		SimilarityScore: similarity,
		QuestionScore:   blended,
		// Measured from assessment start, not from when the question was served.
		ResponseTimeSeconds: e.now().Sub(session.StartedAt).Seconds(),
		AskedAt:             e.now().UTC(),
	}
	if grade, ok := e.grade(ctx, session.ID, question, answerText); ok {
		score := grade.Score
		record.LLMScore = &score
		record.Feedback = grade.Feedback
	}

	stored, err := e.answers.Upsert(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("persist answer: %w", err)
	}

	if blended != nil {
		session.RecordScore(question.Number, *blended)
	} else {
		delete(session.QuestionScores, question.Number)
		session.Phase = domain.PhaseAnswerSubmitted
	}

	return &domain.Evaluation{
		AnswerID:        stored.ID,
		QuestionNumber:  question.Number,
		SimilarityScore: similarity,
		BlendedScore:    blended,
		Feedback:        stored.Feedback,
	}, nil
}

func (e *AnswerEvaluator) similarity(ctx context.Context, canonical, answer string) (float64, error) {
	vectors, err := e.embedder.Embed(ctx, []string{canonical, answer})
	if err != nil {
		return 0, domain.WrapError(domain.ErrEmbeddingUnavailable, "embed answer", err)
	}
	if len(vectors) != 2 {
		return 0, domain.WrapError(domain.ErrEmbeddingUnavailable, "embed answer",
			fmt.Errorf("expected 2 vectors, got %d", len(vectors)))
	}
	return cosineSimilarity(vectors[0], vectors[1]), nil
}

// priorScore recomputes the question's pre-answer relevance; the asked set is
// ignored so the just-answered question still yields a row.
func (e *AnswerEvaluator) priorScore(ctx context.Context, question domain.Question, profile domain.Profile) (float64, error) {
	rows, err := e.scorer.Score(ctx, []domain.Question{question}, profile.JobSkills, profile.CandidateSkills, nil)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, domain.WrapError(domain.ErrQuestionNotFound, "score question", fmt.Errorf("no row for %s", question.Number))
	}
	return rows[0].Score, nil
}

func (e *AnswerEvaluator) grade(ctx context.Context, sessionID string, question domain.Question, answer string) (domain.Grade, bool) {
	if e.grader == nil {
		return domain.Grade{}, false
	}
	grade, err := e.grader.Grade(ctx, question.Text, answer)
	if err != nil {
		slog.Warn("answer_grade_failed",
			"assessment_id", sessionID,
			"question_number", question.Number,
			"error", err,
		)
		return domain.Grade{}, false
	}
	return normalizeGrade(grade), true
}

func normalizeGrade(grade domain.Grade) domain.Grade {
	switch {
	case grade.Score < 0:
		grade.Score = 0
	case grade.Score > 1:
		grade.Score = 1
	}
	if strings.TrimSpace(grade.Feedback) == "" {
		grade.Feedback = defaultGradeFeedback
	}
	return grade
}
