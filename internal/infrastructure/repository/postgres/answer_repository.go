package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mockmate/interview-engine/internal/core/domain"
)

// AnswerRepository keeps exactly one answer per (assessment, question).
type AnswerRepository struct {
	db *sql.DB
}

func NewAnswerRepository(db *sql.DB) *AnswerRepository {
	return &AnswerRepository{db: db}
}

func (r *AnswerRepository) Upsert(ctx context.Context, answer *domain.AnswerRecord) (*domain.AnswerRecord, error) {
	row := r.db.QueryRowContext(ctx, `
INSERT INTO answers (
	assessment_id, question_number, answer_text, similarity_score, question_score, response_time_seconds, llm_score, feedback, asked_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (assessment_id, question_number) DO UPDATE SET
	answer_text = EXCLUDED.answer_text,
	similarity_score = EXCLUDED.similarity_score,
	question_score = EXCLUDED.question_score,
	response_time_seconds = EXCLUDED.response_time_seconds,
	llm_score = EXCLUDED.llm_score,
	feedback = EXCLUDED.feedback,
	asked_at = EXCLUDED.asked_at
RETURNING id
`, answer.AssessmentID, answer.QuestionNumber, answer.AnswerText, answer.SimilarityScore,
		nullableFloat(answer.QuestionScore), answer.ResponseTimeSeconds, nullableFloat(answer.LLMScore),
		answer.Feedback, answer.AskedAt)

	stored := *answer
	if err := row.Scan(&stored.ID); err != nil {
		return nil, fmt.Errorf("upsert answer: %w", err)
	}
	return &stored, nil
}

func (r *AnswerRepository) ListByAssessment(ctx context.Context, assessmentID string) ([]domain.AnswerRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, assessment_id, question_number, answer_text, similarity_score, question_score,
	response_time_seconds, llm_score, feedback, asked_at
FROM answers
WHERE assessment_id = $1
ORDER BY id
`, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	defer rows.Close()

	out := make([]domain.AnswerRecord, 0)
	for rows.Next() {
		var a domain.AnswerRecord
		var questionScore, llmScore sql.NullFloat64
		if err := rows.Scan(
			&a.ID, &a.AssessmentID, &a.QuestionNumber, &a.AnswerText, &a.SimilarityScore, &questionScore,
			&a.ResponseTimeSeconds, &llmScore, &a.Feedback, &a.AskedAt,
		); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		a.QuestionScore = floatPtr(questionScore)
		a.LLMScore = floatPtr(llmScore)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate answers: %w", err)
	}
	return out, nil
}
