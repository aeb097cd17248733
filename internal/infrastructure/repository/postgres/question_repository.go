package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mockmate/interview-engine/internal/core/domain"
)

// QuestionRepository is the question bank with cached embeddings.
type QuestionRepository struct {
	db *sql.DB
}

func NewQuestionRepository(db *sql.DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

func (r *QuestionRepository) ListQuestions(ctx context.Context) ([]domain.Question, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT question_number, question_text, canonical_answer, category, difficulty, embedding
FROM questions
ORDER BY created_at, question_number
`)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Question, 0)
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}
	return out, nil
}

func (r *QuestionRepository) GetQuestion(ctx context.Context, questionNumber string) (*domain.Question, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT question_number, question_text, canonical_answer, category, difficulty, embedding
FROM questions
WHERE question_number = $1
`, questionNumber)

	q, err := scanQuestion(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrQuestionNotFound, "get question", fmt.Errorf("question_number=%s", questionNumber))
		}
		return nil, err
	}
	return &q, nil
}

func (r *QuestionRepository) SaveEmbedding(ctx context.Context, questionNumber string, embedding []float32) error {
	raw, err := json.Marshal(embedding)
	if err != nil {
		return fmt.Errorf("marshal embedding: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `
UPDATE questions
SET embedding = $2
WHERE question_number = $1
`, questionNumber, raw)
	if err != nil {
		return fmt.Errorf("save embedding: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save embedding rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrQuestionNotFound, "save embedding", fmt.Errorf("question_number=%s", questionNumber))
	}
	return nil
}

// UpsertQuestions inserts or refreshes questions. A changed question text
// drops the cached embedding.
func (r *QuestionRepository) UpsertQuestions(ctx context.Context, questions []domain.Question) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert questions tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, q := range questions {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO questions (question_number, question_text, canonical_answer, category, difficulty)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (question_number) DO UPDATE SET
	embedding = CASE WHEN questions.question_text = EXCLUDED.question_text THEN questions.embedding ELSE NULL END,
	question_text = EXCLUDED.question_text,
	canonical_answer = EXCLUDED.canonical_answer,
	category = EXCLUDED.category,
	difficulty = EXCLUDED.difficulty
`, q.Number, q.Text, q.CanonicalAnswer, q.Category, int(q.Difficulty)); err != nil {
			return fmt.Errorf("upsert question %s: %w", q.Number, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert questions: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuestion(row rowScanner) (domain.Question, error) {
	var q domain.Question
	var difficulty int
	var embeddingRaw []byte
	if err := row.Scan(&q.Number, &q.Text, &q.CanonicalAnswer, &q.Category, &difficulty, &embeddingRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return q, err
		}
		return q, fmt.Errorf("scan question: %w", err)
	}
	q.Difficulty = domain.Difficulty(difficulty)
	if len(embeddingRaw) > 0 {
		if err := json.Unmarshal(embeddingRaw, &q.Embedding); err != nil {
			return q, fmt.Errorf("unmarshal embedding for %s: %w", q.Number, err)
		}
	}
	return q, nil
}
