package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mockmate/interview-engine/internal/core/domain"
)

// AssessmentRepository persists interview sessions. At most one open
// assessment exists per (candidate, job).
type AssessmentRepository struct {
	db *sql.DB
}

func NewAssessmentRepository(db *sql.DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

const assessmentColumns = `id, candidate_id, job_id, phase, asked_questions, current_question, cv_match_score,
	weighted_score, hire_decision, hire_probability, is_complete, question_scores, started_at, ended_at, summary`

func (r *AssessmentRepository) GetOrCreate(ctx context.Context, session *domain.Session) (*domain.Session, error) {
	asked, scores, err := marshalSessionState(session)
	if err != nil {
		return nil, err
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO assessments (id, candidate_id, job_id, phase, asked_questions, current_question, cv_match_score, started_at, question_scores)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (candidate_id, job_id) WHERE NOT is_complete DO NOTHING
`, session.ID, session.CandidateID, session.JobID, string(session.Phase), asked, session.CurrentQuestion,
		nullableFloat(session.CVMatchScore), session.StartedAt, scores)
	if err != nil {
		return nil, fmt.Errorf("insert assessment: %w", err)
	}

	row := r.db.QueryRowContext(ctx, `
SELECT `+assessmentColumns+`
FROM assessments
WHERE candidate_id = $1 AND job_id = $2 AND NOT is_complete
`, session.CandidateID, session.JobID)
	stored, err := scanSession(row)
	if err != nil {
		return nil, fmt.Errorf("load open assessment: %w", err)
	}
	return stored, nil
}

func (r *AssessmentRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+assessmentColumns+`
FROM assessments
WHERE id = $1
`, id)
	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrSessionNotFound, "get assessment", fmt.Errorf("id=%s", id))
		}
		return nil, err
	}
	return session, nil
}

func (r *AssessmentRepository) Save(ctx context.Context, session *domain.Session) error {
	asked, scores, err := marshalSessionState(session)
	if err != nil {
		return err
	}

	var hire sql.NullBool
	if session.HireDecision != nil {
		hire = sql.NullBool{Bool: *session.HireDecision, Valid: true}
	}
	var ended sql.NullTime
	if session.EndedAt != nil {
		ended = sql.NullTime{Time: *session.EndedAt, Valid: true}
	}

	res, err := r.db.ExecContext(ctx, `
UPDATE assessments
SET phase = $2, asked_questions = $3, current_question = $4, cv_match_score = $5, weighted_score = $6,
	hire_decision = $7, hire_probability = $8, is_complete = $9, question_scores = $10, ended_at = $11, summary = $12
WHERE id = $1
`, session.ID, string(session.Phase), asked, session.CurrentQuestion, nullableFloat(session.CVMatchScore),
		session.WeightedScore, hire, nullableFloat(session.HireProbability), session.IsComplete, scores, ended, session.Summary)
	if err != nil {
		return fmt.Errorf("update assessment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update assessment rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrSessionNotFound, "save assessment", fmt.Errorf("id=%s", session.ID))
	}
	return nil
}

func marshalSessionState(session *domain.Session) ([]byte, []byte, error) {
	asked := session.AskedQuestions
	if asked == nil {
		asked = []string{}
	}
	askedJSON, err := json.Marshal(asked)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal asked questions: %w", err)
	}
	scores := session.QuestionScores
	if scores == nil {
		scores = map[string]float64{}
	}
	scoresJSON, err := json.Marshal(scores)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal question scores: %w", err)
	}
	return askedJSON, scoresJSON, nil
}

func scanSession(row rowScanner) (*domain.Session, error) {
	var s domain.Session
	var phase string
	var askedRaw, scoresRaw []byte
	var cv, probability sql.NullFloat64
	var hire sql.NullBool
	var ended sql.NullTime

	err := row.Scan(
		&s.ID, &s.CandidateID, &s.JobID, &phase, &askedRaw, &s.CurrentQuestion, &cv,
		&s.WeightedScore, &hire, &probability, &s.IsComplete, &scoresRaw, &s.StartedAt, &ended, &s.Summary,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan assessment: %w", err)
	}

	s.Phase = domain.Phase(phase)
	if err := json.Unmarshal(askedRaw, &s.AskedQuestions); err != nil {
		return nil, fmt.Errorf("unmarshal asked questions: %w", err)
	}
	if len(scoresRaw) > 0 {
		if err := json.Unmarshal(scoresRaw, &s.QuestionScores); err != nil {
			return nil, fmt.Errorf("unmarshal question scores: %w", err)
		}
	}
	s.CVMatchScore = floatPtr(cv)
	s.HireProbability = floatPtr(probability)
	if hire.Valid {
		decided := hire.Bool
		s.HireDecision = &decided
	}
	if ended.Valid {
		at := ended.Time
		s.EndedAt = &at
	}
	return &s, nil
}
