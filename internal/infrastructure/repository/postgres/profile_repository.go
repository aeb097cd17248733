package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mockmate/interview-engine/internal/core/domain"
)

// ProfileRepository stores jobs and candidates with their skill lists.
type ProfileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) JobSkills(ctx context.Context, jobID string) ([]string, error) {
	return r.skills(ctx, `SELECT skills FROM jobs WHERE id = $1`, jobID)
}

// CandidateSkills returns no skills for unknown candidates.
func (r *ProfileRepository) CandidateSkills(ctx context.Context, candidateID string) ([]string, error) {
	return r.skills(ctx, `SELECT skills FROM candidates WHERE id = $1`, candidateID)
}

func (r *ProfileRepository) CandidateCVMatchScore(ctx context.Context, candidateID string) (*float64, error) {
	var score sql.NullFloat64
	err := r.db.QueryRowContext(ctx, `SELECT cv_match_score FROM candidates WHERE id = $1`, candidateID).Scan(&score)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cv match score: %w", err)
	}
	return floatPtr(score), nil
}

func (r *ProfileRepository) JobExists(ctx context.Context, jobID string) (bool, error) {
	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM jobs WHERE id = $1)`, jobID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check job exists: %w", err)
	}
	return exists, nil
}

func (r *ProfileRepository) UpsertJob(ctx context.Context, job domain.Job) error {
	skillsJSON, err := json.Marshal(nonNilSkills(job.Skills))
	if err != nil {
		return fmt.Errorf("marshal job skills: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
INSERT INTO jobs (id, title, description, skills)
VALUES ($1,$2,$3,$4)
ON CONFLICT (id) DO UPDATE SET
	title = EXCLUDED.title,
	description = EXCLUDED.description,
	skills = EXCLUDED.skills
`, job.ID, job.Title, job.Description, skillsJSON)
	if err != nil {
		return fmt.Errorf("upsert job: %w", err)
	}
	return nil
}

func (r *ProfileRepository) UpsertCandidate(ctx context.Context, candidate domain.Candidate) error {
	skillsJSON, err := json.Marshal(nonNilSkills(candidate.Skills))
	if err != nil {
		return fmt.Errorf("marshal candidate skills: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
INSERT INTO candidates (id, name, skills, cv_match_score)
VALUES ($1,$2,$3,$4)
ON CONFLICT (id) DO UPDATE SET
	name = EXCLUDED.name,
	skills = EXCLUDED.skills,
	cv_match_score = EXCLUDED.cv_match_score
`, candidate.ID, candidate.Name, skillsJSON, nullableFloat(candidate.CVMatchScore))
	if err != nil {
		return fmt.Errorf("upsert candidate: %w", err)
	}
	return nil
}

func (r *ProfileRepository) skills(ctx context.Context, query, id string) ([]string, error) {
	var raw []byte
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("load skills: %w", err)
	}
	out := make([]string, 0)
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("unmarshal skills: %w", err)
	}
	return out, nil
}

func nonNilSkills(skills []string) []string {
	if skills == nil {
		return []string{}
	}
	return skills
}
