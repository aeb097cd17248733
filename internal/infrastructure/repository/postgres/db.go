package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const schemaLockID int64 = 2026101801

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS questions (
	question_number TEXT PRIMARY KEY,
	question_text TEXT NOT NULL,
	canonical_answer TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL,
	difficulty SMALLINT NOT NULL,
	embedding JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_questions_category ON questions(category);

CREATE TABLE IF NOT EXISTS jobs (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	skills JSONB NOT NULL DEFAULT '[]'::jsonb
);

CREATE TABLE IF NOT EXISTS candidates (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	skills JSONB NOT NULL DEFAULT '[]'::jsonb,
	cv_match_score DOUBLE PRECISION
);

CREATE TABLE IF NOT EXISTS assessments (
	id TEXT PRIMARY KEY,
	candidate_id TEXT NOT NULL,
	job_id TEXT NOT NULL REFERENCES jobs(id),
	phase TEXT NOT NULL,
	asked_questions JSONB NOT NULL DEFAULT '[]'::jsonb,
	current_question TEXT NOT NULL DEFAULT '',
	cv_match_score DOUBLE PRECISION,
	weighted_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	hire_decision BOOLEAN,
	hire_probability DOUBLE PRECISION,
	is_complete BOOLEAN NOT NULL DEFAULT FALSE,
	question_scores JSONB NOT NULL DEFAULT '{}'::jsonb,
	started_at TIMESTAMPTZ NOT NULL,
	ended_at TIMESTAMPTZ,
	summary TEXT NOT NULL DEFAULT ''
);

ALTER TABLE assessments ADD COLUMN IF NOT EXISTS summary TEXT NOT NULL DEFAULT '';

CREATE UNIQUE INDEX IF NOT EXISTS uq_assessments_open_pair
	ON assessments(candidate_id, job_id) WHERE NOT is_complete;

CREATE TABLE IF NOT EXISTS answers (
	id BIGSERIAL PRIMARY KEY,
	assessment_id TEXT NOT NULL REFERENCES assessments(id) ON DELETE CASCADE,
	question_number TEXT NOT NULL,
	answer_text TEXT NOT NULL,
	similarity_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	question_score DOUBLE PRECISION,
	response_time_seconds DOUBLE PRECISION NOT NULL DEFAULT 0,
	llm_score DOUBLE PRECISION,
	feedback TEXT NOT NULL DEFAULT '',
	asked_at TIMESTAMPTZ NOT NULL,
	UNIQUE (assessment_id, question_number)
);
`

// EnsureSchema creates all tables. Concurrent api/worker startups are
// serialized by a transaction-scoped advisory lock.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, schemaLockID); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}
	if _, err := tx.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func nullableFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	out := v.Float64
	return &out
}
