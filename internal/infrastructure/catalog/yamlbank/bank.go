// Package yamlbank loads the question bank and seed profiles from YAML.
package yamlbank

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mockmate/interview-engine/internal/core/domain"
	"github.com/mockmate/interview-engine/internal/core/ports"
)

//go:embed default_bank.yaml
var defaultBank []byte

// Bank is a parsed seed file.
type Bank struct {
	Questions  []domain.Question
	Jobs       []domain.Job
	Candidates []domain.Candidate
}

type yamlBank struct {
	Questions  []yamlQuestion     `yaml:"questions"`
	Jobs       []domain.Job       `yaml:"jobs"`
	Candidates []domain.Candidate `yaml:"candidates"`
}

type yamlQuestion struct {
	Number          string `yaml:"question_number"`
	Text            string `yaml:"question_text"`
	CanonicalAnswer string `yaml:"canonical_answer"`
	Category        string `yaml:"category"`
	Difficulty      string `yaml:"difficulty"`
}

// Default returns the bank compiled into the binary.
func Default() (*Bank, error) {
	return Parse(defaultBank)
}

// Load reads a bank from path; an empty path selects the built-in bank.
func Load(path string) (*Bank, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question bank: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Bank, error) {
	var doc yamlBank
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse question bank: %w", err)
	}

	bank := &Bank{
		Questions:  make([]domain.Question, 0, len(doc.Questions)),
		Jobs:       doc.Jobs,
		Candidates: doc.Candidates,
	}
	seen := make(map[string]struct{}, len(doc.Questions))
	var errs []error
	for i, q := range doc.Questions {
		question, err := q.toDomain()
		if err != nil {
			errs = append(errs, fmt.Errorf("question %d: %w", i, err))
			continue
		}
		if _, dup := seen[question.Number]; dup {
			errs = append(errs, fmt.Errorf("question %d: duplicate question_number %s", i, question.Number))
			continue
		}
		seen[question.Number] = struct{}{}
		bank.Questions = append(bank.Questions, question)
	}
	for i, job := range doc.Jobs {
		if strings.TrimSpace(job.ID) == "" {
			errs = append(errs, fmt.Errorf("job %d: id is required", i))
		}
	}
	for i, c := range doc.Candidates {
		if strings.TrimSpace(c.ID) == "" {
			errs = append(errs, fmt.Errorf("candidate %d: id is required", i))
		}
		if c.CVMatchScore != nil && (*c.CVMatchScore < 0 || *c.CVMatchScore > 1) {
			errs = append(errs, fmt.Errorf("candidate %s: cv_match_score must be within [0,1]", c.ID))
		}
	}
	if len(errs) > 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse question bank", errors.Join(errs...))
	}
	return bank, nil
}

func (q yamlQuestion) toDomain() (domain.Question, error) {
	number := strings.TrimSpace(q.Number)
	if number == "" {
		return domain.Question{}, errors.New("question_number is required")
	}
	if strings.TrimSpace(q.Text) == "" || strings.TrimSpace(q.Category) == "" {
		return domain.Question{}, fmt.Errorf("%s: question_text and category are required", number)
	}
	difficulty, err := parseDifficulty(q.Difficulty)
	if err != nil {
		return domain.Question{}, fmt.Errorf("%s: %w", number, err)
	}
	return domain.Question{
		Number:          number,
		Text:            strings.TrimSpace(q.Text),
		CanonicalAnswer: strings.TrimSpace(q.CanonicalAnswer),
		Category:        strings.TrimSpace(q.Category),
		Difficulty:      difficulty,
	}, nil
}

// parseDifficulty accepts a label or the ordinal value 0..2.
func parseDifficulty(raw string) (domain.Difficulty, error) {
	if d, ok := domain.ParseDifficulty(raw); ok {
		return d, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err == nil && domain.Difficulty(n).Valid() {
		return domain.Difficulty(n), nil
	}
	return 0, fmt.Errorf("unknown difficulty %q", raw)
}

// Seed upserts the bank into the catalog and profile stores.
func Seed(ctx context.Context, bank *Bank, catalog ports.QuestionCatalog, profiles ports.ProfileRepository) error {
	if err := catalog.UpsertQuestions(ctx, bank.Questions); err != nil {
		return fmt.Errorf("seed questions: %w", err)
	}
	for _, job := range bank.Jobs {
		if err := profiles.UpsertJob(ctx, job); err != nil {
			return fmt.Errorf("seed job %s: %w", job.ID, err)
		}
	}
	for _, candidate := range bank.Candidates {
		if err := profiles.UpsertCandidate(ctx, candidate); err != nil {
			return fmt.Errorf("seed candidate %s: %w", candidate.ID, err)
		}
	}
	return nil
}
