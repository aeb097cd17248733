package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mockmate/interview-engine/internal/core/domain"
	"github.com/mockmate/interview-engine/internal/core/ports"
)

const (
	jobRelevanceWeight       = 0.6
	candidateRelevanceWeight = 0.4
)

// SkillScorer rates unasked questions against job and candidate skills.
type SkillScorer struct {
	embedder ports.Embedder
	cache    ports.QuestionCatalog
}

// NewSkillScorer builds a scorer. cache may be nil, in which case computed
// question embeddings live only on the returned rows' source slice.
func NewSkillScorer(embedder ports.Embedder, cache ports.QuestionCatalog) *SkillScorer {
	return &SkillScorer{embedder: embedder, cache: cache}
}

// Score returns one row per question not in asked, in input order. Questions
// without a cached embedding are embedded and the vector is written back into
// questions[i].Embedding.
func (s *SkillScorer) Score(
	ctx context.Context,
	questions []domain.Question,
	jobSkills []string,
	candidateSkills []string,
	asked map[string]struct{},
) ([]domain.ScoreRow, error) {
	pending := make([]int, 0, len(questions))
	for i := range questions {
		if _, ok := asked[questions[i].Number]; ok {
			continue
		}
		pending = append(pending, i)
	}
	if len(pending) == 0 {
		return []domain.ScoreRow{}, nil
	}

	jobVectors, err := s.embedSkills(ctx, jobSkills)
	if err != nil {
		return nil, err
	}
	candidateVectors, err := s.embedSkills(ctx, candidateSkills)
	if err != nil {
		return nil, err
	}
	dim, err := vectorDimension(jobVectors, candidateVectors)
	if err != nil {
		return nil, domain.WrapError(domain.ErrEmbeddingUnavailable, "embed skills", err)
	}

	if err := s.ensureEmbeddings(ctx, questions, pending, dim); err != nil {
		return nil, err
	}

	rows := make([]domain.ScoreRow, 0, len(pending))
	for _, i := range pending {
		q := questions[i]
		jd := maxSimilarity(q.Embedding, jobVectors)
		user := meanSimilarity(q.Embedding, candidateVectors)
		rows = append(rows, domain.ScoreRow{
			QuestionNumber: q.Number,
			Category:       q.Category,
			Difficulty:     q.Difficulty,
			JDScore:        jd,
			UserScore:      user,
			Score:          blendRelevance(jd, user),
			Asked:          false,
		})
	}
	return rows, nil
}

func blendRelevance(jdScore, userScore float64) float64 {
	return jobRelevanceWeight*jdScore + candidateRelevanceWeight*userScore
}

// ensureEmbeddings embeds questions without a cached vector. When dim is
// known, a cached vector of another length was produced by a different
// embedding model and is replaced.
func (s *SkillScorer) ensureEmbeddings(ctx context.Context, questions []domain.Question, pending []int, dim int) error {
	missing := make([]int, 0)
	texts := make([]string, 0)
	for _, i := range pending {
		if questions[i].HasEmbedding() {
			if dim == 0 || len(questions[i].Embedding) == dim {
				continue
			}
			slog.Warn("embedding_dimension_mismatch",
				"question_number", questions[i].Number,
				"cached", len(questions[i].Embedding),
				"expected", dim,
			)
		}
		missing = append(missing, i)
		texts = append(texts, questions[i].Text)
	}
	if len(missing) == 0 {
		return nil
	}

	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return domain.WrapError(domain.ErrEmbeddingUnavailable, "embed questions", err)
	}
	if len(vectors) != len(missing) {
		return domain.WrapError(domain.ErrEmbeddingUnavailable, "embed questions",
			fmt.Errorf("expected %d vectors, got %d", len(missing), len(vectors)))
	}

	for k, i := range missing {
		if dim > 0 && len(vectors[k]) != dim {
			return domain.WrapError(domain.ErrEmbeddingUnavailable, "embed questions",
				fmt.Errorf("question %s has %d dimensions, skills have %d", questions[i].Number, len(vectors[k]), dim))
		}
	}
	for k, i := range missing {
		questions[i].Embedding = vectors[k]
		if s.cache == nil {
			continue
		}
		if err := s.cache.SaveEmbedding(ctx, questions[i].Number, vectors[k]); err != nil {
			slog.Warn("embedding_cache_write_failed",
				"question_number", questions[i].Number,
				"error", err,
			)
		}
	}
	return nil
}

func (s *SkillScorer) embedSkills(ctx context.Context, skills []string) ([][]float32, error) {
	if len(skills) == 0 {
		return nil, nil
	}
	vectors, err := s.embedder.Embed(ctx, skills)
	if err != nil {
		return nil, domain.WrapError(domain.ErrEmbeddingUnavailable, "embed skills", err)
	}
	if len(vectors) != len(skills) {
		return nil, domain.WrapError(domain.ErrEmbeddingUnavailable, "embed skills",
			fmt.Errorf("expected %d vectors, got %d", len(skills), len(vectors)))
	}
	return vectors, nil
}

// vectorDimension returns the shared length of all vectors, or 0 when there
// are none.
func vectorDimension(sets ...[][]float32) (int, error) {
	dim := 0
	for _, set := range sets {
		for _, v := range set {
			switch {
			case dim == 0:
				dim = len(v)
			case len(v) != dim:
				return 0, fmt.Errorf("skill vectors have %d and %d dimensions", dim, len(v))
			}
		}
	}
	return dim, nil
}
