package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mockmate/interview-engine/internal/core/domain"
	"github.com/mockmate/interview-engine/internal/core/ports"
)

const strongAverage = 0.7

// ResultSummarizer writes the narrative attached to a finished interview.
// Without a summarizer, or when it fails, a fixed template is used.
type ResultSummarizer struct {
	catalog    ports.QuestionCatalog
	summarizer ports.InterviewSummarizer
}

func NewResultSummarizer(catalog ports.QuestionCatalog, summarizer ports.InterviewSummarizer) *ResultSummarizer {
	return &ResultSummarizer{catalog: catalog, summarizer: summarizer}
}

// Summarize returns "" when no answers were recorded.
func (s *ResultSummarizer) Summarize(ctx context.Context, decision domain.Decision, answers []domain.AnswerRecord) string {
	if len(answers) == 0 {
		return ""
	}

	items := make([]domain.ScoredAnswer, 0, len(answers))
	var total float64
	for _, a := range answers {
		score := a.SimilarityScore
		if a.QuestionScore != nil {
			score = *a.QuestionScore
		}
		items = append(items, domain.ScoredAnswer{
			Question: s.questionText(ctx, a.QuestionNumber),
			Answer:   a.AnswerText,
			Score:    score,
		})
		total += score
	}
	avg := total / float64(len(items))

	if s.summarizer == nil {
		return recommendationSummary(avg, decision.Label)
	}
	summary, err := s.summarizer.Summarize(ctx, items)
	if err != nil {
		slog.Warn("interview_summary_failed",
			"assessment_id", decision.AssessmentID,
			"answers", len(items),
			"error", err,
		)
		return recommendationSummary(avg, decision.Label)
	}
	if strings.TrimSpace(summary) == "" {
		return proficiencySummary(avg, len(items))
	}
	return summary
}

func (s *ResultSummarizer) questionText(ctx context.Context, number string) string {
	if s.catalog == nil {
		return number
	}
	question, err := s.catalog.GetQuestion(ctx, number)
	if err != nil || question == nil || strings.TrimSpace(question.Text) == "" {
		return number
	}
	return question.Text
}

func recommendationSummary(avg float64, label domain.DecisionLabel) string {
	if label != domain.DecisionHire && label != domain.DecisionNotHire {
		label = domain.DecisionNotHire
		if avg >= strongAverage {
			label = domain.DecisionHire
		}
	}
	return fmt.Sprintf("The candidate scored an average of %.2f across the interview questions. Based on this performance, our recommendation is to %s the candidate.",
		avg, strings.ToLower(string(label)))
}

func proficiencySummary(avg float64, count int) string {
	level := "moderate"
	if avg >= strongAverage {
		level = "strong"
	}
	return fmt.Sprintf("The candidate scored an average of %.2f across %d questions, showing %s technical proficiency.", avg, count, level)
}
