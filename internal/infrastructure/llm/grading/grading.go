// Package grading holds the answer-grading prompt and reply parser shared by
// the LLM graders.
package grading

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mockmate/interview-engine/internal/core/domain"
)

const (
	neutralScore = 0.5
	maxAnswerLen = 6000
)

func BuildPrompt(question, answer string) string {
	if len(answer) > maxAnswerLen {
		answer = answer[:maxAnswerLen]
	}
	return fmt.Sprintf(`You are an expert technical interviewer evaluating a candidate's response.

Question: %s

Candidate's Answer: %s

Evaluate the answer based on technical accuracy, completeness, clarity of explanation and practical application.

Return strict JSON with keys:
score (number from 0.0 to 1.0), feedback (2-3 sentences of constructive feedback for the candidate).
No markdown, no extra keys.
`, strings.TrimSpace(question), strings.TrimSpace(answer))
}

// BuildSummaryPrompt asks for a short narrative over every graded answer.
func BuildSummaryPrompt(answers []domain.ScoredAnswer) string {
	var b strings.Builder
	var total float64
	for i, a := range answers {
		if i > 0 {
			b.WriteString("\n\n")
		}
		answer := strings.TrimSpace(a.Answer)
		if len(answer) > maxAnswerLen {
			answer = answer[:maxAnswerLen]
		}
		fmt.Fprintf(&b, "Q: %s\nA: %s\nScore: %.2f", strings.TrimSpace(a.Question), answer, a.Score)
		total += a.Score
	}
	var avg float64
	if len(answers) > 0 {
		avg = total / float64(len(answers))
	}
	return fmt.Sprintf(`You are an expert technical hiring manager reviewing a finished candidate interview.

Interview Results:
%s

Average Score: %.2f

Return strict JSON with key:
summary (3-5 sentences on the candidate's performance).
No markdown, no extra keys.
`, b.String(), avg)
}

// ParseSummary extracts the summary text; an empty summary is not an error.
func ParseSummary(raw string) (string, error) {
	object := ExtractJSONObject(raw)
	if object == "" {
		return "", errors.New("no json object in summary reply")
	}
	var reply struct {
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal([]byte(object), &reply); err != nil {
		return "", fmt.Errorf("parse summary reply: %w", err)
	}
	return strings.TrimSpace(reply.Summary), nil
}

// ParseReply extracts a grade from a model reply. A missing or non-numeric
// score becomes 0.5; range clamping is left to the caller.
func ParseReply(raw string) (domain.Grade, error) {
	object := ExtractJSONObject(raw)
	if object == "" {
		return domain.Grade{}, errors.New("no json object in grader reply")
	}

	var reply struct {
		Score    any    `json:"score"`
		Feedback string `json:"feedback"`
	}
	if err := json.Unmarshal([]byte(object), &reply); err != nil {
		return domain.Grade{}, fmt.Errorf("parse grader reply: %w", err)
	}

	return domain.Grade{
		Score:    scoreValue(reply.Score),
		Feedback: strings.TrimSpace(reply.Feedback),
	}, nil
}

func ExtractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return ""
}

func scoreValue(v any) float64 {
	switch typed := v.(type) {
	case float64:
		return typed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
		if err != nil {
			return neutralScore
		}
		return parsed
	default:
		return neutralScore
	}
}
