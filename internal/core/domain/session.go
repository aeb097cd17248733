package domain

import (
	"slices"
	"time"
)

type Phase string

const (
	PhaseNoQuestionServed  Phase = "no_question_served"
	PhaseQuestionAsked     Phase = "question_asked"
	PhaseAnswerSubmitted   Phase = "answer_submitted"
	PhaseInterviewComplete Phase = "interview_complete"
)

// Session is the mutable per-assessment record. It is not safe for
// concurrent writers; one request per session at a time.
type Session struct {
	ID              string     `json:"id"`
	CandidateID     string     `json:"candidate_id"`
	JobID           string     `json:"job_id"`
	Phase           Phase      `json:"phase"`
	AskedQuestions  []string   `json:"asked_questions"`
	CurrentQuestion string     `json:"current_question,omitempty"`
	CVMatchScore    *float64   `json:"cv_match_score,omitempty"`
	WeightedScore   float64    `json:"weighted_score"`
	HireDecision    *bool      `json:"hire_decision,omitempty"`
	HireProbability *float64   `json:"hire_probability,omitempty"`
	IsComplete      bool       `json:"is_complete"`
	StartedAt       time.Time  `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	Summary         string     `json:"summary,omitempty"`

	// QuestionScores holds the blended score per answered question.
	QuestionScores map[string]float64 `json:"question_scores,omitempty"`
}

// AskedSet returns a fresh lookup set of asked question numbers.
func (s *Session) AskedSet() map[string]struct{} {
	set := make(map[string]struct{}, len(s.AskedQuestions))
	for _, qn := range s.AskedQuestions {
		set[qn] = struct{}{}
	}
	return set
}

func (s *Session) HasAsked(questionNumber string) bool {
	return slices.Contains(s.AskedQuestions, questionNumber)
}

// MarkServed records a question as served. A number is added at most once.
func (s *Session) MarkServed(questionNumber string) {
	s.CurrentQuestion = questionNumber
	s.Phase = PhaseQuestionAsked
	if !s.HasAsked(questionNumber) {
		s.AskedQuestions = append(s.AskedQuestions, questionNumber)
	}
}

func (s *Session) RecordScore(questionNumber string, score float64) {
	if s.QuestionScores == nil {
		s.QuestionScores = make(map[string]float64)
	}
	s.QuestionScores[questionNumber] = score
	s.Phase = PhaseAnswerSubmitted
}

// AnswerRecord is unique per (AssessmentID, QuestionNumber).
type AnswerRecord struct {
	ID                  int64     `json:"id"`
	AssessmentID        string    `json:"assessment_id"`
	QuestionNumber      string    `json:"question_number"`
	AnswerText          string    `json:"answer_text"`
	SimilarityScore     float64   `json:"similarity_score"`
	QuestionScore       *float64  `json:"question_score,omitempty"`
	ResponseTimeSeconds float64   `json:"response_time_seconds"`
	LLMScore            *float64  `json:"llm_score,omitempty"`
	Feedback            string    `json:"feedback,omitempty"`
	AskedAt             time.Time `json:"asked_at"`
}
