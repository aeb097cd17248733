package domain

type DecisionLabel string

const (
	DecisionHire             DecisionLabel = "Hire"
	DecisionNotHire          DecisionLabel = "Not Hire"
	DecisionInsufficientData DecisionLabel = "Not enough data"
	DecisionNoModel          DecisionLabel = "No model available"
	DecisionError            DecisionLabel = "Error"
)

// Decision carries [p_not_hire, p_hire].
type Decision struct {
	AssessmentID  string        `json:"assessment_id"`
	Label         DecisionLabel `json:"decision"`
	Probability   [2]float64    `json:"probability"`
	WeightedScore float64       `json:"weighted_score"`
	CVMatchScore  float64       `json:"cv_match_score"`
	Summary       string        `json:"summary,omitempty"`
}

func NeutralDecision(assessmentID string, label DecisionLabel) Decision {
	return Decision{
		AssessmentID: assessmentID,
		Label:        label,
		Probability:  [2]float64{0.5, 0.5},
	}
}

// Evaluation is the outcome of scoring one submitted answer.
type Evaluation struct {
	AnswerID        int64    `json:"answer_id,omitempty"`
	QuestionNumber  string   `json:"question_number"`
	SimilarityScore float64  `json:"similarity_score"`
	BlendedScore    *float64 `json:"blended_score,omitempty"`
	Feedback        string   `json:"feedback,omitempty"`
}

// Grade is an LLM judgement of an answer.
type Grade struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

// NextQuestion is either a served question or an exhausted catalog.
type NextQuestion struct {
	Question  *Question `json:"question,omitempty"`
	Exhausted bool      `json:"exhausted"`
	Fallback  bool      `json:"-"`
}

// ScoredAnswer is one question/answer pair with its recorded score, as fed to
// an interview summary.
type ScoredAnswer struct {
	Question string  `json:"question"`
	Answer   string  `json:"answer"`
	Score    float64 `json:"score"`
}
