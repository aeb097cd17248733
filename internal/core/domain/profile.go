package domain

// Profile is the skill context for one assessment.
type Profile struct {
	JobSkills       []string
	CandidateSkills []string
	CVMatchScore    *float64
}

type Job struct {
	ID          string   `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description" yaml:"description"`
	Skills      []string `json:"skills" yaml:"skills"`
}

type Candidate struct {
	ID           string   `json:"id" yaml:"id"`
	Name         string   `json:"name" yaml:"name"`
	Skills       []string `json:"skills" yaml:"skills"`
	CVMatchScore *float64 `json:"cv_match_score,omitempty" yaml:"cv_match_score"`
}
