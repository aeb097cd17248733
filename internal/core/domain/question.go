package domain

import "strings"

// Difficulty is ordinal: Hard < Medium < Easy.
type Difficulty int

const (
	DifficultyHard   Difficulty = 0
	DifficultyMedium Difficulty = 1
	DifficultyEasy   Difficulty = 2
)

func (d Difficulty) String() string {
	switch d {
	case DifficultyHard:
		return "Hard"
	case DifficultyMedium:
		return "Medium"
	case DifficultyEasy:
		return "Easy"
	default:
		return "Unknown"
	}
}

func (d Difficulty) Valid() bool {
	return d >= DifficultyHard && d <= DifficultyEasy
}

// ParseDifficulty accepts the label ("hard", "Medium", ...) case-insensitively.
// Level names beginner/intermediate/advanced are accepted as aliases.
func ParseDifficulty(label string) (Difficulty, bool) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "hard", "advanced":
		return DifficultyHard, true
	case "medium", "intermediate":
		return DifficultyMedium, true
	case "easy", "beginner":
		return DifficultyEasy, true
	default:
		return 0, false
	}
}

// Question is keyed by Number everywhere in scoring and graph building.
// Embedding is nil until computed once and cached.
type Question struct {
	Number          string     `json:"question_number"`
	Text            string     `json:"question_text"`
	CanonicalAnswer string     `json:"-"`
	Category        string     `json:"category"`
	Difficulty      Difficulty `json:"difficulty"`
	Embedding       []float32  `json:"-"`
}

func (q Question) HasEmbedding() bool {
	return len(q.Embedding) > 0
}
