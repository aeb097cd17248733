package domain

// ScoreRow is derived per selection cycle and never persisted.
type ScoreRow struct {
	QuestionNumber string     `json:"question_number"`
	Category       string     `json:"category"`
	Difficulty     Difficulty `json:"difficulty"`
	JDScore        float64    `json:"jd_score"`
	UserScore      float64    `json:"user_score"`
	Score          float64    `json:"score"`
	Asked          bool       `json:"asked"`
}

// QuestionGraph is an adjacency list keyed by question number.
// Absent keys have no successors.
type QuestionGraph struct {
	edges map[string][]string
}

func NewQuestionGraph() *QuestionGraph {
	return &QuestionGraph{edges: make(map[string][]string)}
}

func (g *QuestionGraph) AddEdge(from, to string) {
	g.edges[from] = append(g.edges[from], to)
}

// Successors returns a copy; callers may not mutate the graph through it.
func (g *QuestionGraph) Successors(node string) []string {
	if g == nil {
		return nil
	}
	next := g.edges[node]
	if len(next) == 0 {
		return nil
	}
	out := make([]string, len(next))
	copy(out, next)
	return out
}

func (g *QuestionGraph) EdgeCount() int {
	if g == nil {
		return 0
	}
	n := 0
	for _, next := range g.edges {
		n += len(next)
	}
	return n
}
