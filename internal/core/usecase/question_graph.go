package usecase

import (
	"sort"

	"github.com/mockmate/interview-engine/internal/core/domain"
)

// buildQuestionGraph links each category's rows into a single chain ordered
// by ascending difficulty. Ties keep input order.
func buildQuestionGraph(rows []domain.ScoreRow) *domain.QuestionGraph {
	graph := domain.NewQuestionGraph()
	for _, category := range categoriesInOrder(rows) {
		chain := rowsInCategory(rows, category)
		sort.SliceStable(chain, func(i, j int) bool {
			return chain[i].Difficulty < chain[j].Difficulty
		})
		for i := 1; i < len(chain); i++ {
			graph.AddEdge(chain[i-1].QuestionNumber, chain[i].QuestionNumber)
		}
	}
	return graph
}

// categoriesInOrder lists distinct categories by first appearance.
func categoriesInOrder(rows []domain.ScoreRow) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, row := range rows {
		if _, ok := seen[row.Category]; ok {
			continue
		}
		seen[row.Category] = struct{}{}
		out = append(out, row.Category)
	}
	return out
}

func rowsInCategory(rows []domain.ScoreRow, category string) []domain.ScoreRow {
	out := make([]domain.ScoreRow, 0)
	for _, row := range rows {
		if row.Category == category {
			out = append(out, row)
		}
	}
	return out
}
