package usecase

import (
	"container/heap"
	"math/rand/v2"
	"sort"

	"github.com/mockmate/interview-engine/internal/core/domain"
)

const (
	defaultTopCategories = 5
	goodEnoughScore      = 0.99
)

// StartPolicy decides which question of the chosen category seeds the search.
type StartPolicy string

const (
	// StartChainHead seeds from the first node of the ascending-difficulty
	// chain (lowest difficulty value, i.e. Hard), so successors are reachable.
	StartChainHead StartPolicy = "chain_head"
	// StartChainTail seeds from the highest difficulty value first, which is
	// usually the chain tail and has no successors.
	StartChainTail StartPolicy = "chain_tail"
)

func ParseStartPolicy(raw string) StartPolicy {
	switch StartPolicy(raw) {
	case StartChainTail:
		return StartChainTail
	default:
		return StartChainHead
	}
}

type SelectorOptions struct {
	TopCategories int
	StartPolicy   StartPolicy
	// Pick returns a uniform index in [0, n). Defaults to math/rand/v2.
	Pick func(n int) int
}

// QuestionSelector picks the next question with a category draw followed by
// an A* walk over the category's difficulty chain.
type QuestionSelector struct {
	topCategories int
	startPolicy   StartPolicy
	pick          func(n int) int
}

func NewQuestionSelector(opts SelectorOptions) *QuestionSelector {
	if opts.TopCategories <= 0 {
		opts.TopCategories = defaultTopCategories
	}
	if opts.StartPolicy == "" {
		opts.StartPolicy = StartChainHead
	}
	if opts.Pick == nil {
		opts.Pick = rand.IntN
	}
	return &QuestionSelector{
		topCategories: opts.TopCategories,
		startPolicy:   opts.StartPolicy,
		pick:          opts.Pick,
	}
}

// Selection describes one search outcome.
type Selection struct {
	QuestionNumber string
	Category       string
	Start          string
	Path           []string
	BestScore      float64
	Fallback       bool
}

// SelectNext returns false when rows hold no categories.
func (s *QuestionSelector) SelectNext(
	rows []domain.ScoreRow,
	graph *domain.QuestionGraph,
	asked map[string]struct{},
) (Selection, bool) {
	categories := rankCategories(rows, s.topCategories)
	if len(categories) == 0 {
		return Selection{}, false
	}

	category := categories[s.pick(len(categories))]
	start, ok := s.startNode(rows, category)
	if !ok {
		return Selection{}, false
	}

	scores := make(map[string]float64, len(rows))
	for _, row := range rows {
		scores[row.QuestionNumber] = row.Score
	}

	path, bestScore := aStarSearch(graph, start, scores, asked)
	fallback := false
	if _, wasAsked := asked[path[len(path)-1]]; wasAsked {
		path, bestScore = aStarSearch(graph, start, scores, nil)
		fallback = true
	}

	return Selection{
		QuestionNumber: path[len(path)-1],
		Category:       category,
		Start:          start,
		Path:           path,
		BestScore:      bestScore,
		Fallback:       fallback,
	}, true
}

func (s *QuestionSelector) startNode(rows []domain.ScoreRow, category string) (string, bool) {
	candidates := rowsInCategory(rows, category)
	if len(candidates) == 0 {
		return "", false
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if s.startPolicy == StartChainTail {
			return candidates[i].Difficulty > candidates[j].Difficulty
		}
		return candidates[i].Difficulty < candidates[j].Difficulty
	})
	return candidates[0].QuestionNumber, true
}

// rankCategories orders categories by their best row score, descending, and
// keeps the first limit. Equal maxima keep first-appearance order.
func rankCategories(rows []domain.ScoreRow, limit int) []string {
	order := categoriesInOrder(rows)
	best := make(map[string]float64, len(order))
	for _, row := range rows {
		if current, ok := best[row.Category]; !ok || row.Score > current {
			best[row.Category] = row.Score
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return best[order[i]] > best[order[j]]
	})
	if len(order) > limit {
		order = order[:limit]
	}
	return order
}

// aStarSearch walks from start with priority g + (1 - score). Every popped,
// non-asked node competes for best; a node scoring >= goodEnoughScore ends
// the search. The returned path runs from start to the best node.
func aStarSearch(
	graph *domain.QuestionGraph,
	start string,
	scores map[string]float64,
	asked map[string]struct{},
) ([]string, float64) {
	open := &frontier{}
	heap.Push(open, frontierItem{node: start, priority: 1 - scores[start]})
	cameFrom := make(map[string]string)
	gScore := map[string]int{start: 0}
	bestNode := start
	bestScore := scores[start]

	for open.Len() > 0 {
		current := heap.Pop(open).(frontierItem).node
		if _, skip := asked[current]; skip {
			continue
		}

		if score := scores[current]; score > bestScore {
			bestNode = current
			bestScore = score
		}
		if scores[current] >= goodEnoughScore {
			break
		}

		for _, neighbor := range graph.Successors(current) {
			if _, skip := asked[neighbor]; skip {
				continue
			}
			tentative := gScore[current] + 1
			if known, ok := gScore[neighbor]; !ok || tentative < known {
				cameFrom[neighbor] = current
				gScore[neighbor] = tentative
				heap.Push(open, frontierItem{
					node:     neighbor,
					priority: float64(tentative) + (1 - scores[neighbor]),
				})
			}
		}
	}

	path := []string{bestNode}
	for current := bestNode; current != start; {
		parent, ok := cameFrom[current]
		if !ok {
			break
		}
		path = append(path, parent)
		current = parent
	}
	if path[len(path)-1] != start {
		path = append(path, start)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, bestScore
}

type frontierItem struct {
	node     string
	priority float64
}

// frontier is a min-heap on priority, then node id.
type frontier []frontierItem

func (f frontier) Len() int { return len(f) }

func (f frontier) Less(i, j int) bool {
	if f[i].priority != f[j].priority {
		return f[i].priority < f[j].priority
	}
	return f[i].node < f[j].node
}

func (f frontier) Swap(i, j int) { f[i], f[j] = f[j], f[i] }

func (f *frontier) Push(x any) { *f = append(*f, x.(frontierItem)) }

func (f *frontier) Pop() any {
	old := *f
	n := len(old)
	item := old[n-1]
	*f = old[:n-1]
	return item
}
