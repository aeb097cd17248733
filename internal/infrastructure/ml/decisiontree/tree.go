// Package decisiontree implements a small CART classifier for two classes.
package decisiontree

import (
	"errors"
	"fmt"
	"sort"
)

const (
	numClasses = 2
	// featureEpsilon mirrors the minimum gap between distinct feature values
	// that may be split on.
	featureEpsilon  = 1e-7
	impurityEpsilon = 1e-12
)

// Node is one tree node. Leaves have Left == Right == -1.
type Node struct {
	Feature   int                 `json:"feature"`
	Threshold float64             `json:"threshold"`
	Left      int                 `json:"left"`
	Right     int                 `json:"right"`
	Counts    [numClasses]float64 `json:"counts"`
}

func (n Node) isLeaf() bool {
	return n.Left < 0 && n.Right < 0
}

// Classifier is a fitted binary decision tree using Gini impurity.
type Classifier struct {
	MaxDepth    int    `json:"max_depth"`
	NumFeatures int    `json:"num_features"`
	Nodes       []Node `json:"nodes"`
}

// Fit grows a tree on X (rows of NumFeatures values) and labels y in {0,1}.
// Samples with value <= threshold go left.
func Fit(X [][]float64, y []int, maxDepth int) (*Classifier, error) {
	if len(X) == 0 {
		return nil, errors.New("decisiontree: empty training set")
	}
	if len(X) != len(y) {
		return nil, fmt.Errorf("decisiontree: %d rows but %d labels", len(X), len(y))
	}
	if maxDepth <= 0 {
		return nil, fmt.Errorf("decisiontree: max depth must be positive, got %d", maxDepth)
	}
	numFeatures := len(X[0])
	for i, row := range X {
		if len(row) != numFeatures {
			return nil, fmt.Errorf("decisiontree: row %d has %d features, want %d", i, len(row), numFeatures)
		}
		if y[i] != 0 && y[i] != 1 {
			return nil, fmt.Errorf("decisiontree: label %d at row %d is not binary", y[i], i)
		}
	}

	b := &builder{x: X, y: y, maxDepth: maxDepth, numFeatures: numFeatures}
	samples := make([]int, len(X))
	for i := range samples {
		samples[i] = i
	}
	b.grow(samples, 0)

	return &Classifier{
		MaxDepth:    maxDepth,
		NumFeatures: numFeatures,
		Nodes:       b.nodes,
	}, nil
}

// PredictProba returns class fractions of the leaf reached by features.
func (c *Classifier) PredictProba(features []float64) [2]float64 {
	leaf := c.leaf(features)
	total := leaf.Counts[0] + leaf.Counts[1]
	if total == 0 {
		return [2]float64{0.5, 0.5}
	}
	return [2]float64{leaf.Counts[0] / total, leaf.Counts[1] / total}
}

// Predict returns the majority class; ties resolve to class 0.
func (c *Classifier) Predict(features []float64) int {
	proba := c.PredictProba(features)
	if proba[1] > proba[0] {
		return 1
	}
	return 0
}

// Depth is the longest root-to-leaf edge count.
func (c *Classifier) Depth() int {
	if len(c.Nodes) == 0 {
		return 0
	}
	var walk func(idx int) int
	walk = func(idx int) int {
		n := c.Nodes[idx]
		if n.isLeaf() {
			return 0
		}
		return 1 + max(walk(n.Left), walk(n.Right))
	}
	return walk(0)
}

func (c *Classifier) leaf(features []float64) Node {
	idx := 0
	for {
		n := c.Nodes[idx]
		if n.isLeaf() {
			return n
		}
		value := 0.0
		if n.Feature < len(features) {
			value = features[n.Feature]
		}
		if value <= n.Threshold {
			idx = n.Left
		} else {
			idx = n.Right
		}
	}
}

type builder struct {
	x           [][]float64
	y           []int
	maxDepth    int
	numFeatures int
	nodes       []Node
}

type split struct {
	feature   int
	threshold float64
	impurity  float64
	left      []int
	right     []int
}

func (b *builder) grow(samples []int, depth int) int {
	counts := b.counts(samples)
	idx := len(b.nodes)
	b.nodes = append(b.nodes, Node{Feature: -1, Left: -1, Right: -1, Counts: counts})

	if depth >= b.maxDepth || len(samples) < 2 || gini(counts) <= impurityEpsilon {
		return idx
	}
	best, ok := b.bestSplit(samples)
	if !ok {
		return idx
	}

	left := b.grow(best.left, depth+1)
	right := b.grow(best.right, depth+1)
	b.nodes[idx].Feature = best.feature
	b.nodes[idx].Threshold = best.threshold
	b.nodes[idx].Left = left
	b.nodes[idx].Right = right
	return idx
}

// bestSplit scans features in order; a later candidate must be strictly
// better to win, so equal splits favor the lower feature index.
func (b *builder) bestSplit(samples []int) (split, bool) {
	var best split
	found := false
	n := float64(len(samples))

	for f := 0; f < b.numFeatures; f++ {
		sorted := make([]int, len(samples))
		copy(sorted, samples)
		sort.SliceStable(sorted, func(i, j int) bool {
			return b.x[sorted[i]][f] < b.x[sorted[j]][f]
		})

		var leftCounts [numClasses]float64
		rightCounts := b.counts(sorted)
		for p := 1; p < len(sorted); p++ {
			moved := b.y[sorted[p-1]]
			leftCounts[moved]++
			rightCounts[moved]--

			lo := b.x[sorted[p-1]][f]
			hi := b.x[sorted[p]][f]
			if hi <= lo+featureEpsilon {
				continue
			}

			nl := float64(p)
			nr := n - nl
			impurity := (nl/n)*gini(leftCounts) + (nr/n)*gini(rightCounts)
			if found && impurity >= best.impurity {
				continue
			}

			threshold := lo/2 + hi/2
			if threshold == hi {
				threshold = lo
			}
			best = split{
				feature:   f,
				threshold: threshold,
				impurity:  impurity,
				left:      append([]int(nil), sorted[:p]...),
				right:     append([]int(nil), sorted[p:]...),
			}
			found = true
		}
	}
	return best, found
}

func (b *builder) counts(samples []int) [numClasses]float64 {
	var out [numClasses]float64
	for _, s := range samples {
		out[b.y[s]]++
	}
	return out
}

func gini(counts [numClasses]float64) float64 {
	total := counts[0] + counts[1]
	if total == 0 {
		return 0
	}
	p0 := counts[0] / total
	p1 := counts[1] / total
	return 1 - p0*p0 - p1*p1
}
