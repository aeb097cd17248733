package decisiontree

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mockmate/interview-engine/internal/core/ports"
)

const (
	HireModelMaxDepth = 3
	artifactVersion   = 1
)

// Feature order for hire models.
const (
	FeatureCVMatchScore = iota
	FeatureWeightedScore
)

var (
	bootstrapCVMatch = []float64{
		0.85, 0.92, 0.75, 0.60, 0.95, 0.78, 0.55, 0.88, 0.70, 0.90,
		0.65, 0.50, 0.82, 0.98, 0.72, 0.68, 0.80, 0.91, 0.58, 0.77,
	}
	bootstrapWeighted = []float64{
		0.82, 0.91, 0.70, 0.55, 0.95, 0.75, 0.48, 0.89, 0.68, 0.92,
		0.60, 0.45, 0.80, 0.98, 0.71, 0.62, 0.78, 0.90, 0.51, 0.73,
	}
	bootstrapHired = []int{
		1, 1, 1, 0, 1, 1, 0, 1, 0, 1,
		0, 0, 1, 1, 1, 0, 1, 1, 0, 1,
	}
)

// BootstrapDataset returns the fixed 20-example (cv_match_score,
// weighted_score) -> hire_decision training set.
func BootstrapDataset() ([][]float64, []int) {
	X := make([][]float64, len(bootstrapHired))
	for i := range X {
		X[i] = []float64{bootstrapCVMatch[i], bootstrapWeighted[i]}
	}
	y := make([]int, len(bootstrapHired))
	copy(y, bootstrapHired)
	return X, y
}

type artifact struct {
	Version int         `json:"version"`
	Kind    string      `json:"kind"`
	Model   *Classifier `json:"model"`
}

// Encode serializes a classifier as a versioned JSON artifact.
func Encode(c *Classifier) ([]byte, error) {
	data, err := json.Marshal(artifact{Version: artifactVersion, Kind: "decision_tree", Model: c})
	if err != nil {
		return nil, fmt.Errorf("marshal hire model: %w", err)
	}
	return data, nil
}

// Decode parses and validates an artifact produced by Encode.
func Decode(data []byte) (*Classifier, error) {
	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("unmarshal hire model: %w", err)
	}
	if a.Version != artifactVersion {
		return nil, fmt.Errorf("unsupported hire model version %d", a.Version)
	}
	if a.Model == nil || len(a.Model.Nodes) == 0 {
		return nil, fmt.Errorf("hire model artifact has no nodes")
	}
	for i, n := range a.Model.Nodes {
		if n.isLeaf() {
			continue
		}
		if n.Left <= i || n.Right <= i || n.Left >= len(a.Model.Nodes) || n.Right >= len(a.Model.Nodes) {
			return nil, fmt.Errorf("hire model node %d has invalid children", i)
		}
	}
	return a.Model, nil
}

// HireTrainer trains hire models on the bootstrap dataset.
type HireTrainer struct{}

func NewHireTrainer() *HireTrainer {
	return &HireTrainer{}
}

func (t *HireTrainer) Train(_ context.Context) (ports.HireClassifier, []byte, error) {
	X, y := BootstrapDataset()
	model, err := Fit(X, y, HireModelMaxDepth)
	if err != nil {
		return nil, nil, fmt.Errorf("fit hire model: %w", err)
	}
	data, err := Encode(model)
	if err != nil {
		return nil, nil, err
	}
	return model, data, nil
}

func (t *HireTrainer) Decode(data []byte) (ports.HireClassifier, error) {
	model, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return model, nil
}
