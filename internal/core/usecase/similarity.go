package usecase

import "math"

// cosineSimilarity returns 0 for empty, mismatched or zero-norm vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		x := float64(a[i])
		y := float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func maxSimilarity(target []float32, set [][]float32) float64 {
	if len(set) == 0 {
		return 0
	}
	best := math.Inf(-1)
	for _, v := range set {
		if sim := cosineSimilarity(target, v); sim > best {
			best = sim
		}
	}
	return best
}

func meanSimilarity(target []float32, set [][]float32) float64 {
	if len(set) == 0 {
		return 0
	}
	var sum float64
	for _, v := range set {
		sum += cosineSimilarity(target, v)
	}
	return sum / float64(len(set))
}
