package utils

import (
	"fmt"
	"math"
)

// CosineSimilarity calculates the cosine similarity between two vectors.
// Embedding vectors from the providers we use are compared in the same space,
// so a dimension mismatch is always a caller error.
func CosineSimilarity(vec1, vec2 []float32) (float32, error) {
	if len(vec1) == 0 || len(vec2) == 0 {
		return 0, fmt.Errorf("vectors cannot be empty")
	}
	if len(vec1) != len(vec2) {
		return 0, fmt.Errorf("vectors must have the same dimension: %d != %d", len(vec1), len(vec2))
	}

	var dot, sumSq1, sumSq2 float32
	for i := range vec1 {
		dot += vec1[i] * vec2[i]
		sumSq1 += vec1[i] * vec1[i]
		sumSq2 += vec2[i] * vec2[i]
	}

	mag1 := float32(math.Sqrt(float64(sumSq1)))
	mag2 := float32(math.Sqrt(float64(sumSq2)))
	if mag1 == 0 || mag2 == 0 {
		return 0, nil
	}

	return dot / (mag1 * mag2), nil
}
