package rag

import "math"

// CosineSimilarity returns the cosine of the angle between a and b.
// Mismatched lengths and zero vectors yield 0.
func CosineSimilarity(a, b EmbeddingVector) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// IsZero reports whether every element of v is zero. Such vectors have no
// direction, so no similarity to them is defined.
func (v EmbeddingVector) IsZero() bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
