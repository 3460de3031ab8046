package vector

import "math"

// CosineSimilarity returns the cosine of the angle between two embedding
// vectors. Undefined inputs (empty vectors, mismatched lengths, zero norm)
// yield 0 rather than an error: downstream scoring treats "undefined" as
// "no signal".
func CosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
