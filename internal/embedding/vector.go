package embedding

import "math"

// MinNorm is the minimum Euclidean norm a raw embedding may have.
// Anything below it signals a collapsed or broken model output and
// fails the whole generation run.
const MinNorm = 1e-6

// Norm returns the Euclidean (L2) norm of v.
func Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// NormalizeVector scales v in place to unit length and returns it.
// Vectors with norm below MinNorm are left untouched; callers must gate
// on Norm before normalizing.
func NormalizeVector(v []float32) []float32 {
	n := Norm(v)
	if n < MinNorm {
		return v
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / n)
	}
	return v
}

// Dot returns the dot product of a and b. For unit vectors this is the
// cosine similarity.
func Dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
