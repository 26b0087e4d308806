package index

import (
	"fmt"
	"math"
	"sort"

	"github.com/custodia-labs/pagewise/internal/core/domain"
)

// Score rates how similar a and b are under metric. Higher is always more
// similar: cosine is in [-1, 1], dot product is unbounded, and euclidean
// distance d is mapped to 1/(1+d).
func Score(metric domain.Metric, a, b []float32) float64 {
	switch metric {
	case domain.MetricDotProduct:
		return dot(a, b)
	case domain.MetricEuclidean:
		return FromDistance(euclidean(a, b))
	default:
		na, nb := norm(a), norm(b)
		if na == 0 || nb == 0 {
			return 0
		}
		return dot(a, b) / (na * nb)
	}
}

// FromDistance maps a euclidean distance onto the higher-is-more-similar
// scale used by Score.
func FromDistance(d float64) float64 {
	return 1 / (1 + d)
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range min(len(a), len(b)) {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func norm(a []float32) float64 {
	return math.Sqrt(dot(a, a))
}

func euclidean(a, b []float32) float64 {
	var sum float64
	for i := range min(len(a), len(b)) {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// TopK sorts matches by descending score and keeps at most k.
// Ties keep their input order.
func TopK(matches []domain.Match, k int) []domain.Match {
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if k >= 0 && len(matches) > k {
		matches = matches[:k]
	}
	return matches
}

// CheckDimension reports a record whose vector length differs from dim.
func CheckDimension(records []domain.VectorRecord, dim int) error {
	for _, r := range records {
		if len(r.Vector) != dim {
			return &DimensionError{ID: r.ID, Got: len(r.Vector), Want: dim}
		}
	}
	return nil
}

// DimensionError is returned when a vector does not match the index dimension.
type DimensionError struct {
	ID   string
	Got  int
	Want int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("record %s: vector has %d dimensions, index expects %d", e.ID, e.Got, e.Want)
}

// Unwrap lets errors.Is match domain.ErrInvalidInput.
func (e *DimensionError) Unwrap() error {
	return domain.ErrInvalidInput
}
