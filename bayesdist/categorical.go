package bayesdist

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Categorical is a normalized probability vector over K categories.
// It is never mutated after construction.
type Categorical struct {
	probabilities []float64
}

// NewCategorical returns Categorical instance holding probs / sum(probs).
func NewCategorical(probs []float64) (*Categorical, error) {
	if len(probs) == 0 {
		return nil, fmt.Errorf("%w: probability vector cannot be empty", ErrInvalidArgument)
	}
	sum := floats.Sum(probs)
	if !(sum > 0.0) {
		return nil, fmt.Errorf("%w: sum of probabilities must be positive, got %v", ErrInvalidArgument, sum)
	}
	categorical := new(Categorical)
	categorical.probabilities = append([]float64(nil), probs...)
	floats.Scale(1.0/sum, categorical.probabilities)
	return categorical, nil
}

// Probs returns a copy of the normalized probabilities.
func (categorical *Categorical) Probs() []float64 {
	return append([]float64(nil), categorical.probabilities...)
}

// Dimension returns the number of categories.
func (categorical *Categorical) Dimension() int {
	return len(categorical.probabilities)
}

// LogLikelihood returns sum(counts_i * ln(p_i)).
// Unobserved categories contribute nothing; an observed category with zero
// probability makes the whole result -Inf.
func (categorical *Categorical) LogLikelihood(counts []int) (float64, error) {
	if len(counts) != len(categorical.probabilities) {
		return 0, fmt.Errorf("%w: counts have length %d, want %d", ErrInvalidArgument, len(counts), len(categorical.probabilities))
	}
	logLikelihood := 0.0
	for i, c := range counts {
		p := categorical.probabilities[i]
		if p <= 0.0 && c > 0 {
			return math.Inf(-1), nil
		}
		if c > 0 {
			logLikelihood += float64(c) * math.Log(p)
		}
	}
	return logLikelihood, nil
}
