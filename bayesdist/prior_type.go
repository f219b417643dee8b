package bayesdist

import (
	"fmt"
	"strings"
)

// PriorType records how the current concentration parameters were produced.
type PriorType int

const (
	// Jeffreys is alpha = 0.5 for every category.
	Jeffreys PriorType = iota
	// EqualAlpha is the same user supplied alpha for every category.
	EqualAlpha
	// ManualAlphas is an explicit alpha vector.
	ManualAlphas
	// ManualProbs is derived from a categorical distribution.
	ManualProbs
)

var priorTypeNames = [...]string{
	Jeffreys:     "jeffreys",
	EqualAlpha:   "equal-alpha",
	ManualAlphas: "manual-alphas",
	ManualProbs:  "manual-probs",
}

func (priorType PriorType) String() string {
	if priorType < 0 || int(priorType) >= len(priorTypeNames) {
		return fmt.Sprintf("PriorType(%d)", int(priorType))
	}
	return priorTypeNames[priorType]
}

// HasSingleAlpha reports whether one scalar alpha describes the prior.
func (priorType PriorType) HasSingleAlpha() bool {
	return priorType == Jeffreys || priorType == EqualAlpha
}

// ParsePriorType returns the PriorType named by s (case insensitive).
func ParsePriorType(s string) (PriorType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range priorTypeNames {
		if n == name {
			return PriorType(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown prior type %q", ErrInvalidArgument, s)
}
