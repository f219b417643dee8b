package bayesdist

import (
	"fmt"
	"math"
)

// PriorParams holds everything GenerateConjugate may need. Only the fields
// relevant to the chosen prior type are read.
type PriorParams struct {
	NumCategories int
	Alpha         float64
	Alphas        []float64
	Probs         []float64
}

// GenerateConjugate returns Conjugate instance initialised with the named prior.
func GenerateConjugate(priorName string, params PriorParams, opts ...Option) (*Conjugate, error) {
	priorType, err := ParsePriorType(priorName)
	if err != nil {
		return nil, err
	}
	switch priorType {
	case Jeffreys:
		return NewJeffreysConjugate(params.NumCategories, opts...)
	case EqualAlpha:
		return NewEqualAlphaConjugate(params.NumCategories, params.Alpha, opts...)
	case ManualAlphas:
		return NewConjugateFromAlphas(params.Alphas, opts...)
	case ManualProbs:
		obsDist, err := NewCategorical(params.Probs)
		if err != nil {
			return nil, err
		}
		model := newConjugate(opts)
		if err := model.InitialiseJeffreysFromObservationDistribution(obsDist); err != nil {
			return nil, err
		}
		return model, nil
	}
	return nil, fmt.Errorf("%w: unsupported prior type %v", ErrInvalidArgument, priorType)
}

// CalcPerplexity returns the perplexity of the observation distribution over
// every event in dataContainer. Returns +Inf when an observed event has zero
// probability and NaN when there are no events.
func CalcPerplexity(model *Conjugate, dataContainer *DataContainer) (float64, error) {
	entropy := 0.0
	countEvent := 0
	for i := 0; i < dataContainer.Size; i++ {
		counts := dataContainer.Counts[i]
		logLikelihood, err := model.ObservationDistribution().LogLikelihood(counts)
		if err != nil {
			return 0, fmt.Errorf("batch %d: %w", i, err)
		}
		entropy += logLikelihood / math.Ln2
		for _, c := range counts {
			countEvent += c
		}
	}
	if countEvent == 0 {
		return math.NaN(), nil
	}
	entropy *= -1
	entropy /= float64(countEvent)
	perplexity := math.Exp2(entropy)
	return perplexity, nil
}
