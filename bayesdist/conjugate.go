package bayesdist

import (
	"fmt"
	"math"
)

const (
	// JeffreysAlpha is the per-category concentration of the Jeffreys prior.
	JeffreysAlpha = 0.5
	// JeffreysMassPerCategory is the prior mass per category used when a
	// prior is shaped by an observation distribution.
	JeffreysMassPerCategory = 0.5
	// defaultNumCategories is the dimension of NewConjugate.
	defaultNumCategories = 2
)

// Conjugate is a categorical observation model with a Dirichlet prior over its
// probabilities. It owns both distributions: the Dirichlet is the live
// posterior and the categorical is always its mean.
//
// Conjugate is not safe for concurrent use; see SyncConjugate.
type Conjugate struct {
	priorType    PriorType
	singleAlpha  float64   // for Jeffreys and EqualAlpha
	manualAlphas []float64 // last alphas passed to InitialiseAlphas

	parameterDistribution   *Dirichlet
	observationDistribution *Categorical

	seed *uint64
}

// Option configures a Conjugate.
type Option func(*Conjugate)

// WithSeed makes every Dirichlet the model builds use seed, so posterior
// samples are reproducible.
func WithSeed(seed uint64) Option {
	return func(conjugate *Conjugate) {
		conjugate.seed = &seed
	}
}

func newConjugate(opts []Option) *Conjugate {
	conjugate := new(Conjugate)
	for _, opt := range opts {
		opt(conjugate)
	}
	return conjugate
}

// NewConjugate returns Conjugate instance with a Jeffreys prior over 2 categories.
func NewConjugate(opts ...Option) (*Conjugate, error) {
	return NewJeffreysConjugate(defaultNumCategories, opts...)
}

// NewJeffreysConjugate returns Conjugate instance with a Jeffreys prior over numCategories.
func NewJeffreysConjugate(numCategories int, opts ...Option) (*Conjugate, error) {
	conjugate := newConjugate(opts)
	if err := conjugate.Initialise(numCategories); err != nil {
		return nil, err
	}
	return conjugate, nil
}

// NewEqualAlphaConjugate returns Conjugate instance with alpha for every category.
func NewEqualAlphaConjugate(numCategories int, alpha float64, opts ...Option) (*Conjugate, error) {
	conjugate := newConjugate(opts)
	if err := conjugate.InitialiseEqualAlpha(numCategories, alpha); err != nil {
		return nil, err
	}
	return conjugate, nil
}

// NewConjugateFromAlphas returns Conjugate instance with explicit alphas.
func NewConjugateFromAlphas(alphas []float64, opts ...Option) (*Conjugate, error) {
	conjugate := newConjugate(opts)
	if err := conjugate.InitialiseAlphas(alphas); err != nil {
		return nil, err
	}
	return conjugate, nil
}

// Clone returns a deep copy sharing no state with conjugate.
func (conjugate *Conjugate) Clone() *Conjugate {
	clone := new(Conjugate)
	clone.priorType = conjugate.priorType
	clone.singleAlpha = conjugate.singleAlpha
	if conjugate.manualAlphas != nil {
		clone.manualAlphas = append([]float64(nil), conjugate.manualAlphas...)
	}
	clone.parameterDistribution = conjugate.parameterDistribution.Clone()
	clone.observationDistribution = &Categorical{probabilities: conjugate.observationDistribution.Probs()}
	if conjugate.seed != nil {
		seed := *conjugate.seed
		clone.seed = &seed
	}
	return clone
}

// build returns the Dirichlet for alphas and the categorical at its mean
// without touching conjugate.
func (conjugate *Conjugate) build(alphas []float64) (*Dirichlet, *Categorical, error) {
	var parameterDistribution *Dirichlet
	var err error
	if conjugate.seed != nil {
		parameterDistribution, err = NewSeededDirichlet(alphas, *conjugate.seed)
	} else {
		parameterDistribution, err = NewDirichlet(alphas)
	}
	if err != nil {
		return nil, nil, err
	}
	observationDistribution, err := NewCategorical(parameterDistribution.Mean())
	if err != nil {
		return nil, nil, err
	}
	return parameterDistribution, observationDistribution, nil
}

func equalAlphas(numCategories int, alpha float64) ([]float64, error) {
	if numCategories < 1 {
		return nil, fmt.Errorf("%w: number of categories must be at least 1, got %d", ErrInvalidArgument, numCategories)
	}
	alphas := make([]float64, numCategories)
	for i := range alphas {
		alphas[i] = alpha
	}
	return alphas, nil
}

// Initialise sets a Jeffreys prior (alpha = 0.5) over numCategories.
func (conjugate *Conjugate) Initialise(numCategories int) error {
	alphas, err := equalAlphas(numCategories, JeffreysAlpha)
	if err != nil {
		return err
	}
	parameterDistribution, observationDistribution, err := conjugate.build(alphas)
	if err != nil {
		return err
	}
	conjugate.parameterDistribution = parameterDistribution
	conjugate.observationDistribution = observationDistribution
	conjugate.priorType = Jeffreys
	conjugate.singleAlpha = JeffreysAlpha
	return nil
}

// InitialiseEqualAlpha sets alpha for every one of numCategories.
func (conjugate *Conjugate) InitialiseEqualAlpha(numCategories int, alpha float64) error {
	alphas, err := equalAlphas(numCategories, alpha)
	if err != nil {
		return err
	}
	parameterDistribution, observationDistribution, err := conjugate.build(alphas)
	if err != nil {
		return err
	}
	conjugate.parameterDistribution = parameterDistribution
	conjugate.observationDistribution = observationDistribution
	conjugate.priorType = EqualAlpha
	conjugate.singleAlpha = alpha
	return nil
}

// InitialiseAlphas sets explicit concentration parameters.
func (conjugate *Conjugate) InitialiseAlphas(alphas []float64) error {
	parameterDistribution, observationDistribution, err := conjugate.build(alphas)
	if err != nil {
		return err
	}
	conjugate.parameterDistribution = parameterDistribution
	conjugate.observationDistribution = observationDistribution
	conjugate.priorType = ManualAlphas
	conjugate.singleAlpha = math.NaN()
	conjugate.manualAlphas = append([]float64(nil), alphas...)
	return nil
}

// InitialiseJeffreysFromObservationDistribution sets alpha_i = p_i * 0.5 * K:
// the total mass of a Jeffreys prior, shaped like obsDist.
// Every p_i must be positive.
func (conjugate *Conjugate) InitialiseJeffreysFromObservationDistribution(obsDist *Categorical) error {
	if obsDist == nil {
		return fmt.Errorf("%w: observation distribution is nil", ErrInvalidArgument)
	}
	probs := obsDist.Probs()
	totalAlpha := float64(len(probs)) * JeffreysMassPerCategory
	alphas := make([]float64, len(probs))
	for i, p := range probs {
		alphas[i] = p * totalAlpha
	}
	parameterDistribution, observationDistribution, err := conjugate.build(alphas)
	if err != nil {
		return err
	}
	conjugate.parameterDistribution = parameterDistribution
	conjugate.observationDistribution = observationDistribution
	conjugate.priorType = ManualProbs
	conjugate.singleAlpha = math.NaN()
	return nil
}

// SetJeffreysPrior resets to a Jeffreys prior of the current dimension.
func (conjugate *Conjugate) SetJeffreysPrior() error {
	return conjugate.Initialise(conjugate.parameterDistribution.Dimension())
}

// SetAllParameterAlphasTo resets every alpha of the current dimension to newAlpha.
func (conjugate *Conjugate) SetAllParameterAlphasTo(newAlpha float64) error {
	return conjugate.InitialiseEqualAlpha(conjugate.parameterDistribution.Dimension(), newAlpha)
}

// SetJeffreysFromObservationDistribution is InitialiseJeffreysFromObservationDistribution.
func (conjugate *Conjugate) SetJeffreysFromObservationDistribution(obsDist *Categorical) error {
	return conjugate.InitialiseJeffreysFromObservationDistribution(obsDist)
}

func (conjugate *Conjugate) checkCounts(counts []int) error {
	if numCategories := conjugate.parameterDistribution.Dimension(); len(counts) != numCategories {
		return fmt.Errorf("%w: length of observed counts (%d) doesn't match distribution dimension (%d)", ErrInvalidArgument, len(counts), numCategories)
	}
	return nil
}

// UpdateFromObservations adds counts to the posterior alphas and refreshes
// the observation distribution. The prior type is left as it is.
func (conjugate *Conjugate) UpdateFromObservations(counts []int) error {
	if err := conjugate.checkCounts(counts); err != nil {
		return err
	}
	newAlphas := conjugate.parameterDistribution.Alpha()
	for i, c := range counts {
		newAlphas[i] += float64(c)
	}
	if err := checkConcentration(newAlphas); err != nil {
		return err
	}
	observationDistribution, err := NewCategorical(newAlphas)
	if err != nil {
		return err
	}
	if err := conjugate.parameterDistribution.SetAlpha(newAlphas); err != nil {
		return err
	}
	conjugate.observationDistribution = observationDistribution
	return nil
}

// LogLikelihoodFromObservations returns the Dirichlet-multinomial marginal log
// likelihood of counts under the current posterior:
//
//	sum(lnΓ(c_i + a_i) - lnΓ(a_i)) + lnΓ(sum(a)) - lnΓ(sum(c) + sum(a))
//
// The model is not modified.
func (conjugate *Conjugate) LogLikelihoodFromObservations(counts []int) (float64, error) {
	if err := conjugate.checkCounts(counts); err != nil {
		return 0, err
	}
	alphaTotal := 0.0
	countTotal := 0.0
	logLikelihood := 0.0
	for i, a := range conjugate.parameterDistribution.alpha {
		c := float64(counts[i])
		countTotal += c
		alphaTotal += a
		logLikelihood += lgamma(c+a) - lgamma(a)
	}
	logLikelihood += lgamma(alphaTotal) - lgamma(countTotal+alphaTotal)
	return logLikelihood, nil
}

// SamplePosterior draws a probability vector from the posterior Dirichlet.
func (conjugate *Conjugate) SamplePosterior() []float64 {
	return conjugate.parameterDistribution.Sample()
}

// ObservationDistribution returns the categorical at the posterior mean.
func (conjugate *Conjugate) ObservationDistribution() *Categorical {
	return conjugate.observationDistribution
}

// ParameterDistribution returns the posterior Dirichlet. It stays owned by
// conjugate: calling SetAlpha on it directly does not refresh the
// observation distribution.
func (conjugate *Conjugate) ParameterDistribution() *Dirichlet {
	return conjugate.parameterDistribution
}

// PriorType returns how the current alphas were initialised.
func (conjugate *Conjugate) PriorType() PriorType {
	return conjugate.priorType
}

// SingleAlpha returns the scalar alpha of a Jeffreys or EqualAlpha prior.
func (conjugate *Conjugate) SingleAlpha() (float64, error) {
	if !conjugate.priorType.HasSingleAlpha() {
		return 0, fmt.Errorf("%w: no single alpha defined for %v prior", ErrInvalidState, conjugate.priorType)
	}
	return conjugate.singleAlpha, nil
}

// NumCategories returns K.
func (conjugate *Conjugate) NumCategories() int {
	return conjugate.observationDistribution.Dimension()
}

// Alphas returns a copy of the posterior concentration parameters.
func (conjugate *Conjugate) Alphas() []float64 {
	return conjugate.parameterDistribution.Alpha()
}

// ManualAlphas returns the alphas last given to InitialiseAlphas, or nil.
func (conjugate *Conjugate) ManualAlphas() []float64 {
	if conjugate.manualAlphas == nil {
		return nil
	}
	return append([]float64(nil), conjugate.manualAlphas...)
}
