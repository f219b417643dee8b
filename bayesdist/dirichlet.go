package bayesdist

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// simplexTolerance is the allowed deviation of sum(x) from 1 in LogPdf.
const simplexTolerance = 1e-6

// Dirichlet is a Dirichlet distribution over the (K-1)-simplex.
// Each instance owns its random source, so it must not be sampled from
// several goroutines at once.
type Dirichlet struct {
	alpha []float64
	src   *rand.PCG
}

// NewDirichlet returns Dirichlet instance seeded from a nondeterministic source.
func NewDirichlet(alpha []float64) (*Dirichlet, error) {
	return NewSeededDirichlet(alpha, rand.Uint64())
}

// NewSeededDirichlet returns Dirichlet instance whose samples are fully
// determined by seed.
func NewSeededDirichlet(alpha []float64, seed uint64) (*Dirichlet, error) {
	if len(alpha) == 0 {
		return nil, fmt.Errorf("%w: concentration parameters cannot be empty", ErrInvalidArgument)
	}
	if err := checkConcentration(alpha); err != nil {
		return nil, err
	}
	dirichlet := new(Dirichlet)
	dirichlet.alpha = append([]float64(nil), alpha...)
	dirichlet.src = rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	return dirichlet, nil
}

func checkConcentration(alpha []float64) error {
	for i, a := range alpha {
		// !(a > 0) also catches NaN
		if !(a > 0) {
			return fmt.Errorf("%w: concentration parameter %d is %v, all must be positive", ErrInvalidArgument, i, a)
		}
	}
	return nil
}

// Sample draws one point on the simplex by normalizing independent
// Gamma(alpha_i, 1) variates. The variates are kept in log space so small
// alphas do not underflow before normalization; coordinates smaller than the
// least positive float64 still round to 0.
func (dirichlet *Dirichlet) Sample() []float64 {
	logG := make([]float64, len(dirichlet.alpha))
	for i, a := range dirichlet.alpha {
		logG[i] = dirichlet.logGamma(a)
	}
	logSum := floats.LogSumExp(logG)
	x := make([]float64, len(logG))
	for i, l := range logG {
		x[i] = math.Exp(l - logSum)
	}
	return x
}

// logGamma returns the log of a Gamma(a, 1) variate. For a < 1 it uses
// Gamma(a) = Gamma(a+1) * U^(1/a).
func (dirichlet *Dirichlet) logGamma(a float64) float64 {
	if a >= 1.0 {
		gammaDist := distuv.Gamma{Alpha: a, Beta: 1.0, Src: dirichlet.src}
		return math.Log(gammaDist.Rand())
	}
	gammaDist := distuv.Gamma{Alpha: a + 1.0, Beta: 1.0, Src: dirichlet.src}
	uniformDist := distuv.Uniform{Min: 0.0, Max: 1.0, Src: dirichlet.src}
	// 1-U lies in (0, 1]
	u := 1.0 - uniformDist.Rand()
	return math.Log(gammaDist.Rand()) + math.Log(u)/a
}

// SampleN draws n independent samples.
func (dirichlet *Dirichlet) SampleN(n int) ([][]float64, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: number of samples must not be negative, got %d", ErrInvalidArgument, n)
	}
	samples := make([][]float64, 0, n)
	for i := 0; i < n; i++ {
		samples = append(samples, dirichlet.Sample())
	}
	return samples, nil
}

// Mean returns alpha_i / sum(alpha).
func (dirichlet *Dirichlet) Mean() []float64 {
	m := append([]float64(nil), dirichlet.alpha...)
	floats.Scale(1.0/floats.Sum(m), m)
	return m
}

// Variance returns the marginal variance of every component.
func (dirichlet *Dirichlet) Variance() []float64 {
	s := floats.Sum(dirichlet.alpha)
	denom := s * s * (s + 1.0)
	v := make([]float64, len(dirichlet.alpha))
	for i, a := range dirichlet.alpha {
		v[i] = a * (s - a) / denom
	}
	return v
}

// Alpha returns a copy of the concentration parameters.
func (dirichlet *Dirichlet) Alpha() []float64 {
	return append([]float64(nil), dirichlet.alpha...)
}

// SetAlpha replaces the concentration parameters. The dimension is fixed
// for the life of the instance.
func (dirichlet *Dirichlet) SetAlpha(newAlpha []float64) error {
	if len(newAlpha) != len(dirichlet.alpha) {
		return fmt.Errorf("%w: new alpha has length %d, want %d", ErrInvalidArgument, len(newAlpha), len(dirichlet.alpha))
	}
	if err := checkConcentration(newAlpha); err != nil {
		return err
	}
	copy(dirichlet.alpha, newAlpha)
	return nil
}

// Dimension returns the number of categories K.
func (dirichlet *Dirichlet) Dimension() int {
	return len(dirichlet.alpha)
}

// LogPdf returns sum((alpha_i - 1) * ln(x_i)), the log density up to the
// normalizing constant. The multivariate Beta term is left out on purpose;
// add LogNormalizer() to get the true log density.
// A point with any coordinate outside (0, 1) has log density -Inf.
func (dirichlet *Dirichlet) LogPdf(x []float64) (float64, error) {
	if len(x) != len(dirichlet.alpha) {
		return 0, fmt.Errorf("%w: point has length %d, want %d", ErrInvalidArgument, len(x), len(dirichlet.alpha))
	}
	if sum := floats.Sum(x); math.Abs(sum-1.0) > simplexTolerance {
		return 0, fmt.Errorf("%w: point sums to %v, not 1", ErrInvalidArgument, sum)
	}
	logProb := 0.0
	for i, a := range dirichlet.alpha {
		if x[i] <= 0.0 || x[i] >= 1.0 {
			return math.Inf(-1), nil
		}
		logProb += (a - 1.0) * math.Log(x[i])
	}
	return logProb, nil
}

// LogNormalizer returns lnΓ(sum(alpha)) - sum(lnΓ(alpha_i)).
func (dirichlet *Dirichlet) LogNormalizer() float64 {
	s := floats.Sum(dirichlet.alpha)
	logNorm := lgamma(s)
	for _, a := range dirichlet.alpha {
		logNorm -= lgamma(a)
	}
	return logNorm
}

// Clone returns a deep copy. The copy continues the random stream from the
// same position as the original.
func (dirichlet *Dirichlet) Clone() *Dirichlet {
	clone := new(Dirichlet)
	clone.alpha = append([]float64(nil), dirichlet.alpha...)
	clone.src = new(rand.PCG)
	state, err := dirichlet.src.MarshalBinary()
	if err != nil {
		panic(fmt.Sprintf("dirichlet clone error: %v", err))
	}
	if err := clone.src.UnmarshalBinary(state); err != nil {
		panic(fmt.Sprintf("dirichlet clone error: %v", err))
	}
	return clone
}

func lgamma(x float64) float64 {
	v, _ := math.Lgamma(x)
	return v
}
