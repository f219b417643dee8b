package bayesdist

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distmv"
)

func TestNewDirichletRejectsInvalidAlpha(t *testing.T) {
	tests := []struct {
		name  string
		alpha []float64
	}{
		{"nil", nil},
		{"empty", []float64{}},
		{"zero", []float64{1.0, 0.0, 2.0}},
		{"negative", []float64{-0.5}},
		{"nan", []float64{1.0, math.NaN()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDirichlet(tt.alpha)
			assert.ErrorIs(t, err, ErrInvalidArgument)
		})
	}
}

func TestDirichletMeanSumsToOne(t *testing.T) {
	for _, alpha := range [][]float64{
		{1.0},
		{0.5, 0.5},
		{2.0, 3.0, 5.0},
		{1e-3, 1e3, 7.25, 0.1},
	} {
		dirichlet, err := NewSeededDirichlet(alpha, 1)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, floats.Sum(dirichlet.Mean()), 1e-9, "alpha = %v", alpha)
	}

	dirichlet, err := NewDirichlet([]float64{2.0, 3.0, 5.0})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.2, 0.3, 0.5}, dirichlet.Mean(), 1e-12)
}

func TestDirichletSampleOnSimplex(t *testing.T) {
	for k := 1; k <= 10; k++ {
		alpha := make([]float64, k)
		for i := range alpha {
			alpha[i] = 0.5 + float64(i)
		}
		dirichlet, err := NewSeededDirichlet(alpha, uint64(k))
		require.NoError(t, err)
		samples, err := dirichlet.SampleN(50)
		require.NoError(t, err)
		for _, x := range samples {
			require.Len(t, x, k)
			for _, v := range x {
				assert.Greater(t, v, 0.0)
			}
			assert.InDelta(t, 1.0, floats.Sum(x), 1e-9)
		}
	}

	// Gamma variates for alpha = 1e-3 underflow in linear space; coordinates
	// below the smallest float64 may still be exactly 0.
	dirichlet, err := NewSeededDirichlet([]float64{1e-3, 1e-3, 1e-3}, 3)
	require.NoError(t, err)
	samples, err := dirichlet.SampleN(200)
	require.NoError(t, err)
	for _, x := range samples {
		require.Len(t, x, 3)
		for _, v := range x {
			require.False(t, math.IsNaN(v), "sample %v", x)
			assert.GreaterOrEqual(t, v, 0.0)
		}
		assert.Greater(t, floats.Max(x), 0.0)
		assert.InDelta(t, 1.0, floats.Sum(x), 1e-9)
	}
}

func TestDirichletSampleN(t *testing.T) {
	dirichlet, err := NewSeededDirichlet([]float64{1.0, 2.0}, 1)
	require.NoError(t, err)

	samples, err := dirichlet.SampleN(0)
	require.NoError(t, err)
	assert.Empty(t, samples)

	samples, err = dirichlet.SampleN(-1)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Nil(t, samples)
}

func TestDirichletSampleMeanConverges(t *testing.T) {
	dirichlet, err := NewSeededDirichlet([]float64{2.0, 3.0, 5.0}, 42)
	require.NoError(t, err)
	n := 20000
	sum := make([]float64, 3)
	samples, err := dirichlet.SampleN(n)
	require.NoError(t, err)
	for _, x := range samples {
		floats.Add(sum, x)
	}
	floats.Scale(1.0/float64(n), sum)
	assert.InDeltaSlice(t, dirichlet.Mean(), sum, 0.01)
}

func TestDirichletSeedReproducible(t *testing.T) {
	alpha := []float64{1.0, 2.0, 3.0}
	a, err := NewSeededDirichlet(alpha, 7)
	require.NoError(t, err)
	b, err := NewSeededDirichlet(alpha, 7)
	require.NoError(t, err)
	samplesA, err := a.SampleN(5)
	require.NoError(t, err)
	samplesB, err := b.SampleN(5)
	require.NoError(t, err)
	assert.Equal(t, samplesA, samplesB)

	c, err := NewSeededDirichlet(alpha, 8)
	require.NoError(t, err)
	assert.NotEqual(t, a.Sample(), c.Sample())
}

func TestDirichletVariance(t *testing.T) {
	dirichlet, err := NewDirichlet([]float64{2.0, 3.0, 5.0})
	require.NoError(t, err)
	expected := []float64{2.0 * 8.0 / 1100.0, 3.0 * 7.0 / 1100.0, 5.0 * 5.0 / 1100.0}
	assert.InDeltaSlice(t, expected, dirichlet.Variance(), 1e-6)
}

func TestDirichletSetAlpha(t *testing.T) {
	dirichlet, err := NewDirichlet([]float64{1.0, 1.0})
	require.NoError(t, err)

	require.NoError(t, dirichlet.SetAlpha([]float64{3.0, 1.0}))
	assert.Equal(t, []float64{3.0, 1.0}, dirichlet.Alpha())
	assert.Equal(t, 2, dirichlet.Dimension())

	assert.ErrorIs(t, dirichlet.SetAlpha([]float64{1.0, 1.0, 1.0}), ErrInvalidArgument)
	assert.ErrorIs(t, dirichlet.SetAlpha([]float64{1.0, 0.0}), ErrInvalidArgument)
	assert.ErrorIs(t, dirichlet.SetAlpha([]float64{-1.0, 2.0}), ErrInvalidArgument)
	assert.Equal(t, []float64{3.0, 1.0}, dirichlet.Alpha(), "failed SetAlpha must not modify alpha")
}

func TestDirichletAlphaIsCopy(t *testing.T) {
	input := []float64{1.0, 2.0}
	dirichlet, err := NewDirichlet(input)
	require.NoError(t, err)
	input[0] = 100.0
	alpha := dirichlet.Alpha()
	alpha[1] = 100.0
	assert.Equal(t, []float64{1.0, 2.0}, dirichlet.Alpha())
}

func TestDirichletLogPdf(t *testing.T) {
	dirichlet, err := NewDirichlet([]float64{2.0, 3.0, 5.0})
	require.NoError(t, err)

	x := []float64{0.2, 0.3, 0.5}
	got, err := dirichlet.LogPdf(x)
	require.NoError(t, err)
	want := 1.0*math.Log(0.2) + 2.0*math.Log(0.3) + 4.0*math.Log(0.5)
	assert.InDelta(t, want, got, 1e-12)

	atMean, err := dirichlet.LogPdf(dirichlet.Mean())
	require.NoError(t, err)
	atExtreme, err := dirichlet.LogPdf([]float64{0.01, 0.01, 0.98})
	require.NoError(t, err)
	assert.Greater(t, atMean, atExtreme)
}

func TestDirichletLogPdfBoundary(t *testing.T) {
	dirichlet, err := NewDirichlet([]float64{2.0, 3.0, 5.0})
	require.NoError(t, err)
	for _, x := range [][]float64{
		{0.0, 0.5, 0.5},
		{1.0, 0.0, 0.0},
		{-0.1, 0.6, 0.5},
	} {
		got, err := dirichlet.LogPdf(x)
		require.NoError(t, err)
		assert.True(t, math.IsInf(got, -1), "x = %v, got %v", x, got)
	}
}

func TestDirichletLogPdfRejectsInvalidPoint(t *testing.T) {
	dirichlet, err := NewDirichlet([]float64{2.0, 3.0, 5.0})
	require.NoError(t, err)

	_, err = dirichlet.LogPdf([]float64{0.5, 0.5})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = dirichlet.LogPdf([]float64{0.2, 0.3, 0.6})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = dirichlet.LogPdf([]float64{0.2, 0.3, 0.5 + 1e-7})
	assert.NoError(t, err, "sums within 1e-6 of one are accepted")
}

func TestDirichletLogNormalizerMatchesGonum(t *testing.T) {
	alpha := []float64{2.0, 3.0, 5.0}
	dirichlet, err := NewDirichlet(alpha)
	require.NoError(t, err)
	oracle := distmv.NewDirichlet(alpha, nil)
	for _, x := range [][]float64{
		{0.2, 0.3, 0.5},
		{0.1, 0.1, 0.8},
		{0.6, 0.3, 0.1},
	} {
		unnormalized, err := dirichlet.LogPdf(x)
		require.NoError(t, err)
		assert.InDelta(t, oracle.LogProb(x), unnormalized+dirichlet.LogNormalizer(), 1e-9)
	}
}

func TestDirichletClone(t *testing.T) {
	dirichlet, err := NewSeededDirichlet([]float64{1.0, 2.0, 3.0}, 3)
	require.NoError(t, err)
	dirichlet.Sample()

	clone := dirichlet.Clone()
	assert.Equal(t, dirichlet.Sample(), clone.Sample(), "clone continues the same random stream")

	require.NoError(t, clone.SetAlpha([]float64{9.0, 9.0, 9.0}))
	assert.Equal(t, []float64{1.0, 2.0, 3.0}, dirichlet.Alpha())
}
