package quadrature

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/integrate/quad"
)

func TestIntegratePolynomialIsExact(t *testing.T) {
	gk := Default()
	// the 15-point Kronrod rule integrates polynomials up to degree 22 exactly
	result, absErr := gk.Integrate(func(x float64) float64 {
		return 3*x*x*x*x*x - 2*x*x + 1
	}, -1, 2)
	assert.InDelta(t, 3*(64.-1.)/6.-2*(8.+1.)/3.+3., result, 1e-12)
	assert.LessOrEqual(t, absErr, gk.AbsoluteTolerance)
}

func TestIntegrateMatchesLegendre(t *testing.T) {
	gk := GaussKronrod{AbsoluteTolerance: 1e-10, SubintervalLimit: 1000}
	cases := []struct {
		name string
		f    func(float64) float64
		a, b float64
	}{
		{"gaussian", func(x float64) float64 { return math.Exp(-x * x) }, -3, 4},
		{"oscillating", func(x float64) float64 { return math.Sin(10*x) * math.Exp(-x) }, 0, 5},
		{"peaked", func(x float64) float64 { return 1 / (1e-2 + (x-0.3)*(x-0.3)) }, 0, 1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			reference := quad.Fixed(c.f, c.a, c.b, 2000, quad.Legendre{}, 0)
			result, absErr := gk.Integrate(c.f, c.a, c.b)
			assert.InDelta(t, reference, result, 1e-8)
			assert.LessOrEqual(t, absErr, 1e-8)
		})
	}
}

func TestIntegrateSquareRootSingularity(t *testing.T) {
	gk := Default()
	result, _ := gk.Integrate(func(x float64) float64 { return 1 / math.Sqrt(x) }, 0, 1)
	assert.InDelta(t, 2., result, 1e-3)
}

func TestIntegrateDegenerateInterval(t *testing.T) {
	result, absErr := Default().Integrate(math.Exp, 1.5, 1.5)
	assert.Equal(t, 0., result)
	assert.Equal(t, 0., absErr)
}

func TestIntegrateInvertedLimitsPanics(t *testing.T) {
	assert.Panics(t, func() {
		Default().Integrate(math.Exp, 2, 1)
	})
}

func TestIntegrateReturnsBestEstimateWhenBudgetIsExhausted(t *testing.T) {
	gk := GaussKronrod{AbsoluteTolerance: 1e-14, SubintervalLimit: 3}
	f := func(x float64) float64 { return math.Sin(50 * x) }
	var result, absErr float64
	require.NotPanics(t, func() {
		result, absErr = gk.Integrate(f, 0, 10)
	})
	assert.False(t, math.IsNaN(result))
	assert.Greater(t, absErr, gk.AbsoluteTolerance)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Default().Validate())
	assert.Error(t, GaussKronrod{AbsoluteTolerance: 0, RelativeTolerance: 0, SubintervalLimit: 10}.Validate())
	assert.Error(t, GaussKronrod{AbsoluteTolerance: 1e-3, SubintervalLimit: 0}.Validate())
	assert.Error(t, GaussKronrod{AbsoluteTolerance: -1, SubintervalLimit: 10}.Validate())
}
