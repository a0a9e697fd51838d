// Package distribution provides the tabulated one dimensional distributions
// used for cross sections, scattering cosines and outgoing energies.
package distribution

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"
)

// Tabular is a lin-lin tabulated function. Its integral over the table is
// used to normalize it into a PDF.
type Tabular struct {
	x, y []float64
	cdf  []float64 // unnormalized integral at every x
	norm float64
	fit  interp.PiecewiseLinear
}

// NewTabular panics unless x is strictly ascending, finite and as long as y.
// The slices are copied.
func NewTabular(x, y []float64) *Tabular {
	if len(x) != len(y) {
		panic(fmt.Sprintf("tabular: %d abscissae for %d values", len(x), len(y)))
	}
	if len(x) == 0 {
		panic("tabular: empty table")
	}
	for i := range x {
		if math.IsNaN(x[i]) || math.IsInf(x[i], 0) || math.IsNaN(y[i]) || math.IsInf(y[i], 0) {
			panic(fmt.Sprintf("tabular: non-finite point (%g, %g)", x[i], y[i]))
		}
		if i > 0 && x[i] <= x[i-1] {
			panic(fmt.Sprintf("tabular: abscissae not ascending at %d: %g <= %g", i, x[i], x[i-1]))
		}
	}

	t := &Tabular{
		x:   append([]float64(nil), x...),
		y:   append([]float64(nil), y...),
		cdf: make([]float64, len(x)),
	}
	for i := 1; i < len(x); i++ {
		t.cdf[i] = t.cdf[i-1] + 0.5*(t.y[i-1]+t.y[i])*(t.x[i]-t.x[i-1])
	}
	if total := t.cdf[len(t.cdf)-1]; total > 0 {
		t.norm = 1. / total
	}
	if len(x) > 1 {
		if err := t.fit.Fit(t.x, t.y); err != nil {
			panic(err)
		}
	}
	return t
}

func (t *Tabular) LowerBound() float64 { return t.x[0] }
func (t *Tabular) UpperBound() float64 { return t.x[len(t.x)-1] }

func (t *Tabular) X() []float64 { return append([]float64(nil), t.x...) }
func (t *Tabular) Y() []float64 { return append([]float64(nil), t.y...) }

// Integral is the area under the table before normalization.
func (t *Tabular) Integral() float64 { return t.cdf[len(t.cdf)-1] }

// Evaluate interpolates the table. It is zero outside [LowerBound, UpperBound].
func (t *Tabular) Evaluate(x float64) float64 {
	if x < t.x[0] || x > t.x[len(t.x)-1] {
		return 0.
	}
	if len(t.x) == 1 {
		return t.y[0]
	}
	return t.fit.Predict(x)
}

func (t *Tabular) EvaluatePDF(x float64) float64 {
	return t.Evaluate(x) * t.norm
}

// EvaluateCDF integrates the interpolated table up to x.
func (t *Tabular) EvaluateCDF(x float64) float64 {
	n := len(t.x)
	switch {
	case x < t.x[0]:
		return 0.
	case x >= t.x[n-1]:
		return 1.
	case t.norm == 0:
		return 0.
	}
	i := t.bin(x)
	dx := x - t.x[i]
	slope := (t.y[i+1] - t.y[i]) / (t.x[i+1] - t.x[i])
	value := (t.cdf[i] + t.y[i]*dx + 0.5*slope*dx*dx) * t.norm
	return math.Min(value, 1.)
}

// bin returns i with x[i] <= v < x[i+1] for v inside the table.
func (t *Tabular) bin(v float64) int {
	i := sort.SearchFloat64s(t.x, v)
	if i == len(t.x) || t.x[i] != v {
		i--
	}
	if i > len(t.x)-2 {
		i = len(t.x) - 2
	}
	return i
}

// SampleWithRandomNumber inverts the CDF at xi, which must lie in [0, 1].
func (t *Tabular) SampleWithRandomNumber(xi float64) float64 {
	if xi < 0 || xi > 1 {
		panic(fmt.Sprintf("tabular: random number %g outside [0, 1]", xi))
	}
	n := len(t.x)
	if n == 1 {
		return t.x[0]
	}
	if t.norm == 0 {
		panic("tabular: cannot sample a table with zero integral")
	}

	target := xi * t.cdf[n-1]
	// first bin whose upper cdf exceeds the target, zero-area bins are skipped
	i := sort.Search(n, func(k int) bool { return t.cdf[k] > target }) - 1
	if i < 0 {
		i = 0
	}
	if i > n-2 {
		i = n - 2
	}

	remainder := target - t.cdf[i]
	slope := (t.y[i+1] - t.y[i]) / (t.x[i+1] - t.x[i])
	// root of y_i*d + slope*d^2/2 = remainder, written to stay accurate for slope -> 0
	denominator := t.y[i] + math.Sqrt(math.Max(t.y[i]*t.y[i]+2.*slope*remainder, 0.))
	var d float64
	if denominator > 0 {
		d = 2. * remainder / denominator
	}
	return math.Min(math.Max(t.x[i]+d, t.x[i]), t.x[i+1])
}

func (t *Tabular) Sample(rng *rand.Rand) float64 {
	return t.SampleWithRandomNumber(rng.Float64())
}

// Mean is the first moment of the normalized table.
func (t *Tabular) Mean() float64 {
	if len(t.x) == 1 || t.norm == 0 {
		return t.x[0]
	}
	moments := make([]float64, len(t.x)-1)
	for i := range moments {
		x0, x1, y0, y1 := t.x[i], t.x[i+1], t.y[i], t.y[i+1]
		// exact integral of x*f(x) for a linear f over the bin
		moments[i] = (x1 - x0) * (y0*(2*x0+x1) + y1*(x0+2*x1)) / 6.
	}
	return floats.Sum(moments) * t.norm
}
