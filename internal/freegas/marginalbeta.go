package freegas

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/wildstyl3r/freegas/internal/kinematics"
	"github.com/wildstyl3r/freegas/internal/quadrature"
)

var ErrNoScattering = errors.New("free gas: normalization constant is not positive")

type cdfPoint struct {
	beta  float64
	value float64
}

// MarginalBetaFunction is the energy transfer distribution for one incoming
// energy, obtained by integrating the scattering law over alpha. It is not
// safe for concurrent use: CDF queries grow an internal cache.
type MarginalBetaFunction struct {
	kernel           *SAlphaBeta
	quad             quadrature.GaussKronrod
	integrator       quadrature.GaussKronrod
	thermalThreshold float64

	energy       float64
	betaMin      float64
	betaMax      float64
	normConstant float64

	// ascending in beta, starts with (betaMin, 0) and ends with (+Inf, 1)
	cache []cdfPoint
}

// NewMarginalBetaFunction integrates the kernel over the whole kinematically
// allowed beta range for the given energy. thermalThreshold is the energy at
// which NormalizationConstant truncates the distribution.
//
// The range is integrated piecewise between breakpoints around beta = 0 and
// the cache is seeded with the cumulative values at the breakpoints, so later
// CDF queries never integrate across the energy transfer peak in one piece.
func NewMarginalBetaFunction(kernel *SAlphaBeta, energy float64, quad quadrature.GaussKronrod, thermalThreshold float64) (*MarginalBetaFunction, error) {
	a, kT := kernel.AtomicWeightRatio, kernel.KT
	if !(a > 0) || !(kT > 0) {
		panic(fmt.Sprintf("marginal beta: A and kT must be positive, got A=%g kT=%g", a, kT))
	}
	if !(energy > 0) || math.IsInf(energy, 0) {
		panic(fmt.Sprintf("marginal beta: energy must be positive and finite, got %g", energy))
	}
	sigma := kernel.ZeroTemperature.Evaluate(energy)
	if !(sigma > 0) {
		return nil, fmt.Errorf("%w: zero temperature cross section %g at E=%g", ErrNoScattering, sigma, energy)
	}

	m := &MarginalBetaFunction{
		kernel:           kernel,
		quad:             quad,
		integrator:       quad,
		thermalThreshold: thermalThreshold,
		energy:           energy,
		betaMin:          kinematics.BetaMin(energy, kT),
		betaMax:          kinematics.BetaMax(a),
	}
	// the integral is sigma0 psi for isotropic scattering, keep the tolerance below it
	if expected := sigma * ScalingFactor(energy, a, kT); expected < 1. {
		m.integrator.AbsoluteTolerance *= expected
	}

	edges := slices.Concat([]float64{m.betaMin}, breakpoints(m.betaMin, m.betaMax, energy, a, kT), []float64{m.betaMax})
	partial := make([]float64, len(edges)-1)
	for i := range partial {
		partial[i], _ = m.integrator.Integrate(m.IntegratedSAlphaBeta, edges[i], edges[i+1])
		m.normConstant += partial[i]
	}
	if !(m.normConstant > 0) || math.IsInf(m.normConstant, 0) {
		return nil, fmt.Errorf("%w: %g at E=%g", ErrNoScattering, m.normConstant, energy)
	}

	m.cache = make([]cdfPoint, 0, len(edges)+1)
	m.cache = append(m.cache, cdfPoint{m.betaMin, 0.})
	cumulative := 0.
	for i, beta := range edges[1 : len(edges)-1] {
		cumulative += partial[i]
		m.cache = append(m.cache, cdfPoint{beta, cumulative / m.normConstant})
	}
	m.cache = append(m.cache, cdfPoint{math.Inf(1), 1.})
	return m, nil
}

// breakpoints are zero and the points at 4^k times the energy transfer width
// of a heavy target, 2 sqrt(E/(A kT)), on both sides of it, strictly inside
// (betaMin, betaMax).
func breakpoints(betaMin, betaMax, energy, atomicWeightRatio, kT float64) []float64 {
	width := 2. * math.Sqrt(energy/(atomicWeightRatio*kT))
	var points []float64
	for b := -width; b > betaMin; b *= 4. {
		points = append(points, b)
	}
	slices.Reverse(points)
	points = append(points, 0.)
	for b := width; b < betaMax; b *= 4. {
		points = append(points, b)
	}
	return points
}

// WithEnergy builds a new function for another incoming energy. The kernel is
// shared, the receiver is left untouched.
func (m *MarginalBetaFunction) WithEnergy(energy float64) (*MarginalBetaFunction, error) {
	return NewMarginalBetaFunction(m.kernel, energy, m.quad, m.thermalThreshold)
}

func (m *MarginalBetaFunction) checkBeta(beta float64) {
	if math.IsNaN(beta) || beta < m.betaMin {
		panic(fmt.Sprintf("marginal beta: beta %g below beta min %g", beta, m.betaMin))
	}
}

// IntegratedSAlphaBeta integrates the kernel over the alpha range allowed at beta.
func (m *MarginalBetaFunction) IntegratedSAlphaBeta(beta float64) float64 {
	m.checkBeta(beta)
	a, kT := m.kernel.AtomicWeightRatio, m.kernel.KT
	alphaMin := kinematics.AlphaMin(m.energy, beta, a, kT)
	alphaMax := kinematics.AlphaMax(m.energy, beta, a, kT)
	if alphaMax <= alphaMin {
		return 0.
	}
	value, _ := m.integrator.Integrate(func(alpha float64) float64 {
		return m.kernel.Evaluate(alpha, beta, m.energy)
	}, alphaMin, alphaMax)
	if math.IsNaN(value) || math.IsInf(value, 0) {
		panic(fmt.Sprintf("marginal beta: integral over alpha is %g at beta=%g E=%g", value, beta, m.energy))
	}
	return value
}

func (m *MarginalBetaFunction) PDF(beta float64) float64 {
	m.checkBeta(beta)
	if beta <= m.betaMin || beta >= m.betaMax {
		return 0.
	}
	return m.IntegratedSAlphaBeta(beta) / m.normConstant
}

// CDF integrates the PDF from the closest cached point below beta and caches
// the result. Values above betaMax stay at the betaMax value.
func (m *MarginalBetaFunction) CDF(beta float64) float64 {
	m.checkBeta(beta)
	i := sort.Search(len(m.cache), func(k int) bool { return m.cache[k].beta > beta }) - 1
	lower := m.cache[i]
	if lower.beta == beta {
		return lower.value
	}

	value := lower.value
	if upper := math.Min(beta, m.betaMax); upper > lower.beta {
		increment, _ := m.integrator.Integrate(m.IntegratedSAlphaBeta, lower.beta, upper)
		value += increment / m.normConstant
	}
	// keep the cache monotone against quadrature noise
	value = math.Max(lower.value, math.Min(value, m.cache[i+1].value))

	m.cache = slices.Insert(m.cache, i+1, cdfPoint{beta, value})
	return value
}

// NormalizationConstant is the marginal integral corrected for the part of
// the distribution above the thermal threshold. It is the free gas cross
// section at the energy of m.
func (m *MarginalBetaFunction) NormalizationConstant() float64 {
	return m.normConstant / m.CDF((m.thermalThreshold-m.energy)/m.kernel.KT)
}

func (m *MarginalBetaFunction) beta(outgoingEnergy float64) float64 {
	return (outgoingEnergy - m.energy) / m.kernel.KT
}

// PopulateCDF evaluates the CDF at every outgoing energy of the grid and
// normalizes the table to end at 1.
func (m *MarginalBetaFunction) PopulateCDF(grid []float64) []float64 {
	cdf := make([]float64, len(grid))
	for j, e := range grid {
		cdf[j] = m.CDF(m.beta(e))
	}
	rescaleToLast(cdf, cdf)
	return cdf
}

// PopulatePDF evaluates the PDF at every outgoing energy of the grid. The
// table is divided by the last entry of cdf, which is the table PopulateCDF
// returned for the same grid.
func (m *MarginalBetaFunction) PopulatePDF(grid, cdf []float64) []float64 {
	pdf := make([]float64, len(grid))
	for j, e := range grid {
		if beta := m.beta(e); beta <= m.betaMax {
			pdf[j] = m.PDF(beta)
		}
	}
	rescaleToLast(pdf, cdf)
	return pdf
}

func (m *MarginalBetaFunction) PopulatePDFAndCDF(grid []float64) (pdf, cdf []float64) {
	cdf = m.PopulateCDF(grid)
	return m.PopulatePDF(grid, cdf), cdf
}

// rescaleToLast divides table by the last entry of reference unless it is
// exactly 1 or cannot be divided by.
func rescaleToLast(table, reference []float64) {
	if len(reference) == 0 {
		return
	}
	last := reference[len(reference)-1]
	if last == 1. || !(last > 0) {
		return
	}
	for j := range table {
		table[j] /= last
	}
}

func (m *MarginalBetaFunction) Energy() float64                   { return m.energy }
func (m *MarginalBetaFunction) BetaMin() float64                  { return m.betaMin }
func (m *MarginalBetaFunction) BetaMax() float64                  { return m.betaMax }
func (m *MarginalBetaFunction) RawNormalizationConstant() float64 { return m.normConstant }
func (m *MarginalBetaFunction) CacheSize() int                    { return len(m.cache) }
