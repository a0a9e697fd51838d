package freegas

import (
	"math"

	"github.com/wildstyl3r/freegas/internal/distribution"
)

// SAlphaBeta is the free gas scattering law weighted by the zero temperature
// cross section and the centre-of-mass angular distribution. It is read-only
// and shared by every MarginalBetaFunction built from it.
type SAlphaBeta struct {
	AtomicWeightRatio float64
	KT                float64
	ZeroTemperature   *distribution.Tabular
	Angular           distribution.Angular
}

// Evaluate is zero for non-positive alpha. The law is scaled by
// (A+1)^2 kT/(4AE) so that its integral over the kinematically allowed
// (alpha, beta) region is the free gas cross section at E: sigma0(E) psi(a)
// for isotropic scattering.
func (s *SAlphaBeta) Evaluate(alpha, beta, energy float64) float64 {
	if alpha <= 0 {
		return 0.
	}
	a := s.AtomicWeightRatio
	ap1 := a + 1.

	mu := 1. - alpha*s.KT*ap1*ap1/(2.*a*energy)
	mu = math.Max(-1., math.Min(1., mu))

	scale := ap1 * ap1 * s.KT / (4. * a * energy)
	law := math.Exp(-(alpha+beta)*(alpha+beta)/(4.*alpha)) / math.Sqrt(4.*math.Pi*alpha)
	return scale * s.ZeroTemperature.Evaluate(energy) * 2. * s.Angular.PDF(energy, mu) * law
}
