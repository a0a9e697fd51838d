package model

import "math/rand"

type ScatteringFunction func(energy float64, rng *rand.Rand) (energyAfter float64)

// thermal samples the free gas outgoing energy distribution.
func (m *Model) thermal(energy float64, rng *rand.Rand) float64 {
	return m.dist.Sample(energy, rng)
}

// slowingDown is isotropic centre-of-mass scattering off a target at rest:
// the outgoing energy is uniform in [alpha*E, E].
func (m *Model) slowingDown(energy float64, rng *rand.Rand) float64 {
	a := m.Parameters.AtomicWeightRatio
	alpha := (a - 1.) * (a - 1.) / ((a + 1.) * (a + 1.))
	return energy * (alpha + (1.-alpha)*rng.Float64())
}

func (m *Model) scatteringSelector(energy float64) ScatteringFunction {
	if energy > m.thermalLimit {
		return m.slowingDown
	}
	return m.thermal
}
