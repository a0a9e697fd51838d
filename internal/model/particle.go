package model

import (
	"fmt"
	"math"
	"math/rand"
)

type Particle struct {
	energy     float64 // [MeV]
	collisions int

	origin int
	rng    *rand.Rand
}

// newParticle seeds every history on its own, so the outcome of a history
// does not depend on the worker that runs it.
func (m *Model) newParticle(origin int) Particle {
	return Particle{
		energy: m.Parameters.SourceEnergy,
		origin: origin,
		rng:    rand.New(rand.NewSource(m.Parameters.Seed + int64(origin))),
	}
}

func (p *Particle) setEnergy(energy float64) {
	if math.IsNaN(energy) || energy < 0 {
		panic(fmt.Sprintf("particle %d: energy %g after collision %d", p.origin, energy, p.collisions))
	}
	p.energy = energy
}
