package distribution

import (
	"fmt"
	"math/rand"
)

// EnergyDistribution gives the outgoing energy PDF for an incoming energy.
// Between grid energies the table of the lower one is used.
type EnergyDistribution struct {
	incoming []float64
	outgoing []*Tabular
}

func NewEnergyDistribution(incoming []float64, outgoing []*Tabular) *EnergyDistribution {
	if len(incoming) != len(outgoing) {
		panic(fmt.Sprintf("energy distribution: %d incoming energies for %d tables", len(incoming), len(outgoing)))
	}
	if len(incoming) == 0 {
		panic("energy distribution: no incoming energies")
	}
	for i := 1; i < len(incoming); i++ {
		if incoming[i] <= incoming[i-1] {
			panic(fmt.Sprintf("energy distribution: incoming energies not ascending at %d", i))
		}
	}
	return &EnergyDistribution{
		incoming: append([]float64(nil), incoming...),
		outgoing: append([]*Tabular(nil), outgoing...),
	}
}

func (d *EnergyDistribution) Table(incomingEnergy float64) *Tabular {
	return d.outgoing[lowerBin(d.incoming, incomingEnergy)]
}

func (d *EnergyDistribution) Evaluate(incomingEnergy, outgoingEnergy float64) float64 {
	return d.Table(incomingEnergy).Evaluate(outgoingEnergy)
}

func (d *EnergyDistribution) EvaluatePDF(incomingEnergy, outgoingEnergy float64) float64 {
	return d.Table(incomingEnergy).EvaluatePDF(outgoingEnergy)
}

func (d *EnergyDistribution) Sample(incomingEnergy float64, rng *rand.Rand) float64 {
	return d.Table(incomingEnergy).Sample(rng)
}

func (d *EnergyDistribution) IncomingEnergies() []float64 {
	return append([]float64(nil), d.incoming...)
}

func (d *EnergyDistribution) Len() int { return len(d.incoming) }
