// Package kinematics holds the free gas scattering variable bounds. Energies
// and kT share one unit, alpha and beta are dimensionless.
package kinematics

import (
	"math"

	"github.com/wildstyl3r/freegas/internal/constants"
)

// BetaMin is the lowest energy transfer: the projectile loses all its energy.
func BetaMin(energy, kT float64) float64 {
	return -energy / kT
}

// BetaMax bounds the energy gain. Light targets can hand over more of their
// thermal energy per collision, so the bound grows as A decreases.
func BetaMax(atomicWeightRatio float64) float64 {
	return constants.BetaMaxScale * (atomicWeightRatio + 1.) / atomicWeightRatio
}

// EnergyCutoff is the energy above which the free gas correction is dropped.
func EnergyCutoff(atomicWeightRatio, kT float64) float64 {
	return BetaMax(atomicWeightRatio) * kT
}

func outgoingRoot(energy, beta, kT float64) float64 {
	energyOut := math.FMA(beta, kT, energy)
	if energyOut < 0. {
		energyOut = 0.
	}
	return math.Sqrt(energyOut)
}

func AlphaMin(energy, beta, atomicWeightRatio, kT float64) float64 {
	d := math.Sqrt(energy) - outgoingRoot(energy, beta, kT)
	return d * d / (atomicWeightRatio * kT)
}

func AlphaMax(energy, beta, atomicWeightRatio, kT float64) float64 {
	s := math.Sqrt(energy) + outgoingRoot(energy, beta, kT)
	return s * s / (atomicWeightRatio * kT)
}
