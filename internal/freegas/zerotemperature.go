package freegas

import (
	"fmt"
	"math"

	"github.com/wildstyl3r/freegas/internal/distribution"
	"github.com/wildstyl3r/freegas/internal/utils"
)

// ScalingFactor is the ratio of the free gas cross section at temperature kT
// to a constant zero temperature cross section, with a = sqrt(E*A/kT).
func ScalingFactor(energy, atomicWeightRatio, kT float64) float64 {
	if !(energy > 0) {
		panic(fmt.Sprintf("scaling factor: energy must be positive, got %g", energy))
	}
	a2 := energy * atomicWeightRatio / kT
	a := math.Sqrt(a2)
	return (1.+0.5/a2)*math.Erf(a) + math.Exp(-a2)/(a*math.SqrtPi)
}

// CorrectionNegligibleAbove is the energy above which ScalingFactor-1 stays
// below tolerance.
func CorrectionNegligibleAbove(tolerance, atomicWeightRatio, kT float64) float64 {
	if !(tolerance >= 1e-12) {
		panic(fmt.Sprintf("scaling factor: tolerance %g below 1e-12", tolerance))
	}
	reference := kT / atomicWeightRatio
	// psi - 1 falls monotonically with energy, search in log energy
	_, logEnergy := utils.BinarySearch(func(logEnergy float64) bool {
		return ScalingFactor(math.Exp(logEnergy), atomicWeightRatio, kT)-1. <= tolerance
	}, math.Log(reference*1e-6), math.Log(reference*1e14), 1e-10)
	return math.Exp(logEnergy)
}

// BuildZeroTemperatureCrossSection removes the Doppler broadening of a
// cross section tabulated at kT.
func BuildZeroTemperatureCrossSection(energy, crossSection []float64, atomicWeightRatio, kT float64) *distribution.Tabular {
	if len(energy) != len(crossSection) {
		panic(fmt.Sprintf("zero temperature cross section: %d energies for %d values", len(energy), len(crossSection)))
	}
	zeroTemperature := make([]float64, len(energy))
	for i, e := range energy {
		zeroTemperature[i] = crossSection[i] / ScalingFactor(e, atomicWeightRatio, kT)
	}
	return distribution.NewTabular(energy, zeroTemperature)
}
