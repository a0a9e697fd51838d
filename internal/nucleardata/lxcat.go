package nucleardata

import (
	"fmt"

	"github.com/wildstyl3r/lxgata"
	"gonum.org/v1/gonum/floats"

	"github.com/wildstyl3r/freegas/internal/constants"
)

// LXCat takes the elastic cross section of an LXCat collision file and
// resamples it on a log-spaced grid. The file holds eV and m^2, which are
// converted to MeV and barns. Scattering is isotropic.
type LXCat struct {
	FileName    string
	Species     string
	Temperature float64 // [K]
	// derived from the collision mass ratio when zero
	AtomicWeightRatio float64
	GridPoints        int
	MinEnergy         float64 // [eV]
	MaxEnergy         float64 // [eV]
}

func (l LXCat) Load() (NuclearData, error) {
	if l.GridPoints < 2 {
		return NuclearData{}, fmt.Errorf("lxcat %s: need at least 2 grid points, got %d", l.FileName, l.GridPoints)
	}
	if !(l.MinEnergy > 0) || !(l.MaxEnergy > l.MinEnergy) {
		return NuclearData{}, fmt.Errorf("lxcat %s: invalid energy range [%g, %g] eV", l.FileName, l.MinEnergy, l.MaxEnergy)
	}
	collisions, err := lxgata.LoadCrossSections(l.FileName)
	if err != nil {
		return NuclearData{}, fmt.Errorf("invalid cross section file: %w", err)
	}

	var elastic *lxgata.Collision
	for i := range collisions {
		if collisions[i].Type == lxgata.ELASTIC {
			elastic = &collisions[i]
			break
		}
	}
	if elastic == nil {
		return NuclearData{}, fmt.Errorf("lxcat %s: %w", l.FileName, ErrNoElastic)
	}

	a := l.AtomicWeightRatio
	if a == 0 {
		if !(elastic.MassRatio > 0) {
			return NuclearData{}, fmt.Errorf("lxcat %s: elastic collision has mass ratio %g", l.FileName, elastic.MassRatio)
		}
		a = 1. / elastic.MassRatio
	}

	energyEV := make([]float64, l.GridPoints)
	floats.LogSpan(energyEV, l.MinEnergy, l.MaxEnergy)
	crossSection := make([]float64, l.GridPoints)
	for i, e := range energyEV {
		crossSection[i] = elastic.CrossSectionAt(e) * constants.BarnsPerSquareMeter
	}
	energy := make([]float64, l.GridPoints)
	floats.ScaleTo(energy, 1./constants.MeV2eV, energyEV)

	name := l.Species
	if name == "" {
		name = l.FileName
	}
	data := NuclearData{
		Name:                name,
		AtomicWeightRatio:   a,
		KT:                  constants.KBolzmannMeV * l.Temperature,
		Energy:              energy,
		ElasticCrossSection: crossSection,
	}
	return data, data.Validate()
}
