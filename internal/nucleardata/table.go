package nucleardata

import (
	"fmt"

	"github.com/wildstyl3r/freegas/internal/constants"
	"github.com/wildstyl3r/freegas/internal/utils"
)

// TwoColumn reads a plain energy / elastic cross section listing. Energies
// are multiplied by EnergyScale to get MeV; cross sections are taken as barns.
// Scattering is isotropic.
type TwoColumn struct {
	FileName          string
	Name              string
	AtomicWeightRatio float64
	Temperature       float64 // [K]
	EnergyScale       float64
}

func (c TwoColumn) Load() (NuclearData, error) {
	if !(c.AtomicWeightRatio > 0) {
		return NuclearData{}, fmt.Errorf("table %s: atomic weight ratio must be positive, got %g", c.FileName, c.AtomicWeightRatio)
	}
	pairs, err := utils.ReadFloatPairs(c.FileName)
	if err != nil {
		return NuclearData{}, fmt.Errorf("table %s: %w", c.FileName, err)
	}
	scale := c.EnergyScale
	if scale == 0 {
		scale = 1
	}

	name := c.Name
	if name == "" {
		name = utils.GetFilename(c.FileName)
	}
	data := NuclearData{
		Name:                name,
		AtomicWeightRatio:   c.AtomicWeightRatio,
		KT:                  constants.KBolzmannMeV * c.Temperature,
		Energy:              make([]float64, len(pairs)),
		ElasticCrossSection: make([]float64, len(pairs)),
	}
	for i, pair := range pairs {
		data.Energy[i] = pair[0] * scale
		data.ElasticCrossSection[i] = pair[1]
	}
	return data, data.Validate()
}
