// Package nucleardata reads the elastic scattering data the free gas engine
// starts from.
package nucleardata

import (
	"errors"
	"fmt"
	"math"

	"github.com/wildstyl3r/freegas/internal/distribution"
)

var (
	ErrBinaryACE     = errors.New("binary ACE tables are not supported")
	ErrTableNotFound = errors.New("ACE table not found")
	ErrNoElastic     = errors.New("no elastic cross section")
)

// NuclearData is the elastic data of one nuclide at one temperature. Energies
// and KT are in MeV. Angular is nil for isotropic centre-of-mass scattering.
type NuclearData struct {
	Name                string
	AtomicWeightRatio   float64
	KT                  float64
	Energy              []float64
	ElasticCrossSection []float64
	Angular             distribution.Angular
}

type Source interface {
	Load() (NuclearData, error)
}

// Load lets in-memory data act as a Source.
func (d NuclearData) Load() (NuclearData, error) {
	return d, d.Validate()
}

// Validate checks the grid is positive, strictly ascending and matches the
// cross section.
func (d NuclearData) Validate() error {
	if len(d.Energy) == 0 {
		return fmt.Errorf("%s: empty energy grid", d.Name)
	}
	if len(d.Energy) != len(d.ElasticCrossSection) {
		return fmt.Errorf("%s: %d energies for %d cross section values", d.Name, len(d.Energy), len(d.ElasticCrossSection))
	}
	for i, e := range d.Energy {
		if !(e > 0) || math.IsInf(e, 0) {
			return fmt.Errorf("%s: energy %d is %g", d.Name, i, e)
		}
		if i > 0 && e <= d.Energy[i-1] {
			return fmt.Errorf("%s: energy grid not ascending at %d", d.Name, i)
		}
		if xs := d.ElasticCrossSection[i]; xs < 0 || math.IsNaN(xs) || math.IsInf(xs, 0) {
			return fmt.Errorf("%s: cross section %d is %g", d.Name, i, xs)
		}
	}
	return nil
}
