package distribution

import (
	"fmt"
	"sort"
)

// Angular is a distribution of the centre-of-mass scattering cosine that may
// depend on the incoming energy. PDF is normalized over mu in [-1, 1].
type Angular interface {
	PDF(energy, mu float64) float64
}

// CosineDistribution is a single cosine table.
type CosineDistribution interface {
	EvaluatePDF(mu float64) float64
}

type Isotropic struct{}

func (Isotropic) PDF(_, mu float64) float64 {
	if mu < -1 || mu > 1 {
		return 0.
	}
	return 0.5
}

// EquiprobableBins is a histogram in which every bin carries the same probability.
type EquiprobableBins struct {
	boundaries []float64
}

func NewEquiprobableBins(boundaries []float64) *EquiprobableBins {
	if len(boundaries) < 2 {
		panic(fmt.Sprintf("equiprobable bins: need at least 2 boundaries, got %d", len(boundaries)))
	}
	for i := 1; i < len(boundaries); i++ {
		if boundaries[i] < boundaries[i-1] {
			panic(fmt.Sprintf("equiprobable bins: boundaries not sorted at %d", i))
		}
	}
	return &EquiprobableBins{boundaries: append([]float64(nil), boundaries...)}
}

func (b *EquiprobableBins) Boundaries() []float64 {
	return append([]float64(nil), b.boundaries...)
}

func (b *EquiprobableBins) EvaluatePDF(mu float64) float64 {
	n := len(b.boundaries)
	if mu < b.boundaries[0] || mu > b.boundaries[n-1] {
		return 0.
	}
	i := sort.SearchFloat64s(b.boundaries, mu)
	if i == n || b.boundaries[i] != mu {
		i--
	}
	if i > n-2 {
		i = n - 2
	}
	width := b.boundaries[i+1] - b.boundaries[i]
	if width <= 0 {
		return 0.
	}
	return 1. / (float64(n-1) * width)
}

// TabularAngular holds one cosine table per incoming energy. The table of the
// closest grid energy not above the incoming one is used, clamped at both ends.
type TabularAngular struct {
	energies []float64
	tables   []CosineDistribution
}

func NewTabularAngular(energies []float64, tables []CosineDistribution) *TabularAngular {
	if len(energies) != len(tables) || len(energies) == 0 {
		panic(fmt.Sprintf("tabular angular: %d energies for %d tables", len(energies), len(tables)))
	}
	for i := 1; i < len(energies); i++ {
		if energies[i] <= energies[i-1] {
			panic(fmt.Sprintf("tabular angular: energies not ascending at %d", i))
		}
	}
	return &TabularAngular{
		energies: append([]float64(nil), energies...),
		tables:   append([]CosineDistribution(nil), tables...),
	}
}

func (a *TabularAngular) PDF(energy, mu float64) float64 {
	return a.tables[lowerBin(a.energies, energy)].EvaluatePDF(mu)
}

func (a *TabularAngular) Energies() []float64 {
	return append([]float64(nil), a.energies...)
}

// lowerBin is the index of the last grid value not above v, clamped to the grid.
func lowerBin(grid []float64, v float64) int {
	i := sort.Search(len(grid), func(k int) bool { return grid[k] > v }) - 1
	if i < 0 {
		return 0
	}
	return i
}
