// Package freegas generates free gas thermal elastic cross sections and
// outgoing energy distributions from zero temperature nuclear data.
package freegas

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"math"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/wildstyl3r/freegas/internal/constants"
	"github.com/wildstyl3r/freegas/internal/distribution"
	"github.com/wildstyl3r/freegas/internal/kinematics"
	"github.com/wildstyl3r/freegas/internal/nucleardata"
	"github.com/wildstyl3r/freegas/internal/quadrature"
)

var (
	ErrEmptyMap           = errors.New("free gas: energy distribution map is empty")
	ErrNoThermalEnergies  = errors.New("free gas: no grid energy below the thermal threshold")
	ErrInvalidNuclideData = errors.New("free gas: invalid nuclide data")
)

// NuclideThermalParameters are fixed per nuclide and temperature.
type NuclideThermalParameters struct {
	AtomicWeightRatio float64
	KT                float64
	// above it the zero temperature cross section is used as is
	EnergyCutoff float64
}

func NewNuclideThermalParameters(atomicWeightRatio, kT float64) (NuclideThermalParameters, error) {
	if !(atomicWeightRatio > 0) || math.IsInf(atomicWeightRatio, 0) {
		return NuclideThermalParameters{}, fmt.Errorf("%w: atomic weight ratio %g", ErrInvalidNuclideData, atomicWeightRatio)
	}
	if !(kT > 0) || math.IsInf(kT, 0) {
		return NuclideThermalParameters{}, fmt.Errorf("%w: kT %g", ErrInvalidNuclideData, kT)
	}
	return NuclideThermalParameters{
		AtomicWeightRatio: atomicWeightRatio,
		KT:                kT,
		EnergyCutoff:      kinematics.EnergyCutoff(atomicWeightRatio, kT),
	}, nil
}

// EnergyPDFPair is one point of an outgoing energy PDF.
type EnergyPDFPair struct {
	Energy float64
	PDF    float64
}

type Option func(*CrossSectionFactory)

func WithLogger(logger *slog.Logger) Option {
	return func(f *CrossSectionFactory) {
		if logger != nil {
			f.logger = logger
		}
	}
}

func WithQuadrature(quad quadrature.GaussKronrod) Option {
	return func(f *CrossSectionFactory) { f.quad = quad }
}

func WithThermalThreshold(threshold float64) Option {
	return func(f *CrossSectionFactory) { f.thermalThreshold = threshold }
}

// WithConcurrency spreads the per-energy work over n goroutines, each owning
// its own MarginalBetaFunction.
func WithConcurrency(n int) Option {
	return func(f *CrossSectionFactory) {
		if n > 0 {
			f.concurrency = n
		}
	}
}

// CrossSectionFactory drives the generation of free gas data for one nuclide.
type CrossSectionFactory struct {
	logger           *slog.Logger
	quad             quadrature.GaussKronrod
	thermalThreshold float64
	concurrency      int

	name            string
	params          NuclideThermalParameters
	energy          []float64
	crossSection    []float64
	angular         distribution.Angular
	zeroTemperature *distribution.Tabular
	thermalEnergies []float64

	freeGasCrossSection             []float64
	freeGasCrossSectionDistribution *distribution.Tabular

	pdfMap             map[float64][]EnergyPDFPair
	energyDistribution *distribution.EnergyDistribution
}

// NewCrossSectionFactory loads the nuclear data and builds the zero
// temperature cross section. Data without angular information scatters
// isotropically.
func NewCrossSectionFactory(src nucleardata.Source, opts ...Option) (*CrossSectionFactory, error) {
	f := &CrossSectionFactory{
		logger:           slog.Default(),
		quad:             quadrature.Default(),
		thermalThreshold: constants.ThermalEnergyThreshold,
		concurrency:      1,
		pdfMap:           map[float64][]EnergyPDFPair{},
	}
	for _, opt := range opts {
		opt(f)
	}
	if err := f.quad.Validate(); err != nil {
		return nil, err
	}

	data, err := src.Load()
	if err != nil {
		return nil, fmt.Errorf("loading nuclear data: %w", err)
	}
	if err := data.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidNuclideData, err)
	}
	f.params, err = NewNuclideThermalParameters(data.AtomicWeightRatio, data.KT)
	if err != nil {
		return nil, fmt.Errorf("nuclide %q: %w", data.Name, err)
	}

	f.name = data.Name
	f.energy = slices.Clone(data.Energy)
	f.crossSection = slices.Clone(data.ElasticCrossSection)
	f.angular = data.Angular
	if f.angular == nil {
		f.angular = distribution.Isotropic{}
	}
	f.thermalEnergies = ThermalSubgrid(f.energy, f.thermalThreshold)
	if len(f.thermalEnergies) == 0 {
		return nil, fmt.Errorf("nuclide %q: %w (threshold %g)", data.Name, ErrNoThermalEnergies, f.thermalThreshold)
	}
	f.zeroTemperature = BuildZeroTemperatureCrossSection(f.energy, f.crossSection, f.params.AtomicWeightRatio, f.params.KT)

	f.logger.Info("nuclear data loaded",
		"nuclide", f.name,
		"A", f.params.AtomicWeightRatio,
		"kT", f.params.KT,
		"energy_cutoff", f.params.EnergyCutoff,
		"grid_points", len(f.energy),
		"thermal_points", len(f.thermalEnergies),
	)
	return f, nil
}

// ThermalSubgrid keeps the energies not above threshold, in order.
func ThermalSubgrid(energy []float64, threshold float64) []float64 {
	thermal := make([]float64, 0, len(energy))
	for _, e := range energy {
		if e <= threshold {
			thermal = append(thermal, e)
		}
	}
	return thermal
}

func (f *CrossSectionFactory) kernel(kT float64) *SAlphaBeta {
	if !(kT > 0) {
		panic(fmt.Sprintf("free gas: kT must be positive, got %g", kT))
	}
	return &SAlphaBeta{
		AtomicWeightRatio: f.params.AtomicWeightRatio,
		KT:                kT,
		ZeroTemperature:   f.zeroTemperature,
		Angular:           f.angular,
	}
}

func (f *CrossSectionFactory) marginalBeta(kT, energy float64) (*MarginalBetaFunction, error) {
	return NewMarginalBetaFunction(f.kernel(kT), energy, f.quad, f.thermalThreshold)
}

// forEachThermalEnergy calls fn for every thermal energy, concurrently when
// the factory was given a concurrency above one. fn must only write to its own index.
func (f *CrossSectionFactory) forEachThermalEnergy(fn func(i int, energy float64) error) error {
	if f.concurrency <= 1 {
		for i, e := range f.thermalEnergies {
			if err := fn(i, e); err != nil {
				return err
			}
		}
		return nil
	}
	var g errgroup.Group
	g.SetLimit(f.concurrency)
	for i, e := range f.thermalEnergies {
		g.Go(func() error { return fn(i, e) })
	}
	return g.Wait()
}

// FreeGasCrossSectionAt is the free gas cross section at energy for kT. Above
// the energy cutoff for kT the correction is dropped.
func (f *CrossSectionFactory) FreeGasCrossSectionAt(energy, kT float64) (float64, error) {
	if energy > f.EnergyCutoff(kT) {
		return f.zeroTemperature.Evaluate(energy), nil
	}
	beta, err := f.marginalBeta(kT, energy)
	if err != nil {
		return 0, err
	}
	return beta.NormalizationConstant(), nil
}

// GenerateFreeGasCrossSection evaluates the free gas cross section over the
// thermal subgrid. Any failure discards the whole pass.
func (f *CrossSectionFactory) GenerateFreeGasCrossSection(kT float64) error {
	f.logger.Info("generating free gas cross section", "nuclide", f.name, "kT", kT)
	xs := make([]float64, len(f.thermalEnergies))
	err := f.forEachThermalEnergy(func(i int, e float64) error {
		value, err := f.FreeGasCrossSectionAt(e, kT)
		if err != nil {
			return err
		}
		f.logger.Debug("free gas cross section", "energy", e, "xs", value)
		xs[i] = value
		return nil
	})
	if err != nil {
		return fmt.Errorf("nuclide %q: %w", f.name, err)
	}
	f.freeGasCrossSection = xs
	f.freeGasCrossSectionDistribution = distribution.NewTabular(f.thermalEnergies, xs)
	return nil
}

// GenerateFreeGasPDF tabulates the outgoing energy PDF for an incoming energy
// over the thermal subgrid, using the data temperature.
func (f *CrossSectionFactory) GenerateFreeGasPDF(energy float64) ([]float64, error) {
	beta, err := f.marginalBeta(f.params.KT, energy)
	if err != nil {
		return nil, err
	}
	pdf, _ := beta.PopulatePDFAndCDF(f.thermalEnergies)
	return pdf, nil
}

func (f *CrossSectionFactory) GenerateFreeGasCDF(energy float64) ([]float64, error) {
	beta, err := f.marginalBeta(f.params.KT, energy)
	if err != nil {
		return nil, err
	}
	return beta.PopulateCDF(f.thermalEnergies), nil
}

// GenerateFreeGasPDFDistributions builds an outgoing energy PDF for every
// thermal energy at kT and assembles them into the energy distribution.
func (f *CrossSectionFactory) GenerateFreeGasPDFDistributions(kT float64) error {
	f.logger.Info("generating free gas energy distributions", "nuclide", f.name, "kT", kT, "energies", len(f.thermalEnergies))
	pdfs := make([][]float64, len(f.thermalEnergies))
	err := f.forEachThermalEnergy(func(i int, e float64) error {
		beta, err := f.marginalBeta(kT, e)
		if err != nil {
			return err
		}
		pdfs[i], _ = beta.PopulatePDFAndCDF(f.thermalEnergies)
		f.logger.Debug("free gas pdf", "energy", e, "cache_size", beta.CacheSize())
		return nil
	})
	if err != nil {
		return fmt.Errorf("nuclide %q: %w", f.name, err)
	}

	pdfMap := make(map[float64][]EnergyPDFPair, len(pdfs))
	for i, e := range f.thermalEnergies {
		pairs := make([]EnergyPDFPair, len(f.thermalEnergies))
		for j, outgoing := range f.thermalEnergies {
			pairs[j] = EnergyPDFPair{Energy: outgoing, PDF: pdfs[i][j]}
		}
		// equal energies overwrite
		pdfMap[e] = pairs
	}
	f.pdfMap = pdfMap
	return f.ReconstructDistribution()
}

// ReconstructDistribution rebuilds the energy distribution from the PDF map.
func (f *CrossSectionFactory) ReconstructDistribution() error {
	dist, err := DistributionFromMap(f.pdfMap)
	if err != nil {
		return err
	}
	f.energyDistribution = dist
	return nil
}

// DistributionFromMap builds the energy distribution of a PDF map, ordered by
// incoming energy.
func DistributionFromMap(pdfMap map[float64][]EnergyPDFPair) (*distribution.EnergyDistribution, error) {
	if len(pdfMap) == 0 {
		return nil, ErrEmptyMap
	}
	incoming := slices.Sorted(maps.Keys(pdfMap))
	tables := make([]*distribution.Tabular, len(incoming))
	for i, e := range incoming {
		x, y := splitPairs(pdfMap[e])
		tables[i] = distribution.NewTabular(x, y)
	}
	return distribution.NewEnergyDistribution(incoming, tables), nil
}

func splitPairs(pairs []EnergyPDFPair) (x, y []float64) {
	x = make([]float64, len(pairs))
	y = make([]float64, len(pairs))
	for i, p := range pairs {
		x[i], y[i] = p.Energy, p.PDF
	}
	return x, y
}

// SerializeMapOut writes the PDF map of temperature T (K) into dir and
// returns the archive path.
func (f *CrossSectionFactory) SerializeMapOut(temperature float64, dir, prefix string) (string, error) {
	path := ArchivePath(dir, prefix, temperature)
	if err := WriteArchive(path, f.pdfMap); err != nil {
		return "", err
	}
	f.logger.Info("energy distribution archived", "nuclide", f.name, "path", path, "energies", len(f.pdfMap))
	return path, nil
}

// SerializeMapIn replaces the PDF map with the archived one and rebuilds the
// energy distribution. Nothing else of the factory is restored.
func (f *CrossSectionFactory) SerializeMapIn(path string) error {
	pdfMap, err := ReadArchive(path)
	if err != nil {
		return err
	}
	f.pdfMap = pdfMap
	return f.ReconstructDistribution()
}

// CorrectionEnergy is the energy above which the free gas correction at kT
// is below tolerance.
func (f *CrossSectionFactory) CorrectionEnergy(tolerance, kT float64) float64 {
	return CorrectionNegligibleAbove(tolerance, f.params.AtomicWeightRatio, kT)
}

// EnergyCutoff is the energy above which FreeGasCrossSectionAt uses the zero
// temperature cross section at kT. Parameters().EnergyCutoff is its value at
// the data temperature.
func (f *CrossSectionFactory) EnergyCutoff(kT float64) float64 {
	return kinematics.EnergyCutoff(f.params.AtomicWeightRatio, kT)
}

func (f *CrossSectionFactory) Name() string                         { return f.name }
func (f *CrossSectionFactory) Parameters() NuclideThermalParameters { return f.params }

func (f *CrossSectionFactory) EnergyArray() []float64 { return slices.Clone(f.energy) }

func (f *CrossSectionFactory) UnmodifiedElasticCrossSection() []float64 {
	return slices.Clone(f.crossSection)
}

func (f *CrossSectionFactory) ZeroTemperatureElasticCrossSection() *distribution.Tabular {
	return f.zeroTemperature
}

func (f *CrossSectionFactory) ThermalEnergies() []float64 { return slices.Clone(f.thermalEnergies) }

// FreeGasCrossSection is nil before GenerateFreeGasCrossSection.
func (f *CrossSectionFactory) FreeGasCrossSection() []float64 {
	return slices.Clone(f.freeGasCrossSection)
}

func (f *CrossSectionFactory) FreeGasCrossSectionDistribution() *distribution.Tabular {
	return f.freeGasCrossSectionDistribution
}

func (f *CrossSectionFactory) EnergyDistribution() *distribution.EnergyDistribution {
	return f.energyDistribution
}

func (f *CrossSectionFactory) PDFMap() map[float64][]EnergyPDFPair {
	out := make(map[float64][]EnergyPDFPair, len(f.pdfMap))
	for e, pairs := range f.pdfMap {
		out[e] = slices.Clone(pairs)
	}
	return out
}

// SetPDFMap replaces the PDF map, as if it had been generated.
func (f *CrossSectionFactory) SetPDFMap(pdfMap map[float64][]EnergyPDFPair) {
	f.pdfMap = make(map[float64][]EnergyPDFPair, len(pdfMap))
	for e, pairs := range pdfMap {
		f.pdfMap[e] = slices.Clone(pairs)
	}
}
