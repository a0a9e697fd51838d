package main

import (
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"sort"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/wildstyl3r/freegas/internal/config"
	"github.com/wildstyl3r/freegas/internal/distribution"
	"github.com/wildstyl3r/freegas/internal/freegas"
	"github.com/wildstyl3r/freegas/internal/logging"
	"github.com/wildstyl3r/freegas/internal/model"
	"github.com/wildstyl3r/freegas/internal/utils"
)

// relative size of the free gas correction reported in the summary
const correctionTolerance = 1e-3

var (
	energyUnit = []config.UnitElement{{Class: config.Energy, Power: 1}}
	perEnergy  = []config.UnitElement{{Class: config.Energy, Power: -1}}
	areaUnit   = []config.UnitElement{{Class: config.Area, Power: 1}}
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	logger := logging.New(verbose, cmd.ErrOrStderr())
	cfg, meta, err := config.LoadConfig(inputFile)
	if err != nil {
		return err
	}
	names, err := cfg.Unify(&meta)
	if err != nil {
		return err
	}
	workers := cfg.Threads
	if cmd.Flags().Changed("threads") || workers < 1 {
		workers = threads
	}

	energyName := config.UnitName(config.Energy, cfg.OutputUnits)
	summary := make(utils.CSV, 0, len(names))
	for _, name := range names {
		row, err := generateNuclide(name, cfg.Nuclides[name], &cfg, workers, logger.With("nuclide", name))
		if err != nil {
			return err
		}
		summary = append(summary, row)
	}
	sort.Sort(summary)
	path, err := utils.WriteAsCSV(summary, cfg.OutputDir, ".", "summary", []string{
		"nuclide", "A", "T (K)",
		"kT (" + energyName + ")",
		"cutoff (" + energyName + ")",
		"correction below " + formatFloat(correctionTolerance) + " above (" + energyName + ")",
		"thermal points", "archive",
	})
	if err != nil {
		return err
	}
	logger.Info("summary written", "path", path, "nuclides", len(summary))
	return nil
}

func generateNuclide(name string, p config.NuclideParameters, cfg *config.Config, workers int, logger *slog.Logger) ([]string, error) {
	source, err := p.DataSource(name, cfg.InputUnits)
	if err != nil {
		return nil, err
	}
	factory, err := freegas.NewCrossSectionFactory(source,
		freegas.WithLogger(logger),
		freegas.WithQuadrature(p.Quadrature()),
		freegas.WithThermalThreshold(p.ThermalThreshold),
		freegas.WithConcurrency(workers),
	)
	if err != nil {
		return nil, fmt.Errorf("nuclide %q: %w", name, err)
	}
	kT := p.KT(factory.Parameters().KT)
	temperature := math.Round(config.TemperatureOf(kT)*10) / 10
	dir := filepath.Join(cfg.OutputDir, name)

	if err := factory.GenerateFreeGasCrossSection(kT); err != nil {
		return nil, err
	}
	if p.WriteCSV {
		if err := writeCrossSection(factory, dir, cfg.OutputUnits, logger); err != nil {
			return nil, err
		}
	}

	var archive string
	if p.GeneratePDF {
		if err := factory.GenerateFreeGasPDFDistributions(kT); err != nil {
			return nil, err
		}
		if archive, err = factory.SerializeMapOut(temperature, dir, p.ArchivePrefix); err != nil {
			return nil, err
		}
		if p.WriteCSV {
			if err := writeDistributions(factory.EnergyDistribution(), dir, cfg.OutputUnits, logger); err != nil {
				return nil, err
			}
		}
		if p.Thermalize {
			err := thermalize(factory.EnergyDistribution(), model.Parameters{
				SourceEnergy:      p.SourceEnergy,
				AtomicWeightRatio: factory.Parameters().AtomicWeightRatio,
				Histories:         p.Histories,
				Collisions:        p.Collisions,
				Threads:           workers,
				Bins:              p.Bins,
				Seed:              p.Seed,
			}, dir, name, generateOutputs, cfg.OutputUnits, logger)
			if err != nil {
				return nil, err
			}
		}
	}

	params := factory.Parameters()
	toOutput := func(e float64) string {
		return formatFloat(config.Convert(e, energyUnit, cfg.OutputUnits, false))
	}
	return []string{
		name,
		formatFloat(params.AtomicWeightRatio),
		formatFloat(temperature),
		toOutput(kT),
		toOutput(factory.EnergyCutoff(kT)),
		toOutput(factory.CorrectionEnergy(correctionTolerance, kT)),
		strconv.Itoa(len(factory.ThermalEnergies())),
		archive,
	}, nil
}

// writeCrossSection writes the data, zero temperature and free gas cross
// sections over the thermal subgrid.
func writeCrossSection(factory *freegas.CrossSectionFactory, dir string, units []string, logger *slog.Logger) error {
	thermal := factory.ThermalEnergies()
	data := factory.UnmodifiedElasticCrossSection()
	zero := factory.ZeroTemperatureElasticCrossSection()
	freeGas := factory.FreeGasCrossSection()

	rows := make(utils.CSV, len(thermal))
	for i, e := range thermal {
		rows[i] = []string{
			formatFloat(config.Convert(e, energyUnit, units, false)),
			formatFloat(config.Convert(data[i], areaUnit, units, false)),
			formatFloat(config.Convert(zero.Evaluate(e), areaUnit, units, false)),
			formatFloat(config.Convert(freeGas[i], areaUnit, units, false)),
		}
	}
	energyName, areaName := config.UnitName(config.Energy, units), config.UnitName(config.Area, units)
	path, err := utils.WriteAsCSV(rows, dir, ".", "cross_section", []string{
		"E (" + energyName + ")",
		"sigma (" + areaName + ")",
		"sigma_0 (" + areaName + ")",
		"sigma_free_gas (" + areaName + ")",
	})
	if err != nil {
		return err
	}
	logger.Debug("cross section saved", "path", path)
	return nil
}

// writeDistributions writes one column of outgoing energy PDF per incoming
// energy.
func writeDistributions(dist *distribution.EnergyDistribution, dir string, units []string, logger *slog.Logger) error {
	incoming := dist.IncomingEnergies()
	outgoing := dist.Table(incoming[0]).X()
	energyName := config.UnitName(config.Energy, units)

	columns := []string{"E' (" + energyName + ")"}
	pdfs := make([][]float64, len(incoming))
	for i, e := range incoming {
		columns = append(columns, "p(E'|E="+formatFloat(config.Convert(e, energyUnit, units, false))+")")
		table := dist.Table(e)
		pdfs[i] = make([]float64, len(outgoing))
		for j, eOut := range outgoing {
			pdfs[i][j] = table.Evaluate(eOut)
		}
	}
	rows := make(utils.CSV, len(outgoing))
	for j, eOut := range outgoing {
		rows[j] = []string{formatFloat(config.Convert(eOut, energyUnit, units, false))}
		for i := range incoming {
			rows[j] = append(rows[j], formatFloat(config.Convert(pdfs[i][j], perEnergy, units, false)))
		}
	}
	path, err := utils.WriteAsCSV(rows, dir, ".", "energy_distribution", columns)
	if err != nil {
		return err
	}
	logger.Debug("energy distributions saved", "path", path)
	return nil
}

func thermalize(dist *distribution.EnergyDistribution, parameters model.Parameters, dir, name string, outputs model.DataFlags, units []string, logger *slog.Logger) error {
	m, err := model.NewModel(dist, parameters, logger)
	if err != nil {
		return err
	}
	m.Run()
	de := model.NewDataExtractor(m)
	written, err := de.Save(dir, name, outputs, units)
	if err != nil {
		return err
	}
	meanEnergy := de.MeanEnergy()
	logger.Info("thermalization finished",
		"peak_energy", de.PeakEnergy(),
		"mean_energy", meanEnergy[len(meanEnergy)-1],
		"files", len(written),
	)
	return nil
}

func runThermalize(cmd *cobra.Command, _ []string) error {
	logger := logging.New(verbose, cmd.ErrOrStderr())
	units, err := config.ParseUnits(outputUnits)
	if err != nil {
		return err
	}
	pdfMap, err := freegas.ReadArchive(archiveFile)
	if err != nil {
		return err
	}
	dist, err := freegas.DistributionFromMap(pdfMap)
	if err != nil {
		return err
	}
	return thermalize(dist, model.Parameters{
		SourceEnergy:      sourceEnergy,
		AtomicWeightRatio: atomicWeight,
		Histories:         histories,
		Collisions:        collisions,
		Threads:           threads,
		Bins:              bins,
		Seed:              seed,
	}, outputDir, utils.GetFilename(archiveFile), thermalOutputs, units, logger)
}

func runInspect(cmd *cobra.Command, args []string) error {
	pdfMap, err := freegas.ReadArchive(args[0])
	if err != nil {
		return err
	}
	dist, err := freegas.DistributionFromMap(pdfMap)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "%s: %d incoming energies\n", args[0], dist.Len())
	fmt.Fprintln(w, "E [MeV]\tpoints\tintegral\t<E'> [MeV]")
	for _, e := range dist.IncomingEnergies() {
		table := dist.Table(e)
		fmt.Fprintf(w, "%g\t%d\t%g\t%g\n", e, len(table.X()), table.Integral(), table.Mean())
	}
	return w.Flush()
}

func runList(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	archives, err := freegas.ListArchives(dir)
	if err != nil {
		return err
	}
	for _, path := range archives {
		fmt.Fprintln(cmd.OutOrStdout(), path)
	}
	return nil
}
