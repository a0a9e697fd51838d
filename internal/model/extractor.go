package model

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"

	"github.com/wildstyl3r/freegas/internal/config"
	"github.com/wildstyl3r/freegas/internal/constants"
	"github.com/wildstyl3r/freegas/internal/utils"
)

type DataExtractor struct {
	model           *Model
	spectrum        []float64 // [MeV^-1], normalized to one history
	meanEnergy      []float64
	meanEnergyError []float64
}

func NewDataExtractor(model *Model) *DataExtractor {
	de := DataExtractor{
		model:           model,
		spectrum:        make([]float64, len(model.Histogram)),
		meanEnergy:      make([]float64, model.Parameters.Collisions),
		meanEnergyError: make([]float64, model.Parameters.Collisions),
	}
	histories := float64(model.Parameters.Histories)
	for i, count := range model.Histogram {
		de.spectrum[i] = float64(count) / (histories * (model.BinEdges[i+1] - model.BinEdges[i]))
	}
	for c, energies := range model.EnergyAtCollision {
		mean, variance := utils.MeanAndVariance(energies, true)
		de.meanEnergy[c] = mean
		// 1.96 is double-sided quantile for 95% confidence
		de.meanEnergyError[c] = constants.Quantile95 * math.Sqrt(variance/histories)
	}
	return &de
}

func (de *DataExtractor) binCenter(i int) float64 {
	return math.Sqrt(de.model.BinEdges[i] * de.model.BinEdges[i+1])
}

func (de *DataExtractor) Spectrum() []float64        { return slices.Clone(de.spectrum) }
func (de *DataExtractor) MeanEnergy() []float64      { return slices.Clone(de.meanEnergy) }
func (de *DataExtractor) MeanEnergyError() []float64 { return slices.Clone(de.meanEnergyError) }

// PeakEnergy is the centre of the most populated bin.
func (de *DataExtractor) PeakEnergy() float64 {
	return de.binCenter(utils.Argmax(de.model.Histogram))
}

// Save writes the selected outputs as outputDir/<suffix>/<name>.csv and
// returns the written paths.
func (de *DataExtractor) Save(outputDir, name string, df DataFlags, outputUnits []string) ([]string, error) {
	var written []string
	for _, key := range slices.Sorted(maps.Keys(df.sequentials)) {
		output := df.sequentials[key]
		if !*output.saveFlag && !*df.all {
			continue
		}
		xColumnValue, yColumnValues := output.values(de)
		rows := make(utils.CSV, 0, len(xColumnValue))
		for x := range xColumnValue {
			row := []string{strconv.FormatFloat(config.Convert(xColumnValue[x], output.xUnit, outputUnits, false), 'g', -1, 64)}
			for i := range yColumnValues[x] {
				row = append(row, strconv.FormatFloat(config.Convert(yColumnValues[x][i], output.yUnit, outputUnits, false), 'g', -1, 64))
			}
			rows = append(rows, row)
		}
		path, err := utils.WriteAsCSV(rows, outputDir, output.fileSuffix, name, output.columnNames(outputUnits))
		if err != nil {
			return written, fmt.Errorf("unable to save %s: %w", key, err)
		}
		de.model.logger.Debug(key+" saved", "path", path)
		written = append(written, path)
	}
	return written, nil
}
