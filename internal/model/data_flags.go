package model

import (
	"github.com/spf13/pflag"

	"github.com/wildstyl3r/freegas/internal/config"
)

type DataItem struct {
	saveFlag   *bool
	fileSuffix string
}

type SequentialDataItem struct {
	DataItem
	columnNames func(outputUnits []string) []string
	values      func(*DataExtractor) (args []float64, values [][]float64)
	xUnit       []config.UnitElement
	yUnit       []config.UnitElement
}

type DataFlags struct {
	all         *bool
	sequentials map[string]SequentialDataItem
}

func energyColumn(name string, power int) func([]string) string {
	return func(units []string) string {
		unit := config.UnitName(config.Energy, units)
		if power < 0 {
			return name + " (" + unit + "^-1)"
		}
		return name + " (" + unit + ")"
	}
}

// NewDataFlags registers one flag per output on fs.
func NewDataFlags(fs *pflag.FlagSet) DataFlags {
	return DataFlags{
		all: fs.Bool("all", false, "save every available output"),
		sequentials: map[string]SequentialDataItem{
			"Spectrum": {
				DataItem: DataItem{
					saveFlag:   fs.Bool("spectrum", true, "save the energy spectrum after the last collision"),
					fileSuffix: "spectrum",
				},
				columnNames: func(units []string) []string {
					return []string{energyColumn("E", 1)(units), energyColumn("p(E)", -1)(units)}
				},
				values: func(de *DataExtractor) (args []float64, values [][]float64) {
					for i, density := range de.spectrum {
						args = append(args, de.binCenter(i))
						values = append(values, []float64{density})
					}
					return args, values
				},
				xUnit: []config.UnitElement{{Class: config.Energy, Power: 1}},
				yUnit: []config.UnitElement{{Class: config.Energy, Power: -1}},
			},
			"Lethargy spectrum": {
				DataItem: DataItem{
					saveFlag:   fs.Bool("lethargy", false, "save the spectrum per unit lethargy"),
					fileSuffix: "lethargy",
				},
				columnNames: func(units []string) []string {
					return []string{energyColumn("E", 1)(units), "E p(E)"}
				},
				values: func(de *DataExtractor) (args []float64, values [][]float64) {
					for i, density := range de.spectrum {
						center := de.binCenter(i)
						args = append(args, center)
						values = append(values, []float64{center * density})
					}
					return args, values
				},
				xUnit: []config.UnitElement{{Class: config.Energy, Power: 1}},
				yUnit: []config.UnitElement{},
			},
			"Mean energy": {
				DataItem: DataItem{
					saveFlag:   fs.Bool("mean-energy", false, "save the mean energy after every collision"),
					fileSuffix: "mean_energy",
				},
				columnNames: func(units []string) []string {
					return []string{"collision", energyColumn("<E>", 1)(units), energyColumn("95% half-width", 1)(units)}
				},
				values: func(de *DataExtractor) (args []float64, values [][]float64) {
					for c := range de.meanEnergy {
						args = append(args, float64(c+1))
						values = append(values, []float64{de.meanEnergy[c], de.meanEnergyError[c]})
					}
					return args, values
				},
				xUnit: []config.UnitElement{},
				yUnit: []config.UnitElement{{Class: config.Energy, Power: 1}},
			},
		},
	}
}
