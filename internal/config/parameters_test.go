package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wildstyl3r/freegas/internal/constants"
	"github.com/wildstyl3r/freegas/internal/nucleardata"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func loadAndUnify(t *testing.T, content string) (Config, error) {
	t.Helper()
	config, meta, err := LoadConfig(writeConfig(t, content))
	require.NoError(t, err)
	_, err = config.Unify(&meta)
	return config, err
}

func TestInheritanceAndDefaults(t *testing.T) {
	config, err := loadAndUnify(t, `
OutputDir = "out"
InputUnits = ["eV"]
File = "endf71x.ace"
ThermalThreshold = 4

[Nuclides.h1]
Table = "1001.80c"
StartLine = 12

[Nuclides.o16]
Table = "8016.80c"
ThermalThreshold = 2
Temperature = 600.0
`)
	require.NoError(t, err)
	assert.Equal(t, "out", config.OutputDir)

	h1 := config.Nuclides["h1"]
	assert.Equal(t, "ace", h1.Source)
	assert.Equal(t, "endf71x.ace", h1.File)
	assert.Equal(t, 12, h1.StartLine)
	assert.True(t, h1.Ascii)
	assert.InDelta(t, 4e-6, h1.ThermalThreshold, 1e-18)
	assert.Equal(t, 1e-4, h1.AbsoluteTolerance)
	assert.Equal(t, 10000, h1.SubintervalLimit)
	assert.Equal(t, "H", h1.ArchivePrefix)
	assert.Equal(t, int64(1), h1.Seed)
	assert.Equal(t, 2.5e-8, h1.KT(2.5e-8))

	o16 := config.Nuclides["o16"]
	assert.Equal(t, 1, o16.StartLine)
	assert.InDelta(t, 2e-6, o16.ThermalThreshold, 1e-18)
	assert.InDelta(t, constants.KBolzmannMeV*600, o16.KT(2.5e-8), 1e-20)
	assert.InDelta(t, 600, TemperatureOf(o16.KT(2.5e-8)), 1e-9)

	source, err := h1.DataSource("h1", config.InputUnits)
	require.NoError(t, err)
	assert.Equal(t, nucleardata.ACEFile{FileName: "endf71x.ace", TableName: "1001.80c", StartLine: 12, Ascii: true}, source)

	quad := h1.Quadrature()
	assert.NoError(t, quad.Validate())
}

func TestLXCatSourceInferred(t *testing.T) {
	config, err := loadAndUnify(t, `
InputUnits = ["eV"]

[Nuclides.ar]
Species = "Ar"
File = "ar.txt"
Temperature = 300.0
MinEnergy = 0.001
MaxEnergy = 10
`)
	require.NoError(t, err)
	ar := config.Nuclides["ar"]
	assert.Equal(t, "lxcat", ar.Source)
	assert.InDelta(t, 1e-9, ar.MinEnergy, 1e-21)

	source, err := ar.DataSource("ar", config.InputUnits)
	require.NoError(t, err)
	lxcat, ok := source.(nucleardata.LXCat)
	require.True(t, ok)
	assert.InDelta(t, 1e-3, lxcat.MinEnergy, 1e-15)
	assert.InDelta(t, 10, lxcat.MaxEnergy, 1e-12)
	assert.Equal(t, 200, lxcat.GridPoints)
}

func TestTableSourceEnergyScale(t *testing.T) {
	config, err := loadAndUnify(t, `
InputUnits = ["keV"]

[Nuclides.c12]
Source = "table"
File = "c12.txt"
Temperature = 293.6
AtomicWeightRatio = 11.8969
`)
	require.NoError(t, err)
	source, err := config.Nuclides["c12"].DataSource("c12", config.InputUnits)
	require.NoError(t, err)
	table, ok := source.(nucleardata.TwoColumn)
	require.True(t, ok)
	assert.Equal(t, 1e-3, table.EnergyScale)
	assert.Equal(t, "c12", table.Name)
}

func TestValidationErrors(t *testing.T) {
	for name, content := range map[string]string{
		"negative temperature": `
[Nuclides.h1]
Table = "1001.80c"
File = "a.ace"
Temperature = -5.0
`,
		"table and species": `
[Nuclides.h1]
Table = "1001.80c"
Species = "H"
File = "a.ace"
`,
		"missing file": `
[Nuclides.h1]
Table = "1001.80c"
`,
		"unknown source": `
[Nuclides.h1]
Source = "endf"
File = "a.ace"
`,
		"thermalize without energy": `
[Nuclides.h1]
Table = "1001.80c"
File = "a.ace"
Thermalize = true
`,
		"lxcat without range": `
[Nuclides.ar]
Species = "Ar"
File = "ar.txt"
Temperature = 300.0
`,
	} {
		_, err := loadAndUnify(t, content)
		assert.Error(t, err, name)
	}

	_, err := loadAndUnify(t, `
[Nuclides.h1]
Table = "1001.80c"
File = "a.ace"
Temperature = -5.0
`)
	assert.ErrorContains(t, err, `nuclide "h1": Temperature must be positive`)
}

func TestLoadConfigErrors(t *testing.T) {
	_, _, err := LoadConfig(writeConfig(t, `OutputDir = "out"`))
	assert.ErrorIs(t, err, ErrNoNuclides)

	_, _, err = LoadConfig(writeConfig(t, "InputUnits = [\"eV\", \"keV\"]\n[Nuclides.h1]\nTable = \"x\"\n"))
	assert.Error(t, err)

	_, _, err = LoadConfig(writeConfig(t, "Bogus = 1\n[Nuclides.h1]\nTable = \"x\"\n"))
	assert.Error(t, err)

	path := writeConfig(t, "[Nuclides.h1]\nTable = \"x\"\nFile = \"a\"\n")
	config, _, err := LoadConfig(path[:len(path)-len(".toml")])
	require.NoError(t, err)
	assert.Equal(t, ".", config.OutputDir)
	assert.Equal(t, []string{"MeV", "b"}, config.InputUnits)
}

func TestConvert(t *testing.T) {
	energy := []UnitElement{{Class: Energy, Power: 1}}
	assert.Equal(t, 2e-6, Convert(2, energy, []string{"eV"}, true))
	assert.Equal(t, 2., Convert(2e-6, energy, []string{"eV"}, false))
	perEnergy := []UnitElement{{Class: Energy, Power: -1}}
	assert.Equal(t, 5e5, Convert(0.5, perEnergy, []string{"eV"}, true))
	assert.Equal(t, 1e24, Convert(1, []UnitElement{{Class: Area, Power: 1}}, []string{"cm2"}, true))
	assert.Equal(t, "keV", UnitName(Energy, []string{"b", "keV"}))
	assert.Equal(t, "b", UnitName(Area, []string{"keV"}))

	extended, conflicts := checkUnits([]string{"eV"})
	assert.Empty(t, conflicts)
	assert.Equal(t, []string{"eV", "b"}, extended)
	_, conflicts = checkUnits([]string{"eV", "furlong"})
	assert.Equal(t, []string{"furlong"}, conflicts)
}

func TestParseUnits(t *testing.T) {
	units, err := ParseUnits([]string{"keV"})
	require.NoError(t, err)
	assert.Equal(t, []string{"keV", "b"}, units)
	_, err = ParseUnits([]string{"keV", "eV"})
	assert.Error(t, err)
}
