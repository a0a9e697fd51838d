package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/wildstyl3r/freegas/internal/constants"
	"github.com/wildstyl3r/freegas/internal/nucleardata"
	"github.com/wildstyl3r/freegas/internal/quadrature"
	"github.com/wildstyl3r/freegas/internal/utils"
)

var ErrNoNuclides = errors.New("no nuclides provided")

type Config struct {
	OutputDir string
	Threads   int
	Nuclides  map[string]NuclideParameters
	NuclideParameters

	InputUnits  []string
	OutputUnits []string
}

// LoadConfig decodes a run description. The ".toml" extension may be omitted.
func LoadConfig(configFileName string) (Config, toml.MetaData, error) {
	var config Config
	if filepath.Ext(configFileName) == "" {
		configFileName += ".toml"
	}
	meta, err := toml.DecodeFile(configFileName, &config)
	if err != nil {
		return Config{}, meta, fmt.Errorf("invalid config %s: %w", configFileName, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, meta, fmt.Errorf("invalid config %s: unknown keys %v", configFileName, undecoded)
	}

	var unitsConflict []string
	config.InputUnits, unitsConflict = checkUnits(config.InputUnits)
	if len(unitsConflict) > 0 {
		return Config{}, meta, fmt.Errorf("found input unit conflict: %v", unitsConflict)
	}
	if len(config.OutputUnits) == 0 {
		config.OutputUnits = config.InputUnits
	}
	config.OutputUnits, unitsConflict = checkUnits(config.OutputUnits)
	if len(unitsConflict) > 0 {
		return Config{}, meta, fmt.Errorf("found output unit conflict: %v", unitsConflict)
	}

	if len(config.Nuclides) == 0 {
		return Config{}, meta, ErrNoNuclides
	}
	if config.OutputDir == "" {
		config.OutputDir = "."
	}
	return config, meta, nil
}

// Unify resolves every nuclide against the top level values and the
// defaults. Nuclide names come back in sorted order.
func (c *Config) Unify(meta *toml.MetaData) ([]string, error) {
	names := make([]string, 0, len(c.Nuclides))
	for name := range c.Nuclides {
		names = append(names, name)
	}
	slices.Sort(names)

	var errs []error
	for _, name := range names {
		parameters := c.Nuclides[name]
		if err := parameters.CheckAndUnify(name, c, meta); err != nil {
			errs = append(errs, err)
			continue
		}
		c.Nuclides[name] = parameters
	}
	return names, errors.Join(errs...)
}

type NuclideParameters struct {
	Source    string // ace, lxcat or table
	File      string
	Table     string // ACE table name, e.g. 1001.80c
	Species   string // LXCat species
	StartLine int
	Ascii     bool

	Temperature       float64 // [K]
	AtomicWeightRatio float64
	GridPoints        int
	MinEnergy         float64
	MaxEnergy         float64

	ThermalThreshold  float64
	AbsoluteTolerance float64
	RelativeTolerance float64
	SubintervalLimit  int

	ArchivePrefix string
	GeneratePDF   bool
	WriteCSV      bool

	Thermalize   bool
	SourceEnergy float64
	Histories    int
	Collisions   int
	Bins         int
	Seed         int64
}

var defaultValues = map[string]any{ // in MeV
	"Source":            "ace",
	"StartLine":         1,
	"Ascii":             true,
	"GridPoints":        200,
	"ThermalThreshold":  constants.ThermalEnergyThreshold,
	"AbsoluteTolerance": 1e-4,
	"RelativeTolerance": 0.,
	"SubintervalLimit":  10000,
	"ArchivePrefix":     "H",
	"GeneratePDF":       true,
	"WriteCSV":          true,
	"Histories":         10000,
	"Collisions":        20,
	"Bins":              100,
	"Seed":              int64(1),
}

var fieldsXor = map[string][]string{
	"Table":   {"Species"},
	"Species": {"Table"},
}

var fieldsAnd = map[string][]string{
	"Table":      {"File"},
	"Species":    {"File"},
	"Thermalize": {"SourceEnergy", "GeneratePDF"},
}

var sourceRequirements = map[string][]string{
	"ace":   {"File", "Table"},
	"lxcat": {"File", "Temperature", "MinEnergy", "MaxEnergy"},
	"table": {"File", "Temperature", "AtomicWeightRatio"},
}

var valueUnits = map[string][]UnitElement{
	"MinEnergy": {
		{Class: Energy, Power: 1},
	},
	"MaxEnergy": {
		{Class: Energy, Power: 1},
	},
	"ThermalThreshold": {
		{Class: Energy, Power: 1},
	},
	"SourceEnergy": {
		{Class: Energy, Power: 1},
	},
}

func (p *NuclideParameters) toBase(parameterNames, units []string) {
	reflected := reflect.ValueOf(p).Elem()
	for _, name := range parameterNames {
		field := reflected.FieldByName(name)
		if _, some := valueUnits[name]; some && field.CanFloat() {
			field.SetFloat(Convert(field.Float(), valueUnits[name], units, true))
		}
	}
}

func (p *NuclideParameters) checkFieldProblems(path []string, meta *toml.MetaData) (ambiguities [][]string, missingDeps []string) {
	reflected := reflect.ValueOf(p).Elem()
	for field := range fieldsXor {
		if meta.IsDefined(slices.Concat(path, []string{field})...) {
			if reflected.FieldByName(field).Kind() == reflect.Bool && !reflected.FieldByName(field).Bool() {
				continue
			}
			var foundAlternatives []string
			for _, alternative := range fieldsXor[field] {
				if meta.IsDefined(slices.Concat(path, []string{alternative})...) {
					foundAlternatives = append(foundAlternatives, alternative)
				}
			}
			if len(foundAlternatives) > 0 {
				ambiguities = append(ambiguities, append([]string{field}, foundAlternatives...))
			}
		}
	}

	for field := range fieldsAnd {
		if meta.IsDefined(slices.Concat(path, []string{field})...) {
			if reflected.FieldByName(field).Kind() == reflect.Bool && !reflected.FieldByName(field).Bool() {
				continue
			}
			for _, requirement := range fieldsAnd[field] {
				if _, defaulted := defaultValues[requirement]; defaulted {
					continue
				}
				if !meta.IsDefined(slices.Concat(path, []string{requirement})...) {
					missingDeps = append(missingDeps, requirement)
				}
			}
		}
	}
	return
}

/*
field value priority:
1. nuclide
2. top level
3. default

a field defined for the nuclide hides its xor alternatives at the top level.
*/

func (p *NuclideParameters) CheckAndUnify(name string, config *Config, meta *toml.MetaData) error {
	path := []string{"Nuclides", name}
	globalAmbiguities, globalMissingDeps := config.NuclideParameters.checkFieldProblems(nil, meta)
	localAmbiguities, localMissingDeps := p.checkFieldProblems(path, meta)
	if len(globalAmbiguities) > 0 {
		return fmt.Errorf("found global ambiguities %v", globalAmbiguities)
	}
	if len(localAmbiguities) > 0 {
		return fmt.Errorf("nuclide %q: found ambiguities %v", name, localAmbiguities)
	}
	var missingIntersection []string
	for _, missing := range localMissingDeps {
		if slices.Contains(globalMissingDeps, missing) || !meta.IsDefined(missing) {
			missingIntersection = append(missingIntersection, missing)
		}
	}
	if len(missingIntersection) > 0 {
		return fmt.Errorf("nuclide %q: required dependent fields not found %v", name, missingIntersection)
	}

	var discoveredParameters []string
	excludeFromLoadingDefaultOrOuter := map[string]struct{}{}

	local := reflect.ValueOf(p).Elem()
	localType := local.Type()
	for i := range local.NumField() {
		fieldName := localType.Field(i).Name
		if meta.IsDefined(slices.Concat(path, []string{fieldName})...) {
			discoveredParameters = append(discoveredParameters, fieldName)
			for _, alternative := range fieldsXor[fieldName] {
				excludeFromLoadingDefaultOrOuter[alternative] = struct{}{}
			}
		}
	}

	global := reflect.ValueOf(&config.NuclideParameters).Elem()
	for i := range global.NumField() {
		fieldName := localType.Field(i).Name
		if _, excluded := excludeFromLoadingDefaultOrOuter[fieldName]; excluded {
			continue
		}
		if slices.Contains(discoveredParameters, fieldName) || !meta.IsDefined(fieldName) {
			continue
		}
		local.Field(i).Set(global.Field(i))
		discoveredParameters = append(discoveredParameters, fieldName)
		for _, alternative := range fieldsXor[fieldName] {
			excludeFromLoadingDefaultOrOuter[alternative] = struct{}{}
		}
	}

	p.toBase(discoveredParameters, config.InputUnits)

	if !slices.Contains(discoveredParameters, "Source") && slices.Contains(discoveredParameters, "Species") {
		p.Source = "lxcat"
		discoveredParameters = append(discoveredParameters, "Source")
	}
	for fieldName, value := range defaultValues {
		if !slices.Contains(discoveredParameters, fieldName) {
			local.FieldByName(fieldName).Set(reflect.ValueOf(value))
			discoveredParameters = append(discoveredParameters, fieldName)
		}
	}

	var enabledParameters []string
	for _, fieldName := range discoveredParameters {
		field := local.FieldByName(fieldName)
		if field.Kind() != reflect.Bool || field.Bool() {
			enabledParameters = append(enabledParameters, fieldName)
		}
	}

	var problems []string
	for _, parameter := range enabledParameters {
		for _, requirement := range fieldsAnd[parameter] {
			if !slices.Contains(enabledParameters, requirement) {
				problems = append(problems, fmt.Sprintf("for parameter %s requirement %s not found", parameter, requirement))
			}
		}
		for _, conflict := range fieldsXor[parameter] {
			if slices.Contains(enabledParameters, conflict) {
				problems = append(problems, fmt.Sprintf("for parameter %s found conflicting parameter %s", parameter, conflict))
			}
		}
	}
	requirements, known := sourceRequirements[p.Source]
	if !known {
		problems = append(problems, fmt.Sprintf("unknown Source %q", p.Source))
	}
	for _, requirement := range requirements {
		if !slices.Contains(enabledParameters, requirement) {
			problems = append(problems, fmt.Sprintf("Source %s requires %s", p.Source, requirement))
		}
	}
	problems = append(problems, p.validate(slices.Contains(enabledParameters, "Temperature"))...)

	if len(problems) > 0 {
		return fmt.Errorf("nuclide %q: %s", name, strings.Join(problems, "; "))
	}
	return nil
}

func (p *NuclideParameters) validate(temperatureSet bool) (problems []string) {
	if temperatureSet && !(p.Temperature > 0) {
		problems = append(problems, "Temperature must be positive")
	}
	if p.Source == "table" && !(p.AtomicWeightRatio > 0) {
		problems = append(problems, "AtomicWeightRatio must be positive")
	}
	if p.AtomicWeightRatio < 0 {
		problems = append(problems, "AtomicWeightRatio must not be negative")
	}
	if p.Source == "lxcat" {
		if p.GridPoints < 2 {
			problems = append(problems, "GridPoints must be at least 2")
		}
		if !(p.MinEnergy > 0) || !(p.MaxEnergy > p.MinEnergy) {
			problems = append(problems, "MinEnergy and MaxEnergy must satisfy 0 < MinEnergy < MaxEnergy")
		}
	}
	if !(p.ThermalThreshold > 0) {
		problems = append(problems, "ThermalThreshold must be positive")
	}
	if p.AbsoluteTolerance < 0 || p.RelativeTolerance < 0 {
		problems = append(problems, "tolerances must not be negative")
	}
	if p.SubintervalLimit < 1 {
		problems = append(problems, "SubintervalLimit must be positive")
	}
	if p.Thermalize {
		if !(p.SourceEnergy > 0) {
			problems = append(problems, "SourceEnergy must be positive")
		}
		if p.Histories < 1 || p.Collisions < 1 || p.Bins < 1 {
			problems = append(problems, "Histories, Collisions and Bins must be positive")
		}
	}
	return problems
}

// DataSource is the nuclear data reader the parameters describe.
func (p NuclideParameters) DataSource(name string, inputUnits []string) (nucleardata.Source, error) {
	switch p.Source {
	case "ace":
		return nucleardata.ACEFile{
			FileName:  p.File,
			TableName: p.Table,
			StartLine: p.StartLine,
			Ascii:     p.Ascii,
		}, nil
	case "lxcat":
		return nucleardata.LXCat{
			FileName:          p.File,
			Species:           p.Species,
			Temperature:       p.Temperature,
			AtomicWeightRatio: p.AtomicWeightRatio,
			GridPoints:        p.GridPoints,
			MinEnergy:         utils.MeV2eV(p.MinEnergy),
			MaxEnergy:         utils.MeV2eV(p.MaxEnergy),
		}, nil
	case "table":
		return nucleardata.TwoColumn{
			FileName:          p.File,
			Name:              name,
			AtomicWeightRatio: p.AtomicWeightRatio,
			Temperature:       p.Temperature,
			EnergyScale:       Convert(1, []UnitElement{{Class: Energy, Power: 1}}, inputUnits, true),
		}, nil
	}
	return nil, fmt.Errorf("nuclide %q: unknown Source %q", name, p.Source)
}

func (p NuclideParameters) Quadrature() quadrature.GaussKronrod {
	return quadrature.GaussKronrod{
		AbsoluteTolerance: p.AbsoluteTolerance,
		RelativeTolerance: p.RelativeTolerance,
		SubintervalLimit:  p.SubintervalLimit,
	}
}

// KT is the generation temperature: the configured one, or dataKT when no
// Temperature was given.
func (p NuclideParameters) KT(dataKT float64) float64 {
	if p.Temperature > 0 {
		return constants.KBolzmannMeV * p.Temperature
	}
	return dataKT
}

// TemperatureOf converts kT [MeV] to K.
func TemperatureOf(kT float64) float64 {
	return kT / constants.KBolzmannMeV
}
