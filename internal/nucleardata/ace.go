package nucleardata

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/wildstyl3r/freegas/internal/distribution"
)

const (
	nxsLength         = 16
	jxsLength         = 32
	equiprobableBins  = 32
	izawLines         = 4
	aceScannerMaxLine = 1 << 20
)

// ACEFile reads a continuous energy neutron table from an ASCII (Type 1) ACE
// library. StartLine is the 1-based line of the table header.
type ACEFile struct {
	FileName  string
	TableName string
	StartLine int
	Ascii     bool
}

type aceTable struct {
	zaid        string
	awr         float64
	temperature float64
	nxs         [nxsLength]int
	jxs         [jxsLength]int
	xss         []float64
}

func (a ACEFile) Load() (NuclearData, error) {
	if !a.Ascii {
		return NuclearData{}, fmt.Errorf("%s: %w", a.FileName, ErrBinaryACE)
	}
	table, err := a.read()
	if err != nil {
		return NuclearData{}, err
	}

	data := NuclearData{
		Name:              table.zaid,
		AtomicWeightRatio: table.awr,
		KT:                table.temperature,
	}
	if data.Energy, data.ElasticCrossSection, err = table.elastic(); err != nil {
		return NuclearData{}, fmt.Errorf("%s %s: %w", a.FileName, a.TableName, err)
	}
	if data.Angular, err = table.elasticAngular(); err != nil {
		return NuclearData{}, fmt.Errorf("%s %s: %w", a.FileName, a.TableName, err)
	}
	return data, data.Validate()
}

func (a ACEFile) read() (*aceTable, error) {
	file, err := os.Open(a.FileName)
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 4096), aceScannerMaxLine)
	start := max(a.StartLine, 1)
	for line := 1; line < start; line++ {
		if !scanner.Scan() {
			return nil, fmt.Errorf("%s: line %d: %w", a.FileName, a.StartLine, ErrTableNotFound)
		}
	}

	if !scanner.Scan() {
		return nil, fmt.Errorf("%s: line %d: %w", a.FileName, start, ErrTableNotFound)
	}
	header := strings.Fields(scanner.Text())
	if len(header) < 3 || header[0] != a.TableName {
		return nil, fmt.Errorf("%s: %q at line %d: %w", a.FileName, a.TableName, start, ErrTableNotFound)
	}
	table := &aceTable{zaid: header[0]}
	if table.awr, err = strconv.ParseFloat(header[1], 64); err != nil {
		return nil, fmt.Errorf("error parsing atomic weight ratio %q: %w", header[1], err)
	}
	if table.temperature, err = strconv.ParseFloat(header[2], 64); err != nil {
		return nil, fmt.Errorf("error parsing temperature %q: %w", header[2], err)
	}

	// comment line, then the IZ/AW pairs
	for range 1 + izawLines {
		if !scanner.Scan() {
			return nil, fmt.Errorf("%s: truncated table header", a.FileName)
		}
	}

	tokens := tokenReader{scanner: scanner}
	for i := range table.nxs {
		if table.nxs[i], err = tokens.int(); err != nil {
			return nil, fmt.Errorf("reading NXS(%d): %w", i+1, err)
		}
	}
	for i := range table.jxs {
		if table.jxs[i], err = tokens.int(); err != nil {
			return nil, fmt.Errorf("reading JXS(%d): %w", i+1, err)
		}
	}
	length := table.nxs[0]
	if length <= 0 {
		return nil, fmt.Errorf("%s: XSS length %d", a.FileName, length)
	}
	table.xss = make([]float64, length)
	for i := range table.xss {
		if table.xss[i], err = tokens.float(); err != nil {
			return nil, fmt.Errorf("reading XSS(%d): %w", i+1, err)
		}
	}
	return table, nil
}

// tokenReader hands out whitespace separated fields across lines.
type tokenReader struct {
	scanner *bufio.Scanner
	fields  []string
}

func (t *tokenReader) next() (string, error) {
	for len(t.fields) == 0 {
		if !t.scanner.Scan() {
			if err := t.scanner.Err(); err != nil {
				return "", fmt.Errorf("error reading file: %w", err)
			}
			return "", fmt.Errorf("unexpected end of table")
		}
		t.fields = strings.Fields(t.scanner.Text())
	}
	field := t.fields[0]
	t.fields = t.fields[1:]
	return field, nil
}

func (t *tokenReader) float() (float64, error) {
	field, err := t.next()
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0, fmt.Errorf("error parsing float %q: %w", field, err)
	}
	return value, nil
}

func (t *tokenReader) int() (int, error) {
	field, err := t.next()
	if err != nil {
		return 0, err
	}
	value, err := strconv.Atoi(field)
	if err != nil {
		return 0, fmt.Errorf("error parsing integer %q: %w", field, err)
	}
	return value, nil
}

// block returns n XSS values from the 1-based location.
func (t *aceTable) block(location, n int) ([]float64, error) {
	if location < 1 || n < 0 || location-1+n > len(t.xss) {
		return nil, fmt.Errorf("XSS block [%d, %d) out of range (length %d)", location, location+n, len(t.xss))
	}
	return t.xss[location-1 : location-1+n], nil
}

func (t *aceTable) integer(location int) (int, error) {
	values, err := t.block(location, 1)
	if err != nil {
		return 0, err
	}
	return int(math.Round(values[0])), nil
}

// elastic reads the ESZ block: energies, total, absorption and elastic cross sections.
func (t *aceTable) elastic() (energy, crossSection []float64, err error) {
	nes := t.nxs[2]
	if nes <= 0 {
		return nil, nil, ErrNoElastic
	}
	esz, err := t.block(t.jxs[0], 4*nes)
	if err != nil {
		return nil, nil, fmt.Errorf("ESZ: %w", err)
	}
	energy = append([]float64(nil), esz[:nes]...)
	crossSection = append([]float64(nil), esz[3*nes:]...)
	return energy, crossSection, nil
}

// elasticAngular reads the elastic entry of the AND block. A nil result means
// isotropic scattering at every energy.
func (t *aceTable) elasticAngular() (distribution.Angular, error) {
	land, and := t.jxs[7], t.jxs[8]
	if land <= 0 || and <= 0 {
		return nil, nil
	}
	locb, err := t.integer(land)
	if err != nil {
		return nil, fmt.Errorf("LAND: %w", err)
	}
	if locb <= 0 {
		return nil, nil
	}

	location := and + locb - 1
	ne, err := t.integer(location)
	if err != nil {
		return nil, fmt.Errorf("AND: %w", err)
	}
	energies, err := t.block(location+1, ne)
	if err != nil {
		return nil, fmt.Errorf("AND energies: %w", err)
	}
	locators, err := t.block(location+1+ne, ne)
	if err != nil {
		return nil, fmt.Errorf("AND locators: %w", err)
	}

	isotropic := distribution.NewTabular([]float64{-1, 1}, []float64{0.5, 0.5})
	tables := make([]distribution.CosineDistribution, ne)
	for i, locator := range locators {
		lc := int(math.Round(locator))
		switch {
		case lc == 0:
			tables[i] = isotropic
		case lc > 0:
			cosines, err := t.block(and+lc-1, equiprobableBins+1)
			if err != nil {
				return nil, fmt.Errorf("equiprobable cosines at E=%g: %w", energies[i], err)
			}
			if !slices.IsSorted(cosines) {
				return nil, fmt.Errorf("equiprobable cosines at E=%g are not sorted", energies[i])
			}
			tables[i] = distribution.NewEquiprobableBins(cosines)
		default:
			if tables[i], err = t.tabularCosines(and - lc - 1); err != nil {
				return nil, fmt.Errorf("tabular cosines at E=%g: %w", energies[i], err)
			}
		}
	}
	for i := 1; i < ne; i++ {
		if energies[i] <= energies[i-1] {
			return nil, fmt.Errorf("AND energies not ascending at %d", i)
		}
	}
	if ne == 0 {
		return nil, nil
	}
	return distribution.NewTabularAngular(energies, tables), nil
}

// tabularCosines reads JJ, NP, CSOUT(NP), PDF(NP), CDF(NP). Histogram tables
// (JJ = 1) are interpolated linearly as well.
func (t *aceTable) tabularCosines(location int) (*distribution.Tabular, error) {
	np, err := t.integer(location + 1)
	if err != nil {
		return nil, err
	}
	if np < 1 {
		return nil, fmt.Errorf("%d cosine points", np)
	}
	values, err := t.block(location+2, 2*np)
	if err != nil {
		return nil, err
	}
	cosines, pdf := values[:np], values[np:]
	for i := range cosines {
		if i > 0 && cosines[i] <= cosines[i-1] {
			return nil, fmt.Errorf("cosines not ascending at %d", i)
		}
		if pdf[i] < 0 {
			return nil, fmt.Errorf("negative pdf at cosine %g", cosines[i])
		}
	}
	return distribution.NewTabular(cosines, pdf), nil
}
