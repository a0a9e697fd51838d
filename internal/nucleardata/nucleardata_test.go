package nucleardata

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTable writes a small ASCII ACE table with an elastic angular block that
// holds one isotropic, one equiprobable and one tabular cosine distribution.
func writeTable(t *testing.T, prefixLines int) string {
	t.Helper()
	var xss []float64
	// ESZ: energy, total, absorption, elastic
	xss = append(xss, 1e-7, 1e-6, 1e-5)
	xss = append(xss, 21, 16, 11)
	xss = append(xss, 1, 1, 1)
	xss = append(xss, 20, 15, 10)
	// LAND (13): elastic LOCB
	xss = append(xss, 1)
	// AND (14): NE, energies, LC
	xss = append(xss, 3, 1e-7, 1e-6, 1e-5, 0, 8, -41)
	// equiprobable cosines at AND+8-1 = 21
	for i := 0; i <= 32; i++ {
		u := float64(i) / 32.
		xss = append(xss, 1.-2.*(1.-u)*(1.-u))
	}
	// tabular cosines at AND+41-1 = 54: JJ, NP, CSOUT, PDF, CDF
	xss = append(xss, 2, 3, -1, 0, 1, 0.25, 0.5, 0.75, 0, 0.375, 1)
	require.Len(t, xss, 64)

	nxs := make([]int, 16)
	nxs[0], nxs[1], nxs[2] = len(xss), 1001, 3
	jxs := make([]int, 32)
	jxs[0], jxs[7], jxs[8] = 1, 13, 14

	var b strings.Builder
	for range prefixLines {
		b.WriteString("  previous table line\n")
	}
	b.WriteString(" 1001.80c   0.999167  2.5301E-08   08/07/07\n")
	b.WriteString("H1 synthetic test table                                                mat 125\n")
	for range 4 {
		b.WriteString("      0     0.      0     0.      0     0.      0     0.\n")
	}
	writeInts := func(values []int) {
		for i, v := range values {
			fmt.Fprintf(&b, "%9d", v)
			if i%8 == 7 {
				b.WriteString("\n")
			}
		}
	}
	writeInts(nxs)
	writeInts(jxs)
	for i, v := range xss {
		fmt.Fprintf(&b, "%20.11E", v)
		if i%4 == 3 || i == len(xss)-1 {
			b.WriteString("\n")
		}
	}

	path := filepath.Join(t.TempDir(), "synthetic.ace")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func TestACEFileLoad(t *testing.T) {
	path := writeTable(t, 0)
	data, err := ACEFile{FileName: path, TableName: "1001.80c", StartLine: 1, Ascii: true}.Load()
	require.NoError(t, err)

	assert.Equal(t, "1001.80c", data.Name)
	assert.Equal(t, 0.999167, data.AtomicWeightRatio)
	assert.Equal(t, 2.5301e-8, data.KT)
	assert.Equal(t, []float64{1e-7, 1e-6, 1e-5}, data.Energy)
	assert.Equal(t, []float64{20, 15, 10}, data.ElasticCrossSection)

	require.NotNil(t, data.Angular)
	assert.InDelta(t, 0.5, data.Angular.PDF(1e-7, 0.3), 1e-12)
	assert.InDelta(t, 0.5, data.Angular.PDF(5e-7, -0.3), 1e-12)
	assert.Greater(t, data.Angular.PDF(1e-6, 0.99), data.Angular.PDF(1e-6, -0.99))
	assert.InDelta(t, 0.5, data.Angular.PDF(1e-5, 0), 1e-12)
	assert.InDelta(t, 0.75, data.Angular.PDF(2e-5, 1), 1e-12)
}

func TestACEFileStartLine(t *testing.T) {
	path := writeTable(t, 3)
	data, err := ACEFile{FileName: path, TableName: "1001.80c", StartLine: 4, Ascii: true}.Load()
	require.NoError(t, err)
	assert.Len(t, data.Energy, 3)

	_, err = ACEFile{FileName: path, TableName: "1001.80c", StartLine: 1, Ascii: true}.Load()
	assert.ErrorIs(t, err, ErrTableNotFound)
}

func TestACEFileErrors(t *testing.T) {
	path := writeTable(t, 0)

	_, err := ACEFile{FileName: path, TableName: "1001.80c", StartLine: 1, Ascii: false}.Load()
	assert.ErrorIs(t, err, ErrBinaryACE)

	_, err = ACEFile{FileName: path, TableName: "8016.80c", StartLine: 1, Ascii: true}.Load()
	assert.ErrorIs(t, err, ErrTableNotFound)

	_, err = ACEFile{FileName: path, TableName: "1001.80c", StartLine: 1000, Ascii: true}.Load()
	assert.ErrorIs(t, err, ErrTableNotFound)

	_, err = ACEFile{FileName: filepath.Join(t.TempDir(), "missing.ace"), TableName: "1001.80c", StartLine: 1, Ascii: true}.Load()
	assert.Error(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	truncated := filepath.Join(t.TempDir(), "truncated.ace")
	require.NoError(t, os.WriteFile(truncated, content[:len(content)/2], 0o644))
	_, err = ACEFile{FileName: truncated, TableName: "1001.80c", StartLine: 1, Ascii: true}.Load()
	assert.Error(t, err)
}

func TestNuclearDataValidate(t *testing.T) {
	valid := NuclearData{Name: "h", AtomicWeightRatio: 1, KT: 2.53e-8, Energy: []float64{1e-7, 1}, ElasticCrossSection: []float64{10, 10}}
	loaded, err := valid.Load()
	require.NoError(t, err)
	assert.Equal(t, valid.Energy, loaded.Energy)

	for name, data := range map[string]NuclearData{
		"empty":         {Name: "h"},
		"length":        {Name: "h", Energy: []float64{1e-7, 1}, ElasticCrossSection: []float64{10}},
		"zero energy":   {Name: "h", Energy: []float64{0, 1}, ElasticCrossSection: []float64{10, 10}},
		"unsorted":      {Name: "h", Energy: []float64{1, 1e-7}, ElasticCrossSection: []float64{10, 10}},
		"negative xs":   {Name: "h", Energy: []float64{1e-7, 1}, ElasticCrossSection: []float64{10, -1}},
		"repeated grid": {Name: "h", Energy: []float64{1, 1}, ElasticCrossSection: []float64{10, 10}},
	} {
		assert.Error(t, data.Validate(), name)
	}
}

func TestLXCatRejectsBadGrid(t *testing.T) {
	_, err := LXCat{FileName: "unused.txt", GridPoints: 1, MinEnergy: 1e-3, MaxEnergy: 10}.Load()
	assert.Error(t, err)
	_, err = LXCat{FileName: "unused.txt", GridPoints: 10, MinEnergy: 10, MaxEnergy: 1}.Load()
	assert.Error(t, err)
	_, err = LXCat{FileName: filepath.Join(t.TempDir(), "missing.txt"), GridPoints: 10, MinEnergy: 1e-3, MaxEnergy: 10}.Load()
	assert.Error(t, err)
}

func TestTwoColumnLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "h1.txt")
	require.NoError(t, os.WriteFile(path, []byte("# E [eV]  xs [b]\n0.1 20\n1 15\n10 10\n"), 0o644))

	data, err := TwoColumn{FileName: path, AtomicWeightRatio: 0.999167, Temperature: 293.6, EnergyScale: 1e-6}.Load()
	require.NoError(t, err)
	assert.Equal(t, "h1", data.Name)
	assert.InDeltaSlice(t, []float64{1e-7, 1e-6, 1e-5}, data.Energy, 1e-20)
	assert.Equal(t, []float64{20, 15, 10}, data.ElasticCrossSection)
	assert.InEpsilon(t, 2.53e-8, data.KT, 1e-3)
	assert.Nil(t, data.Angular)

	_, err = TwoColumn{FileName: path}.Load()
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("1 15\n0.1 20\n"), 0o644))
	_, err = TwoColumn{FileName: path, AtomicWeightRatio: 1, Temperature: 293.6}.Load()
	assert.Error(t, err)
}
