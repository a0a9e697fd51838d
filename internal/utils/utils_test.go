package utils

import (
	"math"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatistics(t *testing.T) {
	s := []float64{1, 2, 3, 4}
	assert.Equal(t, 10., SumSlice(s))
	mean, variance := MeanAndVariance(s, false)
	assert.Equal(t, 2.5, mean)
	assert.Equal(t, 1.25, variance)
	_, variance = MeanAndVariance(s, true)
	assert.InDelta(t, 5./3., variance, 1e-15)
	mean, variance = MeanAndVariance([]int{7}, true)
	assert.Equal(t, 7., mean)
	assert.Equal(t, 0., variance)
	assert.Equal(t, 2, Argmax([]uint64{1, 5, 9, 9, 2}))
	assert.Equal(t, 3, IntAbs(-3))
}

func TestIntersect(t *testing.T) {
	unit := Intersect([]string{"MeV", "keV", "eV"}, []string{"b", "eV"})
	require.NotNil(t, unit)
	assert.Equal(t, "eV", *unit)
	assert.Nil(t, Intersect([]string{"MeV"}, []string{"b"}))
}

func TestBinarySearch(t *testing.T) {
	falseDom, trueDom := BinarySearch(func(x float64) bool { return x*x >= 2 }, 0, 2, 1e-12)
	assert.InDelta(t, math.Sqrt2, trueDom, 1e-12)
	assert.Less(t, falseDom, trueDom)
}

func TestReadFloatPairs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pairs.txt")
	require.NoError(t, os.WriteFile(path, []byte("# energy xs\n1e-7 20\n\n1e-6   15\n"), 0o644))
	pairs, err := ReadFloatPairs(path)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1e-7, 20}, {1e-6, 15}}, pairs)

	require.NoError(t, os.WriteFile(path, []byte("1 2 3\n"), 0o644))
	_, err = ReadFloatPairs(path)
	assert.Error(t, err)
}

func TestWriteAsCSV(t *testing.T) {
	dir := t.TempDir()
	rows := CSV{{"h10", "1"}, {"h2", "2"}, {"h1", "3"}}
	sort.Sort(rows)
	path, err := WriteAsCSV(rows, dir, "summary", "nuclides", []string{"name", "value"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "summary", "nuclides.csv"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "name,value\nh1,3\nh2,2\nh10,1\n", string(content))
	assert.Equal(t, "nuclides", GetFilename("/tmp/run/nuclides.toml"))
}

func TestOpenFile(t *testing.T) {
	dir := t.TempDir()
	for suffix, want := range map[string]string{
		"":         filepath.Join(dir, "out", "h1.csv"),
		".":        filepath.Join(dir, "out", "h1.csv"),
		"spectrum": filepath.Join(dir, "out", "spectrum", "h1.csv"),
	} {
		file, err := OpenFile(filepath.Join(dir, "out"), suffix, "h1")
		require.NoError(t, err, suffix)
		assert.Equal(t, want, file.Name())
		require.NoError(t, file.Close())
		assert.FileExists(t, want)
	}
}
