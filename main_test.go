package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestGenerateInspectThermalize(t *testing.T) {
	dir := t.TempDir()
	table := filepath.Join(dir, "h.txt")
	require.NoError(t, os.WriteFile(table, []byte("1e-7 10\n1e-6 10\n5e-6 10\n1e-5 10\n1 10\n"), 0o644))
	out := filepath.Join(dir, "out")
	input := filepath.Join(dir, "run.toml")
	require.NoError(t, os.WriteFile(input, []byte(fmt.Sprintf(`
OutputDir = %q

[Nuclides.h]
Source = "table"
File = %q
Temperature = 293.6
AtomicWeightRatio = 1.0
Thermalize = true
SourceEnergy = 1e-3
Histories = 100
Collisions = 3
Bins = 5
`, out, table)), 0o644))

	execute(t, "generate", "--input", input)
	archive := filepath.Join(out, "h", "forward_transport_H_293.6K.transport")
	for _, path := range []string{
		filepath.Join(out, "summary.csv"),
		filepath.Join(out, "h", "cross_section.csv"),
		filepath.Join(out, "h", "energy_distribution.csv"),
		filepath.Join(out, "h", "spectrum", "h.csv"),
		archive,
	} {
		assert.FileExists(t, path)
	}
	summary, err := os.ReadFile(filepath.Join(out, "summary.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(summary), "\nh,1,293.6,")

	assert.Equal(t, archive+"\n", execute(t, "list", filepath.Join(out, "h")))
	assert.Contains(t, execute(t, "inspect", archive), "3 incoming energies")

	thermal := filepath.Join(dir, "thermal")
	execute(t, "thermalize", "--archive", archive, "--energy", "1e-6", "--histories", "50", "--collisions", "2", "--output", thermal, "--units", "eV")
	assert.FileExists(t, filepath.Join(thermal, "spectrum", "forward_transport_H_293.6K.csv"))
}
