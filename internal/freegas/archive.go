package freegas

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/facette/natsort"
)

const archiveExtension = ".transport"

type archive struct {
	Distribution []archiveEntry `toml:"distribution"`
}

type archiveEntry struct {
	Energy   float64   `toml:"energy"`
	Outgoing []float64 `toml:"outgoing"`
	PDF      []float64 `toml:"pdf"`
}

// ArchivePath is <dir>/forward_transport_<prefix>_<T>K.transport.
func ArchivePath(dir, prefix string, temperature float64) string {
	name := fmt.Sprintf("forward_transport_%s_%sK%s", prefix, strconv.FormatFloat(temperature, 'g', -1, 64), archiveExtension)
	return filepath.Join(dir, name)
}

// WriteArchive stores the PDF map as TOML, one [[distribution]] table per
// incoming energy in ascending order. Floats are written in their shortest
// exact form so reading the archive back gives identical values.
func WriteArchive(path string, pdfMap map[float64][]EnergyPDFPair) error {
	incoming := make([]float64, 0, len(pdfMap))
	for e := range pdfMap {
		incoming = append(incoming, e)
	}
	slices.Sort(incoming)

	var a archive
	for _, e := range incoming {
		x, y := splitPairs(pdfMap[e])
		a.Distribution = append(a.Distribution, archiveEntry{Energy: e, Outgoing: x, PDF: y})
	}

	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return fmt.Errorf("error creating archive directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating archive: %w", err)
	}
	w := bufio.NewWriter(file)
	if err := toml.NewEncoder(w).Encode(a); err != nil {
		file.Close()
		return fmt.Errorf("error encoding archive %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		file.Close()
		return fmt.Errorf("error writing archive %s: %w", path, err)
	}
	return file.Close()
}

// ReadArchive loads a map written by WriteArchive.
func ReadArchive(path string) (map[float64][]EnergyPDFPair, error) {
	var a archive
	if _, err := toml.DecodeFile(path, &a); err != nil {
		return nil, fmt.Errorf("error reading archive %s: %w", path, err)
	}
	pdfMap := make(map[float64][]EnergyPDFPair, len(a.Distribution))
	for _, entry := range a.Distribution {
		if err := entry.validate(); err != nil {
			return nil, fmt.Errorf("archive %s: %w", path, err)
		}
		pairs := make([]EnergyPDFPair, len(entry.Outgoing))
		for i := range pairs {
			pairs[i] = EnergyPDFPair{Energy: entry.Outgoing[i], PDF: entry.PDF[i]}
		}
		pdfMap[entry.Energy] = pairs
	}
	return pdfMap, nil
}

func (e archiveEntry) validate() error {
	if len(e.Outgoing) != len(e.PDF) || len(e.Outgoing) == 0 {
		return fmt.Errorf("distribution at %g: %d outgoing energies for %d pdf values", e.Energy, len(e.Outgoing), len(e.PDF))
	}
	for i := range e.Outgoing {
		if i > 0 && !(e.Outgoing[i] > e.Outgoing[i-1]) {
			return fmt.Errorf("distribution at %g: outgoing energies not ascending at %d", e.Energy, i)
		}
		if math.IsNaN(e.Outgoing[i]) || math.IsInf(e.Outgoing[i], 0) {
			return fmt.Errorf("distribution at %g: outgoing energy %d is not finite", e.Energy, i)
		}
		if math.IsNaN(e.PDF[i]) || math.IsInf(e.PDF[i], 0) {
			return fmt.Errorf("distribution at %g: pdf value %d is not finite", e.Energy, i)
		}
	}
	return nil
}

// ListArchives returns the archives found in dir, in natural order.
func ListArchives(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("error listing archives: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), archiveExtension) {
			names = append(names, entry.Name())
		}
	}
	natsort.Sort(names)
	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(dir, name)
	}
	return paths, nil
}
