// Package model follows neutron histories through successive elastic
// collisions in an infinite medium of one nuclide, using the free gas energy
// distribution below the thermal limit.
package model

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"

	"gonum.org/v1/gonum/floats"

	"github.com/wildstyl3r/freegas/internal/distribution"
	"github.com/wildstyl3r/freegas/internal/utils"
)

type Parameters struct {
	SourceEnergy      float64 // [MeV]
	AtomicWeightRatio float64
	Histories         int
	Collisions        int
	Threads           int
	Bins              int
	Seed              int64
}

type Model struct {
	Parameters Parameters

	dist         *distribution.EnergyDistribution
	thermalLimit float64 // highest incoming energy of dist
	logger       *slog.Logger

	BinEdges          []float64   // log-spaced, Bins+1 values
	Histogram         []uint64    // energies after the last collision
	EnergyAtCollision [][]float64 // [collision][history]
}

func NewModel(dist *distribution.EnergyDistribution, parameters Parameters, logger *slog.Logger) (*Model, error) {
	if dist == nil {
		return nil, errors.New("model: no energy distribution")
	}
	if !(parameters.SourceEnergy > 0) || math.IsInf(parameters.SourceEnergy, 0) {
		return nil, fmt.Errorf("model: source energy must be positive, got %g", parameters.SourceEnergy)
	}
	if !(parameters.AtomicWeightRatio > 0) {
		return nil, fmt.Errorf("model: atomic weight ratio must be positive, got %g", parameters.AtomicWeightRatio)
	}
	if parameters.Histories < 1 || parameters.Collisions < 1 || parameters.Bins < 1 {
		return nil, fmt.Errorf("model: histories (%d), collisions (%d) and bins (%d) must be positive",
			parameters.Histories, parameters.Collisions, parameters.Bins)
	}
	if parameters.Threads < 1 {
		parameters.Threads = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	m := &Model{Parameters: parameters, dist: dist, logger: logger}
	incoming := dist.IncomingEnergies()
	m.thermalLimit = incoming[len(incoming)-1]
	lowest, highest := math.Inf(1), parameters.SourceEnergy
	for _, e := range incoming {
		table := dist.Table(e)
		if len(table.X()) > 1 && !(table.Integral() > 0) {
			return nil, fmt.Errorf("model: outgoing distribution at %g MeV has zero integral", e)
		}
		lowest = min(lowest, table.LowerBound())
		highest = max(highest, table.UpperBound())
	}
	if !(lowest > 0) || !(highest > lowest) {
		return nil, fmt.Errorf("model: cannot bin energies in [%g, %g] MeV", lowest, highest)
	}

	m.BinEdges = make([]float64, parameters.Bins+1)
	floats.LogSpan(m.BinEdges, lowest, highest)
	m.Histogram = make([]uint64, parameters.Bins)
	m.EnergyAtCollision = make([][]float64, parameters.Collisions)
	for c := range m.EnergyAtCollision {
		m.EnergyAtCollision[c] = make([]float64, parameters.Histories)
	}
	return m, nil
}

// bin clamps energies outside the edges into the first or last bin.
func (m *Model) bin(energy float64) int {
	i := sort.SearchFloat64s(m.BinEdges, energy) - 1
	return min(max(i, 0), len(m.Histogram)-1)
}

type CollisionEvent struct {
	origin    int
	collision int
	energy    float64
}

// histories builds the particles as the workers take them. At most one
// particle per thread waits in the channel.
func (m *Model) histories() <-chan *Particle {
	computeflow := make(chan *Particle, m.Parameters.Threads)
	go func() {
		defer close(computeflow)
		for origin := range m.Parameters.Histories {
			particle := m.newParticle(origin)
			computeflow <- &particle
		}
	}()
	return computeflow
}

// Run follows every history. The results depend on Seed only, not on the
// number of threads.
func (m *Model) Run() {
	var computeWg, stateWg sync.WaitGroup

	collflow := make(chan CollisionEvent, 100000)
	stateWg.Add(1)
	go func() {
		for collision := range collflow {
			m.EnergyAtCollision[collision.collision][collision.origin] = collision.energy
			if collision.collision == m.Parameters.Collisions-1 {
				m.Histogram[m.bin(collision.energy)]++
			}
		}
		stateWg.Done()
	}()

	computeflow := m.histories()

	m.logger.Info("thermalization started",
		"source_energy", m.Parameters.SourceEnergy,
		"histories", m.Parameters.Histories,
		"collisions", m.Parameters.Collisions,
		"threads", m.Parameters.Threads,
	)
	for range m.Parameters.Threads {
		computeWg.Add(1)
		go func() {
			defer computeWg.Done()
			for particlePtr := range computeflow {
				for particlePtr.collisions < m.Parameters.Collisions {
					scatter := m.scatteringSelector(particlePtr.energy)
					particlePtr.setEnergy(scatter(particlePtr.energy, particlePtr.rng))
					collflow <- CollisionEvent{particlePtr.origin, particlePtr.collisions, particlePtr.energy}
					particlePtr.collisions++
				}
			}
		}()
	}
	computeWg.Wait()
	close(collflow)
	stateWg.Wait()
	m.logger.Debug("thermalization finished", "histories", utils.SumSlice(m.Histogram))
}
