package core

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/latticeworks/rp2wb-sim/lattice"
	"github.com/latticeworks/rp2wb-sim/model"
)

// Engine drives the per-tick evolution of a State over a fixed topology.
// All randomness flows through the single injected source, so a run is
// fully determined by its seed and configuration.
type Engine struct {
	topo  lattice.Topology
	cfg   model.Config
	state *State
	rng   *rand.Rand

	tick          int
	tickListeners []func(model.TickStats)
}

// NewEngine constructs an engine with a freshly initialized state.
func NewEngine(topo lattice.Topology, cfg model.Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(cfg.Simulation.Seed))
	st, err := NewState(topo, cfg, rng)
	if err != nil {
		return nil, err
	}
	return &Engine{
		topo:  topo,
		cfg:   cfg,
		state: st,
		rng:   rng,
	}, nil
}

// State exposes the engine's field state. Callers may read it at any
// tick boundary; mutating it directly voids the run's determinism.
func (e *Engine) State() *State { return e.state }

// Tick returns the number of completed ticks.
func (e *Engine) Tick() int { return e.tick }

// RegisterTickListener adds a callback invoked with the stats of every
// completed tick.
func (e *Engine) RegisterTickListener(fn func(model.TickStats)) {
	e.tickListeners = append(e.tickListeners, fn)
}

// Step runs one full tick. The component order is part of the model's
// contract: vacuum-scale update, Metropolis sweep, effective-metric
// computation, metric-biased propagation, cluster settlement against the
// pre-sweep snapshot, then one relaxation pass.
func (e *Engine) Step() model.TickStats {
	mc := e.cfg.Model
	st := e.state

	// Vacuum scale decays with the pre-sweep active population, once
	// per tick; it is a pure function of that count.
	activeNow := st.ActiveCount()
	st.VacuumScale = mc.VacuumLMin +
		(mc.VacuumL0-mc.VacuumLMin)*math.Exp(-mc.VacuumDecay*float64(activeNow))

	st.snapshotPrior()
	sweep := metropolisSweep(st, mc, e.rng)

	g := computeMetric(st, mc)
	propagate(st, mc, g, e.rng)

	refunds := settleClusters(st, mc)

	relaxPhases(st)

	stats := model.TickStats{
		Tick:           e.tick,
		Reservoir:      st.Reservoir,
		ActiveNodes:    st.ActiveCount(),
		VacuumScale:    st.VacuumScale,
		MeanDensity:    st.MeanDensity(),
		Activations:    sweep.activations,
		Deactivations:  sweep.deactivations,
		VoidedFlips:    sweep.voided,
		ClusterRefunds: refunds,
	}
	e.tick++

	for _, fn := range e.tickListeners {
		fn(stats)
	}
	return stats
}

// Run executes ticks sequentially and returns the per-tick stats.
func (e *Engine) Run(ticks int) []model.TickStats {
	history := make([]model.TickStats, 0, ticks)
	for i := 0; i < ticks; i++ {
		history = append(history, e.Step())
	}
	return history
}

// Snapshot serializes the full field state at the current tick boundary.
func (e *Engine) Snapshot() model.Snapshot {
	st := e.state
	nodes := e.topo.Nodes()
	snap := model.Snapshot{
		Tick:      e.tick,
		Reservoir: st.Reservoir,
		Nodes:     make([]model.NodeState, 0, len(nodes)),
	}
	for _, n := range nodes {
		snap.Nodes = append(snap.Nodes, model.NodeState{
			ID:      int(n),
			Active:  st.Active(n),
			Phase:   st.Phase(n),
			Density: st.Density(n),
		})
	}
	for _, edge := range e.topo.Edges() {
		snap.Edges = append(snap.Edges, model.EdgeState{
			U:  int(edge.U),
			V:  int(edge.V),
			TS: edge.TS,
		})
	}
	return snap
}

// RestoreState overwrites the engine's field state from a snapshot. The
// snapshot must cover exactly the engine's topology.
func (e *Engine) RestoreState(snap model.Snapshot) error {
	st := e.state
	if len(snap.Nodes) != len(e.topo.Nodes()) {
		return fmt.Errorf("core: snapshot has %d nodes, topology has %d",
			len(snap.Nodes), len(e.topo.Nodes()))
	}
	seen := make(map[lattice.NodeID]bool, len(snap.Nodes))
	for _, ns := range snap.Nodes {
		n := lattice.NodeID(ns.ID)
		if _, ok := st.active[n]; !ok {
			return fmt.Errorf("core: snapshot node %d not in topology", ns.ID)
		}
		if seen[n] {
			return fmt.Errorf("core: snapshot node %d duplicated", ns.ID)
		}
		seen[n] = true
	}
	for _, ns := range snap.Nodes {
		n := lattice.NodeID(ns.ID)
		st.active[n] = ns.Active
		st.phase[n] = ns.Phase
		st.density[n] = ns.Density
	}
	st.Reservoir = snap.Reservoir
	st.snapshotPrior()
	e.tick = snap.Tick
	return nil
}
