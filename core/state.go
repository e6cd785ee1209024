// Package core implements the per-tick evolution engine for the RP2-WB
// field model: Metropolis activation sweeps gated by a bounded reservoir,
// an effective metric derived from density, metric-biased phase/density
// propagation, soliton cluster accounting, and a final relaxation pass.
package core

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/latticeworks/rp2wb-sim/lattice"
	"github.com/latticeworks/rp2wb-sim/model"
)

// State owns the mutable field variables of a run: per-node activation,
// phase, and density, plus the shared reservoir and the vacuum scale.
// Every node of the topology has an explicit entry in every per-node map;
// a lookup miss is a programming error and panics rather than defaulting.
type State struct {
	topo lattice.Topology

	active  map[lattice.NodeID]bool
	phase   map[lattice.NodeID]float64
	density map[lattice.NodeID]float64

	// prior holds the activation snapshot taken just before the current
	// tick's transition sweep; only the cluster accountant reads it.
	prior map[lattice.NodeID]bool

	Reservoir    float64
	ReservoirMax float64
	VacuumScale  float64
}

// NewState builds the field state for topo using the configured
// initialization patterns. rng drives the random patterns so runs stay
// reproducible under a fixed seed.
func NewState(topo lattice.Topology, cfg model.Config, rng *rand.Rand) (*State, error) {
	nodes := topo.Nodes()
	if len(nodes) == 0 {
		return nil, fmt.Errorf("core: topology has no nodes")
	}

	st := &State{
		topo:         topo,
		active:       make(map[lattice.NodeID]bool, len(nodes)),
		phase:        make(map[lattice.NodeID]float64, len(nodes)),
		density:      make(map[lattice.NodeID]float64, len(nodes)),
		prior:        make(map[lattice.NodeID]bool, len(nodes)),
		ReservoirMax: cfg.Model.ReservoirPerNode * float64(len(nodes)),
		VacuumScale:  cfg.Model.VacuumL0,
	}
	st.Reservoir = cfg.Model.ReservoirFillFraction * st.ReservoirMax

	for _, n := range nodes {
		switch cfg.Init.Activation {
		case model.InitAllInactive:
			st.active[n] = false
		case model.InitSingleCenter:
			st.active[n] = n == topo.Center()
		case model.InitRandomFraction:
			st.active[n] = rng.Float64() < cfg.Init.ActiveFraction
		default:
			return nil, fmt.Errorf("core: unknown activation pattern %q", cfg.Init.Activation)
		}

		switch cfg.Init.Phase {
		case model.PhaseUniformZero:
			st.phase[n] = 0
		case model.PhaseUniformRandom:
			st.phase[n] = rng.Float64() * 2 * math.Pi
		default:
			return nil, fmt.Errorf("core: unknown phase pattern %q", cfg.Init.Phase)
		}
	}

	for _, n := range nodes {
		st.density[n] = localDensity(st, cfg.Model, n)
	}
	st.snapshotPrior()
	return st, nil
}

// Active returns the activation of n.
func (st *State) Active(n lattice.NodeID) bool {
	v, ok := st.active[n]
	if !ok {
		panic(fmt.Sprintf("core: activation lookup for unknown node %d", n))
	}
	return v
}

// Phase returns the phase angle of n in [0, 2π).
func (st *State) Phase(n lattice.NodeID) float64 {
	v, ok := st.phase[n]
	if !ok {
		panic(fmt.Sprintf("core: phase lookup for unknown node %d", n))
	}
	return v
}

// Density returns the derived density of n.
func (st *State) Density(n lattice.NodeID) float64 {
	v, ok := st.density[n]
	if !ok {
		panic(fmt.Sprintf("core: density lookup for unknown node %d", n))
	}
	return v
}

// PriorActive returns n's activation as of the last pre-sweep snapshot.
func (st *State) PriorActive(n lattice.NodeID) bool {
	v, ok := st.prior[n]
	if !ok {
		panic(fmt.Sprintf("core: prior-activation lookup for unknown node %d", n))
	}
	return v
}

// AddReservoir accumulates delta into the reservoir, clamping the result
// to [0, ReservoirMax]. The clamp is a deliberate lossy boundary: the
// quantity is bounded, not conserved.
func (st *State) AddReservoir(delta float64) {
	st.Reservoir = math.Max(0, math.Min(st.ReservoirMax, st.Reservoir+delta))
}

// snapshotPrior records the current activation for cluster accounting.
func (st *State) snapshotPrior() {
	for n, v := range st.active {
		st.prior[n] = v
	}
}

// ActiveCount returns the number of active nodes.
func (st *State) ActiveCount() int {
	count := 0
	for _, v := range st.active {
		if v {
			count++
		}
	}
	return count
}

// MeanDensity returns the density averaged over all nodes.
func (st *State) MeanDensity() float64 {
	if len(st.density) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range st.density {
		sum += v
	}
	return sum / float64(len(st.density))
}

// localDensity derives a node's density from its own baseline and the
// active fraction of its neighborhood. Used at initialization and right
// after an accepted flip; the propagation pass uses the coherence form.
func localDensity(st *State, mc model.ModelConfig, n lattice.NodeID) float64 {
	base := mc.DensityBaseInactive
	if st.Active(n) {
		base = mc.DensityBaseActive
	}
	nbrs := st.topo.Neighbors(n)
	if len(nbrs) == 0 {
		return base
	}
	activeNbrs := 0
	for _, j := range nbrs {
		if st.Active(j) {
			activeNbrs++
		}
	}
	return base + mc.DensityBoost*float64(activeNbrs)/float64(len(nbrs))
}

// normalizeAngle maps an angle onto [0, 2π).
func normalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}
