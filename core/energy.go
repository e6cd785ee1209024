package core

import (
	"math"

	"github.com/latticeworks/rp2wb-sim/lattice"
	"github.com/latticeworks/rp2wb-sim/model"
)

// flipDelta computes the total energy change for flipping node n's
// activation. It is a pure function of the current state: it never
// touches the reservoir or any field map.
//
// The interaction term couples n to each active neighbor j through
// J * cos(φ_i − φ_j − π·ts). Only the active spin contributes its own
// site energy, so flipping toggles the sign of the summed coupling:
// deactivating sheds the term, activating acquires it.
func flipDelta(st *State, mc model.ModelConfig, n lattice.NodeID) float64 {
	interaction := 0.0
	for _, j := range st.topo.Neighbors(n) {
		if !st.Active(j) {
			continue
		}
		coupling := mc.CouplingNormal
		offset := 0.0
		if st.topo.IsTS(n, j) {
			coupling = mc.CouplingTS
			offset = math.Pi
		}
		interaction += coupling * math.Cos(st.Phase(n)-st.Phase(j)-offset)
	}
	if !st.Active(n) {
		interaction = -interaction
	}

	// Internal bias, linear in the reservoir fill fraction: a fuller
	// reservoir favors activation, a depleted one favors deactivation.
	ratio := st.Reservoir / math.Max(1e-3, st.ReservoirMax)
	effective := mc.InternalBiasCoeff * (2.0*ratio - 1.0)
	internal := 2.0 * effective
	if !st.Active(n) {
		internal = -internal
	}

	return internal + interaction
}

// flipCost returns the signed reservoir adjustment for an accepted flip
// of n: positive values are consumed, negative values are refunded.
// Activation costs the current vacuum scale. Deactivation refunds a
// fraction of the node's density when it sits at soliton level, and is
// free otherwise.
func flipCost(st *State, mc model.ModelConfig, n lattice.NodeID) float64 {
	if !st.Active(n) {
		return st.VacuumScale
	}
	if rho := st.Density(n); rho >= mc.SolitonThreshold {
		return -mc.RefundFactor * rho
	}
	return 0
}

// acceptProbability is the Metropolis acceptance rule: certain for
// energy-lowering moves, Boltzmann-suppressed otherwise.
func acceptProbability(delta, temperature float64) float64 {
	if delta < 0 {
		return 1.0
	}
	return math.Exp(-delta / temperature)
}
