package core

import (
	"math/cmplx"
	"math/rand"

	"github.com/latticeworks/rp2wb-sim/lattice"
	"github.com/latticeworks/rp2wb-sim/model"
)

// propagate advances phase and density across the lattice in one
// synchronized pass: every node's draw and new values are computed from
// pre-pass state, and all updates are committed together at the end, so
// no node ever reads a neighbor's same-pass result.
//
// In the default "metric" mode each node draws exactly one neighbor,
// weighted by the effective metric, and reuses that single draw for both
// its phase and its density update. In "vectorial" mode the node instead
// synchronizes against the vector average of all active neighbors, which
// restores the coherence damping on density.
//
// Nodes with no neighbors, or whose propagation weights all vanish, keep
// their phase and density untouched for the tick.
func propagate(st *State, mc model.ModelConfig, g *effectiveMetric, rng *rand.Rand) {
	nodes := st.topo.Nodes()
	newPhase := make(map[lattice.NodeID]float64, len(nodes))
	newDensity := make(map[lattice.NodeID]float64, len(nodes))

	for _, i := range nodes {
		switch mc.PhaseSync {
		case model.SyncVectorial:
			phase, density, ok := vectorialUpdate(st, mc, i)
			if !ok {
				continue
			}
			newPhase[i] = phase
			newDensity[i] = density
		default:
			j, ok := drawNeighbor(st, g, i, rng)
			if !ok {
				continue
			}
			newPhase[i], newDensity[i] = metricUpdate(st, mc, i, j)
		}
	}

	for n, v := range newPhase {
		st.phase[n] = v
	}
	for n, v := range newDensity {
		st.density[n] = v
	}
}

// drawNeighbor selects one neighbor of i with probability proportional
// to f_i + h_i·T_i→j, via a cumulative-weight draw against the injected
// random source. It reports false when i has no neighbors or all
// weights are zero.
func drawNeighbor(st *State, g *effectiveMetric, i lattice.NodeID, rng *rand.Rand) (lattice.NodeID, bool) {
	nbrs := st.topo.Neighbors(i)
	if len(nbrs) == 0 {
		return 0, false
	}

	total := 0.0
	for _, j := range nbrs {
		total += g.weight(i, j)
	}
	if total <= 0 {
		return 0, false
	}

	target := rng.Float64() * total
	cum := 0.0
	for _, j := range nbrs {
		cum += g.weight(i, j)
		if target < cum {
			return j, true
		}
	}
	// Floating-point shortfall at the top of the cumulative range.
	return nbrs[len(nbrs)-1], true
}

// metricUpdate computes i's next phase and density from the single drawn
// neighbor j. The precession Ω couples the node's own density with the
// squared density gradient along the drawn edge. With a single source
// neighbor the local coherence is exactly 1, so the density boost is
// applied in full.
func metricUpdate(st *State, mc model.ModelConfig, i, j lattice.NodeID) (float64, float64) {
	rhoI, rhoJ := st.Density(i), st.Density(j)
	d := rhoI - rhoJ
	omega := mc.C3*rhoI + mc.C2*d*d
	phase := normalizeAngle(st.Phase(j) + omega)

	base := mc.DensityBaseInactive
	if st.Active(i) {
		base = mc.DensityBaseActive
	}
	return phase, base + mc.DensityBoost
}

// vectorialUpdate computes i's next phase and density from the vector
// average over all currently-active neighbors, reading pre-pass phases
// only. It reports false when i has no active neighbors.
func vectorialUpdate(st *State, mc model.ModelConfig, i lattice.NodeID) (float64, float64, bool) {
	var vec complex128
	activeNbrs := 0
	grad2 := 0.0
	rhoI := st.Density(i)
	for _, j := range st.topo.Neighbors(i) {
		if !st.Active(j) {
			continue
		}
		activeNbrs++
		vec += cmplx.Exp(complex(0, st.Phase(j)))
		d := rhoI - st.Density(j)
		grad2 += d * d
	}
	if activeNbrs == 0 {
		return 0, 0, false
	}

	omega := mc.C3*rhoI + mc.C2*grad2
	phase := normalizeAngle(cmplx.Phase(vec) + omega)

	coherence := cmplx.Abs(vec) / float64(activeNbrs)
	base := mc.DensityBaseInactive
	if st.Active(i) {
		base = mc.DensityBaseActive
	}
	return phase, base + mc.DensityBoost*coherence*coherence, true
}
