package core

import (
	"math/cmplx"

	"github.com/latticeworks/rp2wb-sim/lattice"
)

// relaxPhases performs one smoothing pass: each active node with at
// least one active neighbor takes the circular mean of those neighbors'
// post-propagation phases. Inactive nodes and active nodes without
// active neighbors are untouched. New phases are committed only after
// every node has been read.
func relaxPhases(st *State) {
	newPhase := make(map[lattice.NodeID]float64)
	for _, n := range st.topo.Nodes() {
		if !st.Active(n) {
			continue
		}
		var vec complex128
		found := false
		for _, j := range st.topo.Neighbors(n) {
			if !st.Active(j) {
				continue
			}
			vec += cmplx.Exp(complex(0, st.Phase(j)))
			found = true
		}
		if !found {
			continue
		}
		newPhase[n] = normalizeAngle(cmplx.Phase(vec))
	}
	for n, v := range newPhase {
		st.phase[n] = v
	}
}
