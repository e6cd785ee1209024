package core

import (
	"math/rand"

	"github.com/latticeworks/rp2wb-sim/model"
)

// sweepResult is the bookkeeping a single Metropolis sweep leaves behind.
type sweepResult struct {
	activations   int
	deactivations int
	voided        int
}

// metropolisSweep visits every node once in a fresh random order and
// applies the Metropolis accept/reject rule to a proposed activation
// flip. The sweep is sequential by design: nodes later in the
// permutation see flips already applied earlier in the same sweep.
//
// An accepted activation still has to be affordable; if the reservoir
// cannot cover the vacuum-scale cost, the transition is silently voided
// for this sweep. This is the only place activation ever changes.
func metropolisSweep(st *State, mc model.ModelConfig, rng *rand.Rand) sweepResult {
	nodes := st.topo.Nodes()
	order := make([]int, len(nodes))
	for i := range order {
		order[i] = i
	}
	rng.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	var res sweepResult
	for _, idx := range order {
		n := nodes[idx]

		delta := flipDelta(st, mc, n)
		if rng.Float64() >= acceptProbability(delta, mc.Temperature) {
			continue
		}

		cost := flipCost(st, mc, n)
		activating := !st.Active(n)
		if activating && st.Reservoir < cost {
			res.voided++
			continue
		}

		st.active[n] = activating
		st.density[n] = localDensity(st, mc, n)
		st.AddReservoir(-cost)

		if activating {
			res.activations++
		} else {
			res.deactivations++
		}
	}
	return res
}
