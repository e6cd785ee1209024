package core

import (
	"github.com/latticeworks/rp2wb-sim/lattice"
	"github.com/latticeworks/rp2wb-sim/model"
)

// solitonClusters returns the connected components of the subgraph
// induced by nodes whose density is at or above threshold, via
// breadth-first traversal over the full adjacency in stable node order.
func solitonClusters(topo lattice.Topology, st *State, threshold float64) [][]lattice.NodeID {
	visited := make(map[lattice.NodeID]bool)
	var clusters [][]lattice.NodeID

	for _, start := range topo.Nodes() {
		if visited[start] || st.Density(start) < threshold {
			continue
		}
		var cluster []lattice.NodeID
		queue := []lattice.NodeID{start}
		visited[start] = true
		for len(queue) > 0 {
			u := queue[0]
			queue = queue[1:]
			cluster = append(cluster, u)
			for _, v := range topo.Neighbors(u) {
				if !visited[v] && st.Density(v) >= threshold {
					visited[v] = true
					queue = append(queue, v)
				}
			}
		}
		clusters = append(clusters, cluster)
	}
	return clusters
}

// settleClusters refunds the reservoir for every soliton cluster that
// dissolved during the current tick: some member was active in the
// pre-sweep snapshot and every member is inactive now. The refund is
// refund_factor times the cluster's summed density, clamp-bounded like
// every other reservoir adjustment. Activation and phase are never
// touched here.
func settleClusters(st *State, mc model.ModelConfig) int {
	refunded := 0
	for _, cluster := range solitonClusters(st.topo, st, mc.SolitonThreshold) {
		wasActive := false
		nowInactive := true
		for _, n := range cluster {
			if st.PriorActive(n) {
				wasActive = true
			}
			if st.Active(n) {
				nowInactive = false
				break
			}
		}
		if !wasActive || !nowInactive {
			continue
		}

		energy := 0.0
		for _, n := range cluster {
			energy += st.Density(n)
		}
		st.AddReservoir(mc.RefundFactor * energy)
		refunded++
	}
	return refunded
}
