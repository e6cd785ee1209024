package core

import (
	"math"

	"github.com/latticeworks/rp2wb-sim/lattice"
	"github.com/latticeworks/rp2wb-sim/model"
)

// directedPair keys the directional metric weight for the ordered
// neighbor pair source → target.
type directedPair struct {
	from, to lattice.NodeID
}

// effectiveMetric holds the per-tick derived weight fields. It is
// rebuilt from scratch every tick by computeMetric and consumed only by
// the propagation step of the same tick.
type effectiveMetric struct {
	iso   map[lattice.NodeID]float64
	aniso map[lattice.NodeID]float64
	dir   map[directedPair]float64
}

// computeMetric derives the effective metric from the current density
// field:
//
//	f_i   = 1 / (1 + α·ρ_i^n)
//	g2_i  = Σ_j (ρ_i − ρ_j)²           over all neighbors j
//	h_i   = β·g2_i + ε²·ρ_i^m·g2_i^p
//	T_i→j = (ρ_i − ρ_j)² / (g2_i + ε²)
//
// The directional weight is deliberately asymmetric: the denominator is
// the source node's own squared gradient, so T_i→j and T_j→i differ
// whenever the two endpoints sit in different gradient environments.
func computeMetric(st *State, mc model.ModelConfig) *effectiveMetric {
	nodes := st.topo.Nodes()
	g := &effectiveMetric{
		iso:   make(map[lattice.NodeID]float64, len(nodes)),
		aniso: make(map[lattice.NodeID]float64, len(nodes)),
		dir:   make(map[directedPair]float64),
	}

	eps2 := mc.Eps0 * mc.Eps0
	for _, i := range nodes {
		rhoI := st.Density(i)
		g.iso[i] = 1.0 / (1.0 + mc.Alpha*math.Pow(rhoI, mc.NPower))

		nbrs := st.topo.Neighbors(i)
		grad2 := 0.0
		for _, j := range nbrs {
			d := rhoI - st.Density(j)
			grad2 += d * d
		}
		g.aniso[i] = mc.Beta*grad2 + eps2*math.Pow(rhoI, mc.MPower)*math.Pow(grad2, mc.PPower)

		denom := grad2 + eps2
		for _, j := range nbrs {
			d := rhoI - st.Density(j)
			g.dir[directedPair{from: i, to: j}] = d * d / denom
		}
	}
	return g
}

// weight returns the propagation weight for drawing neighbor j from i.
func (g *effectiveMetric) weight(i, j lattice.NodeID) float64 {
	return g.iso[i] + g.aniso[i]*g.dir[directedPair{from: i, to: j}]
}
