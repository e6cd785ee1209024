package lattice

import (
	"fmt"
	"math"
)

// axial is a hexagonal lattice coordinate. The patch is the set of axial
// points with max(|q|, |r|, |q+r|) <= radius.
type axial struct {
	q, r int
}

// hexDirections are the six neighbor offsets in axial coordinates.
var hexDirections = [6]axial{
	{1, 0}, {0, 1}, {-1, 1}, {-1, 0}, {0, -1}, {1, -1},
}

// Position is the Cartesian embedding of a lattice site, kept for
// exporters and renderers; the engine itself never reads it.
type Position struct {
	X float64
	Y float64
}

// RP2Patch is a hexagonal patch with antipodal identification
// (q, r) ~ (-q, -r). Each antipodal pair is joined by a TS edge, which is
// what makes the resulting topology non-orientable.
type RP2Patch struct {
	*Graph
	Radius    int
	positions map[NodeID]Position
}

// NewRP2Patch builds the patch for the given radius. scale stretches the
// Cartesian embedding and has no effect on the topology.
func NewRP2Patch(radius int, scale float64) (*RP2Patch, error) {
	if radius < 0 {
		return nil, fmt.Errorf("lattice: negative radius %d", radius)
	}
	if scale <= 0 {
		scale = 1.0
	}

	p := &RP2Patch{
		Graph:     NewGraph(),
		Radius:    radius,
		positions: make(map[NodeID]Position),
	}

	// Enumerate sites row by row so node IDs, and every edge insertion
	// below, are stable for a given radius. Map iteration is never used
	// for construction: neighbor orderings feed the engine's seeded
	// draws, so they must be identical across processes.
	byCoord := make(map[axial]NodeID)
	var coords []axial
	for q := -radius; q <= radius; q++ {
		rMin := max(-radius, -q-radius)
		rMax := min(radius, -q+radius)
		for r := rMin; r <= rMax; r++ {
			id := NodeID(len(coords))
			if err := p.AddNode(id); err != nil {
				return nil, err
			}
			coord := axial{q, r}
			byCoord[coord] = id
			coords = append(coords, coord)
			p.positions[id] = Position{
				X: scale * 1.5 * float64(q),
				Y: scale * (math.Sqrt(3)*float64(r) + math.Sqrt(3)*float64(q)/2),
			}
		}
	}

	// Plain lattice edges between hexagonal neighbors.
	for id, coord := range coords {
		for _, d := range hexDirections {
			nb, ok := byCoord[axial{coord.q + d.q, coord.r + d.r}]
			if !ok || nb <= NodeID(id) {
				continue
			}
			if err := p.AddEdge(NodeID(id), nb, false); err != nil {
				return nil, err
			}
		}
	}

	// Antipodal identification: every site is paired with its point
	// reflection. The patch is symmetric, so the partner always exists.
	// Distinct pairs get a TS edge; the origin is its own fixed point.
	for id, coord := range coords {
		partner, ok := byCoord[axial{-coord.q, -coord.r}]
		if !ok {
			return nil, fmt.Errorf("lattice: antipode of (%d,%d) missing", coord.q, coord.r)
		}
		if _, done := p.Antipode(NodeID(id)); done {
			continue
		}
		if err := p.SetAntipode(NodeID(id), partner); err != nil {
			return nil, err
		}
		if NodeID(id) != partner && !p.edgeExists(NodeID(id), partner) {
			if err := p.AddEdge(NodeID(id), partner, true); err != nil {
				return nil, err
			}
		}
	}

	if err := p.SetCenter(byCoord[axial{0, 0}]); err != nil {
		return nil, err
	}
	return p, nil
}

func (g *Graph) edgeExists(u, v NodeID) bool {
	_, ok := g.edges[keyFor(u, v)]
	return ok
}

// PositionOf returns the Cartesian embedding of n.
func (p *RP2Patch) PositionOf(n NodeID) (Position, bool) {
	pos, ok := p.positions[n]
	return pos, ok
}
