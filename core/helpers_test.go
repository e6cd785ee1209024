package core

import (
	"math/rand"
	"testing"

	"github.com/latticeworks/rp2wb-sim/lattice"
	"github.com/latticeworks/rp2wb-sim/model"
)

// pathGraph builds a simple path 0-1-...-n-1 with no TS edges.
func pathGraph(t *testing.T, n int) *lattice.Graph {
	t.Helper()
	g := lattice.NewGraph()
	for i := 0; i < n; i++ {
		if err := g.AddNode(lattice.NodeID(i)); err != nil {
			t.Fatalf("AddNode(%d): %v", i, err)
		}
	}
	for i := 0; i+1 < n; i++ {
		if err := g.AddEdge(lattice.NodeID(i), lattice.NodeID(i+1), false); err != nil {
			t.Fatalf("AddEdge(%d,%d): %v", i, i+1, err)
		}
	}
	return g
}

// testConfig returns a deterministic baseline configuration for unit
// tests: all nodes inactive, zero phases, fixed seed.
func testConfig() model.Config {
	cfg := model.DefaultConfig()
	cfg.Init.Activation = model.InitAllInactive
	cfg.Init.Phase = model.PhaseUniformZero
	cfg.Simulation.Seed = 42
	return cfg
}

func newTestState(t *testing.T, topo lattice.Topology, cfg model.Config) *State {
	t.Helper()
	st, err := NewState(topo, cfg, rand.New(rand.NewSource(cfg.Simulation.Seed)))
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	return st
}

func newTestEngine(t *testing.T, topo lattice.Topology, cfg model.Config) *Engine {
	t.Helper()
	e, err := NewEngine(topo, cfg)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}
