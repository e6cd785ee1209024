package core

import (
	"math"
	"reflect"
	"testing"

	"github.com/latticeworks/rp2wb-sim/lattice"
	"github.com/latticeworks/rp2wb-sim/model"
)

func TestEngineDeterministicUnderSeed(t *testing.T) {
	patch, err := lattice.NewRP2Patch(2, 1.0)
	if err != nil {
		t.Fatalf("NewRP2Patch: %v", err)
	}
	cfg := model.DefaultConfig()
	cfg.Simulation.Seed = 99
	cfg.Init.Activation = model.InitRandomFraction
	cfg.Init.Phase = model.PhaseUniformRandom

	a := newTestEngine(t, patch, cfg)
	b := newTestEngine(t, patch, cfg)
	histA := a.Run(20)
	histB := b.Run(20)

	if !reflect.DeepEqual(histA, histB) {
		t.Fatalf("identical seeds diverged")
	}
}

func TestEngineReservoirBoundedEveryTick(t *testing.T) {
	patch, err := lattice.NewRP2Patch(3, 1.0)
	if err != nil {
		t.Fatalf("NewRP2Patch: %v", err)
	}
	cfg := model.DefaultConfig()
	cfg.Simulation.Seed = 5
	cfg.Model.Temperature = 3.0

	e := newTestEngine(t, patch, cfg)
	for i := 0; i < 50; i++ {
		stats := e.Step()
		if stats.Reservoir < 0 || stats.Reservoir > e.State().ReservoirMax {
			t.Fatalf("tick %d: reservoir %v outside [0, %v]", i, stats.Reservoir, e.State().ReservoirMax)
		}
	}
}

func TestEnginePhasesStayInRange(t *testing.T) {
	patch, err := lattice.NewRP2Patch(2, 1.0)
	if err != nil {
		t.Fatalf("NewRP2Patch: %v", err)
	}
	cfg := model.DefaultConfig()
	cfg.Init.Phase = model.PhaseUniformRandom
	cfg.Simulation.Seed = 31

	e := newTestEngine(t, patch, cfg)
	e.Run(10)
	for _, n := range patch.Nodes() {
		p := e.State().Phase(n)
		if p < 0 || p >= 2*math.Pi {
			t.Fatalf("phase(%d) = %v outside [0, 2π)", n, p)
		}
	}
}

func TestEngineVacuumScaleTracksActiveCount(t *testing.T) {
	g := pathGraph(t, 4)
	cfg := testConfig()
	mc := cfg.Model
	e := newTestEngine(t, g, cfg)

	// All inactive: the first tick sees the full vacuum scale.
	e.Step()
	want := mc.VacuumLMin + (mc.VacuumL0-mc.VacuumLMin)*math.Exp(0)
	if got := e.State().VacuumScale; math.Abs(got-want) > 1e-12 {
		t.Fatalf("vacuum scale = %v, want %v at zero active nodes", got, want)
	}

	// Force a big active population; the next tick's scale decays.
	for _, n := range g.Nodes() {
		e.State().active[n] = true
	}
	e.Step()
	want = mc.VacuumLMin + (mc.VacuumL0-mc.VacuumLMin)*math.Exp(-mc.VacuumDecay*4)
	if got := e.State().VacuumScale; math.Abs(got-want) > 1e-12 {
		t.Fatalf("vacuum scale = %v, want %v at 4 active nodes", got, want)
	}
	if e.State().VacuumScale < mc.VacuumLMin || e.State().VacuumScale > mc.VacuumL0 {
		t.Fatalf("vacuum scale %v escaped [%v, %v]", e.State().VacuumScale, mc.VacuumLMin, mc.VacuumL0)
	}
}

// Spec scenario: one tick on the all-inactive 3-node path with a nearly
// full reservoir activates at least one node and debits the vacuum
// scale per activation.
func TestEngineFirstTickScenario(t *testing.T) {
	g := pathGraph(t, 3)
	cfg := testConfig()
	cfg.Model.ReservoirPerNode = 10.0
	cfg.Model.ReservoirFillFraction = 0.8
	cfg.Model.Temperature = 5.0

	e := newTestEngine(t, g, cfg)
	before := e.State().Reservoir
	stats := e.Step()

	if stats.ActiveNodes == 0 || stats.Activations == 0 {
		t.Fatalf("no activation on the first tick: %+v", stats)
	}
	want := math.Max(0, before-float64(stats.Activations)*e.State().VacuumScale)
	if math.Abs(stats.Reservoir-want) > 1e-12 {
		t.Fatalf("reservoir = %v, want %v", stats.Reservoir, want)
	}
}

// Spec scenario: an isolated node keeps its phase forever; only its
// activation (and thus its density baseline) may move, driven by the
// internal energy term alone.
func TestEngineIsolatedNode(t *testing.T) {
	g := pathGraph(t, 1)
	cfg := testConfig()
	cfg.Init.Phase = model.PhaseUniformRandom
	cfg.Model.ReservoirFillFraction = 1.0
	cfg.Simulation.Seed = 17

	e := newTestEngine(t, g, cfg)
	phase0 := e.State().Phase(0)

	flipped := false
	for i := 0; i < 10; i++ {
		e.Step()
		if e.State().Phase(0) != phase0 {
			t.Fatalf("tick %d: isolated node phase moved %v -> %v", i, phase0, e.State().Phase(0))
		}
		rho := e.State().Density(0)
		if rho != cfg.Model.DensityBaseInactive && rho != cfg.Model.DensityBaseActive {
			t.Fatalf("tick %d: isolated node density %v is not a bare baseline", i, rho)
		}
		if e.State().Active(0) {
			flipped = true
		}
	}
	if !flipped {
		t.Fatalf("isolated node never activated despite a full reservoir")
	}
}

func TestEngineTickListener(t *testing.T) {
	g := pathGraph(t, 3)
	cfg := testConfig()
	e := newTestEngine(t, g, cfg)

	var seen []int
	e.RegisterTickListener(func(stats model.TickStats) {
		seen = append(seen, stats.Tick)
	})
	e.Run(3)
	if !reflect.DeepEqual(seen, []int{0, 1, 2}) {
		t.Fatalf("listener saw ticks %v, want [0 1 2]", seen)
	}
	if e.Tick() != 3 {
		t.Fatalf("Tick() = %d, want 3", e.Tick())
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	patch, err := lattice.NewRP2Patch(2, 1.0)
	if err != nil {
		t.Fatalf("NewRP2Patch: %v", err)
	}
	cfg := model.DefaultConfig()
	cfg.Init.Activation = model.InitRandomFraction
	cfg.Init.Phase = model.PhaseUniformRandom
	cfg.Simulation.Seed = 8

	e := newTestEngine(t, patch, cfg)
	e.Run(5)
	snap := e.Snapshot()

	other := newTestEngine(t, patch, cfg)
	if err := other.RestoreState(snap); err != nil {
		t.Fatalf("RestoreState: %v", err)
	}

	if other.State().Reservoir != e.State().Reservoir {
		t.Fatalf("reservoir mismatch after restore")
	}
	for _, n := range patch.Nodes() {
		if other.State().Active(n) != e.State().Active(n) {
			t.Fatalf("activation mismatch at node %d", n)
		}
		if other.State().Phase(n) != e.State().Phase(n) {
			t.Fatalf("phase mismatch at node %d", n)
		}
		if other.State().Density(n) != e.State().Density(n) {
			t.Fatalf("density mismatch at node %d", n)
		}
	}
}

func TestRestoreStateRejectsForeignSnapshot(t *testing.T) {
	g := pathGraph(t, 3)
	cfg := testConfig()
	e := newTestEngine(t, g, cfg)

	snap := e.Snapshot()
	snap.Nodes = snap.Nodes[:2]
	if err := e.RestoreState(snap); err == nil {
		t.Fatalf("RestoreState accepted a snapshot with missing nodes")
	}

	snap = e.Snapshot()
	snap.Nodes[2].ID = 99
	if err := e.RestoreState(snap); err == nil {
		t.Fatalf("RestoreState accepted a snapshot with an unknown node")
	}
}
