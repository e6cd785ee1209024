package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/latticeworks/rp2wb-sim/internal/export"
	"github.com/latticeworks/rp2wb-sim/model"
)

func writeConfig(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sim.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func TestBuildEngineFromDefaults(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Graph.Radius = 2

	engine, patch, err := buildEngine(cfg)
	require.NoError(t, err)
	if got := patch.NumNodes(); got != 19 {
		t.Errorf("node count = %d, want 19", got)
	}
	if engine.Tick() != 0 {
		t.Errorf("fresh engine tick = %d, want 0", engine.Tick())
	}
}

func TestBuildEngineRejectsBadConfig(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Model.Temperature = -1
	if _, _, err := buildEngine(cfg); err == nil {
		t.Fatal("expected error for invalid config")
	}
}

func TestExportCommandWritesSnapshotToStdout(t *testing.T) {
	cfgPath := writeConfig(t, `
graph:
  radius: 1
initial_conditions:
  activation: single-center-active
  phase: uniform-zero
`)

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"export", "--config", cfgPath})
	require.NoError(t, root.Execute())

	snap, err := export.ReadSnapshot(&out)
	require.NoError(t, err)
	if len(snap.Nodes) != 7 {
		t.Errorf("snapshot has %d nodes, want 7", len(snap.Nodes))
	}
	active := 0
	for _, n := range snap.Nodes {
		if n.Active {
			active++
		}
	}
	if active != 1 {
		t.Errorf("snapshot has %d active nodes, want 1", active)
	}
}

func TestExportCommandWritesSnapshotFile(t *testing.T) {
	cfgPath := writeConfig(t, "graph:\n  radius: 1\n")
	outPath := filepath.Join(t.TempDir(), "out", "initial.json")

	root := newRootCmd()
	root.SetArgs([]string{"export", "--config", cfgPath, "--out", outPath})
	require.NoError(t, root.Execute())

	snap, err := export.ReadSnapshotFile(outPath)
	require.NoError(t, err)
	if len(snap.Nodes) != 7 {
		t.Errorf("snapshot has %d nodes, want 7", len(snap.Nodes))
	}
}

func TestRunCommandExportsPeriodicSnapshots(t *testing.T) {
	cfgPath := writeConfig(t, `
graph:
  radius: 2
simulation:
  ticks: 4
  export_interval: 2
  seed: 7
`)
	snapDir := t.TempDir()

	root := newRootCmd()
	root.SetArgs([]string{"run", "--config", cfgPath, "--snapshot-dir", snapDir})
	require.NoError(t, root.Execute())

	matches, err := filepath.Glob(filepath.Join(snapDir, "snapshot_*.json"))
	require.NoError(t, err)
	if len(matches) != 2 {
		t.Fatalf("found %d snapshots, want 2: %v", len(matches), matches)
	}
	for _, path := range matches {
		if _, err := export.ReadSnapshotFile(path); err != nil {
			t.Errorf("snapshot %s unreadable: %v", path, err)
		}
	}
}

func TestLoadConfigEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	require.Equal(t, model.DefaultConfig(), cfg)
}
