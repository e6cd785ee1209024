package model

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config failed validation: %v", err)
	}
}

func TestLoadConfigEmptyDocumentKeepsDefaults(t *testing.T) {
	cfg, err := LoadConfig(strings.NewReader(""))
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigPartialOverlay(t *testing.T) {
	doc := `
graph:
  radius: 3
model:
  temperature: 0.5
  phase_sync: vectorial
initial_conditions:
  activation: single-center-active
`
	cfg, err := LoadConfig(strings.NewReader(doc))
	require.NoError(t, err)

	if cfg.Graph.Radius != 3 {
		t.Errorf("graph.radius = %d, want 3", cfg.Graph.Radius)
	}
	if cfg.Model.Temperature != 0.5 {
		t.Errorf("model.temperature = %g, want 0.5", cfg.Model.Temperature)
	}
	if cfg.Model.PhaseSync != SyncVectorial {
		t.Errorf("model.phase_sync = %q, want %q", cfg.Model.PhaseSync, SyncVectorial)
	}
	if cfg.Init.Activation != InitSingleCenter {
		t.Errorf("initial_conditions.activation = %q, want %q", cfg.Init.Activation, InitSingleCenter)
	}

	// Untouched keys keep their defaults.
	def := DefaultConfig()
	if cfg.Model.InternalBiasCoeff != def.Model.InternalBiasCoeff {
		t.Errorf("model.internal_bias_coeff = %g, want default %g",
			cfg.Model.InternalBiasCoeff, def.Model.InternalBiasCoeff)
	}
	if cfg.Simulation.Ticks != def.Simulation.Ticks {
		t.Errorf("simulation.ticks = %d, want default %d", cfg.Simulation.Ticks, def.Simulation.Ticks)
	}
}

func TestLoadConfigMalformedYAML(t *testing.T) {
	_, err := LoadConfig(strings.NewReader("graph: [unclosed"))
	if err == nil {
		t.Fatal("expected decode error for malformed document")
	}
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name string
		doc  string
	}{
		{"negative radius", "graph:\n  radius: -1\n"},
		{"zero temperature", "model:\n  temperature: 0\n"},
		{"fill fraction above one", "model:\n  reservoir_fill_fraction: 1.5\n"},
		{"lmin above l0", "model:\n  vacuum_l_min: 2.0\n  vacuum_l0: 1.0\n"},
		{"zero eps0", "model:\n  eps0: 0\n"},
		{"unknown phase sync", "model:\n  phase_sync: chaotic\n"},
		{"unknown activation", "initial_conditions:\n  activation: everything-on\n"},
		{"unknown phase pattern", "initial_conditions:\n  phase: spiral\n"},
		{"active fraction out of range", "initial_conditions:\n  active_fraction: 2.0\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := LoadConfig(strings.NewReader(tc.doc)); err == nil {
				t.Fatalf("expected validation error for %q", tc.doc)
			}
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.yaml")
	doc := "simulation:\n  ticks: 7\n  seed: 99\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)
	if cfg.Simulation.Ticks != 7 || cfg.Simulation.Seed != 99 {
		t.Errorf("got ticks=%d seed=%d, want 7 and 99", cfg.Simulation.Ticks, cfg.Simulation.Seed)
	}
}

func TestLoadConfigFileMissing(t *testing.T) {
	if _, err := LoadConfigFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
