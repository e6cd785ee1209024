package model

import (
	"fmt"
	"io"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Activation patterns for field initialization.
const (
	InitAllInactive    = "all-inactive"
	InitSingleCenter   = "single-center-active"
	InitRandomFraction = "random-fraction"
)

// Phase patterns for field initialization.
const (
	PhaseUniformZero   = "uniform-zero"
	PhaseUniformRandom = "uniform-random"
)

// Phase synchronization modes for the propagation step.
const (
	// SyncMetric draws a single neighbor biased by the effective metric
	// and takes its phase. This is the default rule.
	SyncMetric = "metric"
	// SyncVectorial averages the phases of all active neighbors
	// vectorially, restoring the coherence damping on density.
	SyncVectorial = "vectorial"
)

// GraphConfig sizes the RP2 hexagonal patch.
type GraphConfig struct {
	Radius int     `yaml:"radius"`
	Scale  float64 `yaml:"scale"`
}

// SimulationConfig controls run length, pacing, and reproducibility.
type SimulationConfig struct {
	Ticks          int   `yaml:"ticks"`
	ExportInterval int   `yaml:"export_interval"`
	Seed           int64 `yaml:"seed"`
}

// ModelConfig carries every numeric knob of the field model.
type ModelConfig struct {
	// Reservoir sizing: max = ReservoirPerNode * node count; initial
	// value = ReservoirFillFraction * max.
	ReservoirPerNode      float64 `yaml:"reservoir_per_node"`
	ReservoirFillFraction float64 `yaml:"reservoir_fill_fraction"`

	// Metropolis temperature.
	Temperature float64 `yaml:"temperature"`

	// Coupling strengths for normal and topologically-sensitive edges.
	CouplingNormal float64 `yaml:"coupling_normal"`
	CouplingTS     float64 `yaml:"coupling_ts"`

	// Internal energy bias coefficient, linear in reservoir fill.
	InternalBiasCoeff float64 `yaml:"internal_bias_coeff"`

	// Vacuum scale: decays from L0 toward LMin with active-node count.
	VacuumL0    float64 `yaml:"vacuum_l0"`
	VacuumLMin  float64 `yaml:"vacuum_l_min"`
	VacuumDecay float64 `yaml:"vacuum_decay"`

	// Soliton bookkeeping.
	SolitonThreshold float64 `yaml:"soliton_threshold"`
	RefundFactor     float64 `yaml:"refund_factor"`

	// Effective metric coefficients.
	Alpha  float64 `yaml:"alpha"`
	NPower float64 `yaml:"n_power"`
	Beta   float64 `yaml:"beta"`
	Eps0   float64 `yaml:"eps0"`
	MPower float64 `yaml:"m_power"`
	PPower float64 `yaml:"p_power"`

	// Phase precession coefficients.
	C2 float64 `yaml:"c2"`
	C3 float64 `yaml:"c3"`

	// Density baselines and coherence boost.
	DensityBaseInactive float64 `yaml:"density_base_inactive"`
	DensityBaseActive   float64 `yaml:"density_base_active"`
	DensityBoost        float64 `yaml:"density_boost"`

	// Phase synchronization rule: "metric" or "vectorial".
	PhaseSync string `yaml:"phase_sync"`
}

// InitConfig selects the initial field patterns.
type InitConfig struct {
	Activation     string  `yaml:"activation"`
	Phase          string  `yaml:"phase"`
	ActiveFraction float64 `yaml:"active_fraction"`
}

// Config is the full simulator configuration.
type Config struct {
	Graph      GraphConfig      `yaml:"graph"`
	Simulation SimulationConfig `yaml:"simulation"`
	Model      ModelConfig      `yaml:"model"`
	Init       InitConfig       `yaml:"initial_conditions"`
}

// DefaultConfig returns the documented defaults; every recognized option
// has one so a partial (or empty) config file is valid.
func DefaultConfig() Config {
	return Config{
		Graph: GraphConfig{
			Radius: 5,
			Scale:  1.0,
		},
		Simulation: SimulationConfig{
			Ticks:          100,
			ExportInterval: 10,
			Seed:           1,
		},
		Model: ModelConfig{
			ReservoirPerNode:      10.0,
			ReservoirFillFraction: 0.8,
			Temperature:           1.0,
			CouplingNormal:        1.0,
			CouplingTS:            1.0,
			InternalBiasCoeff:     3.5,
			VacuumL0:              1.0,
			VacuumLMin:            0.2,
			VacuumDecay:           0.01,
			SolitonThreshold:      0.6,
			RefundFactor:          0.2,
			Alpha:                 1.0,
			NPower:                1.0,
			Beta:                  1.0,
			Eps0:                  1.0,
			MPower:                1.0,
			PPower:                1.0,
			C2:                    1.0,
			C3:                    1.5,
			DensityBaseInactive:   0.1,
			DensityBaseActive:     0.6,
			DensityBoost:          0.3,
			PhaseSync:             SyncMetric,
		},
		Init: InitConfig{
			Activation:     InitRandomFraction,
			Phase:          PhaseUniformRandom,
			ActiveFraction: 0.1,
		},
	}
}

// LoadConfig reads a YAML config from r on top of the defaults. Malformed
// documents and out-of-range values fail here, before any engine exists.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, fmt.Errorf("config: decode failed: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfigFile reads a YAML config from disk.
func LoadConfigFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()
	cfg, err := LoadConfig(f)
	if err != nil {
		return Config{}, fmt.Errorf("config: %q: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if c.Graph.Radius < 0 {
		return fmt.Errorf("config: graph.radius must be >= 0, got %d", c.Graph.Radius)
	}
	if c.Simulation.Ticks < 0 {
		return fmt.Errorf("config: simulation.ticks must be >= 0, got %d", c.Simulation.Ticks)
	}
	if c.Model.ReservoirPerNode <= 0 {
		return fmt.Errorf("config: model.reservoir_per_node must be > 0, got %g", c.Model.ReservoirPerNode)
	}
	if c.Model.ReservoirFillFraction < 0 || c.Model.ReservoirFillFraction > 1 {
		return fmt.Errorf("config: model.reservoir_fill_fraction must be in [0,1], got %g", c.Model.ReservoirFillFraction)
	}
	if c.Model.Temperature <= 0 {
		return fmt.Errorf("config: model.temperature must be > 0, got %g", c.Model.Temperature)
	}
	if c.Model.VacuumLMin > c.Model.VacuumL0 {
		return fmt.Errorf("config: model.vacuum_l_min (%g) exceeds model.vacuum_l0 (%g)",
			c.Model.VacuumLMin, c.Model.VacuumL0)
	}
	if c.Model.Eps0 == 0 {
		return fmt.Errorf("config: model.eps0 must be non-zero")
	}
	for name, v := range map[string]float64{
		"model.soliton_threshold": c.Model.SolitonThreshold,
		"model.refund_factor":     c.Model.RefundFactor,
		"model.vacuum_decay":      c.Model.VacuumDecay,
	} {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("config: %s must be >= 0, got %g", name, v)
		}
	}
	switch c.Model.PhaseSync {
	case SyncMetric, SyncVectorial:
	default:
		return fmt.Errorf("config: model.phase_sync must be %q or %q, got %q",
			SyncMetric, SyncVectorial, c.Model.PhaseSync)
	}
	switch c.Init.Activation {
	case InitAllInactive, InitSingleCenter, InitRandomFraction:
	default:
		return fmt.Errorf("config: initial_conditions.activation must be one of %q, %q, %q; got %q",
			InitAllInactive, InitSingleCenter, InitRandomFraction, c.Init.Activation)
	}
	switch c.Init.Phase {
	case PhaseUniformZero, PhaseUniformRandom:
	default:
		return fmt.Errorf("config: initial_conditions.phase must be %q or %q, got %q",
			PhaseUniformZero, PhaseUniformRandom, c.Init.Phase)
	}
	if c.Init.ActiveFraction < 0 || c.Init.ActiveFraction > 1 {
		return fmt.Errorf("config: initial_conditions.active_fraction must be in [0,1], got %g",
			c.Init.ActiveFraction)
	}
	return nil
}
