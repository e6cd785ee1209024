// Package observability wires Prometheus metrics and OpenTelemetry
// tracing for the simulator.
package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/latticeworks/rp2wb-sim/model"
)

// SimCollector bundles Prometheus metrics for the field engine and
// provides a ready-to-serve /metrics handler.
type SimCollector struct {
	gatherer prometheus.Gatherer

	TicksTotal   prometheus.Counter
	TickDuration prometheus.Histogram

	Reservoir   prometheus.Gauge
	ActiveNodes prometheus.Gauge
	VacuumScale prometheus.Gauge
	MeanDensity prometheus.Gauge

	Transitions    *prometheus.CounterVec
	ClusterRefunds prometheus.Counter
}

// NewSimCollector registers simulator Prometheus metrics against the
// provided registerer, defaulting to the global Prometheus registry when
// nil. Registration tolerates collectors that already exist so repeated
// engine construction in one process does not fail.
func NewSimCollector(reg prometheus.Registerer) (*SimCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	ticks, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sim_ticks_total",
		Help: "Total number of completed simulation ticks.",
	}), "sim_ticks_total")
	if err != nil {
		return nil, err
	}

	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sim_tick_duration_seconds",
		Help:    "Wall-clock duration of a full simulation tick.",
		Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	})
	duration, err = registerHistogram(reg, duration, "sim_tick_duration_seconds")
	if err != nil {
		return nil, err
	}

	reservoir, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sim_reservoir",
		Help: "Current value of the shared resource reservoir.",
	}), "sim_reservoir")
	if err != nil {
		return nil, err
	}
	activeNodes, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sim_active_nodes",
		Help: "Current number of active lattice nodes.",
	}), "sim_active_nodes")
	if err != nil {
		return nil, err
	}
	vacuumScale, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sim_vacuum_scale",
		Help: "Current vacuum scale (activation cost).",
	}), "sim_vacuum_scale")
	if err != nil {
		return nil, err
	}
	meanDensity, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sim_mean_density",
		Help: "Mean node density across the lattice.",
	}), "sim_mean_density")
	if err != nil {
		return nil, err
	}

	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sim_transitions_total",
		Help: "Accepted and voided activation transitions, labeled by kind.",
	}, []string{"kind"})
	transitions, err = registerCounterVec(reg, transitions, "sim_transitions_total")
	if err != nil {
		return nil, err
	}

	refunds, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sim_cluster_refunds_total",
		Help: "Total number of soliton clusters refunded on dissolution.",
	}), "sim_cluster_refunds_total")
	if err != nil {
		return nil, err
	}

	return &SimCollector{
		gatherer:       gatherer,
		TicksTotal:     ticks,
		TickDuration:   duration,
		Reservoir:      reservoir,
		ActiveNodes:    activeNodes,
		VacuumScale:    vacuumScale,
		MeanDensity:    meanDensity,
		Transitions:    transitions,
		ClusterRefunds: refunds,
	}, nil
}

// RecordTick pushes one tick's stats into the collector.
func (c *SimCollector) RecordTick(stats model.TickStats, elapsed time.Duration) {
	if c == nil {
		return
	}
	if c.TicksTotal != nil {
		c.TicksTotal.Inc()
	}
	if c.TickDuration != nil {
		c.TickDuration.Observe(elapsed.Seconds())
	}
	if c.Reservoir != nil {
		c.Reservoir.Set(stats.Reservoir)
	}
	if c.ActiveNodes != nil {
		c.ActiveNodes.Set(float64(stats.ActiveNodes))
	}
	if c.VacuumScale != nil {
		c.VacuumScale.Set(stats.VacuumScale)
	}
	if c.MeanDensity != nil {
		c.MeanDensity.Set(stats.MeanDensity)
	}
	if c.Transitions != nil {
		c.Transitions.WithLabelValues("activation").Add(float64(stats.Activations))
		c.Transitions.WithLabelValues("deactivation").Add(float64(stats.Deactivations))
		c.Transitions.WithLabelValues("voided").Add(float64(stats.VoidedFlips))
	}
	if c.ClusterRefunds != nil {
		c.ClusterRefunds.Add(float64(stats.ClusterRefunds))
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *SimCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
