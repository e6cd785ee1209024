// Command simulator runs the RP2-WB field model: it builds the
// non-orientable hexagonal lattice, initializes the field state from a
// YAML configuration, and evolves it tick by tick, logging per-tick
// stats and exporting JSON snapshots along the way.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/latticeworks/rp2wb-sim/core"
	"github.com/latticeworks/rp2wb-sim/internal/export"
	"github.com/latticeworks/rp2wb-sim/internal/logging"
	"github.com/latticeworks/rp2wb-sim/internal/observability"
	"github.com/latticeworks/rp2wb-sim/lattice"
	"github.com/latticeworks/rp2wb-sim/model"
	"github.com/latticeworks/rp2wb-sim/timectrl"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "simulator",
		Short:         "RP2-WB lattice field simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newExportCmd())
	return root
}

type runOptions struct {
	configPath  string
	ticks       int
	seed        int64
	snapshotDir string
	metricsAddr string
	realTime    bool
	interval    time.Duration
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a simulation",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulation(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "path to YAML config (defaults apply when empty)")
	cmd.Flags().IntVar(&opts.ticks, "ticks", 0, "override configured tick count")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "override configured random seed")
	cmd.Flags().StringVar(&opts.snapshotDir, "snapshot-dir", "", "directory for periodic JSON snapshots (disabled when empty)")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "listen address for /metrics (disabled when empty)")
	cmd.Flags().BoolVar(&opts.realTime, "real-time", false, "pace ticks at the tick interval instead of running accelerated")
	cmd.Flags().DurationVar(&opts.interval, "tick-interval", time.Second, "tick interval in real-time mode")
	return cmd
}

func runSimulation(ctx context.Context, opts *runOptions) error {
	log := logging.NewFromEnv()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	if opts.ticks > 0 {
		cfg.Simulation.Ticks = opts.ticks
	}
	if opts.seed != 0 {
		cfg.Simulation.Seed = opts.seed
	}

	shutdown, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdown, log)

	engine, patch, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	log.Info(ctx, "lattice built",
		logging.Int("radius", cfg.Graph.Radius),
		logging.Int("nodes", patch.NumNodes()),
		logging.Int("edges", patch.NumEdges()),
	)

	collector, err := observability.NewSimCollector(nil)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	if opts.metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", collector.Handler())
		go func() {
			if err := http.ListenAndServe(opts.metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				log.Warn(ctx, "metrics server stopped", logging.String("error", err.Error()))
			}
		}()
		log.Info(ctx, "metrics server listening", logging.String("addr", opts.metricsAddr))
	}

	engine.RegisterTickListener(func(stats model.TickStats) {
		log.Info(ctx, "tick",
			logging.Int("tick", stats.Tick),
			logging.Float64("reservoir", stats.Reservoir),
			logging.Int("active_nodes", stats.ActiveNodes),
			logging.Float64("vacuum_scale", stats.VacuumScale),
			logging.Float64("mean_density", stats.MeanDensity),
			logging.Int("voided_flips", stats.VoidedFlips),
		)
	})

	mode := timectrl.Accelerated
	if opts.realTime {
		mode = timectrl.RealTime
	}
	controller := timectrl.NewController(opts.interval, mode)

	tracer := otel.Tracer("rp2wb-sim/run")
	runCtx, span := tracer.Start(ctx, "simulation.run")
	defer span.End()

	start := time.Now()
	err = controller.Run(runCtx, cfg.Simulation.Ticks, func(tick int) {
		_, tickSpan := tracer.Start(runCtx, "simulation.tick")
		tickStart := time.Now()
		stats := engine.Step()
		collector.RecordTick(stats, time.Since(tickStart))
		tickSpan.SetAttributes(
			attribute.Int("tick", stats.Tick),
			attribute.Float64("reservoir", stats.Reservoir),
			attribute.Int("active_nodes", stats.ActiveNodes),
		)
		tickSpan.End()

		if opts.snapshotDir != "" && cfg.Simulation.ExportInterval > 0 &&
			(tick+1)%cfg.Simulation.ExportInterval == 0 {
			path := filepath.Join(opts.snapshotDir, fmt.Sprintf("snapshot_%05d.json", stats.Tick))
			if werr := export.WriteSnapshotFile(path, engine.Snapshot()); werr != nil {
				log.Warn(ctx, "snapshot export failed", logging.String("error", werr.Error()))
			}
		}
	})
	if err != nil {
		log.Warn(ctx, "run interrupted", logging.String("error", err.Error()))
	}

	log.Info(ctx, "run finished",
		logging.Int("ticks", engine.Tick()),
		logging.Float64("reservoir", engine.State().Reservoir),
		logging.Int("active_nodes", engine.State().ActiveCount()),
		logging.String("elapsed", time.Since(start).String()),
	)
	return nil
}

func newExportCmd() *cobra.Command {
	var configPath, outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the initial field state as a JSON snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			engine, _, err := buildEngine(cfg)
			if err != nil {
				return err
			}
			if outPath == "" || outPath == "-" {
				return export.WriteSnapshot(cmd.OutOrStdout(), engine.Snapshot())
			}
			return export.WriteSnapshotFile(outPath, engine.Snapshot())
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to YAML config (defaults apply when empty)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "-", "output file, or - for stdout")
	return cmd
}

func loadConfig(path string) (model.Config, error) {
	if path == "" {
		return model.DefaultConfig(), nil
	}
	return model.LoadConfigFile(path)
}

func buildEngine(cfg model.Config) (*core.Engine, *lattice.RP2Patch, error) {
	patch, err := lattice.NewRP2Patch(cfg.Graph.Radius, cfg.Graph.Scale)
	if err != nil {
		return nil, nil, fmt.Errorf("build lattice: %w", err)
	}
	engine, err := core.NewEngine(patch, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("build engine: %w", err)
	}
	return engine, patch, nil
}
