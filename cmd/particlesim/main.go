package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/particlesim/internal/analysis"
	"github.com/san-kum/particlesim/internal/automation"
	"github.com/san-kum/particlesim/internal/config"
	"github.com/san-kum/particlesim/internal/experiment"
	"github.com/san-kum/particlesim/internal/export"
	"github.com/san-kum/particlesim/internal/gui"
	"github.com/san-kum/particlesim/internal/observability"
	"github.com/san-kum/particlesim/internal/optim"
	"github.com/san-kum/particlesim/internal/sim"
	"github.com/san-kum/particlesim/internal/storage"
	"github.com/san-kum/particlesim/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string
	logLevel   string
	logFormat  string
	// run overrides
	frames    int
	seed      int64
	particles int
	subSteps  int
	metrics   []string
	// export
	outPath string
	scale   float64
	series  bool
	// bench
	runs    int
	workers int
	// sweep / search
	sweepParam  string
	sweepMin    float64
	sweepMax    float64
	sweepSteps  int
	searchGrids []string
	metricName  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "particlesim",
		Short: "real-time verlet particle sandbox",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			observability.InitializeLogger(cfg.Logger)
			dir, err := homedir.Expand(dataDir)
			if err != nil {
				return fmt.Errorf("data dir: %w", err)
			}
			dataDir = dir
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			observability.Sync()
		},
		Run: func(cmd *cobra.Command, args []string) {
			gui.RunInteractive(observability.L())
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dataDir, "data", ".particlesim", "data directory")
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&preset, "preset", "", "start from a named preset")
	pf.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	pf.StringVar(&logFormat, "log-format", "console", "log format (console, json)")
	pf.IntVar(&frames, "frames", config.DefaultFrames, "frames to simulate")
	pf.Int64Var(&seed, "seed", 1, "random seed")
	pf.IntVar(&particles, "particles", config.DefaultMaxParticles, "particle cap")
	pf.IntVar(&subSteps, "sub-steps", config.DefaultSubSteps, "physics sub-steps per frame")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a headless simulation and store the result",
		RunE:  runSimulation,
	}
	runCmd.Flags().StringSliceVar(&metrics, "metrics", nil, "metrics to record (default: energy,stability,containment,speed_spread)")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run with the terminal live view",
		RunE:  runLive,
	}

	tuiCmd := &cobra.Command{
		Use:   "tui",
		Short: "terminal preset picker",
		RunE: func(cmd *cobra.Command, args []string) error {
			return viz.RunInteractive(observability.L())
		},
	}

	guiCmd := &cobra.Command{
		Use:   "gui",
		Short: "run in a raylib window",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			gui.Run(cfg, observability.L())
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot per-frame statistics of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&outPath, "out", "o", "", "write the full run to this file (default: metadata to stdout)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "render the final particle snapshot of a run as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&outPath, "out", "o", "-", "output path, - for stdout")
	exportSVGCmd.Flags().Float64Var(&scale, "scale", 1, "pixels per world unit")
	exportSVGCmd.Flags().BoolVar(&series, "energy", false, "plot kinetic energy over time instead")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "run independent seeds concurrently and report throughput",
		RunE:  benchRuns,
	}
	benchCmd.Flags().IntVar(&runs, "runs", 4, "number of independent runs")
	benchCmd.Flags().IntVar(&workers, "workers", 0, "max concurrent runs (0 = unlimited)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list presets",
		Run: func(cmd *cobra.Command, args []string) {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tBOUNDARY\tGRAVITY\tATTRACTION\tPARTICLES")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%s\t%.0f\t%.0f\t%d\n",
					name, p.World.Boundary, p.Physics.Gravity.Y, p.Physics.AttractionFactor, p.Spawn.MaxParticles)
			}
			w.Flush()
		},
	}

	metricsCmd := &cobra.Command{
		Use:   "metrics",
		Short: "list available metrics",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range experiment.NewRegistry().ListMetrics() {
				fmt.Printf("  %s\n", name)
			}
		},
	}

	initCmd := &cobra.Command{
		Use:   "init-config [path]",
		Short: "write the effective configuration to a yaml file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := config.Save(args[0], cfg); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", args[0])
			return nil
		},
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of a run's kinetic energy",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted sequence of presets",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "run a preset across evenly spaced values of one setting",
		RunE:  runSweep,
	}
	sweepCmd.Flags().StringVar(&sweepParam, "param", "collision_response", "setting to vary")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0.25, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 1, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 4, "number of values")
	sweepCmd.Flags().StringVar(&metricName, "metric", "overlap", "metric to report")

	searchCmd := &cobra.Command{
		Use:   "search",
		Short: "grid search settings minimising a metric",
		RunE:  runSearch,
	}
	searchCmd.Flags().StringArrayVar(&searchGrids, "grid", []string{"sub_steps=2:8:4", "collision_response=0.5:1:3"}, "name=min:max:steps, repeatable")
	searchCmd.Flags().StringVar(&metricName, "metric", "overlap", "metric to minimise")

	rootCmd.AddCommand(runCmd, liveCmd, tuiCmd, guiCmd, listCmd, plotCmd, exportCmd, exportSVGCmd, benchCmd, presetsCmd, metricsCmd, initCmd,
		analyzeCmd, scenarioCmd, sweepCmd, searchCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig layers preset, config file and explicitly set flags, in that
// order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("frames") {
		cfg.Run.Frames = frames
	}
	if flags.Changed("seed") {
		cfg.Run.Seed = seed
	}
	if flags.Changed("particles") {
		cfg.Spawn.MaxParticles = particles
	}
	if flags.Changed("sub-steps") {
		cfg.Physics.SubSteps = subSteps
	}
	if flags.Changed("log-level") {
		cfg.Logger.Level = logLevel
	}
	if flags.Changed("log-format") {
		cfg.Logger.Format = logFormat
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := observability.L()

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	exp := experiment.New(cfg, logger)
	if err := exp.Setup(experiment.NewRegistry(), metrics); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("running %s for %d frames...\n", cfg.Preset, cfg.Run.Frames)
	start := time.Now()

	result, runErr := exp.Run(ctx)
	if result == nil {
		return runErr
	}
	if runErr != nil {
		logger.Warn("run stopped early", zap.Int("frames", result.Frames), zap.Error(runErr))
	}

	elapsed := time.Since(start)

	runID, err := st.Save(cfg, result, exp.System().Particles())
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("frames: %d\n", result.Frames)
	fmt.Printf("particles: %d\n", exp.System().Len())
	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(result.Metrics))
	for name := range result.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, result.Metrics[name])
	}

	return runErr
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := observability.L()
	return viz.RunLive(func() (*experiment.Experiment, error) {
		c := *cfg
		exp := experiment.New(&c, logger)
		if err := exp.Setup(experiment.NewRegistry(), nil); err != nil {
			return nil, err
		}
		return exp, nil
	})
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tFRAMES\tSUBSTEPS\tPARTICLES\tSEED")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
			run.ID,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Frames,
			run.SubSteps,
			run.Particles,
			run.Seed,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	stats, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}
	if len(stats) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("preset: %s\n", meta.Preset)
	fmt.Printf("frames: %d\n\n", len(stats))

	plots := []struct {
		caption string
		value   func(fs sim.FrameStats) float64
	}{
		{"kinetic energy", func(fs sim.FrameStats) float64 { return fs.KineticEnergy }},
		{"particles", func(fs sim.FrameStats) float64 { return float64(fs.Particles) }},
		{"contacts per frame", func(fs sim.FrameStats) float64 { return float64(fs.Contacts) }},
	}

	for _, p := range plots {
		data := make([]float64, len(stats))
		for i, fs := range stats {
			data[i] = p.value(fs)
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(p.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)

	if outPath != "" {
		if err := st.ExportJSON(runID, outPath); err != nil {
			return err
		}
		fmt.Printf("exported %s to %s\n", runID, outPath)
		return nil
	}

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	var svg string
	if series {
		stats, err := st.LoadFrames(runID)
		if err != nil {
			return err
		}
		energy := make([]float64, len(stats))
		for i, fs := range stats {
			energy[i] = fs.KineticEnergy
		}
		svg = export.SeriesToSVG(energy, 800, 300, "#00ff88")
	} else {
		ps, err := st.LoadParticles(runID)
		if err != nil {
			return err
		}
		cfg := meta.Config
		if cfg == nil {
			cfg = config.DefaultConfig()
		}
		sys, err := sim.New(cfg.SimConfig())
		if err != nil {
			return err
		}
		svg = export.ParticlesToSVG(ps, cfg.World.Width, cfg.World.Height, sys.Boundary(), scale)
	}
	if svg == "" {
		return fmt.Errorf("nothing to render for %s", runID)
	}
	return export.WriteFile(outPath, svg, os.Stdout)
}

func benchRuns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	registry := experiment.NewRegistry()
	ens := sim.NewEnsemble(experiment.Factory(cfg, registry, []string{"energy"}, observability.L()), runs, cfg.Run.Seed)
	if workers > 0 {
		ens.SetLimit(workers)
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("benchmarking %s: %d runs x %d frames x %d sub-steps\n\n", cfg.Preset, runs, cfg.Run.Frames, cfg.Physics.SubSteps)
	start := time.Now()
	results, err := ens.Run(ctx, cfg.Run.Frames)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\tFRAMES\tPARTICLES\tCONTACTS\tDROPPED\tENERGY")
	totalFrames := 0
	for i, r := range results {
		var contacts, dropped int
		for _, fs := range r.Stats {
			contacts += fs.Contacts
			dropped += fs.Dropped
		}
		n := 0
		if len(r.Stats) > 0 {
			n = r.Stats[len(r.Stats)-1].Particles
		}
		totalFrames += r.Frames
		fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%d\t%.1f\n",
			cfg.Run.Seed+int64(i), r.Frames, n, contacts, dropped, r.Metrics["energy"])
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\n%d frames in %v (%.0f frames/sec)\n", totalFrames, elapsed, float64(totalFrames)/elapsed.Seconds())
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	stats, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}
	if len(stats) < 8 {
		return fmt.Errorf("need at least 8 frames, got %d", len(stats))
	}

	energy := make([]float64, len(stats))
	for i, fs := range stats {
		energy[i] = fs.KineticEnergy
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("preset: %s\n\n", meta.Preset)

	ps := analysis.PowerSpectrum(energy)
	graph := asciigraph.Plot(ps[1:],
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption("power spectrum (kinetic energy)"),
	)
	fmt.Println(graph)
	fmt.Println()

	peak := analysis.DominantFrequency(energy, meta.UpdateRate)
	if peak.Frequency == 0 {
		fmt.Println("no oscillation found")
	} else {
		fmt.Printf("dominant frequency: %.3f hz\n", peak.Frequency)
		fmt.Printf("period: %.3f s\n", peak.Period)
	}
	window := min(len(energy), int(meta.UpdateRate))
	fmt.Printf("settled: %v\n", analysis.Settled(energy, window, 0.05))
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("scenario %s: %d steps\n", sc.Name, len(sc.Steps))
	results, err := automation.RunScenario(ctx, sc, experiment.NewRegistry(), st, observability.L())

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tPRESET\tFRAMES\tPARTICLES\tRUN")
	for i, r := range results {
		n := 0
		if len(r.Result.Stats) > 0 {
			n = r.Result.Stats[len(r.Result.Stats)-1].Particles
		}
		runID := r.RunID
		if runID == "" {
			runID = "-"
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%s\n", i+1, r.Preset, r.Result.Frames, n, runID)
	}
	if ferr := w.Flush(); ferr != nil {
		return ferr
	}
	return err
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	results, err := automation.RunSweep(ctx, &automation.ParameterSweep{
		Preset:   cfg.Preset,
		Param:    sweepParam,
		Min:      sweepMin,
		Max:      sweepMax,
		NumSteps: sweepSteps,
		Frames:   cfg.Run.Frames,
		Metrics:  []string{metricName},
	}, experiment.NewRegistry(), observability.L())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tPARTICLES\tCONTACTS\tDROPPED\t%s\n", strings.ToUpper(sweepParam), strings.ToUpper(metricName))
	for _, r := range results {
		fmt.Fprintf(w, "%.4g\t%d\t%d\t%d\t%.6f\n", r.ParamValue, r.Particles, r.Contacts, r.Dropped, r.Metrics[metricName])
	}
	return w.Flush()
}

// parseGrid reads "name=min:max:steps".
func parseGrid(arg string) (string, []float64, error) {
	name, rng, ok := strings.Cut(arg, "=")
	parts := strings.Split(rng, ":")
	if !ok || len(parts) != 3 {
		return "", nil, fmt.Errorf("invalid grid %q, want name=min:max:steps", arg)
	}
	lo, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return "", nil, err
	}
	hi, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return "", nil, err
	}
	n, err := strconv.Atoi(parts[2])
	if err != nil {
		return "", nil, err
	}
	return name, optim.Linspace(lo, hi, n), nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(searchGrids))
	ranges := make([][]float64, 0, len(searchGrids))
	for _, arg := range searchGrids {
		name, values, err := parseGrid(arg)
		if err != nil {
			return err
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}

	gs, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	best, value, trials, err := gs.Search(ctx, cfg, experiment.NewRegistry(), metricName)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", strings.ToUpper(strings.Join(names, "\t")), strings.ToUpper(metricName))
	for _, tr := range trials {
		cols := make([]string, len(names))
		for i, n := range names {
			cols[i] = strconv.FormatFloat(tr.Params[n], 'g', 4, 64)
		}
		result := fmt.Sprintf("%.6f", tr.Value)
		if tr.Err != nil {
			result = "error: " + tr.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%s\n", strings.Join(cols, "\t"), result)
	}
	if ferr := w.Flush(); ferr != nil {
		return ferr
	}
	if err != nil {
		return err
	}

	fmt.Printf("\nbest %s = %.6f at", metricName, value)
	for _, n := range names {
		fmt.Printf(" %s=%g", n, best[n])
	}
	fmt.Println()
	return nil
}
