package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/gravsim/internal/config"
	"github.com/san-kum/gravsim/internal/export"
	"github.com/san-kum/gravsim/internal/geom"
	"github.com/san-kum/gravsim/internal/logger"
	"github.com/san-kum/gravsim/internal/metrics"
	"github.com/san-kum/gravsim/internal/nbody"
	"github.com/san-kum/gravsim/internal/scenario"
	"github.com/san-kum/gravsim/internal/sim"
	"github.com/san-kum/gravsim/internal/storage"
	"github.com/san-kum/gravsim/internal/viz"
)

var (
	dataDir       string
	configFile    string
	preset        string
	numBodies     int
	seed          int64
	steps         int
	timescale     float64
	edgeLength    float64
	theta         float64
	maxDepth      int
	solver        string
	workers       int
	escape        string
	snapshotEvery int
	verify        bool
	logLevel      string
	logJSON       bool
	// run
	numRuns     int
	metricNames []string
	// live
	stepsPerFrame int
	logFile       string
	// plot
	plotMetrics []string
	// export
	outFile  string
	svgFile  string
	svgPlane string
	// bench
	benchSteps  int
	benchThetas []float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gravsim",
		Short: "barnes-hut gravity simulator",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".gravsim", "data directory")
	addSimFlags(rootCmd)
	rootCmd.Flags().IntVar(&stepsPerFrame, "steps-per-frame", 1, "simulation steps per rendered frame")
	rootCmd.Flags().StringVar(&logFile, "log-file", "", "write logs to this file while the live view runs")

	runCmd := &cobra.Command{
		Use:   "run [scenario]",
		Short: "run simulation and record it",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)
	runCmd.Flags().IntVar(&numRuns, "runs", 1, "number of runs with consecutive seeds")
	runCmd.Flags().StringSliceVar(&metricNames, "metrics", nil, "metrics to record (default all)")

	liveCmd := &cobra.Command{
		Use:   "live [scenario]",
		Short: "run simulation with live visualization",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addSimFlags(liveCmd)
	liveCmd.Flags().IntVar(&stepsPerFrame, "steps-per-frame", 1, "simulation steps per rendered frame")
	liveCmd.Flags().StringVar(&logFile, "log-file", "", "write logs to this file while the live view runs")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot recorded metrics",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringSliceVar(&plotMetrics, "metric", nil, "metrics to plot (default all)")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")
	exportCmd.Flags().StringVar(&svgFile, "svg", "", "also draw the trajectories to this SVG file")
	exportCmd.Flags().StringVar(&svgPlane, "plane", "xy", "projection plane for --svg (xy|xz|yz)")

	benchCmd := &cobra.Command{
		Use:   "bench [scenario]",
		Short: "compare solvers on one population",
		Args:  cobra.MaximumNArgs(1),
		RunE:  benchSolvers,
	}
	addSimFlags(benchCmd)
	benchCmd.Flags().IntVar(&benchSteps, "bench-steps", 10, "steps timed per solver")
	benchCmd.Flags().Float64SliceVar(&benchThetas, "thetas", []float64{0.5, 1, 2, 4}, "tree accuracy parameters to compare")

	presetsCmd := &cobra.Command{
		Use:   "presets [scenario]",
		Short: "list scenarios, or the presets of one scenario",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, exportCmd, benchCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSimFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "use preset configuration")
	f.IntVar(&numBodies, "bodies", 0, "number of bodies (0 = scenario default)")
	f.Int64Var(&seed, "seed", 1, "random seed")
	f.IntVar(&steps, "steps", config.DefaultSteps, "number of steps")
	f.Float64Var(&timescale, "timescale", 0, "seconds per step (0 = scenario default)")
	f.Float64Var(&edgeLength, "edge", 0, "universe edge length in meters (0 = scenario default)")
	f.Float64Var(&theta, "theta", nbody.DefaultTheta, "approximation parameter, larger is more accurate")
	f.IntVar(&maxDepth, "max-depth", nbody.DefaultMaxDepth, "octree depth at which bodies fuse")
	f.StringVar(&solver, "solver", config.DefaultSolver, fmt.Sprintf("force solver %v", sim.SolverNames()))
	f.IntVar(&workers, "workers", 0, "parallel workers (0 = GOMAXPROCS)")
	f.StringVar(&escape, "escape", config.DefaultEscape, "escape policy (drop|fail)")
	f.IntVar(&snapshotEvery, "snapshot-every", config.DefaultSnapshotEvery, "record every n-th state")
	f.BoolVar(&verify, "verify", false, "check octree invariants after every step")
	f.StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level (debug|info|warn|error)")
	f.BoolVar(&logJSON, "log-json", false, "log as JSON")
}

// loadConfig layers defaults, preset, config file, the scenario argument
// and explicitly changed flags, in that order.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if len(args) > 0 {
		cfg.Scenario = args[0]
	}

	if preset != "" {
		p := config.GetPreset(cfg.Scenario, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(cfg.Scenario))
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		if len(args) > 0 {
			cfg.Scenario = args[0]
		}
	}

	flags := cmd.Flags()
	if flags.Changed("bodies") {
		cfg.Bodies = numBodies
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("steps") {
		cfg.Steps = steps
	}
	if flags.Changed("timescale") {
		cfg.Timescale = timescale
	}
	if flags.Changed("edge") {
		cfg.EdgeLength = edgeLength
	}
	if flags.Changed("theta") {
		cfg.Theta = theta
	}
	if flags.Changed("max-depth") {
		cfg.MaxDepth = maxDepth
	}
	if flags.Changed("solver") {
		cfg.Solver = solver
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("escape") {
		cfg.Escape = escape
	}
	if flags.Changed("snapshot-every") {
		cfg.SnapshotEvery = snapshotEvery
	}
	if flags.Changed("verify") {
		cfg.Verify = verify
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("log-json") {
		cfg.Log.JSON = logJSON
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg.Resolved()
}

// population generates the initial bodies of cfg's scenario for a seed.
func population(cfg *config.Config, seed int64) ([]*nbody.Body, geom.Cube, error) {
	kind, err := scenario.ParseKind(cfg.Scenario)
	if err != nil {
		return nil, geom.Cube{}, err
	}
	gen, err := scenario.New(kind, scenario.Params{Seed: seed, Timescale: cfg.Timescale})
	if err != nil {
		return nil, geom.Cube{}, err
	}
	cube := geom.CenteredCube(geom.Zero, cfg.EdgeLength)
	bodies, err := gen.Generate(cfg.Bodies, cube)
	if err != nil {
		return nil, geom.Cube{}, fmt.Errorf("generate %s: %w", kind, err)
	}
	return bodies, cube, nil
}

func newMetrics() ([]sim.Metric, error) {
	if len(metricNames) == 0 {
		return metrics.All(), nil
	}
	return metrics.ByName(metricNames...)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	log := logger.Init(cfg.Log.Level, cfg.Log.JSON)
	if _, err := newMetrics(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	log.Info("starting run",
		"scenario", cfg.Scenario,
		"bodies", cfg.Bodies,
		"steps", cfg.Steps,
		"solver", cfg.Solver,
		"runs", numRuns,
	)

	start := time.Now()
	var results []*sim.Result
	if numRuns > 1 {
		ens := sim.NewEnsemble(cfg.Sim(), numRuns, cfg.Seed, sim.WithLogger(log))
		results, err = ens.Run(ctx, func(runSeed int64) ([]*nbody.Body, geom.Cube, []sim.Metric, error) {
			bodies, cube, err := population(cfg, runSeed)
			if err != nil {
				return nil, geom.Cube{}, nil, err
			}
			ms, err := newMetrics()
			return bodies, cube, ms, err
		})
	} else {
		var res *sim.Result
		res, err = runOnce(ctx, cfg, log)
		results = []*sim.Result{res}
	}
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSEED\tSTEPS\tBODIES\tMERGES\tESCAPED\tENERGY DRIFT")
	for i, res := range results {
		meta := storage.RunMetadata{
			Scenario:   cfg.Scenario,
			Seed:       cfg.Seed + int64(i),
			Bodies:     cfg.Bodies,
			Steps:      cfg.Steps,
			Timescale:  cfg.Timescale,
			EdgeLength: cfg.EdgeLength,
			Theta:      cfg.Theta,
			MaxDepth:   cfg.MaxDepth,
			Solver:     cfg.Solver,
			WallTime:   elapsed.Seconds(),
		}
		runID, err := st.Save(meta, res)
		if err != nil {
			return fmt.Errorf("save run: %w", err)
		}
		remaining := 0
		if res.Final != nil {
			remaining = res.Final.Index.Len()
		}
		drift := "-"
		if v, ok := res.Metrics["energy_drift"]; ok {
			drift = fmt.Sprintf("%.3e", v)
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\t%s\n",
			runID, meta.Seed, res.StepsTaken, remaining, res.Merges, len(res.Escaped), drift)
	}
	log.Info("runs complete", "count", len(results), "elapsed", elapsed)
	return w.Flush()
}

func runOnce(ctx context.Context, cfg *config.Config, log *slog.Logger) (*sim.Result, error) {
	s, err := sim.New(cfg.Sim(), sim.WithLogger(log))
	if err != nil {
		return nil, err
	}
	ms, err := newMetrics()
	if err != nil {
		return nil, err
	}
	for _, m := range ms {
		s.AddMetric(m)
	}
	bodies, cube, err := population(cfg, cfg.Seed)
	if err != nil {
		return nil, err
	}
	return s.Run(ctx, bodies, cube)
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	// The live view owns the terminal, so logs go to a file or nowhere.
	var out io.Writer = io.Discard
	if logFile != "" {
		f, err := os.Create(logFile)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	log := logger.InitWriter(out, cfg.Log.Level, cfg.Log.JSON)

	s, err := sim.New(cfg.Sim(), sim.WithLogger(log))
	if err != nil {
		return err
	}
	setup := func() ([]*nbody.Body, geom.Cube, error) {
		return population(cfg, cfg.Seed)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	m, err := viz.NewModel(ctx, s, setup, cfg.Scenario, viz.WithStepsPerTick(stepsPerFrame))
	if err != nil {
		return err
	}
	return viz.Run(ctx, m)
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
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tBODIES\tSTEPS\tSOLVER\tTHETA\tWALL\tMERGES\tESCAPED")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d/%d\t%s\t%g\t%.2fs\t%d\t%d\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Bodies,
			run.StepsTaken,
			run.Steps,
			run.Solver,
			run.Theta,
			run.WallTime,
			run.Merges,
			len(run.Escaped),
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
	series, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}

	names := plotMetrics
	if len(names) == 0 {
		for name := range series {
			names = append(names, name)
		}
		sort.Strings(names)
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s, %d bodies, %d steps\n\n", meta.Scenario, meta.Bodies, meta.StepsTaken)

	for _, name := range names {
		data, ok := series[name]
		if !ok {
			return fmt.Errorf("run %s has no metric %q", runID, name)
		}
		if len(data) < 2 {
			fmt.Printf("%s: %v\n\n", name, data)
			continue
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(name),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	if svgFile != "" {
		if err := exportSVG(st, args[0]); err != nil {
			return err
		}
	}
	if outFile != "" {
		if err := st.ExportFile(outFile, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "exported %s to %s\n", args[0], outFile)
		return nil
	}
	return st.Export(os.Stdout, args[0])
}

func exportSVG(st *storage.Store, runID string) error {
	plane, err := export.ParsePlane(svgPlane)
	if err != nil {
		return err
	}
	snaps, err := st.LoadTrajectory(runID)
	if err != nil {
		return err
	}
	f, err := os.Create(svgFile)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := export.TrajectoriesSVG(f, snaps, plane, 1024, 1024); err != nil {
		return fmt.Errorf("draw %s: %w", runID, err)
	}
	fmt.Fprintf(os.Stderr, "drew %s to %s\n", runID, svgFile)
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SCENARIO\tBODIES\tEDGE (m)\tSTEP (s)\tPRESETS\tDESCRIPTION")
		for _, k := range scenario.Kinds() {
			d, err := scenario.DefaultsFor(k)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s\t%d\t%.3g\t%g\t%v\t%s\n",
				k, d.Bodies, d.Edge, d.Timescale, config.ListPresets(string(k)), d.Description)
		}
		return w.Flush()
	}

	presets := config.ListPresets(args[0])
	if len(presets) == 0 {
		fmt.Printf("no presets for scenario: %s\n", args[0])
		return nil
	}
	fmt.Printf("presets for %s:\n", args[0])
	for _, p := range presets {
		cfg := config.GetPreset(args[0], p)
		fmt.Printf("  %-10s %s, %d steps, theta %g\n", p, cfg.Solver, cfg.Steps, cfg.Theta)
	}
	return nil
}
