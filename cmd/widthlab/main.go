package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/san-kum/widthlab/internal/batch"
	"github.com/san-kum/widthlab/internal/config"
	"github.com/san-kum/widthlab/internal/experiment"
	"github.com/san-kum/widthlab/internal/export"
	"github.com/san-kum/widthlab/internal/integration"
	"github.com/san-kum/widthlab/internal/kinematics"
	"github.com/san-kum/widthlab/internal/scan"
	"github.com/san-kum/widthlab/internal/storage"
	"github.com/san-kum/widthlab/internal/tui"
)

var (
	dataDir    string
	logLevel   string
	configFile string
	envCfg     config.Env

	calls      int
	iterations int
	seed       uint64
	sets       []string
	noSave     bool

	scanVar    string
	scanFrom   float64
	scanTo     float64
	scanPoints int

	outFile string
	svgFile string
	workers int
)

func main() {
	var err error
	envCfg, err = config.LoadEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	rootCmd := &cobra.Command{
		Use:           "widthlab",
		Short:         "decay widths and cross sections by adaptive phase-space integration",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := config.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
				Level:      level,
				TimeFormat: "15:04:05",
			})))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", envCfg.DataDir, "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", envCfg.LogLevel, "debug, info, warn or error")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "integrate a process and store the run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runProcess,
	}
	addProcessFlags(runCmd)
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show a run (latest by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the convergence of a run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&svgFile, "svg", "", "also write an SVG chart to this file")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a run and its passes as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outFile, "output", "o", "", "write to file instead of stdout")

	scanCmd := &cobra.Command{
		Use:   "scan [preset]",
		Short: "integrate over a range of parent masses or energies",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScan,
	}
	addProcessFlags(scanCmd)
	scanCmd.Flags().StringVar(&scanVar, "var", "", "scan variable: mass, sqrt_s or a parameter name")
	scanCmd.Flags().Float64Var(&scanFrom, "from", 0, "first value")
	scanCmd.Flags().Float64Var(&scanTo, "to", 0, "last value")
	scanCmd.Flags().IntVar(&scanPoints, "points", 0, "number of values")
	scanCmd.Flags().IntVar(&workers, "workers", 1, "points integrated in parallel, 0 for one per CPU")
	scanCmd.Flags().StringVar(&svgFile, "svg", "", "also write an SVG chart to this file")

	limitsCmd := &cobra.Command{
		Use:   "limits [preset]",
		Short: "show the integration variables of a process",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showLimits,
	}
	addProcessFlags(limitsCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	amplitudesCmd := &cobra.Command{
		Use:   "amplitudes",
		Short: "list available amplitudes",
		Args:  cobra.NoArgs,
		RunE:  listAmplitudes,
	}

	batchCmd := &cobra.Command{
		Use:   "batch [file]",
		Short: "run the steps of a batch file and report branching ratios",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}
	batchCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the runs")

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "integrate with a live convergence view",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addProcessFlags(liveCmd)
	liveCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	rootCmd.AddCommand(runCmd, listCmd, showCmd, plotCmd, exportJSONCmd, scanCmd, limitsCmd, presetsCmd, amplitudesCmd, batchCmd, liveCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error(err.Error())
		stop()
		os.Exit(1)
	}
}

func addProcessFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().IntVar(&calls, "calls", config.DefaultCalls, "integrand calls per pass")
	cmd.Flags().IntVar(&iterations, "iterations", config.DefaultMaxIterations, "maximum number of passes")
	cmd.Flags().Uint64Var(&seed, "seed", config.DefaultSeed, "random seed")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "override an input, name=value (mass, sqrt_s or a parameter)")
}

// resolveConfig layers preset or file, environment and flags, in that order.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if len(args) > 0 {
		cfg = config.GetPreset(args[0])
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	envCfg.Apply(cfg)

	flags := cmd.Flags()
	if flags.Changed("calls") {
		cfg.Integration.Calls = calls
	}
	if flags.Changed("iterations") {
		cfg.Integration.MaxIterations = iterations
	}
	if flags.Changed("seed") {
		cfg.Integration.Seed = seed
	}
	for _, kv := range sets {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("bad --set %q, want name=value", kv)
		}
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("bad --set %q: %w", kv, err)
		}
		if err := applySet(cfg, name, v); err != nil {
			return nil, err
		}
	}

	return cfg, cfg.Validate()
}

func applySet(cfg *config.Config, name string, v float64) error {
	switch name {
	case "mass":
		if len(cfg.Incoming) != 1 {
			return fmt.Errorf("mass applies to decays only")
		}
		cfg.Incoming[0] = v
	case "sqrt_s":
		if len(cfg.Incoming) == 1 {
			cfg.Incoming[0] = v
		} else {
			cfg.SqrtS = v
		}
	default:
		if cfg.Params == nil {
			cfg.Params = make(map[string]float64)
		}
		cfg.Params[name] = v
	}
	return nil
}

func runProcess(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	exp := experiment.New(cfg)
	if err := exp.Setup(); err != nil {
		return err
	}

	slog.Info("integrating", "process", cfg.Name, "topology", exp.Kinematics().Topology(),
		"calls", cfg.Integration.Calls, "max_iterations", cfg.Integration.MaxIterations)

	result, err := exp.Run(cmd.Context())
	if err != nil {
		return err
	}

	meta := exp.Metadata(result)
	if !noSave {
		st := storage.New(dataDir)
		runID, err := st.Save(meta, result.History)
		if err != nil {
			return err
		}
		meta.ID = runID
	}
	meta.Passes = len(result.History)

	fmt.Println(tui.RenderRun(&meta))
	return nil
}

func loadRun(st *storage.Store, args []string) (*storage.RunMetadata, error) {
	if len(args) == 0 {
		return st.Latest()
	}
	return st.Load(args[0])
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
	fmt.Fprintln(w, "ID\tPROCESS\tTIME\tTOPOLOGY\tSTATE\tVALUE\tERROR\tPASSES")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%.6g\t%.2g\t%d\n",
			run.ID,
			run.Process,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Topology,
			run.State,
			run.Value,
			run.Error,
			run.Passes,
		)
	}

	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	meta, err := loadRun(storage.New(dataDir), args)
	if err != nil {
		return err
	}
	fmt.Println(tui.RenderRun(meta))
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := loadRun(st, args)
	if err != nil {
		return err
	}

	iters, err := st.LoadIterations(meta.ID)
	if err != nil {
		return err
	}
	if len(iters) < 2 {
		return fmt.Errorf("run %s has %d passes, nothing to plot", meta.ID, len(iters))
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("process: %s\n", meta.Process)
	fmt.Printf("passes: %d\n\n", len(iters))

	pass := make([]float64, len(iters))
	cum := make([]float64, len(iters))
	chi2 := make([]float64, len(iters))
	for i, it := range iters {
		pass[i] = it.Pass.Value
		cum[i] = it.Cumulative.Value
		chi2[i] = it.Chi2PerDof
	}

	for _, series := range []struct {
		data    []float64
		caption string
	}{
		{pass, "estimate per pass"},
		{cum, "cumulative estimate"},
		{chi2, "chi2/dof"},
	} {
		graph := asciigraph.Plot(series.data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(series.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	if svgFile != "" {
		return writeSVG(export.FromIterations(meta.Process+" "+meta.ID, iters))
	}
	return nil
}

func writeSVG(s export.Series) error {
	f, err := os.Create(svgFile)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := export.SVG(f, s, 800, 400); err != nil {
		return err
	}
	slog.Info("chart written", "path", svgFile)
	return f.Close()
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := loadRun(st, args)
	if err != nil {
		return err
	}
	if outFile != "" {
		return st.ExportFile(outFile, meta.ID)
	}
	return st.Export(os.Stdout, meta.ID)
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	sc := cfg.Scan
	flags := cmd.Flags()
	if flags.Changed("var") {
		sc.Variable = scanVar
	}
	if flags.Changed("from") {
		sc.From = scanFrom
	}
	if flags.Changed("to") {
		sc.To = scanTo
	}
	if flags.Changed("points") {
		sc.Points = scanPoints
	}
	grid, err := scan.FromConfig(sc)
	if err != nil {
		return err
	}

	slog.Info("scanning", "process", cfg.Name, "variable", sc.Variable,
		"from", sc.From, "to", sc.To, "points", sc.Points, "workers", workers)

	var points []scan.Point
	if workers == 1 {
		exp := experiment.New(cfg)
		if err := exp.Setup(); err != nil {
			return err
		}
		points, err = grid.Run(cmd.Context(), exp, func(p scan.Point) {
			if p.Err != nil {
				slog.Warn("scan point skipped", sc.Variable, p.Params[sc.Variable], "err", p.Err)
			}
		})
	} else {
		points, err = grid.RunParallel(cmd.Context(), cfg, workers)
	}
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tVALUE\tERROR\tSTATE\n", strings.ToUpper(sc.Variable))
	for _, p := range points {
		if p.Err != nil {
			fmt.Fprintf(w, "%g\t-\t-\t%v\n", p.Params[sc.Variable], p.Err)
			continue
		}
		fmt.Fprintf(w, "%g\t%.6g\t%.2g\t%s\n", p.Params[sc.Variable], p.Estimate.Value, p.Estimate.Error, p.State)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if values := scan.Values(points); len(values) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(values,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("%s vs %s", cfg.Name, sc.Variable)),
		))
	}

	if svgFile != "" {
		return writeSVG(export.FromScan(cfg.Name+" vs "+sc.Variable, sc.Variable, points))
	}
	return nil
}

func showLimits(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	kin, err := kinematics.New(cfg.Incoming, cfg.Outgoing, cfg.EffectiveSqrtS(), nil)
	if err != nil {
		return err
	}
	fmt.Println(tui.RenderLimits(cfg.Name, kin))
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tAMPLITUDE\tTOPOLOGY\tMASSES\tSQRT_S")
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		topo, _ := cfg.Topology()
		fmt.Fprintf(w, "%s\t%s\t%s\t%v -> %v\t%g\n",
			name, cfg.Amplitude, topo, cfg.Incoming, cfg.Outgoing, cfg.EffectiveSqrtS())
	}
	return w.Flush()
}

func listAmplitudes(cmd *cobra.Command, args []string) error {
	registry := experiment.NewRegistry()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTOPOLOGY\tPARAMS\tDESCRIPTION")
	for _, name := range registry.ListAmplitudes() {
		amp, err := registry.GetAmplitude(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name, countLabel(amp.Incoming, amp.Outgoing), paramList(amp.Params), amp.Description)
	}
	return w.Flush()
}

func countLabel(in, out int) string {
	label := func(n int) string {
		if n == 0 {
			return "n"
		}
		return strconv.Itoa(n)
	}
	return label(in) + "->" + label(out)
}

func paramList(p map[string]float64) string {
	if len(p) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(p))
	for k, v := range p {
		parts = append(parts, fmt.Sprintf("%s=%g", k, v))
	}
	slices.Sort(parts)
	return strings.Join(parts, " ")
}

func runBatch(cmd *cobra.Command, args []string) error {
	b, err := batch.Load(args[0])
	if err != nil {
		return err
	}

	slog.Info("running batch", "name", b.Name, "steps", len(b.Steps))
	outcomes, err := batch.Run(cmd.Context(), b)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tSTATE\tVALUE\tERROR\tRUN")
	for _, o := range outcomes {
		if o.Err != nil {
			slog.Warn("batch step failed", "err", o.Err)
			fmt.Fprintf(w, "%s\tfailed\t-\t-\t-\n", o.Label)
			continue
		}
		runID := "-"
		if !noSave {
			runID, err = st.Save(o.Experiment.Metadata(o.Result), o.Result.History)
			if err != nil {
				return err
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%.6g\t%.2g\t%s\n",
			o.Label, o.Result.State, o.Result.Estimate.Value, o.Result.Estimate.Error, runID)
		if !o.Result.Converged() {
			slog.Warn("step left out of branching ratios", "step", o.Label, "state", o.Result.State)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	ratios, total := batch.BranchingRatios(outcomes)
	if len(ratios) < 2 {
		return nil
	}
	fmt.Printf("\ntotal width: %s\n\n", total)
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CHANNEL\tWIDTH\tBR")
	for _, r := range ratios {
		fmt.Fprintf(w, "%s\t%s\t%.4f ± %.2g\n", r.Label, r.Width, r.Ratio.Value, r.Ratio.Error)
	}
	return w.Flush()
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	p := tea.NewProgram(tui.NewModel(cfg.Name, cfg.Integration.MaxIterations))

	// log output would tear the view
	exp := experiment.New(cfg,
		experiment.WithLogger(slog.New(slog.DiscardHandler)),
		experiment.WithObserver(integration.ObserverFunc(func(it integration.Iteration) {
			p.Send(tui.IterationMsg(it))
		})),
	)
	if err := exp.Setup(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	done := make(chan *experiment.Result, 1)
	go func() {
		result, err := exp.Run(ctx)
		msg := tui.DoneMsg{Err: err}
		if result != nil {
			msg.State, msg.Estimate = result.State, result.Estimate
		}
		done <- result
		p.Send(msg)
	}()

	if _, err := p.Run(); err != nil {
		return err
	}
	cancel()

	result := <-done
	if result == nil || noSave {
		return nil
	}
	runID, err := storage.New(dataDir).Save(exp.Metadata(result), result.History)
	if err != nil {
		return err
	}
	fmt.Printf("run id: %s\n", runID)
	return nil
}
