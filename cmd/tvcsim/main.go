package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/tvcsim/internal/config"
	"github.com/san-kum/tvcsim/internal/experiment"
	"github.com/san-kum/tvcsim/internal/logging"
	"github.com/san-kum/tvcsim/internal/motor"
	"github.com/san-kum/tvcsim/internal/sim"
	"github.com/san-kum/tvcsim/internal/storage"
	"github.com/san-kum/tvcsim/internal/viz"
)

var (
	dataDir    string
	logLevel   string
	configFile string
	preset     string
	dt         float64
	duration   float64
	seed       int64
	integrator string
	motorName  string
	telemetry  string
	randomize  bool
	noSave     bool
	runs       int
	workers    int
	plotMotor  bool
	theme      string
	adjusts    []string
)

// main registers the commands and runs the preset menu when no subcommand
// is given.
func main() {
	rootCmd := &cobra.Command{
		Use:           "tvcsim",
		Short:         "thrust-vector-controlled vehicle simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runMenu,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".tvcsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "fly a vehicle and save the run",
		Args:  cobra.NoArgs,
		RunE:  runFlight,
	}
	vehicleFlags(runCmd)
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "fly a vehicle with live visualization",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	vehicleFlags(liveCmd)
	liveCmd.Flags().StringVar(&theme, "theme", "night", "color theme ("+strings.Join(viz.ThemeNames(), ", ")+")")

	ensembleCmd := &cobra.Command{
		Use:   "ensemble",
		Short: "fly dispersed copies of a vehicle in parallel",
		Args:  cobra.NoArgs,
		RunE:  runEnsemble,
	}
	vehicleFlags(ensembleCmd)
	ensembleCmd.Flags().IntVarP(&runs, "runs", "n", 20, "number of members")
	ensembleCmd.Flags().IntVar(&workers, "concurrency", 0, "parallel members (0 = all cores)")

	designCmd := &cobra.Command{
		Use:   "design",
		Short: "show the assembled vehicle and its mass properties",
		Args:  cobra.NoArgs,
		RunE:  showDesign,
	}
	designCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	designCmd.Flags().StringVar(&preset, "preset", "demo", "use preset configuration")
	designCmd.Flags().StringArrayVar(&adjusts, "adjust", nil, "move a built part, as name=dx,dy,dz in meters (repeatable)")

	configCmd := &cobra.Command{
		Use:   "config [preset]",
		Short: "print a preset as yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE:  dumpConfig,
	}

	motorsCmd := &cobra.Command{
		Use:   "motors [name]",
		Short: "list motors or show one thrust curve",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listMotors,
	}
	motorsCmd.Flags().BoolVar(&plotMotor, "plot", false, "plot the thrust curve")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, p := range config.ListPresets() {
				fmt.Printf("  %s\n", p)
			}
		},
	}

	rootCmd.AddCommand(runCmd, liveCmd, ensembleCmd, designCmd, configCmd, motorsCmd, presetsCmd)
	rootCmd.AddCommand(tuneCommand())
	rootCmd.AddCommand(storageCommands()...)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func vehicleFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "demo", "use preset configuration")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed")
	cmd.Flags().StringVar(&integrator, "integrator", "expmap", "attitude integrator")
	cmd.Flags().StringVar(&motorName, "motor", config.DefaultMotor, "motor from the catalog")
	cmd.Flags().StringVar(&telemetry, "telemetry", "", "ground station websocket url")
	cmd.Flags().BoolVar(&randomize, "randomize", false, "disperse motor parameters by their tolerance")
}

func newLogger() (logging.Log, error) {
	level, err := logging.ParseLevel(logLevel)
	if err != nil {
		return nil, err
	}
	return logging.New(level)
}

// loadConfig starts from --config or --preset; flags override it only when
// set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	if configFile != "" {
		c, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
	} else {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("motor") {
		cfg.Motor.Name = motorName
	}
	if flags.Changed("telemetry") {
		cfg.Telemetry.URL = telemetry
	}
	if flags.Changed("randomize") {
		cfg.Motor.Randomize = randomize
	}
	return cfg, cfg.Validate()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runFlight(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger()
	if err != nil {
		return err
	}

	exp, err := experiment.New(cfg, experiment.WithLogger(log))
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("flying %s...\n", cfg.Name)
	start := time.Now()
	result, runErr := exp.Run(ctx)
	if result == nil {
		return runErr
	}
	elapsed := time.Since(start)

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("termination: %s after %d steps (%.2fs)\n", result.Reason, result.StepsTaken, result.Time)
	if runErr != nil {
		fmt.Printf("fault: %v\n", runErr)
	}

	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		doc, err := cfg.Marshal()
		if err != nil {
			return err
		}
		meta := storage.RunMetadata{
			Name:       cfg.Name,
			Motor:      cfg.Motor.Name,
			Controller: cfg.Controller,
			Integrator: cfg.Integrator,
			Seed:       cfg.Seed,
			Dt:         cfg.Dt,
			Duration:   cfg.Duration,
		}
		if runErr != nil {
			meta.Fault = runErr.Error()
		}
		id, err := st.Save(meta, doc, result)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", id)
	}

	fmt.Println("\nmetrics:")
	printMetrics(result.Metrics)
	return runErr
}

func printMetrics(m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, m[name])
	}
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// Log lines would tear the alternate screen.
	f, err := viz.Launch(cfg, logging.NewNop(), viz.WithTheme(viz.GetTheme(theme)))
	if err != nil {
		return err
	}
	final, err := tea.NewProgram(f, tea.WithAltScreen()).Run()
	if last, ok := final.(viz.Flight); ok {
		if cerr := last.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

func runMenu(cmd *cobra.Command, args []string) error {
	catalog, err := motor.Default()
	if err != nil {
		return err
	}
	final, err := tea.NewProgram(viz.NewMenu(catalog.Available(), logging.NewNop()), tea.WithAltScreen()).Run()
	if m, ok := final.(viz.Menu); ok {
		if cerr := m.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger()
	if err != nil {
		return err
	}
	exp, err := experiment.New(cfg, experiment.WithLogger(log))
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	start := time.Now()
	members, err := exp.Ensemble(ctx, runs, workers)
	if err != nil {
		return err
	}
	fmt.Printf("%d members in %v\n\n", len(members), time.Since(start))
	return writeEnsemble(os.Stdout, members)
}

// writeEnsemble prints metric statistics over the members that flew to the
// end, then lists the members that faulted.
func writeEnsemble(out io.Writer, members []sim.Member) error {
	var flown []*sim.Result
	var faulted []sim.Member
	for _, m := range members {
		if m.Faulted() {
			faulted = append(faulted, m)
			continue
		}
		flown = append(flown, m.Result)
	}

	if len(flown) > 0 {
		names := make([]string, 0, len(flown[0].Metrics))
		for name := range flown[0].Metrics {
			names = append(names, name)
		}
		sort.Strings(names)

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "METRIC\tMEAN\tSTDDEV\tMIN\tMAX")
		for _, name := range names {
			vals := make([]float64, len(flown))
			for i, r := range flown {
				vals[i] = r.Metrics[name]
			}
			mean, std := stat.MeanStdDev(vals, nil)
			sorted := append([]float64(nil), vals...)
			sort.Float64s(sorted)
			fmt.Fprintf(w, "%s\t%.4f\t%.4f\t%.4f\t%.4f\n", name, mean, std, sorted[0], sorted[len(sorted)-1])
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	if len(faulted) > 0 {
		fmt.Fprintf(out, "\n%d of %d members faulted:\n", len(faulted), len(members))
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SEED\tSTEPS\tFAULT")
		for _, m := range faulted {
			steps := 0
			if m.Result != nil {
				steps = m.Result.StepsTaken
			}
			fmt.Fprintf(w, "%d\t%d\t%v\n", m.Seed, steps, m.Err)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	if len(flown) > 1 {
		apogees := make([]float64, len(flown))
		for i, r := range flown {
			apogees[i] = r.Metrics["apogee"]
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, asciigraph.Plot(apogees, asciigraph.Height(8), asciigraph.Width(60), asciigraph.Caption("apogee by member (m)")))
	}
	if len(flown) == 0 {
		return fmt.Errorf("every ensemble member faulted")
	}
	return nil
}

func dumpConfig(cmd *cobra.Command, args []string) error {
	name := "demo"
	if len(args) > 0 {
		name = args[0]
	}
	cfg := config.GetPreset(name)
	if cfg == nil {
		return fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
	}
	doc, err := cfg.Marshal()
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(doc)
	return err
}

func listMotors(cmd *cobra.Command, args []string) error {
	catalog, err := motor.Default()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tMASS\tPROPELLANT\tBURN\tPEAK\tIMPULSE")
		for _, name := range catalog.Available() {
			m, err := catalog.Get(name)
			if err != nil {
				return err
			}
			p := m.Params()
			fmt.Fprintf(w, "%s\t%.4f kg\t%.4f kg\t%.2f s\t%.1f N\t%.2f Ns\n",
				m.Name(), p.Mass, p.PropellantMass, m.BurnTime(), m.PeakThrust(), m.TotalImpulse())
		}
		return w.Flush()
	}

	m, err := catalog.Get(args[0])
	if err != nil {
		return err
	}
	p := m.Params()
	fmt.Printf("motor: %s (%s)\n", m.Name(), p.Manufacturer)
	fmt.Printf("burn: %.2f s  peak: %.1f N  impulse: %.2f Ns\n", m.BurnTime(), m.PeakThrust(), m.TotalImpulse())
	if !plotMotor {
		return nil
	}
	const samples = 80
	thrust := make([]float64, samples)
	for i := range thrust {
		thrust[i] = m.Thrust(m.BurnTime() * float64(i) / float64(samples-1))
	}
	fmt.Println()
	fmt.Println(asciigraph.Plot(thrust, asciigraph.Height(12), asciigraph.Width(samples), asciigraph.Caption("thrust (N) over the burn")))
	return nil
}
