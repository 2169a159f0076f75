package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/tvcsim/internal/optim"
)

var (
	tuneMetric   string
	tuneMaximize bool
	kpRange      string
	kiRange      string
	kdRange      string
	gimbalRange  string
)

func tuneCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search autopilot gains against a flight metric",
		Args:  cobra.NoArgs,
		RunE:  runTune,
	}
	vehicleFlags(cmd)
	cmd.Flags().StringVar(&tuneMetric, "metric", "max_tilt_deg", "metric to optimize")
	cmd.Flags().BoolVar(&tuneMaximize, "maximize", false, "maximize instead of minimize")
	cmd.Flags().StringVar(&kpRange, "kp", "0.4:2.0:5", "kp values as lo:hi:n or a comma list")
	cmd.Flags().StringVar(&kiRange, "ki", "", "ki values")
	cmd.Flags().StringVar(&kdRange, "kd", "0.1:0.5:3", "kd values")
	cmd.Flags().StringVar(&gimbalRange, "gimbal", "", "gimbal limit values in degrees")
	cmd.Flags().IntVar(&workers, "concurrency", 0, "parallel flights (0 = unbounded)")
	return cmd
}

// parseRange accepts "lo:hi:n" or "a,b,c". An empty string means the
// parameter is not swept.
func parseRange(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	if parts := strings.Split(s, ":"); len(parts) == 3 {
		lo, err1 := strconv.ParseFloat(parts[0], 64)
		hi, err2 := strconv.ParseFloat(parts[1], 64)
		n, err3 := strconv.Atoi(parts[2])
		if err1 != nil || err2 != nil || err3 != nil || n < 1 {
			return nil, fmt.Errorf("bad range %q", s)
		}
		return optim.Linspace(lo, hi, n), nil
	}
	var out []float64
	for _, f := range strings.Split(s, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, fmt.Errorf("bad value %q: %w", f, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func runTune(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg.Autopilot.Enabled = true
	cfg.Autopilot.Mode = "pid"
	log, err := newLogger()
	if err != nil {
		return err
	}

	var params []optim.Param
	for _, sweep := range []struct {
		spec  string
		param func(...float64) optim.Param
	}{
		{kpRange, optim.Kp}, {kiRange, optim.Ki}, {kdRange, optim.Kd}, {gimbalRange, optim.GimbalLimit},
	} {
		values, err := parseRange(sweep.spec)
		if err != nil {
			return err
		}
		if len(values) > 0 {
			params = append(params, sweep.param(values...))
		}
	}
	if len(params) == 0 {
		return fmt.Errorf("nothing to sweep")
	}

	goal := optim.Minimize
	if tuneMaximize {
		goal = optim.Maximize
	}
	g := optim.NewGridSearch(tuneMetric, goal, params...)
	g.SetConcurrency(workers)
	g.SetLogger(log)

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("tuning %s over %d combinations...\n\n", cfg.Name, g.Size())
	out, err := g.Search(ctx, cfg)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	header := make([]string, 0, len(params)+1)
	for _, p := range params {
		header = append(header, strings.ToUpper(p.Name))
	}
	fmt.Fprintln(w, strings.Join(append(header, strings.ToUpper(tuneMetric)), "\t"))
	for _, t := range out.Trials {
		row := make([]string, 0, len(params)+1)
		for _, p := range params {
			row = append(row, fmt.Sprintf("%.3f", t.Values[p.Name]))
		}
		score := fmt.Sprintf("%.4f", t.Score)
		if t.Err != nil {
			score = "fault"
		}
		fmt.Fprintln(w, strings.Join(append(row, score), "\t"))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nbest %s = %.4f with", tuneMetric, out.Best.Score)
	for _, p := range params {
		fmt.Printf(" %s=%.3f", p.Name, out.Best.Values[p.Name])
	}
	fmt.Println()
	return nil
}
