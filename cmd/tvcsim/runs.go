package main

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/tvcsim/internal/analysis"
	"github.com/san-kum/tvcsim/internal/export"
	"github.com/san-kum/tvcsim/internal/metrics"
	"github.com/san-kum/tvcsim/internal/sim"
	"github.com/san-kum/tvcsim/internal/storage"
)

var (
	svgOut    string
	svgGround bool
)

func storageCommands() []*cobra.Command {
	svgCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "draw the run trajectory as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	svgCmd.Flags().StringVarP(&svgOut, "out", "o", "", "output file (default stdout)")
	svgCmd.Flags().BoolVar(&svgGround, "ground", false, "draw the ground track instead of the side view")

	return []*cobra.Command{
		{
			Use:   "list",
			Short: "list stored runs",
			Args:  cobra.NoArgs,
			RunE:  listRuns,
		},
		{
			Use:   "plot [run_id]",
			Short: "plot a stored run",
			Args:  cobra.ExactArgs(1),
			RunE:  plotRun,
		},
		{
			Use:   "export [run_id]",
			Short: "print run metadata",
			Args:  cobra.ExactArgs(1),
			RunE:  exportRun,
		},
		{
			Use:   "export-csv [run_id]",
			Short: "print the run trace as CSV",
			Args:  cobra.ExactArgs(1),
			RunE:  exportCSV,
		},
		{
			Use:   "export-json [run_id]",
			Short: "print metadata and trace as JSON",
			Args:  cobra.ExactArgs(1),
			RunE:  exportJSON,
		},
		svgCmd,
		analyzeCommand(),
	}
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
	fmt.Fprintln(w, "ID\tNAME\tMOTOR\tTIME\tFLIGHT\tEND\tAPOGEE")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2fs\t%s\t%.2fm\n",
			run.ID,
			run.Name,
			run.Motor,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.FlightTime,
			run.Termination,
			run.Metrics["apogee"],
		)
	}
	return w.Flush()
}

// plotSeries are the traces drawn by the plot command.
var plotSeries = []struct {
	caption string
	value   func(sim.Record) float64
}{
	{"altitude (m)", func(r sim.Record) float64 { return r.Position.Z }},
	{"speed (m/s)", func(r sim.Record) float64 { return r.Velocity.Norm() }},
	{"tilt (deg)", metrics.TiltDeg},
	{"servo x (deg)", func(r sim.Record) float64 { return r.ActualServo.X * 180 / math.Pi }},
	{"servo y (deg)", func(r sim.Record) float64 { return r.ActualServo.Y * 180 / math.Pi }},
	{"thrust (N)", func(r sim.Record) float64 { return r.Thrust }},
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	records, err := st.LoadRecords(args[0])
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("vehicle: %s (%s, %s)\n", meta.Name, meta.Motor, meta.Controller)
	fmt.Printf("samples: %d\n\n", len(records))

	data := make([]float64, len(records))
	for _, s := range plotSeries {
		for i, r := range records {
			data[i] = s.value(r)
		}
		fmt.Println(asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(s.caption),
		))
		fmt.Println()
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	records, err := st.LoadRecords(args[0])
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("no data to export")
	}
	return storage.WriteTrace(os.Stdout, records)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	records, err := st.LoadRecords(args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, *meta, records)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	records, err := st.LoadRecords(args[0])
	if err != nil {
		return err
	}
	opts := export.DefaultOptions()
	if svgGround {
		opts.View = export.GroundTrack
	}
	if svgOut == "" {
		return export.TrajectorySVG(os.Stdout, records, opts)
	}
	f, err := os.Create(svgOut)
	if err != nil {
		return err
	}
	if err := export.TrajectorySVG(f, records, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

var channel string

func analyzeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	cmd.Flags().StringVar(&channel, "signal", "tilt", "trace channel to analyze")
	return cmd
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	sig, ok := analysis.Signals[channel]
	if !ok {
		names := make([]string, 0, len(analysis.Signals))
		for name := range analysis.Signals {
			names = append(names, name)
		}
		sort.Strings(names)
		return fmt.Errorf("unknown signal %q (available: %v)", channel, names)
	}

	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	records, err := st.LoadRecords(args[0])
	if err != nil {
		return err
	}
	spec, err := analysis.NewSpectrum(analysis.Extract(records, sig), meta.Dt)
	if err != nil {
		return err
	}

	fmt.Printf("frequency analysis: %s (%s)\n\n", meta.ID, channel)
	fmt.Println(asciigraph.Plot(spec.Power[:max(2, len(spec.Power)/4)],
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("amplitude spectrum, 0 to %.1f hz", spec.Freq[len(spec.Freq)/4])),
	))
	fmt.Println()

	freq, _ := spec.Dominant()
	fmt.Printf("dominant frequency: %.3f hz\n", freq)
	if freq > 0 {
		fmt.Printf("period: %.3f s\n", 1/freq)
	}
	return nil
}
