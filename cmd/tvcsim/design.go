package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/tvcsim/internal/api"
	"github.com/san-kum/tvcsim/internal/config"
	"github.com/san-kum/tvcsim/internal/logging"
	"github.com/san-kum/tvcsim/internal/motor"
	"github.com/san-kum/tvcsim/internal/spatial"
)

// adjustment is one --adjust flag: a translation applied to a built part.
type adjustment struct {
	Part  string
	Shift spatial.Vector3
}

// parseAdjust reads name=dx,dy,dz.
func parseAdjust(s string) (adjustment, error) {
	name, coords, found := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !found || name == "" {
		return adjustment{}, fmt.Errorf("adjust %q: want name=dx,dy,dz", s)
	}
	fields := strings.Split(coords, ",")
	if len(fields) != 3 {
		return adjustment{}, fmt.Errorf("adjust %q: want three components, got %d", s, len(fields))
	}
	var xyz [3]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return adjustment{}, fmt.Errorf("adjust %q: %w", s, err)
		}
		xyz[i] = v
	}
	shift := spatial.Vec(xyz[0], xyz[1], xyz[2])
	if !shift.IsValid() {
		return adjustment{}, fmt.Errorf("adjust %q: non-finite shift", s)
	}
	return adjustment{Part: name, Shift: shift}, nil
}

func check(r api.Response) error {
	if !r.OK {
		return fmt.Errorf("%s", r.Message)
	}
	return nil
}

// sessionFromConfig records the configured elements, and the motor when the
// tvc controller flies it, then builds, applies the adjustments and locks.
func sessionFromConfig(cfg *config.Config, catalog *motor.Catalog, log logging.Log, adj []adjustment) (*api.Session, error) {
	s := api.NewSession(catalog, log)
	if strings.EqualFold(cfg.Controller, "tvc") {
		if err := check(s.SetMotor(cfg.Motor.Name)); err != nil {
			return nil, err
		}
		if err := check(s.SetMotorOffset(cfg.Motor.Offset.Vector())); err != nil {
			return nil, err
		}
		if err := check(s.LockTVC()); err != nil {
			return nil, err
		}
	}
	for _, ec := range cfg.Elements {
		if err := check(s.AddElement(ec)); err != nil {
			return nil, fmt.Errorf("element %q: %w", ec.Name, err)
		}
	}
	if err := check(s.Build()); err != nil {
		return nil, err
	}
	if s.TVC() != nil && cfg.Motor.Attitude.AngleDeg != 0 {
		q := cfg.Motor.Attitude.Quaternion()
		if err := check(s.AdjustElement(api.MotorPart, nil, &q)); err != nil {
			return nil, err
		}
	}
	for _, a := range adj {
		shift := a.Shift
		if err := check(s.AdjustElement(a.Part, &shift, nil)); err != nil {
			return nil, fmt.Errorf("adjust %s: %w", a.Part, err)
		}
	}
	if err := check(s.Lock()); err != nil {
		return nil, err
	}
	return s, nil
}

func writeDesign(out io.Writer, s *api.Session) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tKIND\tMASS\tOFFSET\tDYNAMIC")
	for _, p := range s.Design().Parts() {
		if p.Locked {
			fmt.Fprintf(w, "%d\t%s\tfolded\t-\t-\tfalse\n", p.ID, p.Name)
			continue
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%.4f\t%v\t%v\n", p.ID, p.Name, p.Kind, p.Mass, p.Placement.Offset, p.Dynamic)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	sum := s.Summary()
	if err := check(sum); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "\n%s", sum.Message)
	return err
}

func showDesign(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	var adj []adjustment
	for _, raw := range adjusts {
		a, err := parseAdjust(raw)
		if err != nil {
			return err
		}
		adj = append(adj, a)
	}
	log, err := newLogger()
	if err != nil {
		return err
	}

	catalog, err := motor.Default()
	if err != nil {
		return err
	}
	s, err := sessionFromConfig(cfg, catalog, log, adj)
	if err != nil {
		return err
	}
	return writeDesign(os.Stdout, s)
}
