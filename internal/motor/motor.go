// Package motor loads solid rocket motor data: a thrust curve sampled from a
// static test and the physical parameters needed to place the motor in a
// design as a depleting element.
package motor

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/tvcsim/internal/elements"
)

var (
	ErrUnknownMotor = errors.New("motor: unknown motor")
	ErrInvalidCurve = errors.New("motor: invalid thrust curve")
)

// Params are the nominal physical properties of a motor. Lengths are in
// metres, masses in kilograms, durations in seconds.
type Params struct {
	Name           string  `yaml:"name"`
	Manufacturer   string  `yaml:"manufacturer"`
	Radius         float64 `yaml:"radius"`
	Height         float64 `yaml:"height"`
	Mass           float64 `yaml:"mass"`
	PropellantMass float64 `yaml:"propellant_mass"`
	BurnDuration   float64 `yaml:"burn_duration"`
	Tolerance      float64 `yaml:"tolerance"`
}

func (p Params) Validate() error {
	switch {
	case p.Name == "":
		return fmt.Errorf("%w: missing name", ErrInvalidCurve)
	case p.Radius <= 0 || p.Height <= 0:
		return fmt.Errorf("%w: %s: non-positive dimensions", ErrInvalidCurve, p.Name)
	case p.Mass <= 0 || p.PropellantMass <= 0 || p.PropellantMass >= p.Mass:
		return fmt.Errorf("%w: %s: propellant mass must be in (0, mass)", ErrInvalidCurve, p.Name)
	case p.BurnDuration <= 0:
		return fmt.Errorf("%w: %s: non-positive burn duration", ErrInvalidCurve, p.Name)
	case p.Tolerance < 0 || p.Tolerance >= 1:
		return fmt.Errorf("%w: %s: tolerance must be in [0, 1)", ErrInvalidCurve, p.Name)
	case p.PropellantMass*(1+p.Tolerance) >= p.Mass*(1-p.Tolerance):
		// mass and propellant are drawn independently; the casing must survive both extremes
		return fmt.Errorf("%w: %s: propellant can exceed mass within tolerance", ErrInvalidCurve, p.Name)
	}
	return nil
}

// Motor is a thrust curve plus its parameters. It is immutable once loaded
// and safe to share between runs.
type Motor struct {
	params Params
	times  []float64
	thrust []float64
}

func New(params Params, times, thrust []float64) (*Motor, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if len(times) < 2 || len(times) != len(thrust) {
		return nil, fmt.Errorf("%w: %s: need at least two samples", ErrInvalidCurve, params.Name)
	}
	if !sort.Float64sAreSorted(times) {
		return nil, fmt.Errorf("%w: %s: sample times must be ascending", ErrInvalidCurve, params.Name)
	}
	for _, f := range thrust {
		if f < 0 || math.IsNaN(f) {
			return nil, fmt.Errorf("%w: %s: negative thrust sample", ErrInvalidCurve, params.Name)
		}
	}
	return &Motor{
		params: params,
		times:  append([]float64(nil), times...),
		thrust: append([]float64(nil), thrust...),
	}, nil
}

func (m *Motor) Name() string        { return m.params.Name }
func (m *Motor) Params() Params      { return m.params }
func (m *Motor) BurnTime() float64   { return m.params.BurnDuration }
func (m *Motor) Samples() int        { return len(m.times) }
func (m *Motor) PeakThrust() float64 { return maxOf(m.thrust) }

// Thrust interpolates the curve linearly. Outside the sampled interval the
// motor produces nothing.
func (m *Motor) Thrust(t float64) float64 {
	n := len(m.times)
	if t < m.times[0] || t > m.times[n-1] {
		return 0
	}
	i := sort.SearchFloat64s(m.times, t)
	if m.times[i] == t {
		return m.thrust[i]
	}
	t0, t1 := m.times[i-1], m.times[i]
	f0, f1 := m.thrust[i-1], m.thrust[i]
	return f0 + (f1-f0)*(t-t0)/(t1-t0)
}

// TotalImpulse integrates the curve with the trapezoid rule, in N·s.
func (m *Motor) TotalImpulse() float64 {
	var sum float64
	for i := 1; i < len(m.times); i++ {
		sum += 0.5 * (m.thrust[i] + m.thrust[i-1]) * (m.times[i] - m.times[i-1])
	}
	return sum
}

// Curve returns copies of the sampled times and thrust values.
func (m *Motor) Curve() (times, thrust []float64) {
	return append([]float64(nil), m.times...), append([]float64(nil), m.thrust...)
}

// ElementSpec describes the motor as a depleting cylinder. With a non-nil
// rng each nominal parameter is drawn uniformly within ±Tolerance, so
// repeated runs with different seeds model manufacturing spread.
func (m *Motor) ElementSpec(rng *rand.Rand) elements.Spec {
	p := m.params
	vary := func(v float64) float64 {
		if rng == nil || p.Tolerance == 0 {
			return v
		}
		return v * (1 + p.Tolerance*(2*rng.Float64()-1))
	}

	mass := vary(p.Mass)
	propellant := vary(p.PropellantMass)
	return elements.Spec{
		Name:         p.Name,
		Shape:        elements.Cylinder{Radius: vary(p.Radius), Height: vary(p.Height)},
		Mass:         mass,
		Dynamic:      true,
		FloorMass:    mass - propellant,
		BurnDuration: vary(p.BurnDuration),
	}
}

// ParseCurve reads a two column CSV of time and thrust. A non-numeric first
// row is treated as a header.
func ParseCurve(r io.Reader) (times, thrust []float64, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2
	cr.TrimLeadingSpace = true

	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrInvalidCurve, err)
		}
		t, errT := strconv.ParseFloat(rec[0], 64)
		f, errF := strconv.ParseFloat(rec[1], 64)
		if errT != nil || errF != nil {
			if line == 1 {
				continue
			}
			return nil, nil, fmt.Errorf("%w: line %d: %q", ErrInvalidCurve, line, rec)
		}
		times = append(times, t)
		thrust = append(thrust, f)
	}
	return times, thrust, nil
}

// Parse builds a motor from its YAML parameters and CSV curve.
func Parse(paramsYAML, curveCSV []byte) (*Motor, error) {
	var p Params
	if err := yaml.Unmarshal(paramsYAML, &p); err != nil {
		return nil, fmt.Errorf("motor: decode params: %w", err)
	}
	times, thrust, err := ParseCurve(bytes.NewReader(curveCSV))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.Name, err)
	}
	return New(p, times, thrust)
}

func maxOf(v []float64) float64 {
	var m float64
	for _, x := range v {
		m = math.Max(m, x)
	}
	return m
}
