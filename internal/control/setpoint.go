package control

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/san-kum/tvcsim/internal/design"
	"github.com/san-kum/tvcsim/internal/spatial"
)

// Tilt returns the airframe's lean from vertical as rotations about world x
// and world y, in radians.
func Tilt(s design.State) (x, y float64) {
	zb := spatial.RotateVector(s.Q, spatial.UnitZ)
	return math.Atan2(-zb.Y, zb.Z), math.Atan2(zb.X, zb.Z)
}

// Setpoint is a gimbal command applied once the step counter reaches Step.
type Setpoint struct {
	Step int
	X, Y float64
}

// Schedule replays fixed setpoints at their ticks.
type Schedule struct {
	points []Setpoint
}

func NewSchedule(points ...Setpoint) *Schedule {
	sorted := append([]Setpoint(nil), points...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Step < sorted[j].Step })
	return &Schedule{points: sorted}
}

func (s *Schedule) Setpoint(step int, _ float64, _ design.State) (float64, float64, bool) {
	i := sort.Search(len(s.points), func(i int) bool { return s.points[i].Step >= step })
	if i < len(s.points) && s.points[i].Step == step {
		// the last entry for a tick wins
		for i+1 < len(s.points) && s.points[i+1].Step == step {
			i++
		}
		return s.points[i].X, s.points[i].Y, true
	}
	return 0, 0, false
}

// Autopilot holds the airframe vertical with one PID loop per gimbal axis.
type Autopilot struct {
	x, y *PID
	// Every decimates the loop to one update per Every ticks.
	Every int
}

func NewAutopilot(kp, ki, kd float64) *Autopilot {
	return &Autopilot{x: NewPID(kp, ki, kd, 0), y: NewPID(kp, ki, kd, 0), Every: 1}
}

func (a *Autopilot) Setpoint(step int, t float64, s design.State) (float64, float64, bool) {
	if a.Every > 1 && step%a.Every != 0 {
		return 0, 0, false
	}
	tx, ty := Tilt(s)
	// positive deflection corrects positive tilt
	return -a.x.Compute(tx, t), -a.y.Compute(ty, t), true
}

func (a *Autopilot) Reset() {
	a.x.Reset()
	a.y.Reset()
}

// Gains returns Kp, Ki and Kd, shared by both axes.
func (a *Autopilot) Gains() map[string]float64 {
	g := a.x.GetParams()
	delete(g, "Target")
	return g
}

// SetGain retunes Kp, Ki or Kd on both axes while flying.
func (a *Autopilot) SetGain(name string, value float64) error {
	if name == "Target" || math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("control: bad gain %s=%v", name, value)
	}
	if !a.x.SetParam(name, value) || !a.y.SetParam(name, value) {
		return fmt.Errorf("control: unknown gain %q", name)
	}
	return nil
}

// StateFeedback commands δ = K[0]·tilt + K[1]·rate on each axis.
type StateFeedback struct {
	K [2]float64
}

func NewStateFeedback(kTilt, kRate float64) *StateFeedback {
	return &StateFeedback{K: [2]float64{kTilt, kRate}}
}

func (f *StateFeedback) Setpoint(_ int, _ float64, s design.State) (float64, float64, bool) {
	tx, ty := Tilt(s)
	return f.K[0]*tx + f.K[1]*s.Omega.X, f.K[0]*ty + f.K[1]*s.Omega.Y, true
}

// Manual passes setpoints from another goroutine. Each Set is delivered
// once, on the next poll.
type Manual struct {
	mu      sync.Mutex
	x, y    float64
	pending bool
}

func NewManual() *Manual {
	return &Manual{}
}

func (m *Manual) Set(x, y float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.x, m.y, m.pending = x, y, true
}

// Nudge offsets the last manual command.
func (m *Manual) Nudge(dx, dy float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.x += dx
	m.y += dy
	m.pending = true
}

func (m *Manual) Setpoint(int, float64, design.State) (float64, float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.pending {
		return 0, 0, false
	}
	m.pending = false
	return m.x, m.y, true
}

// Reset forgets the last command without delivering anything.
func (m *Manual) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.x, m.y, m.pending = 0, 0, false
}
