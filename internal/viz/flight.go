package viz

import (
	"fmt"
	"math"
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/tvcsim/internal/control"
	"github.com/san-kum/tvcsim/internal/experiment"
	"github.com/san-kum/tvcsim/internal/metrics"
	"github.com/san-kum/tvcsim/internal/sim"
)

const (
	trajWidth, trajHeight = 56, 18
	attWidth, attHeight   = 28, 10
	historyCapacity       = 600
	frameRate             = 60

	// nudge is one keypress of manual gimbal command, in radians.
	nudge = math.Pi / 180
	// gainStep scales an autopilot gain per keypress.
	gainStep = 1.25
)

// Builder assembles a fresh vehicle. The flight view calls it on start and
// on every reset.
type Builder func() (*experiment.Vehicle, error)

type frameMsg struct {
	flight uint64
	at     time.Time
}

var flightIDs atomic.Uint64

// Flight is a bubbletea model that flies one vehicle tick by tick.
type Flight struct {
	id      uint64
	title   string
	cfg     sim.Config
	build   Builder
	manual  *control.Manual
	vehicle *experiment.Vehicle
	metrics []sim.Metric

	last     sim.Record
	hasLast  bool
	path     [][2]float64
	altitude []float64
	tilt     []float64
	cmdX     float64
	cmdY     float64
	// gains holds autopilot retunes, reapplied after every reset.
	gains map[string]float64

	status sim.Termination
	err    error

	running  bool
	speed    int
	showHelp bool
	theme    Theme
	st       styles

	traj *Canvas
	att  *Canvas
	cam  *Camera
}

type FlightOption func(*Flight)

// WithManual lets the arrow keys steer through m. The same source must be
// attached to the vehicles the builder returns.
func WithManual(m *control.Manual) FlightOption {
	return func(f *Flight) { f.manual = m }
}

// WithSpeed sets how many ticks run per frame.
func WithSpeed(ticks int) FlightOption {
	return func(f *Flight) { f.speed = max(1, ticks) }
}

func WithTheme(t Theme) FlightOption {
	return func(f *Flight) { f.theme = t }
}

func NewFlight(title string, cfg sim.Config, build Builder, opts ...FlightOption) (Flight, error) {
	f := Flight{
		id:      flightIDs.Add(1),
		title:   title,
		cfg:     cfg,
		build:   build,
		running: true,
		speed:   max(1, int(math.Round(1/(frameRate*cfg.Dt)))),
		theme:   Themes[0],
		traj:    NewCanvas(trajWidth, trajHeight),
		att:     NewCanvas(attWidth, attHeight),
		cam:     NewCamera(),
		gains:   make(map[string]float64),
	}
	for _, opt := range opts {
		opt(&f)
	}
	f.st = newStyles(f.theme)
	if err := f.reset(); err != nil {
		return Flight{}, err
	}
	return f, nil
}

func (f Flight) tick() tea.Cmd {
	id := f.id
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return frameMsg{flight: id, at: t} })
}

func (f Flight) Init() tea.Cmd { return f.tick() }

func (f Flight) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return f, tea.Quit
		case " ":
			f.running = !f.running
		case "r":
			if err := f.reset(); err != nil {
				f.status, f.err = sim.TerminationFault, err
			}
		case "t":
			f.theme = f.theme.next()
			f.st = newStyles(f.theme)
		case "+", "=":
			f.speed = min(64, f.speed*2)
		case "-", "_":
			f.speed = max(1, f.speed/2)
		case "up":
			f.steer(nudge, 0)
		case "down":
			f.steer(-nudge, 0)
		case "right":
			f.steer(0, nudge)
		case "left":
			f.steer(0, -nudge)
		case "c":
			f.center()
		case "]":
			f.retune("Kp", gainStep)
		case "[":
			f.retune("Kp", 1/gainStep)
		case "}":
			f.retune("Kd", gainStep)
		case "{":
			f.retune("Kd", 1/gainStep)
		case "h":
			f.cam.Turn(-0.1)
		case "l":
			f.cam.Turn(0.1)
		case "k":
			f.cam.Tilt(0.1)
		case "j":
			f.cam.Tilt(-0.1)
		case "z":
			f.cam.ZoomIn()
		case "Z":
			f.cam.ZoomOut()
		case "?":
			f.showHelp = !f.showHelp
		}
	case frameMsg:
		if msg.flight != f.id {
			return f, nil
		}
		if f.running {
			f.advance()
		}
		return f, f.tick()
	}
	return f, nil
}

func (f *Flight) steer(dx, dy float64) {
	if f.manual == nil {
		return
	}
	f.cmdX += dx
	f.cmdY += dy
	f.manual.Nudge(dx, dy)
}

func (f *Flight) center() {
	if f.manual == nil {
		return
	}
	f.cmdX, f.cmdY = 0, 0
	f.manual.Set(0, 0)
}

// retune scales one autopilot gain on the vehicle in flight.
func (f *Flight) retune(name string, factor float64) {
	ap := f.vehicle.Autopilot
	if ap == nil {
		return
	}
	v := ap.Gains()[name] * factor
	if err := ap.SetGain(name, v); err != nil {
		return
	}
	f.gains[name] = v
}

// Gain reports the autopilot gain in use, or false without an autopilot.
func (f Flight) Gain(name string) (float64, bool) {
	if f.vehicle.Autopilot == nil {
		return 0, false
	}
	v, ok := f.vehicle.Autopilot.Gains()[name]
	return v, ok
}

// reset swaps in a freshly built vehicle and clears the history.
func (f *Flight) reset() error {
	v, err := f.build()
	if err != nil {
		return err
	}
	if f.vehicle != nil {
		_ = f.vehicle.Close()
	}
	f.vehicle = v
	if v.Autopilot != nil {
		for name, g := range f.gains {
			_ = v.Autopilot.SetGain(name, g)
		}
	}
	f.metrics = metrics.Default(f.cfg.Gravity.Norm())
	f.last, f.hasLast = sim.Record{}, false
	f.path = f.path[:0]
	f.altitude = f.altitude[:0]
	f.tilt = f.tilt[:0]
	f.status, f.err = "", nil
	f.cmdX, f.cmdY = 0, 0
	if f.manual != nil {
		f.manual.Reset()
	}
	return nil
}

// Close releases the current vehicle.
func (f Flight) Close() error {
	if f.vehicle == nil {
		return nil
	}
	return f.vehicle.Close()
}

// Status is empty while the vehicle is still flying.
func (f Flight) Status() sim.Termination { return f.status }

func (f Flight) Err() error { return f.err }

// Last returns the most recent committed tick.
func (f Flight) Last() (sim.Record, bool) { return f.last, f.hasLast }

// Metric returns the running value of a named flight metric.
func (f Flight) Metric(name string) (float64, bool) {
	for _, m := range f.metrics {
		if m.Name() == name {
			return m.Value(), true
		}
	}
	return 0, false
}

// advance runs one frame worth of ticks and stops at the same conditions
// as a batch run.
func (f *Flight) advance() {
	for i := 0; i < f.speed && f.status == ""; i++ {
		rec, err := f.vehicle.Sim.Step(f.cfg)
		if err != nil {
			f.status, f.err = sim.TerminationFault, err
			return
		}
		f.observe(rec)
		switch {
		case rec.Step > f.cfg.MinSteps && rec.Position.Z <= 0:
			f.status = sim.TerminationLanded
		case rec.Step >= f.cfg.Steps():
			f.status = sim.TerminationHorizon
		}
	}
}

func (f *Flight) observe(rec sim.Record) {
	for _, m := range f.metrics {
		m.Observe(rec)
	}
	f.last, f.hasLast = rec, true
	f.path = append(f.path, [2]float64{rec.Position.X, rec.Position.Z})
	f.altitude = appendCapped(f.altitude, rec.Position.Z)
	f.tilt = appendCapped(f.tilt, metrics.TiltDeg(rec))
}

func appendCapped(s []float64, v float64) []float64 {
	s = append(s, v)
	if len(s) > historyCapacity {
		s = s[1:]
	}
	return s
}

func (f Flight) View() string {
	f.drawTrajectory()
	f.drawAttitude()

	left := lipgloss.JoinVertical(lipgloss.Left,
		f.st.header.Render(strings.ToUpper(f.title))+"  "+f.statusLine(),
		f.st.canvas.Render(f.traj.String()),
		f.st.canvas.Render(f.att.String()),
	)
	main := lipgloss.JoinHorizontal(lipgloss.Top, left, f.st.panel.Render(f.stats()))
	if f.showHelp {
		return f.help() + "\n\n" + main
	}
	return main
}

func (f Flight) statusLine() string {
	switch f.status {
	case "":
		if !f.running {
			return f.st.warning.Render("PAUSED")
		}
		return f.st.good.Render(fmt.Sprintf("FLYING x%d", f.speed))
	case sim.TerminationLanded:
		return f.st.good.Render("LANDED")
	case sim.TerminationFault:
		return f.st.bad.Render(fmt.Sprintf("FAULT: %v", f.err))
	default:
		return f.st.warning.Render(strings.ToUpper(string(f.status)))
	}
}

func (f Flight) stats() string {
	r := f.last
	deg := func(rad float64) float64 { return rad * 180 / math.Pi }
	apogee, _ := f.Metric("apogee")

	var s strings.Builder
	s.WriteString(f.st.header.Render("TELEMETRY") + "\n")
	s.WriteString(f.st.row("Time", fmt.Sprintf("%.2f s", r.Time)))
	s.WriteString(f.st.row("Altitude", fmt.Sprintf("%.2f m", r.Position.Z)))
	s.WriteString(f.st.row("Downrange", fmt.Sprintf("%+.2f %+.2f m", r.Position.X, r.Position.Y)))
	s.WriteString(f.st.row("Speed", fmt.Sprintf("%.2f m/s", r.Velocity.Norm())))
	s.WriteString(f.st.row("Tilt", fmt.Sprintf("%.2f°", metrics.TiltDeg(r))))
	s.WriteString(f.st.row("Servo cmd", fmt.Sprintf("%+.2f° %+.2f°", deg(r.TargetServo.X), deg(r.TargetServo.Y))))
	s.WriteString(f.st.row("Servo", fmt.Sprintf("%+.2f° %+.2f°", deg(r.ActualServo.X), deg(r.ActualServo.Y))))
	s.WriteString(f.st.row("Mass", fmt.Sprintf("%.4f kg", r.Mass)))
	s.WriteString(f.st.row("Thrust", fmt.Sprintf("%.2f N", r.Thrust)))
	s.WriteString(f.st.row("Apogee", fmt.Sprintf("%.2f m", apogee)))
	if f.manual != nil {
		s.WriteString(f.st.row("Manual", fmt.Sprintf("%+.0f° %+.0f°", deg(f.cmdX), deg(f.cmdY))))
	}
	if ap := f.vehicle.Autopilot; ap != nil {
		g := ap.Gains()
		s.WriteString(f.st.row("Gains", fmt.Sprintf("kp %.2f  kd %.2f", g["Kp"], g["Kd"])))
	}
	if m := f.vehicle.Motor; m != nil {
		burn := min(1, r.Time/m.BurnTime())
		s.WriteString(f.st.row(m.Name(), f.st.graph.Render(ProgressBar(1-burn, 20))))
	}

	if len(f.altitude) > 1 {
		chart := asciigraph.Plot(f.altitude, asciigraph.Height(5), asciigraph.Width(32), asciigraph.Caption("altitude (m)"))
		s.WriteString("\n" + f.st.graph.Render(chart) + "\n")
	}
	if len(f.tilt) > 1 {
		s.WriteString("\n" + f.st.label.Render("Tilt") + f.st.graph.Render(Sparkline(f.tilt, 30)) + "\n")
	}
	s.WriteString(f.st.help.Render("SP:Pause R:Reset Q:Quit T:Theme ?:Help"))
	return s.String()
}

func (f Flight) help() string {
	lines := []string{
		"Space      pause or resume",
		"R          rebuild and relaunch",
		"Arrows     nudge the gimbal one degree",
		"C          center the gimbal",
		"[ / ]      lower or raise autopilot kp",
		"{ / }      lower or raise autopilot kd",
		"+ / -      faster or slower",
		"H J K L    orbit the attitude camera",
		"z / Z      zoom the attitude camera",
		"T          cycle themes",
		"Q          quit",
	}
	return lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(f.theme.Muted).Padding(0, 2).
		Render(f.st.header.Render("KEYS") + "\n" + strings.Join(lines, "\n"))
}

// drawTrajectory plots the x-z flight path with the ground line and the
// current body axis.
func (f Flight) drawTrajectory() {
	c := f.traj
	c.Clear()
	hs := make([]float64, len(f.path))
	zs := make([]float64, len(f.path))
	for i, p := range f.path {
		hs[i], zs[i] = p[0], p[1]
	}
	vp := Fit(hs, zs, 10, c)

	x0, y0 := vp.Project(c, vp.MinH, 0)
	x1, y1 := vp.Project(c, vp.MaxH, 0)
	c.DrawLine(x0, y0, x1, y1)

	for i := 1; i < len(f.path); i++ {
		ax, ay := vp.Project(c, hs[i-1], zs[i-1])
		bx, by := vp.Project(c, hs[i], zs[i])
		c.DrawLine(ax, ay, bx, by)
	}

	if !f.hasLast {
		return
	}
	r := f.last
	half := 0.04 * (vp.MaxZ - vp.MinZ)
	tx, ty := vp.Project(c, r.Position.X-r.BodyZ.X*half, r.Position.Z-r.BodyZ.Z*half)
	nx, ny := vp.Project(c, r.Position.X+r.BodyZ.X*half, r.Position.Z+r.BodyZ.Z*half)
	c.DrawLine(tx, ty, nx, ny)
}

func (f Flight) drawAttitude() {
	f.att.Clear()
	q := f.last.Attitude
	if !f.hasLast {
		q = f.vehicle.Sim.Design().State().Q
	}
	servo := f.last.ActualServo
	Render(f.att, f.cam, GroundWireframe(1.2), VehicleWireframe(q, servo.X, servo.Y))
}
