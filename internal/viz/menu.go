package viz

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/tvcsim/internal/config"
	"github.com/san-kum/tvcsim/internal/control"
	"github.com/san-kum/tvcsim/internal/experiment"
	"github.com/san-kum/tvcsim/internal/logging"
)

// Launch prepares a flight view for cfg with keyboard steering attached.
// Every reset rebuilds the vehicle from the same seed.
func Launch(cfg *config.Config, log logging.Log, opts ...FlightOption) (Flight, error) {
	if log == nil {
		log = logging.NewNop()
	}
	manual := control.NewManual()
	exp, err := experiment.New(cfg, experiment.WithLogger(log), experiment.WithSetpointSource(manual))
	if err != nil {
		return Flight{}, err
	}
	build := func() (*experiment.Vehicle, error) {
		return exp.Build(context.Background(), cfg.Seed, true)
	}
	return NewFlight(cfg.Name, cfg.Sim(), build, append([]FlightOption{WithManual(manual)}, opts...)...)
}

const (
	stateMenu = iota
	stateConfig
	stateFlight
)

// field is one editable setting on the configuration screen.
type field struct {
	name   string
	show   func(*config.Config) string
	adjust func(c *config.Config, dir int)
}

func numberField(name, format string, ptr func(*config.Config) *float64, step, floor float64) field {
	return field{
		name: name,
		show: func(c *config.Config) string { return fmt.Sprintf(format, *ptr(c)) },
		adjust: func(c *config.Config, dir int) {
			v := ptr(c)
			*v = max(floor, *v+float64(dir)*step)
		},
	}
}

func toggleField(name string, ptr func(*config.Config) *bool) field {
	return field{
		name: name,
		show: func(c *config.Config) string {
			if *ptr(c) {
				return "on"
			}
			return "off"
		},
		adjust: func(c *config.Config, _ int) { *ptr(c) = !*ptr(c) },
	}
}

// Menu picks a preset, lets the user tweak it, and flies it.
type Menu struct {
	state   int
	cursor  int
	presets []string
	motors  []string
	log     logging.Log

	cfg    *config.Config
	fields []field
	field  int

	flight Flight
	err    error
	st     styles
}

func NewMenu(motors []string, log logging.Log) Menu {
	m := Menu{
		presets: config.ListPresets(),
		motors:  motors,
		log:     log,
		st:      newStyles(Themes[0]),
	}
	m.fields = []field{
		{
			name: "motor",
			show: func(c *config.Config) string { return c.Motor.Name },
			adjust: func(c *config.Config, dir int) {
				if len(m.motors) == 0 {
					return
				}
				i := 0
				for j, name := range m.motors {
					if strings.EqualFold(name, c.Motor.Name) {
						i = j
					}
				}
				c.Motor.Name = m.motors[(i+dir+len(m.motors))%len(m.motors)]
			},
		},
		numberField("duration", "%.1f s", func(c *config.Config) *float64 { return &c.Duration }, 1, 1),
		numberField("gimbal", "%.1f°", func(c *config.Config) *float64 { return &c.Motor.GimbalLimit }, 1, 0),
		numberField("kp", "%.2f", func(c *config.Config) *float64 { return &c.Autopilot.Kp }, 0.1, 0),
		toggleField("autopilot", func(c *config.Config) *bool { return &c.Autopilot.Enabled }),
		toggleField("drag", func(c *config.Config) *bool { return &c.Drag.Enabled }),
		toggleField("randomize", func(c *config.Config) *bool { return &c.Motor.Randomize }),
	}
	return m
}

func (m Menu) Init() tea.Cmd { return nil }

func (m Menu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.state == stateFlight {
		if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
			_ = m.flight.Close()
			m.state = stateConfig
			return m, nil
		}
		next, cmd := m.flight.Update(msg)
		m.flight = next.(Flight)
		return m, cmd
	}
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	if m.state == stateConfig {
		return m.configKey(k)
	}
	return m.menuKey(k)
}

func (m Menu) menuKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch k.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		m.cursor = max(0, m.cursor-1)
	case "down", "j":
		m.cursor = min(len(m.presets)-1, m.cursor+1)
	case "enter", " ":
		m.cfg = config.GetPreset(m.presets[m.cursor])
		m.field, m.err = 0, nil
		m.state = stateConfig
	}
	return m, nil
}

func (m Menu) configKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch k.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q", "esc":
		m.state = stateMenu
	case "up", "k":
		m.field = max(0, m.field-1)
	case "down", "j":
		m.field = min(len(m.fields)-1, m.field+1)
	case "left", "h":
		m.fields[m.field].adjust(m.cfg, -1)
	case "right", "l", "enter":
		m.fields[m.field].adjust(m.cfg, 1)
	case "s":
		f, err := Launch(m.cfg, m.log)
		if err != nil {
			m.err = err
			return m, nil
		}
		m.flight, m.err = f, nil
		m.state = stateFlight
		return m, f.Init()
	}
	return m, nil
}

// Close releases the vehicle of a flight in progress.
func (m Menu) Close() error {
	if m.state != stateFlight {
		return nil
	}
	return m.flight.Close()
}

func (m Menu) View() string {
	switch m.state {
	case stateConfig:
		return m.viewConfig()
	case stateFlight:
		return m.flight.View()
	}
	return m.viewMenu()
}

func (m Menu) viewMenu() string {
	var b strings.Builder
	b.WriteString("\n  " + m.st.header.Render("TVCSIM") + "\n")
	for i, name := range m.presets {
		cfg := config.GetPreset(name)
		desc := fmt.Sprintf("%s / %s / %.0f s", cfg.Motor.Name, cfg.Controller, cfg.Duration)
		if i == m.cursor {
			b.WriteString("  " + m.st.cursor.Render(fmt.Sprintf("▸ %-12s", name)) + " " + m.st.value.Render(desc) + "\n")
		} else {
			b.WriteString("    " + m.st.label.Render(fmt.Sprintf("%-12s", name)) + " " + m.st.label.Render(desc) + "\n")
		}
	}
	b.WriteString(m.st.help.Render("  j/k navigate  enter select  q quit") + "\n")
	return b.String()
}

func (m Menu) viewConfig() string {
	var b strings.Builder
	b.WriteString("\n  " + m.st.header.Render(strings.ToUpper(m.cfg.Name)) + "\n")
	for i, f := range m.fields {
		line := fmt.Sprintf("%-10s %s", f.name, f.show(m.cfg))
		if i == m.field {
			b.WriteString("  " + m.st.cursor.Render("▸ "+line) + "\n")
		} else {
			b.WriteString("    " + m.st.value.Render(line) + "\n")
		}
	}
	if m.err != nil {
		b.WriteString("\n  " + m.st.bad.Render(m.err.Error()) + "\n")
	}
	b.WriteString(m.st.help.Render("  j/k select  h/l adjust  s launch  esc back") + "\n")
	return b.String()
}
