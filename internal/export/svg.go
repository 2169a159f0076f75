// Package export renders stored flights as standalone SVG images.
package export

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/san-kum/tvcsim/internal/sim"
)

type View int

const (
	// SideView plots altitude against downrange x.
	SideView View = iota
	// GroundTrack plots y against x as seen from above.
	GroundTrack
)

type Options struct {
	Width, Height int
	View          View
	Stroke        string
	Background    string
}

func DefaultOptions() Options {
	return Options{Width: 640, Height: 480, Stroke: "#00ffff", Background: "#0a0a0a"}
}

func (o Options) project(r sim.Record) (float64, float64) {
	if o.View == GroundTrack {
		return r.Position.X, r.Position.Y
	}
	return r.Position.X, r.Position.Z
}

// TrajectorySVG writes the flight path with equal scale on both axes. The
// side view also draws the ground line and marks apogee.
func TrajectorySVG(w io.Writer, records []sim.Record, o Options) error {
	if len(records) < 2 {
		return fmt.Errorf("export: need at least two records, got %d", len(records))
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	apogee := 0
	for i, r := range records {
		x, y := o.project(r)
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
		if r.Position.Z > records[apogee].Position.Z {
			apogee = i
		}
	}
	if o.View == SideView {
		minY = math.Min(minY, 0)
	}

	span := math.Max(math.Max(maxX-minX, maxY-minY), 1) * 1.1
	midX, midY := (minX+maxX)/2, (minY+maxY)/2
	scale := math.Min(float64(o.Width), float64(o.Height)) / span
	px := func(x, y float64) (float64, float64) {
		return float64(o.Width)/2 + (x-midX)*scale, float64(o.Height)/2 - (y-midY)*scale
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, o.Width, o.Height, o.Width, o.Height, o.Background)

	if o.View == SideView {
		_, gy := px(0, 0)
		fmt.Fprintf(&sb, `<line x1="0" y1="%.1f" x2="%d" y2="%.1f" stroke="#666666" stroke-width="1"/>
`, gy, o.Width, gy)
	}

	fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="`, o.Stroke)
	for i, r := range records {
		x, y := px(o.project(r))
		if i == 0 {
			fmt.Fprintf(&sb, "M%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}
	sb.WriteString("\"/>\n")

	if o.View == SideView {
		ax, ay := px(o.project(records[apogee]))
		fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="3" fill="#ffcc00"/>
<text x="%.1f" y="%.1f" fill="#ffcc00" font-size="12" font-family="monospace">%.1f m</text>
`, ax, ay, ax+6, ay-6, records[apogee].Position.Z)
	}

	sb.WriteString("</svg>\n")
	_, err := io.WriteString(w, sb.String())
	return err
}
