package viz

import (
	"math"
	"strings"
)

// Each cell is a 2x4 braille block; bit layout per dot:
//
//	1 4
//	2 5
//	3 6
//	7 8
var dotBits = [4][2]rune{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

// Canvas is a monochrome dot grid rendered with braille runes. Coordinates
// are in dots: Width*2 across and Height*4 down, origin top left.
type Canvas struct {
	Width, Height int
	cells         [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{Width: w, Height: h, cells: make([][]rune, h)}
	for i := range c.cells {
		c.cells[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Dots returns the canvas size in dots.
func (c *Canvas) Dots() (w, h int) { return c.Width * 2, c.Height * 4 }

func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.cells[row][col] |= dotBits[y%4][x%2]
}

// IsSet reports whether the dot at (x, y) is lit.
func (c *Canvas) IsSet(x, y int) bool {
	if x < 0 || y < 0 || x/2 >= c.Width || y/4 >= c.Height {
		return false
	}
	return c.cells[y/4][x/2]&dotBits[y%4][x%2] != 0
}

func (c *Canvas) Clear() {
	for i := range c.cells {
		for j := range c.cells[i] {
			c.cells[i][j] = blank
		}
	}
}

// DrawLine uses Bresenham's algorithm.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx, dy := absInt(x1-x0), absInt(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx - dy
	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for i, row := range c.cells {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(string(row))
	}
	return b.String()
}

// Viewport maps a rectangle of the flight plane, in meters, onto a canvas.
// Up is +z; the vertical axis is flipped so altitude grows upward.
type Viewport struct {
	MinH, MaxH float64
	MinZ, MaxZ float64
}

// Fit grows the viewport to contain every point, keeping at least span
// meters on each axis and an equal scale on both.
func Fit(h, z []float64, span float64, c *Canvas) Viewport {
	v := Viewport{MinH: -span / 2, MaxH: span / 2, MinZ: 0, MaxZ: span}
	for i := range h {
		v.MinH = math.Min(v.MinH, h[i])
		v.MaxH = math.Max(v.MaxH, h[i])
		v.MinZ = math.Min(v.MinZ, z[i])
		v.MaxZ = math.Max(v.MaxZ, z[i])
	}
	w, ht := c.Dots()
	perDotH := (v.MaxH - v.MinH) / float64(w-1)
	perDotZ := (v.MaxZ - v.MinZ) / float64(ht-1)
	scale := math.Max(perDotH, perDotZ)
	midH := (v.MinH + v.MaxH) / 2
	halfH := scale * float64(w-1) / 2
	v.MinH, v.MaxH = midH-halfH, midH+halfH
	v.MaxZ = v.MinZ + scale*float64(ht-1)
	return v
}

// Project returns the dot nearest to (h, z).
func (v Viewport) Project(c *Canvas, h, z float64) (int, int) {
	w, ht := c.Dots()
	x := (h - v.MinH) / (v.MaxH - v.MinH) * float64(w-1)
	y := (v.MaxZ - z) / (v.MaxZ - v.MinZ) * float64(ht-1)
	return int(math.Round(x)), int(math.Round(y))
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
