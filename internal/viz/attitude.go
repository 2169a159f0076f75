package viz

import (
	"math"
	"sort"

	"github.com/san-kum/tvcsim/internal/spatial"
)

// Camera projects world-frame points onto a canvas with a simple
// perspective divide. Yaw turns the scene about world z, Pitch tilts it
// toward the viewer.
type Camera struct {
	Yaw, Pitch float64
	Distance   float64
	Zoom       float64
}

func NewCamera() *Camera {
	return &Camera{Yaw: math.Pi / 6, Pitch: math.Pi / 8, Distance: 4, Zoom: 1}
}

func (c *Camera) Turn(da float64) { c.Yaw += da }
func (c *Camera) Tilt(da float64) {
	c.Pitch = math.Max(-math.Pi/2, math.Min(math.Pi/2, c.Pitch+da))
}
func (c *Camera) ZoomIn()  { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut() { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

// view returns p in camera coordinates: x right, y up, z toward the viewer.
func (c *Camera) view(p spatial.Vector3) spatial.Vector3 {
	cy, sy := math.Cos(c.Yaw), math.Sin(c.Yaw)
	x, depth, up := p.X*cy-p.Y*sy, p.X*sy+p.Y*cy, p.Z
	cp, sp := math.Cos(c.Pitch), math.Sin(c.Pitch)
	up, depth = up*cp-depth*sp, up*sp+depth*cp
	return spatial.Vec(x, up, -depth)
}

// Project maps p to canvas dots. The bool is false when the point is behind
// the camera or off the canvas.
func (c *Camera) Project(p spatial.Vector3, cv *Canvas) (int, int, float64, bool) {
	v := c.view(p).Scale(c.Zoom)
	if v.Z >= c.Distance-0.1 {
		return 0, 0, 0, false
	}
	w, h := cv.Dots()
	persp := c.Distance / (c.Distance - v.Z)
	px := float64(min(w, h)) / 3
	sx := int(math.Round(v.X*persp*px)) + w/2
	sy := int(math.Round(-v.Y*persp*px)) + h/2
	return sx, sy, v.Z, sx >= 0 && sx < w && sy >= 0 && sy < h
}

type Edge struct {
	Start, End spatial.Vector3
}

type Wireframe struct{ Edges []Edge }

func (w *Wireframe) Add(s, e spatial.Vector3) { w.Edges = append(w.Edges, Edge{s, e}) }

// VehicleWireframe draws a unit-length airframe for attitude q: the body
// line along body z, four fins at the tail and the thrust line deflected
// by the servo angles.
func VehicleWireframe(q spatial.Quaternion, servoX, servoY float64) *Wireframe {
	bx := spatial.RotateVector(q, spatial.UnitX)
	by := spatial.RotateVector(q, spatial.UnitY)
	bz := spatial.RotateVector(q, spatial.UnitZ)

	w := &Wireframe{}
	tail, nose := bz.Scale(-0.5), bz.Scale(0.5)
	w.Add(tail, nose)
	const fin = 0.15
	for _, d := range []spatial.Vector3{bx, bx.Scale(-1), by, by.Scale(-1)} {
		w.Add(tail, tail.Add(d.Scale(fin)).Add(bz.Scale(fin)))
	}

	// +servoX swings the exhaust toward +y, +servoY toward -x.
	plume := spatial.Vec(-math.Sin(servoY), math.Sin(servoX), -1).Unit()
	w.Add(tail, tail.Add(spatial.RotateVector(q, plume).Scale(0.3)))
	return w
}

// GroundWireframe is a square of the ground plane under the vehicle.
func GroundWireframe(size float64) *Wireframe {
	s := size / 2
	z := -0.6
	c := []spatial.Vector3{spatial.Vec(-s, -s, z), spatial.Vec(s, -s, z), spatial.Vec(s, s, z), spatial.Vec(-s, s, z)}
	w := &Wireframe{}
	for i := range c {
		w.Add(c[i], c[(i+1)%len(c)])
	}
	return w
}

type projectedEdge struct {
	x1, y1, x2, y2 int
	depth          float64
}

// Render draws far edges first.
func Render(cv *Canvas, cam *Camera, frames ...*Wireframe) {
	var proj []projectedEdge
	for _, w := range frames {
		for _, e := range w.Edges {
			x1, y1, d1, v1 := cam.Project(e.Start, cv)
			x2, y2, d2, v2 := cam.Project(e.End, cv)
			if v1 || v2 {
				proj = append(proj, projectedEdge{x1, y1, x2, y2, (d1 + d2) / 2})
			}
		}
	}
	sort.Slice(proj, func(i, j int) bool { return proj[i].depth < proj[j].depth })
	for _, e := range proj {
		cv.DrawLine(e.x1, e.y1, e.x2, e.y2)
	}
}
