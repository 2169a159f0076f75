package control

import "github.com/san-kum/tvcsim/internal/spatial"

// None produces no force or moment and never deflects.
type None struct{}

func NewNone() *None {
	return &None{}
}

func (n *None) ThrustVector(float64, spatial.Vector3) (spatial.Vector3, spatial.Vector3) {
	return spatial.Vector3{}, spatial.Vector3{}
}

func (n *None) Step(float64) {}

func (n *None) Attitude() spatial.Quaternion { return spatial.Identity() }
