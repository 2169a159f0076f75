package design

import "github.com/san-kum/tvcsim/internal/spatial"

// Aggregate is the consolidated mass, center of gravity and inertia of a set
// of placed elements. CG is in the design frame and Inertia is about the
// design reference point.
type Aggregate struct {
	Mass    float64
	CG      spatial.Vector3
	Inertia spatial.Tensor
}

// AboutCG shifts the inertia from the reference point to the aggregate's own
// center of gravity.
func (a Aggregate) AboutCG() spatial.Tensor {
	return a.Inertia.Sub(spatial.ParallelAxis(a.Mass, a.CG))
}

// Combine merges two aggregates sharing the same reference point.
func (a Aggregate) Combine(b Aggregate) Aggregate {
	total := a.Mass + b.Mass
	out := Aggregate{Mass: total, Inertia: a.Inertia.Add(b.Inertia)}
	if total > 0 {
		out.CG = a.CG.Scale(a.Mass).Add(b.CG.Scale(b.Mass)).Scale(1 / total)
	}
	return out
}

// consolidate rotates each body tensor by its placement attitude, then adds
// the parallel-axis term for the element's offset.
func consolidate(parts []*part) Aggregate {
	var agg Aggregate
	var moment spatial.Vector3
	for _, p := range parts {
		m := p.elem.Mass()
		r := spatial.RotationMatrix(p.place.Attitude)
		agg.Inertia = agg.Inertia.
			Add(p.elem.Inertia().Rotate(r)).
			Add(spatial.ParallelAxis(m, p.place.Offset))
		agg.Mass += m
		moment = moment.Add(p.place.Offset.Scale(m))
	}
	if agg.Mass > 0 {
		agg.CG = moment.Scale(1 / agg.Mass)
	}
	return agg
}

// Properties is what the step loop consumes each tick.
type Properties struct {
	Mass float64
	// CG is in the design frame.
	CG spatial.Vector3
	// Inertia is about CG and expressed in the world frame.
	Inertia spatial.Tensor
}
