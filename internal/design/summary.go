package design

import (
	"fmt"
	"sort"
	"strings"

	"github.com/san-kum/tvcsim/internal/elements"
	"github.com/san-kum/tvcsim/internal/spatial"
)

// Part describes one element for listings. Locked static parts report only
// their id and name.
type Part struct {
	ID        elements.ID
	Name      string
	Kind      string
	Dynamic   bool
	Locked    bool
	Mass      float64
	Placement Placement
}

// Parts lists every element the design knows about, ordered by id.
func (d *Design) Parts() []Part {
	out := make([]Part, 0, len(d.index)+len(d.folded))
	for id, name := range d.folded {
		out = append(out, Part{ID: id, Name: name, Locked: true})
	}
	for _, group := range [][]*part{d.static, d.dynamic} {
		for _, p := range group {
			out = append(out, Part{
				ID:        p.elem.ID(),
				Name:      p.elem.Name(),
				Kind:      p.elem.Shape().Kind().String(),
				Dynamic:   p.elem.IsDynamic(),
				Mass:      p.elem.Mass(),
				Placement: p.place,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Summary is a body-frame snapshot of the whole vehicle.
type Summary struct {
	Mass    float64
	CG      spatial.Vector3
	Inertia spatial.Tensor
	// Principal holds the principal moments about CG, ascending.
	Principal spatial.Vector3
}

// Summarize consolidates every partition in the body frame without locking.
func (d *Design) Summarize() (Summary, error) {
	agg := d.staticAgg.Combine(consolidate(d.static)).Combine(consolidate(d.dynamic))
	if agg.Mass <= 0 {
		return Summary{}, ErrZeroMass
	}
	inertia := agg.AboutCG()
	principal, err := inertia.PrincipalMoments()
	if err != nil {
		return Summary{}, err
	}
	return Summary{Mass: agg.Mass, CG: agg.CG, Inertia: inertia, Principal: principal}, nil
}

func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "mass:      %.4f kg\n", s.Mass)
	fmt.Fprintf(&b, "cg:        %v m\n", s.CG)
	fmt.Fprintf(&b, "principal: %.6g %.6g %.6g kg·m²\n", s.Principal.X, s.Principal.Y, s.Principal.Z)
	fmt.Fprintf(&b, "inertia:   %v kg·m²\n", s.Inertia)
	return b.String()
}
