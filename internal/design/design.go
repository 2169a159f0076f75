package design

import (
	"fmt"

	"github.com/san-kum/tvcsim/internal/elements"
	"github.com/san-kum/tvcsim/internal/spatial"
)

type part struct {
	elem  *elements.Element
	place Placement
}

// Design is a rigid vehicle built from placed elements. It is not safe for
// concurrent use; a run owns its Design exclusively.
type Design struct {
	static  []*part
	dynamic []*part
	index   map[elements.ID]*part

	// folded remembers static ids absorbed into the cached aggregate.
	folded map[elements.ID]string

	locked    bool
	staticAgg Aggregate

	state State
}

// New creates an open design holding elems at the reference point.
func New(elems ...*elements.Element) (*Design, error) {
	d := &Design{
		index:  make(map[elements.ID]*part),
		folded: make(map[elements.ID]string),
		state:  InitialState(),
	}
	for _, e := range elems {
		if err := d.Add(e); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Add places e at the reference point with identity attitude. Static elements
// can only be added while the design is open.
func (d *Design) Add(e *elements.Element, opts ...PlaceOption) error {
	if e == nil {
		return fmt.Errorf("%w: nil element", ErrIllegalState)
	}
	if _, ok := d.index[e.ID()]; ok {
		return fmt.Errorf("%w: element %d already added", ErrIllegalState, e.ID())
	}
	if _, ok := d.folded[e.ID()]; ok {
		return fmt.Errorf("%w: element %d already added", ErrIllegalState, e.ID())
	}
	if !e.IsDynamic() && d.locked {
		return fmt.Errorf("%w: cannot add static element %d after lock", ErrIllegalState, e.ID())
	}

	p := &part{elem: e, place: DefaultPlacement()}
	for _, opt := range opts {
		opt(&p.place)
	}
	d.index[e.ID()] = p
	if e.IsDynamic() {
		d.dynamic = append(d.dynamic, p)
	} else {
		d.static = append(d.static, p)
	}
	return nil
}

// Remove drops an element. Static elements cannot be removed after lock.
func (d *Design) Remove(id elements.ID) error {
	p, err := d.lookup(id)
	if err != nil {
		return err
	}
	delete(d.index, id)
	if p.elem.IsDynamic() {
		d.dynamic = without(d.dynamic, p)
	} else {
		d.static = without(d.static, p)
	}
	return nil
}

// Place adjusts the placement of id. Unknown ids return ErrNotFound; static
// ids after lock return ErrIllegalState.
func (d *Design) Place(id elements.ID, opts ...PlaceOption) error {
	p, err := d.lookup(id)
	if err != nil {
		return err
	}
	next := p.place
	for _, opt := range opts {
		opt(&next)
	}
	if !next.Offset.IsValid() || !next.Attitude.IsValid() {
		return fmt.Errorf("%w: placement of element %d", ErrInvalidState, id)
	}
	p.place = next
	return nil
}

// Placement returns the current placement of id.
func (d *Design) Placement(id elements.ID) (Placement, error) {
	p, err := d.lookup(id)
	if err != nil {
		return Placement{}, err
	}
	return p.place, nil
}

// Element returns the element with the given id, if it is still held.
func (d *Design) Element(id elements.ID) (*elements.Element, error) {
	p, err := d.lookup(id)
	if err != nil {
		return nil, err
	}
	return p.elem, nil
}

func (d *Design) lookup(id elements.ID) (*part, error) {
	if p, ok := d.index[id]; ok {
		return p, nil
	}
	if _, ok := d.folded[id]; ok {
		return nil, fmt.Errorf("%w: static element %d is locked", ErrIllegalState, id)
	}
	return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
}

// LockStatics folds every static element into the cached aggregate and
// releases the per-element records. It can only happen once.
func (d *Design) LockStatics() error {
	if d.locked {
		return fmt.Errorf("%w: statics already locked", ErrIllegalState)
	}
	d.staticAgg = consolidate(d.static)
	for _, p := range d.static {
		d.folded[p.elem.ID()] = p.elem.Name()
		delete(d.index, p.elem.ID())
	}
	d.static = nil
	d.locked = true
	return nil
}

func (d *Design) Locked() bool { return d.locked }

// StaticAggregate returns the cached static triple. ok is false until the
// design is locked.
func (d *Design) StaticAggregate() (agg Aggregate, ok bool) {
	return d.staticAgg, d.locked
}

// ConsolidateDynamics recomputes the dynamic partition from current masses
// and placements.
func (d *Design) ConsolidateDynamics() Aggregate {
	return consolidate(d.dynamic)
}

// TemporaryProperties locks the statics if needed and returns the combined
// mass, the combined CG in the design frame, and the inertia about that CG
// rotated into the world frame by the current attitude.
func (d *Design) TemporaryProperties() (Properties, error) {
	if !d.locked {
		if err := d.LockStatics(); err != nil {
			return Properties{}, err
		}
	}
	combined := d.staticAgg.Combine(d.ConsolidateDynamics())
	if combined.Mass <= 0 {
		return Properties{}, ErrZeroMass
	}
	r := spatial.RotationMatrix(d.state.Q)
	return Properties{
		Mass:    combined.Mass,
		CG:      combined.CG,
		Inertia: combined.AboutCG().Rotate(r),
	}, nil
}

// Mass returns the current total mass without locking.
func (d *Design) Mass() float64 {
	total := d.staticAgg.Mass
	for _, p := range d.static {
		total += p.elem.Mass()
	}
	for _, p := range d.dynamic {
		total += p.elem.Mass()
	}
	return total
}

// Step depletes every dynamic element by dt.
func (d *Design) Step(dt float64) {
	for _, p := range d.dynamic {
		p.elem.Step(dt)
	}
}

// Dynamics lists the dynamic elements in insertion order.
func (d *Design) Dynamics() []*elements.Element {
	out := make([]*elements.Element, len(d.dynamic))
	for i, p := range d.dynamic {
		out[i] = p.elem
	}
	return out
}

func without(parts []*part, target *part) []*part {
	out := parts[:0]
	for _, p := range parts {
		if p != target {
			out = append(out, p)
		}
	}
	return out
}
