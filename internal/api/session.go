// Package api is the request/response boundary in front of a vehicle design.
// Every operation reports failure through Response rather than an error, so
// callers such as an HTTP handler can forward the result unchanged.
package api

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/san-kum/tvcsim/internal/config"
	"github.com/san-kum/tvcsim/internal/control"
	"github.com/san-kum/tvcsim/internal/design"
	"github.com/san-kum/tvcsim/internal/elements"
	"github.com/san-kum/tvcsim/internal/logging"
	"github.com/san-kum/tvcsim/internal/motor"
	"github.com/san-kum/tvcsim/internal/spatial"
)

// MotorPart is the part name the session gives the motor element.
const MotorPart = "motor"

type Response struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
	Value   any    `json:"value,omitempty"`
}

func ok(v any) Response { return Response{OK: true, Value: v} }

func failed(format string, args ...any) Response {
	return Response{Message: fmt.Sprintf(format, args...)}
}

// fromError maps design errors onto failed responses.
func fromError(err error) Response {
	switch {
	case errors.Is(err, design.ErrNotFound):
		return failed("not found: %v", err)
	case errors.Is(err, design.ErrIllegalState):
		return failed("illegal state: %v", err)
	}
	return failed("%v", err)
}

// Session collects element definitions, builds them into a design, and lets
// the caller adjust parts until the design is locked for flight. It is safe
// for concurrent use.
type Session struct {
	mu      sync.Mutex
	catalog *motor.Catalog
	log     logging.Log

	motor       *motor.Motor
	motorOffset spatial.Vector3
	tvc         *control.TVC

	names   []string
	pending map[string]config.ElementConfig

	design *design.Design
	parts  map[string]elements.ID
}

func NewSession(catalog *motor.Catalog, log logging.Log) *Session {
	if log == nil {
		log = logging.NewNop()
	}
	return &Session{
		catalog:     catalog,
		log:         log,
		motorOffset: spatial.Vec(0, 0, -0.4),
		pending:     make(map[string]config.ElementConfig),
	}
}

func (s *Session) Motors() Response {
	return ok(s.catalog.Available())
}

// SetMotor selects the motor by catalog name. Any previously locked TVC is
// discarded.
func (s *Session) SetMotor(name string) Response {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.catalog.Get(name)
	if err != nil {
		return failed("%v", err)
	}
	if s.design != nil {
		return failed("illegal state: design already built, reset before changing the motor")
	}
	s.motor = m
	s.tvc = nil
	return ok(m.Name())
}

// SetMotorOffset moves where the motor will be placed when the design is
// built.
func (s *Session) SetMotorOffset(offset spatial.Vector3) Response {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !offset.IsValid() {
		return failed("invalid offset %v", offset)
	}
	s.motorOffset = offset
	if s.tvc != nil {
		s.tvc.MoveToMotor(offset)
	}
	return ok(offset)
}

// LockTVC mounts the selected motor on a gimbal.
func (s *Session) LockTVC() Response {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.motor == nil {
		return failed("motor not yet set")
	}
	s.tvc = control.NewTVC(s.motor)
	s.tvc.MoveToMotor(s.motorOffset)
	return ok(nil)
}

// AddElement records an element definition under its name, replacing any
// earlier definition with the same name.
func (s *Session) AddElement(ec config.ElementConfig) Response {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.design != nil {
		return failed("illegal state: cannot change design once built")
	}
	if ec.Name == "" || ec.Name == MotorPart {
		return failed("element needs a name other than %q", MotorPart)
	}
	if _, err := ec.Spec(); err != nil {
		return failed("%v", err)
	}
	if _, exists := s.pending[ec.Name]; !exists {
		s.names = append(s.names, ec.Name)
	}
	s.pending[ec.Name] = ec
	return ok(ec.Name)
}

func (s *Session) DeleteElement(name string) Response {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.design != nil {
		return failed("illegal state: cannot change design once built")
	}
	if _, exists := s.pending[name]; !exists {
		return failed("not found: element %q", name)
	}
	delete(s.pending, name)
	for i, n := range s.names {
		if n == name {
			s.names = append(s.names[:i], s.names[i+1:]...)
			break
		}
	}
	return ok(nil)
}

func (s *Session) DeleteAllElements() Response {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.design != nil {
		return failed("illegal state: cannot change design once built")
	}
	s.names = nil
	s.pending = make(map[string]config.ElementConfig)
	return ok(nil)
}

// Build turns the recorded elements, plus the motor if one is set, into a
// design. It can only run once per reset. Value is the part-number map.
func (s *Session) Build() Response {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.design != nil {
		return failed("illegal state: design is already built, reset to rebuild")
	}

	factory := elements.NewFactory()
	d, err := design.New()
	if err != nil {
		return failed("%v", err)
	}
	parts := make(map[string]elements.ID, len(s.names)+1)
	for _, name := range s.names {
		ec := s.pending[name]
		spec, err := ec.Spec()
		if err != nil {
			return failed("element %q: %v", name, err)
		}
		el, err := factory.New(spec)
		if err != nil {
			return failed("element %q: %v", name, err)
		}
		if err := d.Add(el, ec.PlaceOptions()...); err != nil {
			return fromError(err)
		}
		parts[name] = el.ID()
	}
	if s.motor != nil {
		el, err := factory.New(s.motor.ElementSpec(nil))
		if err != nil {
			return failed("motor: %v", err)
		}
		if err := d.Add(el, design.MoveTo(s.motorOffset)); err != nil {
			return fromError(err)
		}
		parts[MotorPart] = el.ID()
	}

	s.design = d
	s.parts = parts
	s.log.Info("design built", logging.Int("parts", len(parts)))
	return ok(copyParts(parts))
}

// AdjustElement translates and then rotates a built part. Either argument
// may be nil.
func (s *Session) AdjustElement(name string, translation *spatial.Vector3, rotation *spatial.Quaternion) Response {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.design == nil {
		return failed("illegal state: build the design before adjusting elements")
	}
	id, exists := s.parts[name]
	if !exists {
		return failed("not found: part %q", name)
	}
	var opts []design.PlaceOption
	if translation != nil {
		opts = append(opts, design.Translate(*translation))
	}
	if rotation != nil {
		opts = append(opts, design.Rotate(*rotation))
	}
	if err := s.design.Place(id, opts...); err != nil {
		return fromError(err)
	}
	if name == MotorPart && s.tvc != nil {
		if p, err := s.design.Placement(id); err == nil {
			s.motorOffset = p.Offset
			s.tvc.MoveToMotor(p.Offset)
		}
	}
	return ok(nil)
}

// Lock folds the static parts so the design is ready to fly. Static parts
// can no longer be adjusted afterwards.
func (s *Session) Lock() Response {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.design == nil {
		return failed("illegal state: design not built")
	}
	if err := s.design.LockStatics(); err != nil {
		return fromError(err)
	}
	return ok(nil)
}

func (s *Session) PartNumbers() Response {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ok(copyParts(s.parts))
}

// Summary returns the design's mass properties. Message holds a printable
// rendering.
func (s *Session) Summary() Response {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.design == nil {
		return Response{OK: true, Value: design.Summary{}}
	}
	sum, err := s.design.Summarize()
	if err != nil {
		return failed("%v", err)
	}
	return Response{OK: true, Message: sum.String(), Value: sum}
}

// Reset discards the built design. Element definitions and the motor are
// kept so the design can be rebuilt.
func (s *Session) Reset() Response {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.design = nil
	s.parts = nil
	return ok(nil)
}

// Design hands the built design to a simulator. It returns nil before Build.
func (s *Session) Design() *design.Design {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.design
}

// TVC returns the locked gimbal, or nil.
func (s *Session) TVC() *control.TVC {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tvc
}

// Elements lists the recorded element names in insertion order.
func (s *Session) Elements() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.names...)
}

func copyParts(parts map[string]elements.ID) map[string]elements.ID {
	out := make(map[string]elements.ID, len(parts))
	for k, v := range parts {
		out[k] = v
	}
	return out
}

// SortedParts returns part names ordered by part number.
func SortedParts(parts map[string]elements.ID) []string {
	names := make([]string, 0, len(parts))
	for n := range parts {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return parts[names[i]] < parts[names[j]] })
	return names
}
