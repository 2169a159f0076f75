package elements

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestShapeInertia(t *testing.T) {
	tests := []struct {
		name     string
		shape    Shape
		mass     float64
		ixx, izz float64
	}{
		{
			name:  "cylinder",
			shape: Cylinder{Radius: 0.036, Height: 0.12},
			mass:  0.18,
			ixx:   0.18*0.12*0.12/12 + 0.18*0.036*0.036/4,
			izz:   0.18 * 0.036 * 0.036 / 2,
		},
		{
			name:  "tube",
			shape: Tube{InnerRadius: 0.036, OuterRadius: 0.037, Height: 0.8},
			mass:  0.3,
			ixx:   0.3 / 12 * (3*(0.036*0.036+0.037*0.037) + 0.8*0.8),
			izz:   0.3 / 2 * (0.036*0.036 + 0.037*0.037),
		},
		{
			name:  "cone",
			shape: Cone{Radius: 0.037, Height: 0.2},
			mass:  0.12,
			ixx:   0.12*0.2*0.2/10 + 3*0.12*0.037*0.037/20,
			izz:   3 * 0.12 * 0.037 * 0.037 / 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inertia := tt.shape.Inertia(tt.mass)
			if math.Abs(inertia.At(0, 0)-tt.ixx) > 1e-15 {
				t.Errorf("Ixx = %g, want %g", inertia.At(0, 0), tt.ixx)
			}
			if inertia.At(1, 1) != inertia.At(0, 0) {
				t.Errorf("Iyy = %g, want Ixx %g", inertia.At(1, 1), inertia.At(0, 0))
			}
			if math.Abs(inertia.At(2, 2)-tt.izz) > 1e-15 {
				t.Errorf("Izz = %g, want %g", inertia.At(2, 2), tt.izz)
			}
			for i := 0; i < 3; i++ {
				for j := 0; j < 3; j++ {
					if i != j && inertia.At(i, j) != 0 {
						t.Errorf("off-diagonal (%d,%d) = %g", i, j, inertia.At(i, j))
					}
				}
			}
		})
	}
}

func TestHollowConeIsOuterMinusInner(t *testing.T) {
	h := HollowCone{
		Inner: Cone{Radius: 0.03, Height: 0.15},
		Outer: Cone{Radius: 0.037, Height: 0.2},
	}
	require.NoError(t, h.Validate())

	m := 0.05
	vo := math.Pi * 0.037 * 0.037 * 0.2 / 3
	vi := math.Pi * 0.03 * 0.03 * 0.15 / 3
	mo := m * vo / (vo - vi)
	mi := m * vi / (vo - vi)
	want := h.Outer.Inertia(mo).Sub(h.Inner.Inertia(mi))

	require.True(t, h.Inertia(m).ApproxEqual(want, 1e-15))
	require.Greater(t, h.Inertia(m).At(2, 2), 0.0)
}

func TestShapeValidation(t *testing.T) {
	tests := []struct {
		name  string
		shape Shape
	}{
		{"tube equal radii", Tube{InnerRadius: 0.03, OuterRadius: 0.03, Height: 1}},
		{"tube inverted radii", Tube{InnerRadius: 0.04, OuterRadius: 0.03, Height: 1}},
		{"tube zero height", Tube{InnerRadius: 0.01, OuterRadius: 0.03}},
		{"cylinder zero radius", Cylinder{Height: 1}},
		{"cone negative height", Cone{Radius: 0.1, Height: -1}},
		{"hollow cone equal height", HollowCone{Inner: Cone{0.01, 0.2}, Outer: Cone{0.02, 0.2}}},
		{"hollow cone inverted radius", HollowCone{Inner: Cone{0.03, 0.1}, Outer: Cone{0.02, 0.2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.shape.Validate(); !errors.Is(err, ErrConstruction) {
				t.Errorf("expected ErrConstruction, got %v", err)
			}
		})
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{KindCylinder, KindTube, KindCone, KindHollowCone} {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		require.Equal(t, k, got)
	}
	_, err := ParseKind("sphere")
	require.ErrorIs(t, err, ErrConstruction)
}

func TestFactoryRejectsDynamicWithoutDepletion(t *testing.T) {
	f := NewFactory()
	_, err := f.New(Spec{Name: "motor", Shape: Cylinder{0.012, 0.07}, Mass: 0.13, Dynamic: true})
	require.ErrorIs(t, err, ErrMissingDepletion)

	_, err = f.New(Spec{Name: "motor", Shape: Cylinder{0.012, 0.07}, Mass: 0.13, Dynamic: true, FloorMass: 0.2, BurnDuration: 1})
	require.ErrorIs(t, err, ErrConstruction)

	// static elements ignore depletion parameters entirely
	e, err := f.New(Spec{Name: "body", Shape: Cylinder{0.036, 0.12}, Mass: 0.18})
	require.NoError(t, err)
	require.Zero(t, e.Rate())
}

func TestFactoryIDsAreMonotonic(t *testing.T) {
	f := NewFactory()
	spec := Spec{Name: "part", Shape: Cylinder{0.01, 0.01}, Mass: 0.01}

	var prev ID
	for i := 0; i < 5; i++ {
		e, err := f.New(spec)
		require.NoError(t, err)
		if i > 0 {
			require.Greater(t, e.ID(), prev)
		}
		prev = e.ID()
	}

	// a failed construction does not consume an id
	_, err := f.New(Spec{Name: "bad", Shape: Cylinder{}, Mass: 1})
	require.Error(t, err)
	e, err := f.New(spec)
	require.NoError(t, err)
	require.Equal(t, prev+1, e.ID())
}

func TestFactoryConcurrentIDsUnique(t *testing.T) {
	f := NewFactory()
	spec := Spec{Name: "part", Shape: Cone{0.01, 0.02}, Mass: 0.01}

	var mu sync.Mutex
	seen := make(map[ID]bool)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				e, err := f.New(spec)
				if err != nil {
					t.Error(err)
					return
				}
				mu.Lock()
				seen[e.ID()] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Len(t, seen, 400)
}

func TestMassDepletion(t *testing.T) {
	f := NewFactory()
	motor, err := f.New(Spec{
		Name:         "motor",
		Shape:        Cylinder{Radius: 0.012, Height: 0.07},
		Mass:         0.13,
		Dynamic:      true,
		FloorMass:    0.084,
		BurnDuration: 3.5,
	})
	require.NoError(t, err)
	require.InDelta(t, (0.13-0.084)/3.5, motor.Rate(), 1e-15)

	dt := 0.01
	prev := motor.Mass()
	steps := int(math.Ceil(3.5/dt)) + 50
	for i := 0; i < steps; i++ {
		motor.Step(dt)
		require.LessOrEqual(t, motor.Mass(), prev, "mass increased at step %d", i)
		require.GreaterOrEqual(t, motor.Mass(), 0.084, "mass below floor at step %d", i)
		prev = motor.Mass()
	}

	require.InDelta(t, 0.084, motor.Mass(), motor.Rate()*dt)
	require.True(t, motor.Depleted())

	motor.Step(dt)
	require.Equal(t, prev, motor.Mass(), "step at the floor must be a no-op")
}

func TestInertiaTracksMass(t *testing.T) {
	f := NewFactory()
	motor, err := f.New(Spec{
		Name:         "motor",
		Shape:        Cylinder{Radius: 0.012, Height: 0.07},
		Mass:         0.1,
		Dynamic:      true,
		FloorMass:    0.05,
		BurnDuration: 1,
	})
	require.NoError(t, err)

	full := motor.Inertia().At(2, 2)
	motor.Step(0.5)
	require.InDelta(t, 0.075, motor.Mass(), 1e-12)
	require.InDelta(t, full*0.75, motor.Inertia().At(2, 2), 1e-15)
}

func TestStaticElementIgnoresStep(t *testing.T) {
	f := NewFactory()
	e, err := f.New(Spec{Name: "nose", Shape: Cone{0.037, 0.2}, Mass: 0.12})
	require.NoError(t, err)
	e.Step(10)
	require.Equal(t, 0.12, e.Mass())
	require.False(t, e.Depleted())
}
