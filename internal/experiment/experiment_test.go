package experiment

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/tvcsim/internal/config"
	"github.com/san-kum/tvcsim/internal/control"
	"github.com/san-kum/tvcsim/internal/sim"
)

type countingObserver struct{ n int }

func (c *countingObserver) OnStep(sim.Record) { c.n++ }

func TestBuildDemo(t *testing.T) {
	e, err := New(config.GetPreset("demo"))
	require.NoError(t, err)

	v, err := e.Build(context.Background(), 1, false)
	require.NoError(t, err)
	require.NotNil(t, v.Motor)
	assert.Equal(t, "E12", v.Motor.Name())
	assert.Len(t, v.Design.Parts(), 4)
	assert.IsType(t, &control.TVC{}, v.Controller)

	motorPart, err := v.Design.Element(v.MotorID)
	require.NoError(t, err)
	assert.True(t, motorPart.IsDynamic())
	assert.NoError(t, v.Close())
}

func TestRunDemoFlies(t *testing.T) {
	obs := &countingObserver{}
	e, err := New(config.GetPreset("demo"), WithObserver(obs))
	require.NoError(t, err)

	res, err := e.Run(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, res.Records)
	assert.Equal(t, len(res.Records), obs.n)
	assert.Greater(t, res.Metrics["apogee"], 1.0)
	assert.Less(t, res.Metrics["final_mass"], res.Records[0].Mass)
	assert.Greater(t, res.Metrics["max_speed"], 0.0)
}

func TestBallisticStaysOnRailThenLands(t *testing.T) {
	e, err := New(config.GetPreset("ballistic"))
	require.NoError(t, err)

	res, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sim.TerminationLanded, res.Reason)
	assert.Equal(t, config.DefaultMinSteps+1, res.StepsTaken)
	assert.Zero(t, res.Metrics["apogee"])
	for _, r := range res.Records[:config.DefaultRailSteps] {
		assert.Zero(t, r.Velocity.Z, "rail holds the vehicle at step %d", r.Step)
	}
}

func TestSetpointScheduleInDegrees(t *testing.T) {
	cfg := config.GetPreset("tilted")
	cfg.Duration = 1.3
	e, err := New(cfg)
	require.NoError(t, err)

	res, err := e.Run(context.Background())
	require.NoError(t, err)
	// Setpoints are applied after tick 100 completes, so record 101 carries them.
	target := res.Records[100].TargetServo
	assert.InDelta(t, -0.0523599, target.X, 1e-6)
	assert.InDelta(t, -0.0349066, target.Y, 1e-6)
}

func TestEnsembleDispersion(t *testing.T) {
	cfg := config.GetPreset("demo")
	cfg.Duration = 2
	cfg.Motor.Randomize = true
	e, err := New(cfg)
	require.NoError(t, err)

	members, err := e.Ensemble(context.Background(), 4, 2)
	require.NoError(t, err)
	require.Len(t, members, 4)

	apogees := map[float64]bool{}
	for _, m := range members {
		require.NoError(t, m.Err)
		apogees[m.Result.Metrics["apogee"]] = true
	}
	assert.Greater(t, len(apogees), 1, "randomized motors should disperse the apogee")

	again, err := e.Ensemble(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, members[0].Result.Metrics["apogee"], again[0].Result.Metrics["apogee"], "seeded runs are reproducible")
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Dt = 0
	_, err := New(cfg)
	assert.ErrorIs(t, err, sim.ErrInvalidConfig)
}

func TestBuildUnknownMotor(t *testing.T) {
	cfg := config.GetPreset("demo")
	cfg.Motor.Name = "Z99"
	e, err := New(cfg)
	require.NoError(t, err)
	_, err = e.Build(context.Background(), 0, false)
	assert.Error(t, err)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, []string{"none", "tvc"}, r.ListControllers())
	_, err := r.GetController("tvc", config.DefaultConfig(), nil)
	assert.ErrorIs(t, err, sim.ErrInvalidConfig)
	_, err = r.GetController("lqr", config.DefaultConfig(), nil)
	assert.ErrorIs(t, err, sim.ErrInvalidConfig)
	assert.Contains(t, r.ListIntegrators(), "expmap")
}

func TestWindDriftsBallisticVehicle(t *testing.T) {
	cfg := config.GetPreset("ballistic")
	cfg.Wind = config.Vec3{1, 0, 0}
	e, err := New(cfg)
	require.NoError(t, err)

	res, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Greater(t, res.Final.R.X, 0.0)
	assert.InDelta(t, 0, res.Final.R.Y, 1e-12)
}

func TestFeedbackAutopilotFlies(t *testing.T) {
	cfg := config.GetPreset("demo")
	cfg.Duration = 2
	cfg.Autopilot.Mode = "feedback"
	cfg.Autopilot.KTilt = 0.8
	cfg.Autopilot.KRate = 0.1
	e, err := New(cfg)
	require.NoError(t, err)

	res, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Greater(t, res.Metrics["apogee"], 1.0)
	assert.Less(t, res.Metrics["max_tilt_deg"], 10.0)
}

func TestEnergyMetricFollowsConfiguredGravity(t *testing.T) {
	cfg := config.GetPreset("ballistic")
	cfg.Gravity = config.Vec3{0, 0, -3.7}
	e, err := New(cfg)
	require.NoError(t, err)

	res, err := e.Run(context.Background())
	require.NoError(t, err)
	peak := math.Inf(-1)
	for _, r := range res.Records {
		v := r.Velocity.Norm()
		peak = math.Max(peak, 0.5*v*v+3.7*r.Position.Z)
	}
	assert.InDelta(t, peak, res.Metrics["peak_energy"], 1e-9)
}
