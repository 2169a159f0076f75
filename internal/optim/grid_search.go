// Package optim sweeps configuration parameters over a grid and scores each
// combination by one flight metric.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/tvcsim/internal/config"
	"github.com/san-kum/tvcsim/internal/experiment"
	"github.com/san-kum/tvcsim/internal/logging"
)

var ErrNoResult = errors.New("optim: no trial produced a score")

// Param is one swept setting. Apply writes a candidate value into a copy of
// the base configuration.
type Param struct {
	Name   string
	Values []float64
	Apply  func(cfg *config.Config, v float64)
}

func Kp(values ...float64) Param {
	return Param{Name: "kp", Values: values, Apply: func(c *config.Config, v float64) { c.Autopilot.Kp = v }}
}

func Ki(values ...float64) Param {
	return Param{Name: "ki", Values: values, Apply: func(c *config.Config, v float64) { c.Autopilot.Ki = v }}
}

func Kd(values ...float64) Param {
	return Param{Name: "kd", Values: values, Apply: func(c *config.Config, v float64) { c.Autopilot.Kd = v }}
}

// GimbalLimit sweeps the gimbal travel in degrees.
func GimbalLimit(values ...float64) Param {
	return Param{Name: "gimbal_limit", Values: values, Apply: func(c *config.Config, v float64) { c.Motor.GimbalLimit = v }}
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}

type Goal int

const (
	Minimize Goal = iota
	Maximize
)

// Trial is one evaluated grid point. Err is set when the flight faulted.
type Trial struct {
	Values map[string]float64
	Score  float64
	Err    error
}

type Outcome struct {
	Best   Trial
	Trials []Trial
}

type GridSearch struct {
	params      []Param
	metric      string
	goal        Goal
	concurrency int
	log         logging.Log
}

func NewGridSearch(metric string, goal Goal, params ...Param) *GridSearch {
	return &GridSearch{params: params, metric: metric, goal: goal, log: logging.NewNop()}
}

// SetConcurrency bounds the parallel flights; zero or less means unbounded.
func (g *GridSearch) SetConcurrency(n int) { g.concurrency = n }

func (g *GridSearch) SetLogger(l logging.Log) { g.log = l }

// Size is the number of grid points.
func (g *GridSearch) Size() int {
	n := 1
	for _, p := range g.params {
		n *= len(p.Values)
	}
	return n
}

// points enumerates the grid with the last parameter varying fastest.
func (g *GridSearch) points() [][]float64 {
	points := [][]float64{nil}
	for _, p := range g.params {
		next := make([][]float64, 0, len(points)*len(p.Values))
		for _, prefix := range points {
			for _, v := range p.Values {
				pt := append(append([]float64(nil), prefix...), v)
				next = append(next, pt)
			}
		}
		points = next
	}
	return points
}

// Search flies base once per grid point, each with the same seed, and
// returns every trial in grid order along with the best.
func (g *GridSearch) Search(ctx context.Context, base *config.Config) (*Outcome, error) {
	if g.Size() == 0 {
		return nil, fmt.Errorf("optim: empty grid")
	}
	points := g.points()
	trials := make([]Trial, len(points))

	eg, ctx := errgroup.WithContext(ctx)
	if g.concurrency > 0 {
		eg.SetLimit(g.concurrency)
	}
	for i, pt := range points {
		eg.Go(func() error {
			t, err := g.evaluate(ctx, base, pt)
			if err != nil {
				return err
			}
			trials[i] = t
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	ranked := make([]int, 0, len(trials))
	for i, t := range trials {
		if t.Err == nil {
			ranked = append(ranked, i)
		}
	}
	if len(ranked) == 0 {
		return &Outcome{Trials: trials}, ErrNoResult
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		sa, sb := trials[ranked[a]].Score, trials[ranked[b]].Score
		if g.goal == Maximize {
			return sa > sb
		}
		return sa < sb
	})
	best := trials[ranked[0]]
	g.log.Info("grid search finished",
		logging.Int("trials", len(trials)),
		logging.String("metric", g.metric),
		logging.Float64("best", best.Score))
	return &Outcome{Best: best, Trials: trials}, nil
}

// evaluate returns an error only for problems that doom every trial, such as
// an invalid configuration or a canceled context.
func (g *GridSearch) evaluate(ctx context.Context, base *config.Config, pt []float64) (Trial, error) {
	cfg := *base
	values := make(map[string]float64, len(pt))
	for i, p := range g.params {
		p.Apply(&cfg, pt[i])
		values[p.Name] = pt[i]
	}

	exp, err := experiment.New(&cfg)
	if err != nil {
		return Trial{}, err
	}
	v, err := exp.Build(ctx, cfg.Seed, false)
	if err != nil {
		return Trial{}, err
	}
	defer v.Close()

	res, err := v.Sim.Run(ctx, cfg.Sim())
	if ctx.Err() != nil {
		return Trial{}, ctx.Err()
	}
	if err != nil {
		g.log.Debug("trial faulted", logging.Any("values", values), logging.Error(err))
		return Trial{Values: values, Score: math.NaN(), Err: err}, nil
	}
	score, ok := res.Metrics[g.metric]
	if !ok {
		return Trial{}, fmt.Errorf("optim: unknown metric %q", g.metric)
	}
	return Trial{Values: values, Score: score}, nil
}
