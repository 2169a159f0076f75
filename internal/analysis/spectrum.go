// Package analysis finds oscillations in recorded flights.
package analysis

import (
	"errors"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/tvcsim/internal/metrics"
	"github.com/san-kum/tvcsim/internal/sim"
)

var ErrShortSignal = errors.New("analysis: signal needs at least 4 samples")

// Spectrum is the one-sided amplitude spectrum of a uniformly sampled
// signal. Freq is in hertz.
type Spectrum struct {
	Freq  []float64
	Power []float64
}

// NewSpectrum removes the mean, zero-pads to a power of two and transforms.
func NewSpectrum(samples []float64, dt float64) (Spectrum, error) {
	if len(samples) < 4 {
		return Spectrum{}, ErrShortSignal
	}
	n := 1
	for n < len(samples) {
		n <<= 1
	}
	mean := stat.Mean(samples, nil)
	padded := make([]float64, n)
	for i, v := range samples {
		padded[i] = v - mean
	}

	fft := fourier.NewFFT(n)
	coeff := fft.Coefficients(nil, padded)
	s := Spectrum{Freq: make([]float64, len(coeff)), Power: make([]float64, len(coeff))}
	for i, c := range coeff {
		s.Freq[i] = fft.Freq(i) / dt
		s.Power[i] = cmplx.Abs(c)
	}
	return s, nil
}

// Dominant returns the strongest non-DC component.
func (s Spectrum) Dominant() (freq, power float64) {
	for i := 1; i < len(s.Power); i++ {
		if s.Power[i] > power {
			freq, power = s.Freq[i], s.Power[i]
		}
	}
	return freq, power
}

// Signal extracts one channel from a trace.
type Signal func(sim.Record) float64

var Signals = map[string]Signal{
	"tilt":    metrics.TiltDeg,
	"servo_x": func(r sim.Record) float64 { return r.ActualServo.X * 180 / math.Pi },
	"servo_y": func(r sim.Record) float64 { return r.ActualServo.Y * 180 / math.Pi },
	"omega_x": func(r sim.Record) float64 { return r.Omega.X },
	"omega_y": func(r sim.Record) float64 { return r.Omega.Y },
	"omega_z": func(r sim.Record) float64 { return r.Omega.Z },
	"accel_z": func(r sim.Record) float64 { return r.Acceleration.Z },
}

// Extract samples sig over records.
func Extract(records []sim.Record, sig Signal) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = sig(r)
	}
	return out
}
