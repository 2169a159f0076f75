// Package telemetry bridges a running simulation to flight hardware or a
// ground station over a websocket. Frames are fixed-size little-endian
// packets of float64s.
package telemetry

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/tvcsim/internal/sim"
	"github.com/san-kum/tvcsim/internal/spatial"
)

const (
	QuaternionPacketSize = 4 * 8
	ServoPacketSize      = 2 * 8
)

var (
	ErrPacketSize = errors.New("telemetry: wrong packet size")
	ErrBadPacket  = errors.New("telemetry: non-finite value in packet")
)

// EncodeQuaternion writes q as (w, x, y, z).
func EncodeQuaternion(q spatial.Quaternion) []byte {
	buf := make([]byte, QuaternionPacketSize)
	putFloats(buf, q.W, q.V.X, q.V.Y, q.V.Z)
	return buf
}

func DecodeQuaternion(b []byte) (spatial.Quaternion, error) {
	if len(b) != QuaternionPacketSize {
		return spatial.Quaternion{}, fmt.Errorf("%w: quaternion needs %d bytes, got %d", ErrPacketSize, QuaternionPacketSize, len(b))
	}
	v := getFloats(b, 4)
	return spatial.Quaternion{W: v[0], V: spatial.Vec(v[1], v[2], v[3])}, nil
}

// EncodeServo writes a servo setpoint in degrees.
func EncodeServo(a sim.ServoAngles) []byte {
	buf := make([]byte, ServoPacketSize)
	putFloats(buf, a.X*180/math.Pi, a.Y*180/math.Pi)
	return buf
}

// DecodeServo reads a setpoint sent in degrees and returns it in radians.
func DecodeServo(b []byte) (sim.ServoAngles, error) {
	if len(b) != ServoPacketSize {
		return sim.ServoAngles{}, fmt.Errorf("%w: servo needs %d bytes, got %d", ErrPacketSize, ServoPacketSize, len(b))
	}
	v := getFloats(b, 2)
	for _, f := range v {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return sim.ServoAngles{}, fmt.Errorf("%w: servo (%v, %v)", ErrBadPacket, v[0], v[1])
		}
	}
	return sim.ServoAngles{X: v[0] * math.Pi / 180, Y: v[1] * math.Pi / 180}, nil
}

func putFloats(buf []byte, vals ...float64) {
	for i, v := range vals {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
}

func getFloats(b []byte, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return out
}
