package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/san-kum/tvcsim/internal/sim"
	"github.com/san-kum/tvcsim/internal/spatial"
)

var ErrBadTrace = errors.New("storage: malformed trace")

// TraceHeader is the column layout of trace.csv, one row per tick.
var TraceHeader = []string{
	"step", "time",
	"x", "y", "z",
	"bx_x", "bx_y", "bx_z",
	"by_x", "by_y", "by_z",
	"bz_x", "bz_y", "bz_z",
	"servo_target_x", "servo_target_y",
	"servo_x", "servo_y",
	"vx", "vy", "vz",
	"ax", "ay", "az",
	"wx", "wy", "wz",
	"alpha_x", "alpha_y", "alpha_z",
	"qw", "qx", "qy", "qz",
	"mass", "thrust",
}

func WriteTrace(w io.Writer, records []sim.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(TraceHeader); err != nil {
		return err
	}

	row := make([]string, len(TraceHeader))
	for _, r := range records {
		vals := traceValues(r)
		row[0] = strconv.Itoa(r.Step)
		for i, v := range vals {
			row[i+1] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func ReadTrace(r io.Reader) ([]sim.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(TraceHeader)

	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrBadTrace, err)
	}

	var records []sim.Record
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadTrace, err)
		}

		step, err := strconv.Atoi(row[0])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: step %q", ErrBadTrace, line, row[0])
		}
		vals := make([]float64, len(row)-1)
		for i, s := range row[1:] {
			if vals[i], err = strconv.ParseFloat(s, 64); err != nil {
				return nil, fmt.Errorf("%w: line %d: column %s", ErrBadTrace, line, TraceHeader[i+1])
			}
		}
		records = append(records, recordFrom(step, vals))
	}
	return records, nil
}

func traceValues(r sim.Record) []float64 {
	return []float64{
		r.Time,
		r.Position.X, r.Position.Y, r.Position.Z,
		r.BodyX.X, r.BodyX.Y, r.BodyX.Z,
		r.BodyY.X, r.BodyY.Y, r.BodyY.Z,
		r.BodyZ.X, r.BodyZ.Y, r.BodyZ.Z,
		r.TargetServo.X, r.TargetServo.Y,
		r.ActualServo.X, r.ActualServo.Y,
		r.Velocity.X, r.Velocity.Y, r.Velocity.Z,
		r.Acceleration.X, r.Acceleration.Y, r.Acceleration.Z,
		r.Omega.X, r.Omega.Y, r.Omega.Z,
		r.Alpha.X, r.Alpha.Y, r.Alpha.Z,
		r.Attitude.W, r.Attitude.V.X, r.Attitude.V.Y, r.Attitude.V.Z,
		r.Mass, r.Thrust,
	}
}

func recordFrom(step int, v []float64) sim.Record {
	vec := func(i int) spatial.Vector3 { return spatial.Vec(v[i], v[i+1], v[i+2]) }
	return sim.Record{
		Step:         step,
		Time:         v[0],
		Position:     vec(1),
		BodyX:        vec(4),
		BodyY:        vec(7),
		BodyZ:        vec(10),
		TargetServo:  sim.ServoAngles{X: v[13], Y: v[14]},
		ActualServo:  sim.ServoAngles{X: v[15], Y: v[16]},
		Velocity:     vec(17),
		Acceleration: vec(20),
		Omega:        vec(23),
		Alpha:        vec(26),
		Attitude:     spatial.Quaternion{W: v[29], V: vec(30)},
		Mass:         v[33],
		Thrust:       v[34],
	}
}
