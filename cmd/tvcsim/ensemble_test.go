package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/san-kum/tvcsim/internal/sim"
)

func TestWriteEnsembleReportsFaults(t *testing.T) {
	fault := errors.New("sim: singular inertia tensor")
	members := []sim.Member{
		{Seed: 0, Result: &sim.Result{StepsTaken: 300, Metrics: map[string]float64{"apogee": 40}}},
		{Seed: 1, Result: &sim.Result{StepsTaken: 0, Reason: sim.TerminationFault, Metrics: map[string]float64{}}, Err: fault},
		{Seed: 2, Result: &sim.Result{StepsTaken: 300, Metrics: map[string]float64{"apogee": 44}}},
	}

	var out bytes.Buffer
	if err := writeEnsemble(&out, members); err != nil {
		t.Fatal(err)
	}
	text := out.String()
	for _, want := range []string{"apogee", "42.0000", "1 of 3 members faulted", "singular inertia"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
}

func TestWriteEnsembleAllFaulted(t *testing.T) {
	members := []sim.Member{{Seed: 7, Err: errors.New("boom")}}
	var out bytes.Buffer
	if err := writeEnsemble(&out, members); err == nil {
		t.Error("expected an error when no member flew")
	}
	if !strings.Contains(out.String(), "boom") {
		t.Errorf("fault not listed:\n%s", out.String())
	}
}
