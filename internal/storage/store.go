// Package storage keeps finished runs on disk, one directory per run holding
// metadata.json, the config that produced it and a per-tick trace.csv.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/san-kum/tvcsim/internal/sim"
)

const (
	metadataFile = "metadata.json"
	traceFile    = "trace.csv"
	configFile   = "config.yaml"
)

var ErrRunNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Motor       string             `json:"motor"`
	Controller  string             `json:"controller"`
	Integrator  string             `json:"integrator"`
	Timestamp   time.Time          `json:"timestamp"`
	Seed        int64              `json:"seed"`
	Dt          float64            `json:"dt"`
	Duration    float64            `json:"duration"`
	Steps       int                `json:"steps"`
	FlightTime  float64            `json:"flight_time"`
	Termination string             `json:"termination"`
	Fault       string             `json:"fault,omitempty"`
	ConfigHash  string             `json:"config_hash,omitempty"`
	Metrics     map[string]float64 `json:"metrics"`
}

// Fingerprint identifies a config document so runs from identical inputs can
// be grouped.
func Fingerprint(config []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(config))
}

// Save writes a run and returns its ID. The ID, timestamp, step count,
// termination and metrics are filled from result; config may be nil.
func (s *Store) Save(meta RunMetadata, config []byte, result *sim.Result) (string, error) {
	name := meta.Name
	if name == "" {
		name = "run"
	}
	meta.ID = fmt.Sprintf("%s_%s", sanitize(name), uuid.NewString()[:8])
	meta.Timestamp = s.now().UTC()
	meta.Steps = result.StepsTaken
	meta.FlightTime = result.Time
	meta.Termination = string(result.Reason)
	meta.Metrics = result.Metrics
	if len(config) > 0 {
		meta.ConfigHash = Fingerprint(config)
	}

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if len(config) > 0 {
		if err := os.WriteFile(filepath.Join(runDir, configFile), config, 0644); err != nil {
			return "", err
		}
	}

	f, err := os.Create(filepath.Join(runDir, traceFile))
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := WriteTrace(f, result.Records); err != nil {
		return "", err
	}
	return meta.ID, f.Close()
}

// List returns every readable run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadRecords(runID string) ([]sim.Record, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, traceFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer f.Close()
	return ReadTrace(f)
}

// LoadConfig returns the config document stored with a run, if any.
func (s *Store) LoadConfig(runID string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, configFile))
	if os.IsNotExist(err) {
		return nil, nil
	}
	return data, err
}

// Export is the JSON shape of a whole run.
type Export struct {
	Meta    RunMetadata  `json:"meta"`
	Records []sim.Record `json:"records"`
}

func ExportJSON(w io.Writer, meta RunMetadata, records []sim.Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Export{Meta: meta, Records: records})
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	return f.Close()
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
}
