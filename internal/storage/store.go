package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/yoyosim/internal/dynamo"
	"github.com/san-kum/yoyosim/internal/physics"
)

const (
	metadataFile = "metadata.json"
	statesFile   = "states.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

type CrossingRecord struct {
	Event string  `json:"event"`
	Time  float64 `json:"time"`
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Preset     string             `json:"preset,omitempty"`
	Timestamp  time.Time          `json:"timestamp"`
	Integrator string             `json:"integrator"`
	Params     map[string]float64 `json:"params"`
	Tolerance  float64            `json:"tolerance"`
	Reason     string             `json:"reason"`
	Event      string             `json:"event,omitempty"`
	FinalTime  float64            `json:"final_time"`
	Steps      int                `json:"steps"`
	Rejected   int                `json:"rejected"`
	Metrics    map[string]float64 `json:"metrics"`
	Crossings  []CrossingRecord   `json:"crossings,omitempty"`
}

// NewRunID returns a fresh identifier of the form yoyo_<8 hex digits>.
func NewRunID() string {
	return "yoyo_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// Save writes meta and the trajectory samples under a new run directory.
// Fields derived from traj overwrite those in meta.
func (s *Store) Save(meta RunMetadata, traj *dynamo.Trajectory) (string, error) {
	if meta.ID == "" {
		meta.ID = NewRunID()
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	meta.Reason = traj.Reason.String()
	meta.Event = traj.Event
	meta.FinalTime, _ = traj.Final()
	meta.Steps = traj.Stats.Accepted
	meta.Rejected = traj.Stats.Rejected
	meta.Metrics = traj.Metrics
	meta.Crossings = nil
	for _, c := range traj.Crossings {
		meta.Crossings = append(meta.Crossings, CrossingRecord{Event: c.Event, Time: c.Time})
	}

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeMetadata(filepath.Join(runDir, metadataFile), &meta); err != nil {
		return "", err
	}
	if err := writeStates(filepath.Join(runDir, statesFile), traj); err != nil {
		return "", err
	}
	return meta.ID, nil
}

func writeMetadata(path string, meta *RunMetadata) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func writeStates(path string, traj *dynamo.Trajectory) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := append([]string{"time"}, physics.StateNames...)
	if err := w.Write(header); err != nil {
		return err
	}

	row := make([]string, len(header))
	for i, t := range traj.Times {
		row[0] = strconv.FormatFloat(t, 'g', -1, 64)
		for j := range physics.StateNames {
			v := 0.0
			if j < len(traj.States[i]) {
				v = traj.States[i][j]
			}
			row[j+1] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

// List returns the stored runs, oldest first. Directories without readable
// metadata are skipped.
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

	sort.Slice(runs, func(i, j int) bool {
		if runs[i].Timestamp.Equal(runs[j].Timestamp) {
			return runs[i].ID < runs[j].ID
		}
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

func (s *Store) LoadStates(runID string) ([]dynamo.State, []float64, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, statesFile))
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("run %s: %w", runID, err)
	}
	if len(records) < 2 {
		return []dynamo.State{}, []float64{}, nil
	}

	times := make([]float64, 0, len(records)-1)
	states := make([]dynamo.State, 0, len(records)-1)
	for line, record := range records[1:] {
		vals := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("run %s line %d: %w", runID, line+2, err)
			}
			vals[j] = v
		}
		times = append(times, vals[0])
		states = append(states, dynamo.State(vals[1:]))
	}
	return states, times, nil
}

// LoadTrajectory rebuilds the stored run as a Trajectory.
func (s *Store) LoadTrajectory(runID string) (*RunMetadata, *dynamo.Trajectory, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	states, times, err := s.LoadStates(runID)
	if err != nil {
		return nil, nil, err
	}
	reason, err := dynamo.ParseReason(meta.Reason)
	if err != nil {
		return nil, nil, fmt.Errorf("run %s: %w", runID, err)
	}

	traj := &dynamo.Trajectory{
		Times:   times,
		States:  states,
		Reason:  reason,
		Event:   meta.Event,
		Metrics: meta.Metrics,
		Stats:   dynamo.Stats{Accepted: meta.Steps, Rejected: meta.Rejected},
	}
	for _, c := range meta.Crossings {
		traj.Crossings = append(traj.Crossings, dynamo.Crossing{Event: c.Event, Time: c.Time})
	}
	return meta, traj, nil
}
