package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/yoyosim/internal/physics"
)

type ExportData struct {
	*RunMetadata
	StateNames []string    `json:"state_names"`
	Times      []float64   `json:"times"`
	States     [][]float64 `json:"states"`
}

// ExportJSON writes a stored run, metadata and samples, as one JSON document.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, traj, err := s.LoadTrajectory(runID)
	if err != nil {
		return err
	}

	data := ExportData{
		RunMetadata: meta,
		StateNames:  physics.StateNames,
		Times:       traj.Times,
		States:      make([][]float64, len(traj.States)),
	}
	for i, x := range traj.States {
		data.States[i] = x
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
