package automation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/san-kum/yoyosim/internal/dynamo"
	"github.com/san-kum/yoyosim/internal/experiment"
)

const scenarioYAML = `
name: lengths
description: reference yo-yo against a short check and a broken one
steps:
  - name: reference
    checkpoints: [0.5]
    save: true
  - preset: quick_check
  - name: heavy_body
    params:
      mass: -1
`

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadScenario(t *testing.T) {
	sc, err := LoadScenario(writeScenario(t, scenarioYAML))
	require.NoError(t, err)

	assert.Equal(t, "lengths", sc.Name)
	require.Len(t, sc.Steps, 3)
	assert.True(t, sc.Steps[0].Save)
	assert.Equal(t, []float64{0.5}, sc.Steps[0].Checkpoints)
	assert.Equal(t, "quick_check", sc.Steps[1].Preset)
	assert.Equal(t, "step_2", sc.Steps[1].Label(1))
	assert.Equal(t, "heavy_body", sc.Steps[2].Label(2))
}

func TestLoadScenarioErrors(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadScenario(writeScenario(t, "steps: [[["))
	assert.Error(t, err)

	_, err = LoadScenario(writeScenario(t, "name: empty\n"))
	assert.Error(t, err)
}

func TestStepConfig(t *testing.T) {
	step := ScenarioStep{
		Preset:     "long_string",
		Integrator: "rk4",
		Tolerance:  1e-6,
		Params:     map[string]float64{"gravity": 1.62},
	}
	cfg, err := step.Config()
	require.NoError(t, err)

	assert.Equal(t, "rk4", cfg.Integrator)
	assert.Equal(t, 1e-6, cfg.Solver.Tolerance)
	assert.Equal(t, 1.62, cfg.Params.Gravity)
	assert.Equal(t, 2.5, cfg.Params.StringLength)
	assert.Equal(t, []float64{0.25, 0.5, 0.75}, cfg.Checkpoints)

	_, err = ScenarioStep{Preset: "nope"}.Config()
	assert.Error(t, err)

	_, err = ScenarioStep{Params: map[string]float64{"colour": 1}}.Config()
	assert.Error(t, err)
}

func TestRunScenario(t *testing.T) {
	sc, err := LoadScenario(writeScenario(t, scenarioYAML))
	require.NoError(t, err)

	results, err := RunScenario(context.Background(), sc, experiment.NewRegistry(), 2, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.Len(t, results, 3)

	ref := results[0]
	require.NoError(t, ref.Err)
	assert.Equal(t, dynamo.EventTriggered, ref.Trajectory.Reason)
	assert.Len(t, ref.Trajectory.Crossings, 1)

	short := results[1]
	require.NoError(t, short.Err)
	assert.Equal(t, dynamo.HorizonReached, short.Trajectory.Reason)
	assert.Equal(t, "rk4", short.Config.Integrator)

	broken := results[2]
	assert.Nil(t, broken.Trajectory)
	assert.True(t, errors.Is(broken.Err, dynamo.ErrParameterBounds))
}

func TestRunScenarioUnresolvedStep(t *testing.T) {
	sc := &Scenario{Name: "bad", Steps: []ScenarioStep{{}, {Preset: "nope"}}}
	_, err := RunScenario(context.Background(), sc, experiment.NewRegistry(), 1, nil)
	assert.ErrorContains(t, err, "step_2")
}
