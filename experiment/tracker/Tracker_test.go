package tracker

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	ts "github.com/samuelfneumann/dqn/timestep"
)

func episode(rewards ...float64) []ts.TimeStep {
	steps := []ts.TimeStep{ts.New(ts.First, 0, nil, 0)}
	for i, r := range rewards {
		stepType := ts.Mid
		if i == len(rewards)-1 {
			stepType = ts.Last
		}
		steps = append(steps, ts.New(stepType, r, nil, i+1))
	}
	return steps
}

func TestReturn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "returns.bin")
	r := NewReturn(path)

	for _, step := range episode(1, 1, 1) {
		r.Track(step)
	}
	for _, step := range episode(2, -1) {
		r.Track(step)
	}
	require.Equal(t, []float64{3, 1}, r.Returns())

	require.NoError(t, r.Save())
	data, err := LoadData(path)
	require.NoError(t, err)
	require.Equal(t, []float64{3, 1}, data)
}

func TestReturnNonSequential(t *testing.T) {
	r := NewReturn("")
	r.Track(ts.New(ts.First, 0, nil, 0))
	require.Panics(t, func() { r.Track(ts.New(ts.Mid, 1, nil, 2)) })
}

func TestEpisodeLength(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lengths.bin")
	e := NewEpisodeLength(path)

	for _, step := range episode(1, 1, 1, 1) {
		e.Track(step)
	}
	for _, step := range episode(1) {
		e.Track(step)
	}
	require.Equal(t, []float64{4, 1}, e.Lengths())

	require.NoError(t, e.Save())
	data, err := LoadData(path)
	require.NoError(t, err)
	require.Equal(t, []float64{4, 1}, data)
}
