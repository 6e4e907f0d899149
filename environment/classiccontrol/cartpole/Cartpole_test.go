package cartpole

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r1"

	env "github.com/samuelfneumann/dqn/environment"
	ts "github.com/samuelfneumann/dqn/timestep"
)

func newUpright(t *testing.T, episodeSteps int) *Cartpole {
	t.Helper()

	zero := r1.Interval{Min: 0, Max: 0}
	s := env.NewUniformStarter([]r1.Interval{zero, zero, zero, zero}, 1)
	task := NewBalance(s, episodeSteps, FailAngle)

	c, step, err := New(task)
	require.NoError(t, err)
	require.True(t, step.First())
	return c
}

func TestSpecs(t *testing.T) {
	c := newUpright(t, 500)

	require.Equal(t, ObservationDims, env.ObservationSize(c))
	require.Equal(t, 2, env.ActionSize(c))
}

func TestStepLimitEndsEpisode(t *testing.T) {
	c := newUpright(t, 10)

	steps := 0
	for {
		step, done, err := c.Step(steps % 2)
		require.NoError(t, err)
		require.Equal(t, 1.0, step.Reward)
		steps++

		if done {
			require.True(t, step.Last())
			break
		}
		require.True(t, step.Mid())
	}
	require.Equal(t, 10, steps)
}

func TestPoleFalls(t *testing.T) {
	c := newUpright(t, 500)

	var (
		step  ts.TimeStep
		done  bool
		err   error
		steps int
	)
	for !done {
		step, done, err = c.Step(1)
		require.NoError(t, err)
		steps++

		if done {
			fallen := math.Abs(step.Observation.AtVec(2)) > FailAngle ||
				math.Abs(step.Observation.AtVec(0)) > FailPosition
			require.True(t, fallen)
		}
	}
	require.Less(t, steps, 500)

	// Reset starts a new episode
	first, err := c.Reset()
	require.NoError(t, err)
	require.True(t, first.First())
	require.Equal(t, 0, first.Number)
}

func TestIllegalAction(t *testing.T) {
	c := newUpright(t, 500)

	_, _, err := c.Step(2)
	require.Error(t, err)

	_, _, err = c.Step(-1)
	require.Error(t, err)
}

func TestRender(t *testing.T) {
	c := newUpright(t, 500)
	dir := t.TempDir()
	c.SetRenderDir(dir)

	require.NoError(t, c.Render())
	_, _, err := c.Step(0)
	require.NoError(t, err)
	require.NoError(t, c.Render())

	for _, name := range []string{"frame000000.png", "frame000001.png"} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err)
		require.Greater(t, info.Size(), int64(0))
	}
}
