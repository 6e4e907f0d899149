package train

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/samuelfneumann/dqn/config"
	"github.com/samuelfneumann/dqn/diagnostics"
	"github.com/samuelfneumann/dqn/experiment/tracker"
	"github.com/samuelfneumann/dqn/network"
)

func TestRun(t *testing.T) {
	dir := t.TempDir()
	conf, err := config.Parse([]byte(`{
		"iterations": 6,
		"batch_size": 8,
		"replay_capacity": 100,
		"eval_episodes": 1,
		"seed": 3,
		"verbosity": "none",
		"network": {"layers": [8], "activations": ["relu"], "biases": [true]},
		"env": {"episode_cutoff": 30}
	}`))
	require.NoError(t, err)

	conf.Log.Path = filepath.Join(dir, "train.log")
	conf.Persist.Enabled = true
	conf.Persist.Dir = filepath.Join(dir, "ckpt")
	conf.Persist.ModelPath = filepath.Join(dir, "model.gob")
	conf.ReturnsPath = filepath.Join(dir, "returns.bin")
	conf.EpisodeLengthsPath = filepath.Join(dir, "lengths.bin")

	require.NoError(t, run(conf, false))

	returns, err := tracker.LoadData(conf.ReturnsPath)
	require.NoError(t, err)
	require.Len(t, returns, 6)
	for _, r := range returns {
		require.Greater(t, r, 0.0)
		require.LessOrEqual(t, r, 30.0)
	}

	lengths, err := tracker.LoadData(conf.EpisodeLengthsPath)
	require.NoError(t, err)
	require.Equal(t, returns, lengths)

	checkpoints, err := filepath.Glob(filepath.Join(conf.Persist.Dir, "*.gob"))
	require.NoError(t, err)
	require.NotEmpty(t, checkpoints)

	f, err := os.Open(conf.Persist.ModelPath)
	require.NoError(t, err)
	defer f.Close()
	net, err := network.Import(f)
	require.NoError(t, err)
	require.Equal(t, 4, net.Features())
	require.Equal(t, 2, net.Outputs())
}

func TestRunInvalidVisualizer(t *testing.T) {
	conf := config.Default()
	conf.Verbosity = diagnostics.None
	conf.Log.Path = filepath.Join(t.TempDir(), "train.log")
	conf.Visualizer.Type = "tensorboard"
	require.Error(t, run(conf, false))
}

func TestStreams(t *testing.T) {
	for _, seed := range []uint64{1, 42, 1 << 40} {
		s := newStreams(seed)
		require.Equal(t, seed, s.train)
		require.NotEqual(t, s.train, s.eval)
		require.NotEqual(t, s.agent, s.store)
		require.NotEqual(t, s.eval, s.store)
	}
}
