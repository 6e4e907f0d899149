// Package config implements the JSON configuration of a training run.
// A configuration file only needs to name the fields it changes: every
// other field keeps its default.
package config

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"time"

	"github.com/google/uuid"

	"github.com/samuelfneumann/dqn/diagnostics"
	"github.com/samuelfneumann/dqn/environment/envconfig"
	"github.com/samuelfneumann/dqn/initwfn"
	"github.com/samuelfneumann/dqn/network"
	"github.com/samuelfneumann/dqn/solver"
	"github.com/samuelfneumann/dqn/visualizer"
)

// ConfigPath stores the config path command line parameter
var ConfigPath string

// Config stores the configuration of a training run
type Config struct {
	// RunID names the run in every log line. A random one is generated
	// when empty.
	RunID string `json:"run_id"`

	Iterations     int     `json:"iterations"`
	BatchSize      int     `json:"batch_size"`
	ReplayCapacity int     `json:"replay_capacity"`
	Gamma          float64 `json:"gamma"`
	EvalEpisodes   int     `json:"eval_episodes"`

	// Seed seeds every random number generator of the run. A Seed of 0
	// seeds from the clock.
	Seed uint64 `json:"seed"`

	Render    bool              `json:"render"`
	Verbosity diagnostics.Level `json:"verbosity"`

	Visualizer visualizer.Config     `json:"visualizer"`
	Network    NetworkConfig         `json:"network"`
	Env        envconfig.Config      `json:"env"`
	Log        diagnostics.LogConfig `json:"log"`
	Persist    PersistConfig         `json:"persist"`

	// ReturnsPath is the file the returns of training episodes are
	// saved to. Returns are not tracked when empty.
	ReturnsPath string `json:"returns_path"`

	// EpisodeLengthsPath is the file the lengths of training episodes
	// are saved to. Lengths are not tracked when empty.
	EpisodeLengthsPath string `json:"episode_lengths_path"`
}

// NetworkConfig describes the hidden layers of the approximator and
// how it is fit
type NetworkConfig struct {
	Layers      []int            `json:"layers"`
	Activations []string         `json:"activations"`
	Biases      []bool           `json:"biases"`
	InitWFn     *initwfn.InitWFn `json:"init"`
	Solver      *solver.Solver   `json:"solver"`
}

// PersistConfig describes checkpointing and model export
type PersistConfig struct {
	// Enabled turns on checkpoints after training steps, restoring the
	// newest checkpoint at start and exporting the model on every new
	// best average reward
	Enabled   bool   `json:"enabled"`
	Dir       string `json:"dir"`
	MaxToKeep int    `json:"max_to_keep"`
	Interval  int    `json:"interval"`
	ModelPath string `json:"model_path"`
}

// Default returns the default configuration
func Default() *Config {
	init, err := initwfn.NewHeU(1.0)
	if err != nil {
		panic(err)
	}
	adam, err := solver.NewDefaultAdam(0.001, 1)
	if err != nil {
		panic(err)
	}

	return &Config{
		Iterations:     20000,
		BatchSize:      64,
		ReplayCapacity: 100000,
		Gamma:          0.95,
		EvalEpisodes:   5,
		Verbosity:      diagnostics.Progress,
		Visualizer: visualizer.Config{
			Type:      visualizer.None,
			ChartPath: "training.html",
			Addr:      visualizer.DefaultAddr,
		},
		Network: NetworkConfig{
			Layers:      []int{128, 64},
			Activations: []string{"relu", "relu"},
			Biases:      []bool{true, true},
			InitWFn:     init,
			Solver:      adam,
		},
		Env: envconfig.NewConfig(envconfig.Cartpole, envconfig.Balance, 500),
		Log: diagnostics.LogConfig{
			Format: "text",
			Level:  "info",
		},
		Persist: PersistConfig{
			Enabled:   true,
			Dir:       "checkpoints",
			MaxToKeep: 10,
			Interval:  1,
			ModelPath: "model.gob",
		},
	}
}

// ParseConfig parses the config from the specified file
func ParseConfig(path string) (*Config, error) {
	bytes, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	return Parse(bytes)
}

// Parse parses a JSON config over the defaults
func Parse(data []byte) (*Config, error) {
	c := Default()

	// Slices are replaced rather than merged element by element
	c.Network.Layers = nil
	c.Network.Activations = nil
	c.Network.Biases = nil

	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	def := Default().Network
	if c.Network.Layers == nil {
		c.Network.Layers = def.Layers
	}
	if c.Network.Activations == nil {
		c.Network.Activations = def.Activations
	}
	if c.Network.Biases == nil {
		c.Network.Biases = def.Biases
	}

	if c.RunID == "" {
		c.RunID = uuid.New().String()
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the values that cannot be checked when the
// components of the run are constructed
func (c *Config) Validate() error {
	if c.ReplayCapacity < c.BatchSize {
		return fmt.Errorf("validate: replay capacity smaller than batch "+
			"size\n\twant(>=%v)\n\thave(%v)", c.BatchSize, c.ReplayCapacity)
	}
	if _, err := c.Network.activations(); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	if c.Network.InitWFn == nil || c.Network.Solver == nil {
		return fmt.Errorf("validate: network needs an initializer and a " +
			"solver")
	}
	return nil
}

// RunSeed returns the seed of the run
func (c *Config) RunSeed() uint64 {
	if c.Seed == 0 {
		return uint64(time.Now().UnixNano())
	}
	return c.Seed
}

// MLP returns the configuration of the approximator for an environment
// with the given number of features and actions
func (c *Config) MLP(features, actions int) (network.Config, error) {
	acts, err := c.Network.activations()
	if err != nil {
		return network.Config{}, fmt.Errorf("mlp: %w", err)
	}

	mlp := network.Config{
		Features:    features,
		Outputs:     actions,
		Batch:       c.BatchSize,
		HiddenSizes: c.Network.Layers,
		Biases:      c.Network.Biases,
		Activations: acts,
		InitWFn:     c.Network.InitWFn.InitWFn(),
		Solver:      c.Network.Solver.Fresh(),
	}
	return mlp, mlp.Validate()
}

func (n NetworkConfig) activations() ([]*network.Activation, error) {
	acts := make([]*network.Activation, len(n.Activations))
	for i, name := range n.Activations {
		act, err := network.ActivationByName(name)
		if err != nil {
			return nil, err
		}
		acts[i] = act
	}
	return acts, nil
}
