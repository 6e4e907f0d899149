// Package envconfig provides configuration structs for configuring
// environments with default physical parameters and tasks. Environment
// configurations in this package are JSON serializable.
package envconfig

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r1"

	env "github.com/samuelfneumann/dqn/environment"
	"github.com/samuelfneumann/dqn/environment/classiccontrol/cartpole"
	ts "github.com/samuelfneumann/dqn/timestep"
)

// EnvName stores the name of environments that can be configured with
// this package
type EnvName string

// Environments available for configuration
const (
	Cartpole EnvName = "Cartpole"
)

// TaskName stores the tasks that can be configured with this package.
// Note that not all tasks can be used with all environments. The tasks
// that can be used with each environment are as follows:
//
//	Environment			Task
//	Cartpole			Balance
type TaskName string

// Tasks available for configuration
const (
	Balance TaskName = "Balance"
)

// Config implements a specific configuration of a specific environment
// and specific task. Not all environments can have all tasks.
type Config struct {
	Environment   EnvName  `json:"environment"`
	Task          TaskName `json:"task"`
	EpisodeCutoff uint     `json:"episode_cutoff"`

	// RenderDir is the directory rendered frames are written to
	RenderDir string `json:"render_dir"`
}

// NewConfig returns a new environment Config
func NewConfig(envName EnvName, taskName TaskName,
	episodeCutoff uint) Config {
	return Config{
		Environment:   envName,
		Task:          taskName,
		EpisodeCutoff: episodeCutoff,
	}
}

// Create returns the environment described by the Config as well as
// the first timestep of the environment.
func (c Config) Create(seed uint64) (env.Environment, ts.TimeStep, error) {
	switch c.Environment {
	case Cartpole:
		return CreateCartpole(c.Task, int(c.EpisodeCutoff), seed, c.RenderDir)
	}

	return nil, ts.TimeStep{}, fmt.Errorf("create: cannot create "+
		"environment %v, no such environment", c.Environment)
}

// CreateCartpole is a factory for creating the Cartpole environment
// with default physical parameters and default task parameters.
func CreateCartpole(taskName TaskName, cutoff int, seed uint64,
	renderDir string) (env.Environment, ts.TimeStep, error) {
	bounds := r1.Interval{Min: -0.05, Max: 0.05}
	s := env.NewUniformStarter([]r1.Interval{bounds, bounds, bounds, bounds},
		seed)

	var task env.Task
	switch taskName {
	case Balance:
		task = cartpole.NewBalance(s, cutoff, cartpole.FailAngle)

	default:
		return nil, ts.TimeStep{}, fmt.Errorf("createCartpole: Cartpole "+
			"environment has no task %v", taskName)
	}

	c, step, err := cartpole.New(task)
	if err != nil {
		return nil, ts.TimeStep{}, err
	}
	if renderDir != "" {
		c.SetRenderDir(renderDir)
	}
	return c, step, nil
}
