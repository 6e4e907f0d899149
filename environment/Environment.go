// Package environment outlines the interfaces and sturcts needed to implement
// concrete environments
package environment

import (
	"gonum.org/v1/gonum/mat"

	ts "github.com/samuelfneumann/dqn/timestep"
)

// Starter implements a distribution of starting states and samples starting
// states for environments
type Starter interface {
	Start() *mat.VecDense
}

// Ender determines when episodes should be ended. If an episode should
// end, End() sets the StepType of the argument TimeStep to
// timestep.Last and returns true.
type Ender interface {
	End(*ts.TimeStep) bool
}

// Task implements the reward scheme and episode termination for taking
// actions in some environment
type Task interface {
	Starter
	Ender
	GetReward(state, action, nextState mat.Vector) float64
}

// Environment implements a simualted environment with discrete actions.
// Actions are enumerated from 0, so that an environment has
// int(ActionSpec().UpperBound.AtVec(0)) + 1 actions. Observations
// have ObservationSpec().Shape.Len() features.
type Environment interface {
	// Reset resets the environment between episodes and returns the
	// first TimeStep of the new episode
	Reset() (ts.TimeStep, error)

	// Step takes one environmental step with the argument action,
	// returning the next TimeStep and whether the episode has ended
	Step(action int) (ts.TimeStep, bool, error)

	ObservationSpec() Spec
	ActionSpec() Spec

	// Close releases any resources held by the environment
	Close() error
}

// Renderer is an Environment which can produce a visual frame of its
// current state
type Renderer interface {
	Environment
	Render() error
}

// ObservationSize returns the number of features in an observation of
// the environment
func ObservationSize(e Environment) int {
	return e.ObservationSpec().Shape.Len()
}

// ActionSize returns the number of discrete actions available in the
// environment
func ActionSize(e Environment) int {
	return int(e.ActionSpec().UpperBound.AtVec(0)) + 1
}
