package cartpole

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	env "github.com/samuelfneumann/dqn/environment"
	ts "github.com/samuelfneumann/dqn/timestep"
)

const (
	FailAngle    float64 = 12 * 2 * math.Pi / 360
	FailPosition float64 = 2.4
)

// Balance implements the classic control Cartpole Balance task. In this
// Task, the goal of the agent is to balance the pole on the cart in
// an upright position for as long as possible.
//
// The reward is +1 for every timestep, including the step on which the
// pole falls.
//
// Episodes end after a step limit, after the pole has fallen below
// some angle threshold θ, or after the cart leaves the track.
type Balance struct {
	env.Starter
	stepLimiter     *env.StepLimit
	intervalLimiter *env.IntervalLimit
}

// NewBalance creates and returns a new Balance task
func NewBalance(s env.Starter, episodeSteps int, failAngle float64) *Balance {
	stepLimiter := env.NewStepLimit(episodeSteps)

	legal := []r1.Interval{
		{Min: -FailPosition, Max: FailPosition},
		{Min: -failAngle, Max: failAngle},
	}
	intervalLimiter := env.NewIntervalLimit(legal, []int{0, 2})

	return &Balance{s, stepLimiter, intervalLimiter}
}

// End checks if a TimeStep is the last in an episode. If so, it adjusts
// the TimeStep's StepType to timestep.Last and returns true. Otherwise,
// the function does not adjust the TimeStep and returns false.
func (b *Balance) End(t *ts.TimeStep) bool {
	if end := b.intervalLimiter.End(t); end {
		return true
	}
	return b.stepLimiter.End(t)
}

// GetReward returns the reward for an action taken in some state,
// resulting in a transition to the next state nextState.
func (b *Balance) GetReward(_, _, _ mat.Vector) float64 {
	return 1.0
}
