package timestep

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Transition is a single (S, A, R, S', terminal) tuple observed while
// interacting with an environment.
//
// Transitions are not validated: a State or NextState of the wrong
// length, or an Action outside the environment's action range, is
// stored as given.
type Transition struct {
	State     mat.Vector
	NextState mat.Vector
	Action    int
	Reward    float64
	Terminal  bool
}

// NewTransition constructs the Transition that led from step to next
// by taking action
func NewTransition(step TimeStep, action int, next TimeStep) Transition {
	return Transition{
		State:     step.Observation,
		NextState: next.Observation,
		Action:    action,
		Reward:    next.Reward,
		Terminal:  next.Last(),
	}
}

func (t Transition) String() string {
	str := "Transition | Action: %v  |  Reward: %.2f  |  Terminal: %v"

	return fmt.Sprintf(str, t.Action, t.Reward, t.Terminal)
}
