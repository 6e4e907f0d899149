// Package agent defines how action selection is exposed to the code
// that interacts with environments
package agent

import (
	"gonum.org/v1/gonum/mat"
)

// Policy represents a policy that an agent can have.
//
// Policies determine how agents select actions: given an environment
// state, a Policy returns the index of the discrete action to take.
// A Policy backed by a learned approximator reflects the approximator's
// current weights every time it is called.
type Policy interface {
	SelectAction(state mat.Vector) (int, error)
}

// PolicyFunc adapts an ordinary function to the Policy interface
type PolicyFunc func(state mat.Vector) (int, error)

// SelectAction calls f(state)
func (f PolicyFunc) SelectAction(state mat.Vector) (int, error) {
	return f(state)
}
