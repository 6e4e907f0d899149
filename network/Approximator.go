// Package network implements neural network function approximators
// which map batches of environment states to one value per action.
package network

import (
	"io"

	"gonum.org/v1/gonum/mat"
)

// Approximator is a parameterised function from a batch of states to
// a batch of action values. Row i of every matrix belongs to the same
// sample.
type Approximator interface {
	// Predict returns the action values of each state, one row per
	// state and one column per action
	Predict(states *mat.Dense) (*mat.Dense, error)

	// Fit performs a single pass of supervised regression of
	// Predict(states) onto targets, returning the loss before the
	// update
	Fit(states, targets *mat.Dense) (float64, error)

	// Save and Load write and read the learned weights only
	Save(w io.Writer) error
	Load(r io.Reader) error

	// Export writes the architecture together with the weights so that
	// the approximator can be rebuilt with Import
	Export(w io.Writer) error
}
