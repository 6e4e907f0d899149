package solver

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// AdamConfig describes a configuration of the Adam solver
type AdamConfig struct {
	StepSize float64
	Epsilon  float64 // Smoothing factor
	Beta1    float64
	Beta2    float64

	// Batch scales accumulated gradients by 1/Batch. Losses that are
	// already averaged over a minibatch should use 1.
	Batch int
}

// NewDefaultAdam returns a new Adam Solver with default hyperparameters
func NewDefaultAdam(stepSize float64, batchSize int) (*Solver, error) {
	return NewAdam(stepSize, 1e-8, 0.9, 0.999, batchSize)
}

// NewAdam returns a new Adam Solver
func NewAdam(stepSize, epsilon, beta1, beta2 float64, batchSize int) (*Solver,
	error) {
	adam := AdamConfig{
		StepSize: stepSize,
		Epsilon:  epsilon,
		Beta1:    beta1,
		Beta2:    beta2,
		Batch:    batchSize,
	}

	return newSolver(Adam, adam)
}

// Create returns a new Gorgonia Adam Solver as described by the
// AdamConfig
func (a AdamConfig) Create() G.Solver {
	return G.NewAdamSolver(
		G.WithLearnRate(a.StepSize),
		G.WithEps(a.Epsilon),
		G.WithBeta1(a.Beta1),
		G.WithBeta2(a.Beta2),
		G.WithBatchSize(float64(a.Batch)),
	)
}

// ValidType returns if the given Solver type is a valid type to be
// created with this config.
func (a AdamConfig) ValidType(t Type) bool {
	return t == Adam
}

// Validate checks the Adam hyperparameters
func (a AdamConfig) Validate() error {
	if err := validateStep(a.StepSize, a.Batch); err != nil {
		return err
	}
	for _, beta := range []float64{a.Beta1, a.Beta2} {
		if beta < 0 || beta >= 1 {
			return fmt.Errorf("validate: beta must be in [0, 1)"+
				"\n\thave(%v)", beta)
		}
	}
	if a.Epsilon <= 0 {
		return fmt.Errorf("validate: epsilon must be positive\n\thave(%v)",
			a.Epsilon)
	}
	return nil
}
