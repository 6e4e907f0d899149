package deepq

import "fmt"

// Config implements a configuration for a DeepQ value estimator
type Config struct {
	Gamma    float64 // Discount factor in [0, 1)
	Features int     // Number of state features
	Actions  int     // Number of discrete actions
}

// Validate checks a Config to ensure it is a valid configuration of a
// DeepQ value estimator.
func (c Config) Validate() error {
	if c.Gamma < 0 || c.Gamma >= 1 {
		return fmt.Errorf("new: discount must be in [0, 1)\n\twant(0 <= γ < 1)"+
			"\n\thave(%v)", c.Gamma)
	}

	if c.Features < 1 {
		return fmt.Errorf("new: invalid number of features\n\twant(>0)"+
			"\n\thave(%v)", c.Features)
	}

	if c.Actions < 1 {
		return fmt.Errorf("new: invalid number of actions\n\twant(>0)"+
			"\n\thave(%v)", c.Actions)
	}

	return nil
}
