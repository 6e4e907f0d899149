package initwfn

import G "gorgonia.org/gorgonia"

// ZeroesConfig configures all-zero initialization
type ZeroesConfig struct{}

// NewZeroes returns a new all-zero weight initializer
func NewZeroes() (*InitWFn, error) {
	return newInitWFn(ZeroesConfig{})
}

// Type returns the type of initialization algorithm described by
// the configuration.
func (z ZeroesConfig) Type() Type {
	return Zeroes
}

// Validate always succeeds, all-zero initialization has no parameters
func (z ZeroesConfig) Validate() error {
	return nil
}

// Create returns the weight initialization algorithm as a Gorgonia
// InitWFn
func (z ZeroesConfig) Create() G.InitWFn {
	return G.Zeroes()
}
