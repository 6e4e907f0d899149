package environment

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distmv"
)

// UniformStarter is a Starter sampling each feature of the starting
// state uniformly from its own interval
type UniformStarter struct {
	features int
	dist     *distmv.Uniform
}

// NewUniformStarter returns a UniformStarter sampling feature i from
// bounds[i]. Starters built with the same seed produce the same
// sequence of starting states.
func NewUniformStarter(bounds []r1.Interval, seed uint64) UniformStarter {
	return UniformStarter{
		features: len(bounds),
		dist:     distmv.NewUniform(bounds, rand.NewSource(seed)),
	}
}

// Start samples a starting state
func (u UniformStarter) Start() *mat.VecDense {
	return mat.NewVecDense(u.features, u.dist.Rand(nil))
}
