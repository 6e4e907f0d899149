package environment

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// SpecType determines whether a Spec describes actions, observations
// or rewards
type SpecType int

const (
	Action SpecType = iota
	Observation
	Reward
)

func (s SpecType) String() string {
	switch s {
	case Action:
		return "Action"
	case Observation:
		return "Observation"
	case Reward:
		return "Reward"
	}
	return fmt.Sprintf("SpecType(%d)", int(s))
}

// Cardinality determines whether the values a Spec describes are
// discrete or continuous
type Cardinality string

const (
	Continuous Cardinality = "Continuous"
	Discrete   Cardinality = "Discrete"
)

// Spec describes the shape and bounds of the actions, observations or
// rewards of an environment.
//
// Discrete action specs have a single dimension whose bounds are the
// lowest and highest action index.
type Spec struct {
	Shape      mat.Vector
	Type       SpecType
	LowerBound mat.Vector
	UpperBound mat.Vector
	Cardinality
}

// NewSpec returns a new Spec. NewSpec panics if the bounds do not have
// the length of shape.
func NewSpec(shape mat.Vector, t SpecType, lowerBound,
	upperBound mat.Vector, cardinality Cardinality) Spec {
	if shape.Len() != lowerBound.Len() {
		panic(fmt.Sprintf("newSpec: shape length %v must match lower "+
			"bound length %v", shape.Len(), lowerBound.Len()))
	}
	if shape.Len() != upperBound.Len() {
		panic(fmt.Sprintf("newSpec: shape length %v must match upper "+
			"bound length %v", shape.Len(), upperBound.Len()))
	}
	return Spec{shape, t, lowerBound, upperBound, cardinality}
}

// NewDiscreteActionSpec returns the Spec of an environment with
// actions enumerated in [0, actions)
func NewDiscreteActionSpec(actions int) Spec {
	return NewSpec(mat.NewVecDense(1, nil), Action,
		mat.NewVecDense(1, []float64{0}),
		mat.NewVecDense(1, []float64{float64(actions - 1)}), Discrete)
}

// NewBoxSpec returns the Spec of continuous observations with feature i
// in [lower[i], upper[i]]
func NewBoxSpec(lower, upper []float64) Spec {
	return NewSpec(mat.NewVecDense(len(lower), nil), Observation,
		mat.NewVecDense(len(lower), lower), mat.NewVecDense(len(upper), upper),
		Continuous)
}
