// Package cartpole implements the Cartpole classic control environment
package cartpole

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	env "github.com/samuelfneumann/dqn/environment"
	ts "github.com/samuelfneumann/dqn/timestep"
)

const (
	// Physical constants
	Gravity        float64 = 9.8
	CartMass       float64 = 1.0
	PoleMass       float64 = 0.1
	TotalMass      float64 = CartMass + PoleMass
	HalfPoleLength float64 = 0.5  // half of pole length
	ForceMag       float64 = 10.0 // Magnification of force applied
	Dt             float64 = 0.02 // seconds between state updates

	// Bounds (+/-) on state variabels
	PositionBounds        float64 = 4.8
	SpeedBounds           float64 = math.MaxFloat64
	AngleBounds           float64 = math.Pi
	AngularVelocityBounds float64 = math.MaxFloat64

	// Discrete Actions
	MinDiscreteAction int = 0
	MaxDiscreteAction int = 1

	ObservationDims int = 4
	ActionDims      int = 1
)

// Cartpole implements the classic control environment Cartpole with
// discrete actions. In this environment, a pole is attached to a cart,
// which can move horizontally. Gravity pulls the pole downwards so
// that balancing it in an upright position is very difficult.
//
// The state features are continuous and consist of the cart's x
// position and speed, as well as the pole's angle from the positive
// y-axis and the pole's angular velocity.
//
// Actions are discrete, consisting of the direction to apply
// horizontal force to the cart. Legal actions are in {0, 1}:
//
//	Action		Meaning
//	  0			Apply force left
//	  1			Apply force right
//
// Illegal actions are reported as errors by Step.
//
// Cartpole implements the environment.Renderer interface
type Cartpole struct {
	env.Task
	lastStep ts.TimeStep

	gravity        float64
	forceMag       float64
	poleMass       float64
	halfPoleLength float64
	cartMass       float64
	dt             float64

	positionBounds        r1.Interval
	speedBounds           r1.Interval
	angleBounds           r1.Interval
	angularVelocityBounds r1.Interval

	frames    int
	renderDir string
}

// New constructs a new Cartpole environment performing Task t
func New(t env.Task) (*Cartpole, ts.TimeStep, error) {
	cartpole := &Cartpole{
		Task:                  t,
		gravity:               Gravity,
		forceMag:              ForceMag,
		poleMass:              PoleMass,
		halfPoleLength:        HalfPoleLength,
		cartMass:              CartMass,
		dt:                    Dt,
		positionBounds:        r1.Interval{Min: -PositionBounds, Max: PositionBounds},
		speedBounds:           r1.Interval{Min: -SpeedBounds, Max: SpeedBounds},
		angleBounds:           r1.Interval{Min: -AngleBounds, Max: AngleBounds},
		angularVelocityBounds: r1.Interval{Min: -AngularVelocityBounds, Max: AngularVelocityBounds},
		renderDir:             DefaultRenderDir,
	}

	firstStep, err := cartpole.Reset()
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("new: %v", err)
	}
	return cartpole, firstStep, nil
}

// Reset resets the environment and returns a starting state drawn from
// the environment Starter
func (c *Cartpole) Reset() (ts.TimeStep, error) {
	state := c.Start()
	if err := c.validateState(state); err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: %v", err)
	}

	startStep := ts.New(ts.First, 0.0, state, 0)
	c.lastStep = startStep

	return startStep, nil
}

// ActionSpec returns the action specification of the environment
func (c *Cartpole) ActionSpec() env.Spec {
	return env.NewDiscreteActionSpec(MaxDiscreteAction + 1)
}

// ObservationSpec returns the observation specification of the
// environment
func (c *Cartpole) ObservationSpec() env.Spec {
	lower := []float64{c.positionBounds.Min, c.speedBounds.Min,
		c.angleBounds.Min, c.angularVelocityBounds.Min}
	upper := []float64{c.positionBounds.Max, c.speedBounds.Max,
		c.angleBounds.Max, c.angularVelocityBounds.Max}

	return env.NewBoxSpec(lower, upper)
}

// Step takes one environmental step given action a and returns the next
// timestep as a timestep.TimeStep and a bool indicating whether or not
// the episode has ended.
func (c *Cartpole) Step(a int) (ts.TimeStep, bool, error) {
	if a < MinDiscreteAction || a > MaxDiscreteAction {
		return ts.TimeStep{}, true, fmt.Errorf("step: illegal action %v "+
			"∉ (0, 1)", a)
	}

	// Convert action (0, 1) to a direction (-1, 1)
	direction := 2.0*float64(a) - 1.0
	nextState := c.nextState(direction)

	action := mat.NewVecDense(ActionDims, []float64{float64(a)})
	reward := c.GetReward(c.lastStep.Observation, action, nextState)
	nextStep := ts.New(ts.Mid, reward, nextState, c.lastStep.Number+1)

	// Check if the step ends the episode
	c.End(&nextStep)

	c.lastStep = nextStep
	return nextStep, nextStep.Last(), nil
}

// Close implements the environment.Environment interface. Cartpole
// holds no resources.
func (c *Cartpole) Close() error {
	return nil
}

// nextState computes the state reached after applying force in the
// argument direction, using Euler kinematic integration
func (c *Cartpole) nextState(direction float64) *mat.VecDense {
	state := c.lastStep.Observation
	x, xDot := state.AtVec(0), state.AtVec(1)
	th, thDot := state.AtVec(2), state.AtVec(3)

	force := direction * c.forceMag

	cosTheta := math.Cos(th)
	sinTheta := math.Sin(th)

	totalMass := c.poleMass + c.cartMass
	poleMassLength := c.poleMass * c.halfPoleLength

	temp := (force + poleMassLength*thDot*thDot*sinTheta) / totalMass
	thAcc := (c.gravity*sinTheta - cosTheta*temp) / (c.halfPoleLength *
		(4.0/3.0 - c.poleMass*cosTheta*cosTheta/totalMass))
	xAcc := temp - poleMassLength*thAcc*cosTheta/totalMass

	x += c.dt * xDot
	x = math.Max(math.Min(x, c.positionBounds.Max), c.positionBounds.Min)
	xDot += c.dt * xAcc

	th += c.dt * thDot
	th = normalizeAngle(th, c.angleBounds)
	thDot += c.dt * thAcc

	return mat.NewVecDense(ObservationDims, []float64{x, xDot, th, thDot})
}

// validateState ensures that a state observation is valid and between
// the physical bounds of the Cartpole environment
func (c *Cartpole) validateState(obs mat.Vector) error {
	if obs.Len() != ObservationDims {
		return fmt.Errorf("invalid state dimensions \n\twant(%v)\n\thave(%v)",
			ObservationDims, obs.Len())
	}

	bounds := []r1.Interval{c.positionBounds, c.speedBounds, c.angleBounds,
		c.angularVelocityBounds}
	names := []string{"position", "speed", "angle", "angular velocity"}
	for i := range bounds {
		if obs.AtVec(i) > bounds[i].Max || obs.AtVec(i) < bounds[i].Min {
			return fmt.Errorf("%v is not within bounds %v", names[i],
				bounds[i])
		}
	}
	return nil
}

func (c *Cartpole) String() string {
	msg := "Cartpole  |  Position: %v  | Speed: %v  |  Angle: %v" +
		"  |  Angular Velocity: %v"

	state := c.lastStep.Observation
	position, speed := state.AtVec(0), state.AtVec(1)
	angle, velocity := state.AtVec(2), state.AtVec(3)

	return fmt.Sprintf(msg, position, speed, angle, velocity)
}

// normalizeAngle normalizes the pole angle to the appropriate limits
func normalizeAngle(th float64, angleBounds r1.Interval) float64 {
	if angleBounds.Max != -angleBounds.Min {
		panic("angle bounds should be centered around 0")
	}

	if th > angleBounds.Max {
		divisor := int(th / angleBounds.Max)
		return -math.Pi + th - (angleBounds.Max * float64(divisor))
	} else if th < angleBounds.Min {
		divisor := int(th / angleBounds.Min)
		return math.Pi + th - (angleBounds.Min * float64(divisor))
	}
	return th
}
