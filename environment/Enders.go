package environment

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r1"

	ts "github.com/samuelfneumann/dqn/timestep"
)

// StepLimit is an Ender which ends episodes after a fixed number of
// steps
type StepLimit struct {
	episodeSteps int
}

// NewStepLimit returns a StepLimit ending episodes on step
// episodeSteps
func NewStepLimit(episodeSteps int) *StepLimit {
	return &StepLimit{episodeSteps}
}

// End marks t as the last step of its episode once the step limit is
// reached
func (s *StepLimit) End(t *ts.TimeStep) bool {
	if t.Number < s.episodeSteps {
		return false
	}
	t.StepType = ts.Last
	return true
}

// IntervalLimit is an Ender which ends episodes as soon as one of a
// set of observation features leaves its interval
type IntervalLimit struct {
	intervals []r1.Interval
	indices   []int
}

// NewIntervalLimit returns an IntervalLimit requiring observation
// feature indices[i] to stay within limits[i]. NewIntervalLimit panics
// if the two slices differ in length.
func NewIntervalLimit(limits []r1.Interval, indices []int) *IntervalLimit {
	if len(limits) != len(indices) {
		panic(fmt.Sprintf("newIntervalLimit: %v limits for %v features",
			len(limits), len(indices)))
	}
	return &IntervalLimit{limits, indices}
}

// End marks t as the last step of its episode if any watched feature
// is out of bounds
func (i *IntervalLimit) End(t *ts.TimeStep) bool {
	for j, feature := range i.indices {
		v := t.Observation.AtVec(feature)
		if v < i.intervals[j].Min || v > i.intervals[j].Max {
			t.StepType = ts.Last
			return true
		}
	}
	return false
}
