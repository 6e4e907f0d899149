// Package experiment implements the episode collector, the policy
// evaluator and the training loop that ties them to a DeepQ value
// estimator.
package experiment

import (
	"fmt"

	"github.com/samuelfneumann/dqn/agent"
	env "github.com/samuelfneumann/dqn/environment"
	"github.com/samuelfneumann/dqn/experiment/tracker"
	ts "github.com/samuelfneumann/dqn/timestep"
)

// Pusher stores transitions
type Pusher interface {
	Push(t ts.Transition)
}

// CollectEpisode runs one full episode in e, selecting every action with
// policy, and pushes each transition into store. If render is true and e
// is an environment.Renderer, the environment is rendered after every
// step. The total reward of the episode is returned.
//
// A nil store collects the episode without recording it.
func CollectEpisode(e env.Environment, policy agent.Policy, store Pusher,
	render bool) (float64, error) {
	return CollectEpisodeTracked(e, policy, store, render)
}

// CollectEpisodeTracked is CollectEpisode which also sends every
// timestep of the episode to each tracker.
func CollectEpisodeTracked(e env.Environment, policy agent.Policy,
	store Pusher, render bool, trackers ...tracker.Tracker) (float64, error) {
	step, err := e.Reset()
	if err != nil {
		return 0, fmt.Errorf("collectEpisode: could not reset: %w", err)
	}
	track(trackers, step)

	var renderer env.Renderer
	if render {
		renderer, _ = e.(env.Renderer)
	}

	total := 0.0
	for {
		action, err := policy.SelectAction(step.Observation)
		if err != nil {
			return total, fmt.Errorf("collectEpisode: could not select "+
				"action: %w", err)
		}

		next, done, err := e.Step(action)
		if err != nil {
			return total, fmt.Errorf("collectEpisode: could not step: %w", err)
		}
		total += next.Reward
		track(trackers, next)

		if store != nil {
			transition := ts.NewTransition(step, action, next)
			transition.Terminal = done
			store.Push(transition)
		}

		if renderer != nil {
			if err := renderer.Render(); err != nil {
				return total, fmt.Errorf("collectEpisode: could not render: "+
					"%w", err)
			}
		}

		if done {
			return total, nil
		}
		step = next
	}
}

func track(trackers []tracker.Tracker, step ts.TimeStep) {
	for _, t := range trackers {
		t.Track(step)
	}
}
