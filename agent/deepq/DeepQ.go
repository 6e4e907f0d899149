// Package deepq implements a deep Q-learning value estimator which uses
// a single approximator both to predict action values and to compute
// its own bootstrapped regression targets.
package deepq

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/dqn/agent"
	"github.com/samuelfneumann/dqn/diagnostics"
	"github.com/samuelfneumann/dqn/expreplay"
	"github.com/samuelfneumann/dqn/network"
)

// DeepQ implements the deep Q-learning algorithm with the MSE loss and
// no target network: the update target
//
//		r + γ * max[Q(s', a')]
//
// is computed with the same weights that are being learned.
type DeepQ struct {
	net      network.Approximator
	gamma    float64
	features int
	actions  int

	rng  *rand.Rand
	diag diagnostics.Diagnostics
}

// New creates and returns a new DeepQ value estimator. The randomness
// source src is used only for random action selection.
func New(net network.Approximator, c Config, src rand.Source,
	d diagnostics.Diagnostics) (*DeepQ, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if net == nil {
		return nil, fmt.Errorf("new: approximator must not be nil")
	}

	if d.Is(diagnostics.Init) {
		d.Log.WithFields(logrus.Fields{
			"actions":  c.Actions,
			"features": c.Features,
			"gamma":    c.Gamma,
		}).Info("constructed DQN value estimator")
	}

	return &DeepQ{
		net:      net,
		gamma:    c.Gamma,
		features: c.Features,
		actions:  c.Actions,
		rng:      rand.New(src),
		diag:     d,
	}, nil
}

// Network returns the approximator whose weights are learned
func (d *DeepQ) Network() network.Approximator {
	return d.net
}

// Actions returns the number of actions the estimator chooses between
func (d *DeepQ) Actions() int {
	return d.actions
}

// GreedyAction returns the action of maximum estimated value in state.
// Ties are broken in favour of the lowest action index.
func (d *DeepQ) GreedyAction(state mat.Vector) (int, error) {
	if state.Len() != d.features {
		return 0, fmt.Errorf("greedyAction: invalid state size\n\twant(%v)"+
			"\n\thave(%v)", d.features, state.Len())
	}

	input := mat.NewDense(1, d.features, nil)
	input.SetRow(0, mat.Col(nil, 0, state))

	actionValues, err := d.net.Predict(input)
	if err != nil {
		return 0, fmt.Errorf("greedyAction: %w", err)
	}
	values := actionValues.RawRowView(0)
	action := floats.MaxIdx(values)

	if d.diag.Is(diagnostics.Policy) {
		d.diag.Log.WithFields(logrus.Fields{
			"state":        mat.Formatted(state.T(), mat.Squeeze()),
			"actionValues": values,
			"action":       action,
		}).Info("selected greedy action")
	}

	return action, nil
}

// RandomAction returns an action drawn uniformly at random
func (d *DeepQ) RandomAction() int {
	return d.rng.Intn(d.actions)
}

// Greedy returns the greedy policy with respect to the current weights
func (d *DeepQ) Greedy() agent.Policy {
	return agent.PolicyFunc(d.GreedyAction)
}

// Random returns the uniform random policy
func (d *DeepQ) Random() agent.Policy {
	return agent.PolicyFunc(func(mat.Vector) (int, error) {
		return d.RandomAction(), nil
	})
}

// Targets computes the regression targets for a batch of transitions.
// The returned target is a copy of the current action values in which,
// for each row i, only the column of the action taken is replaced by
// the update target:
//
//		target[i][a_i] = r_i                         if terminal
//		target[i][a_i] = r_i + γ * max_a next[i][a]  otherwise
//
// so that the regression loss only depends on the actions taken.
func (d *DeepQ) Targets(b expreplay.Batch) (target, current *mat.Dense,
	err error) {
	size := b.Size()
	if len(b.Rewards) != size || len(b.Terminals) != size {
		return nil, nil, fmt.Errorf("targets: misaligned batch of size %v "+
			"with %v rewards and %v terminals", size, len(b.Rewards),
			len(b.Terminals))
	}

	current, err = d.net.Predict(b.States)
	if err != nil {
		return nil, nil, fmt.Errorf("targets: could not predict current "+
			"action values: %w", err)
	}
	next, err := d.net.Predict(b.NextStates)
	if err != nil {
		return nil, nil, fmt.Errorf("targets: could not predict next "+
			"action values: %w", err)
	}

	rows, cols := current.Dims()
	if rows != size || cols != d.actions {
		return nil, nil, fmt.Errorf("targets: invalid action values shape"+
			"\n\twant(%v, %v)\n\thave(%v, %v)", size, d.actions, rows, cols)
	}

	target = mat.DenseCopyOf(current)
	maxNext := make([]float64, size)
	for i, a := range b.Actions {
		if a < 0 || a >= d.actions {
			return nil, nil, fmt.Errorf("targets: illegal action %v at "+
				"index %v\n\twant(0 <= action < %v)", a, i, d.actions)
		}

		maxNext[i] = floats.Max(next.RawRowView(i))
		if b.Terminals[i] {
			target.Set(i, a, b.Rewards[i])
		} else {
			target.Set(i, a, b.Rewards[i]+d.gamma*maxNext[i])
		}
	}

	if d.diag.Is(diagnostics.Loss) {
		nr, nc := next.Dims()
		sr, sc := b.NextStates.Dims()
		d.diag.Log.WithFields(logrus.Fields{
			"rewardShape":    []int{len(b.Rewards)},
			"nextQShape":     []int{nr, nc},
			"nextStateShape": []int{sr, sc},
			"maxNextQShape":  []int{len(maxNext)},
			"targetQShape":   []int{rows, cols},
			"sampleTargetQ":  mat.Row(nil, 0, target),
			"sampleCurrentQ": mat.Row(nil, 0, current),
		}).Info("computed update targets")
	}

	return target, current, nil
}

// Train performs a single training step on a batch of transitions and
// returns the loss reported by the approximator
func (d *DeepQ) Train(b expreplay.Batch) (float64, error) {
	target, _, err := d.Targets(b)
	if err != nil {
		return 0, fmt.Errorf("train: %w", err)
	}

	loss, err := d.net.Fit(b.States, target)
	if err != nil {
		return 0, fmt.Errorf("train: could not fit approximator: %w", err)
	}
	return loss, nil
}
