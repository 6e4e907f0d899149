package experiment

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/samuelfneumann/dqn/agent"
	env "github.com/samuelfneumann/dqn/environment"
)

// AverageReturn returns the mean total reward of policy over the given
// number of fresh episodes in e. No transitions are recorded.
func AverageReturn(e env.Environment, policy agent.Policy,
	episodes int) (float64, error) {
	if episodes < 1 {
		return 0, fmt.Errorf("averageReturn: invalid number of episodes"+
			"\n\twant(>0)\n\thave(%v)", episodes)
	}

	returns := make([]float64, episodes)
	for i := range returns {
		ret, err := CollectEpisode(e, policy, nil, false)
		if err != nil {
			return 0, fmt.Errorf("averageReturn: %w", err)
		}
		returns[i] = ret
	}

	return stat.Mean(returns, nil), nil
}
