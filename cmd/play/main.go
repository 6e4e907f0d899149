package play

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat"

	"github.com/samuelfneumann/dqn/agent/deepq"
	"github.com/samuelfneumann/dqn/config"
	"github.com/samuelfneumann/dqn/diagnostics"
	env "github.com/samuelfneumann/dqn/environment"
	"github.com/samuelfneumann/dqn/experiment"
	"github.com/samuelfneumann/dqn/network"
	"github.com/samuelfneumann/dqn/utils/progressbar"
)

// PlayCmd returns the command which plays episodes with an exported
// model and reports its average return
func PlayCmd() *cobra.Command {
	var (
		modelPath string
		episodes  int
		render    bool
		bar       bool
	)

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play episodes greedily with an exported model",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf := config.Default()
			if config.ConfigPath != "" {
				var err error
				conf, err = config.ParseConfig(config.ConfigPath)
				if err != nil {
					return fmt.Errorf("failed to parse config: %w", err)
				}
			}
			if !cmd.Flags().Changed("model") {
				modelPath = conf.Persist.ModelPath
			}

			var progress experiment.Progress
			if bar {
				p := progressbar.NewManualProgressBar(os.Stdout, 50, episodes)
				defer p.Close()
				progress = p
			}
			return play(conf, modelPath, episodes, render, progress)
		},
	}

	cmd.Flags().StringVarP(&modelPath, "model", "m", "",
		"Exported model, defaults to the model path of the config")
	cmd.Flags().IntVarP(&episodes, "episodes", "n", 10,
		"Number of episodes to play")
	cmd.Flags().BoolVar(&render, "render", false,
		"Render every step")
	cmd.Flags().BoolVar(&bar, "progress-bar", false,
		"Draw a progress bar over the episodes")
	return cmd
}

// play plays episodes greedily with the model exported at modelPath.
// A non-nil progress is incremented after every episode.
func play(conf *config.Config, modelPath string, episodes int,
	render bool, progress experiment.Progress) (err error) {
	if episodes < 1 {
		return fmt.Errorf("play: invalid number of episodes\n\twant(>0)"+
			"\n\thave(%v)", episodes)
	}
	log, closer, err := diagnostics.NewLogger(conf.Log)
	if err != nil {
		return err
	}
	defer closer.Close()

	f, err := os.Open(modelPath)
	if err != nil {
		return fmt.Errorf("play: %w", err)
	}
	net, err := network.Import(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("play: %w", err)
	}

	seed := conf.RunSeed()
	e, _, err := conf.Env.Create(seed)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := e.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	features, actions := env.ObservationSize(e), env.ActionSize(e)
	if features != net.Features() || actions != net.Outputs() {
		return fmt.Errorf("play: model does not fit environment"+
			"\n\twant(%v features, %v actions)\n\thave(%v features, %v "+
			"actions)", features, actions, net.Features(), net.Outputs())
	}

	agent, err := deepq.New(net, deepq.Config{
		Gamma:    conf.Gamma,
		Features: features,
		Actions:  actions,
	}, rand.NewSource(seed), diagnostics.New(diagnostics.None, log))
	if err != nil {
		return err
	}

	returns := make([]float64, episodes)
	for i := range returns {
		returns[i], err = experiment.CollectEpisode(e, agent.Greedy(), nil,
			render)
		if err != nil {
			return err
		}
		log.WithField("episode", i).Infof("return %v", returns[i])
		if progress != nil {
			progress.Increment()
		}
	}

	log.WithField("episodes", episodes).Infof("average return %v",
		stat.Mean(returns, nil))
	return nil
}
