package train

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/exp/rand"

	"github.com/samuelfneumann/dqn/agent/deepq"
	"github.com/samuelfneumann/dqn/config"
	"github.com/samuelfneumann/dqn/diagnostics"
	env "github.com/samuelfneumann/dqn/environment"
	"github.com/samuelfneumann/dqn/experiment"
	"github.com/samuelfneumann/dqn/experiment/checkpointer"
	"github.com/samuelfneumann/dqn/experiment/tracker"
	"github.com/samuelfneumann/dqn/expreplay"
	"github.com/samuelfneumann/dqn/network"
	"github.com/samuelfneumann/dqn/utils/progressbar"
	"github.com/samuelfneumann/dqn/visualizer"
)

// TrainCmd returns the command which trains a DQN agent
func TrainCmd() *cobra.Command {
	var (
		iterations  int
		render      bool
		persist     bool
		visType     string
		verbosity   string
		progressBar bool
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a DQN agent with experience replay",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := loadConfig()
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("iterations") {
				conf.Iterations = iterations
			}
			if flags.Changed("render") {
				conf.Render = render
			}
			if flags.Changed("persist") {
				conf.Persist.Enabled = persist
			}
			if flags.Changed("visualizer") {
				conf.Visualizer.Type = visualizer.Type(visType)
			}
			if flags.Changed("verbosity") {
				level, err := diagnostics.ParseLevel(verbosity)
				if err != nil {
					return err
				}
				conf.Verbosity = level
			}

			return run(conf, progressBar)
		},
	}

	cmd.Flags().IntVarP(&iterations, "iterations", "i", 0,
		"Number of training episodes")
	cmd.Flags().BoolVar(&render, "render", false,
		"Render every step of the training episodes")
	cmd.Flags().BoolVar(&persist, "persist", false,
		"Checkpoint training progress and export the best model")
	cmd.Flags().StringVar(&visType, "visualizer", "",
		"Visualizer, one of none|log|chart|http")
	cmd.Flags().StringVarP(&verbosity, "verbosity", "v", "",
		"Verbosity, one of none|progress|loss|policy|init")
	cmd.Flags().BoolVar(&progressBar, "progress-bar", false,
		"Draw a progress bar over the training iterations")
	return cmd
}

func loadConfig() (*config.Config, error) {
	if config.ConfigPath == "" {
		return config.Parse([]byte("{}"))
	}
	conf, err := config.ParseConfig(config.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return conf, nil
}

// run builds every component of a training run from conf and runs it
func run(conf *config.Config, bar bool) (err error) {
	log, closer, err := diagnostics.NewLogger(conf.Log)
	if err != nil {
		return err
	}
	defer closer.Close()
	d := diagnostics.New(conf.Verbosity, log).With(logrus.Fields{
		"run": conf.RunID,
	})
	log = d.Log

	seed := conf.RunSeed()
	if d.Progress() {
		log.WithFields(logrus.Fields{
			"seed":       seed,
			"iterations": conf.Iterations,
			"batchSize":  conf.BatchSize,
			"gamma":      conf.Gamma,
			"solver":     conf.Network.Solver,
		}).Info("starting training")
	}

	streams := newStreams(seed)
	trainEnv, _, err := conf.Env.Create(streams.train)
	if err != nil {
		return err
	}
	defer closeEnv(trainEnv, &err)

	evalConf := conf.Env
	evalConf.RenderDir = ""
	evalEnv, _, err := evalConf.Create(streams.eval)
	if err != nil {
		return err
	}
	defer closeEnv(evalEnv, &err)

	features, actions := env.ObservationSize(trainEnv), env.ActionSize(trainEnv)
	mlpConf, err := conf.MLP(features, actions)
	if err != nil {
		return err
	}
	net, err := network.NewMLP(mlpConf)
	if err != nil {
		return err
	}

	agent, err := deepq.New(net, deepq.Config{
		Gamma:    conf.Gamma,
		Features: features,
		Actions:  actions,
	}, rand.NewSource(streams.agent), d)
	if err != nil {
		return err
	}

	store, err := expreplay.New(conf.ReplayCapacity, features, streams.store)
	if err != nil {
		return err
	}

	vis, err := visualizer.New(conf.Visualizer, log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := vis.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	var persist experiment.Persister
	if conf.Persist.Enabled {
		manager, err := checkpointer.NewManager(conf.Persist.Dir, net,
			conf.Persist.MaxToKeep)
		if err != nil {
			return err
		}
		persist = experiment.NewPersisterWithInterval(net, manager,
			conf.Persist.Interval, conf.Persist.ModelPath)
	}

	trainer, err := experiment.NewTrainer(experiment.TrainerConfig{
		Iterations:   conf.Iterations,
		BatchSize:    conf.BatchSize,
		EvalEpisodes: conf.EvalEpisodes,
		Render:       conf.Render,
	}, trainEnv, evalEnv, agent, store, vis, persist, d)
	if err != nil {
		return err
	}
	if conf.ReturnsPath != "" {
		trainer.Register(tracker.NewReturn(conf.ReturnsPath))
	}
	if conf.EpisodeLengthsPath != "" {
		trainer.Register(tracker.NewEpisodeLength(conf.EpisodeLengthsPath))
	}

	if bar {
		p := progressbar.NewProgressBar(os.Stdout, 50, conf.Iterations,
			time.Second)
		p.Display()
		defer p.Close()
		trainer.SetProgress(p)
	}

	result, err := trainer.Run()
	if err != nil {
		return err
	}

	if d.Progress() {
		log.WithFields(logrus.Fields{
			"best":       result.BestAverageReturn,
			"benchmark":  result.BenchmarkReturn,
			"trainSteps": result.TrainSteps,
		}).Info("training finished")
	}
	return nil
}

// streamSeeds holds the seeds of the random streams of a run
type streamSeeds struct {
	train uint64
	eval  uint64
	agent uint64

	// store is kept apart from agent so that minibatch sampling is not
	// correlated with random action selection
	store uint64
}

func newStreams(seed uint64) streamSeeds {
	return streamSeeds{
		train: seed,
		eval:  seed + 1,
		agent: seed,
		store: seed + 2,
	}
}

func closeEnv(e env.Environment, err *error) {
	if cerr := e.Close(); cerr != nil && *err == nil {
		*err = cerr
	}
}
