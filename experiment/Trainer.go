package experiment

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/samuelfneumann/dqn/agent"
	"github.com/samuelfneumann/dqn/agent/deepq"
	"github.com/samuelfneumann/dqn/diagnostics"
	env "github.com/samuelfneumann/dqn/environment"
	"github.com/samuelfneumann/dqn/experiment/tracker"
	"github.com/samuelfneumann/dqn/expreplay"
	"github.com/samuelfneumann/dqn/visualizer"
)

// TrainerConfig describes a training run
type TrainerConfig struct {
	Iterations   int  // Number of training episodes collected
	BatchSize    int  // Transitions per training step
	EvalEpisodes int  // Episodes per evaluation
	Render       bool // Render every training step
}

// Validate checks that the TrainerConfig describes a runnable training
// loop
func (c TrainerConfig) Validate() error {
	if c.Iterations < 0 {
		return fmt.Errorf("newTrainer: invalid number of iterations"+
			"\n\twant(>=0)\n\thave(%v)", c.Iterations)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("newTrainer: invalid batch size\n\twant(>0)"+
			"\n\thave(%v)", c.BatchSize)
	}
	if c.EvalEpisodes < 1 {
		return fmt.Errorf("newTrainer: invalid number of evaluation "+
			"episodes\n\twant(>0)\n\thave(%v)", c.EvalEpisodes)
	}
	return nil
}

// Result summarises a training run
type Result struct {
	BestAverageReturn float64
	BenchmarkReturn   float64 // Average return of the random policy
	Iterations        int
	TrainSteps        int
}

// batchSizer is an approximator which only fits batches of one size
type batchSizer interface {
	BatchSize() int
}

// Progress is notified once per training iteration
type Progress interface {
	Increment()
}

// Trainer runs the DQN training loop: each iteration collects one
// episode with the greedy policy, then, if the replay buffer holds a
// full batch, performs a single training step followed by an evaluation
// of the greedy policy.
type Trainer struct {
	config  TrainerConfig
	env     env.Environment
	evalEnv env.Environment

	agent   *deepq.DeepQ
	store   *expreplay.Buffer
	vis     visualizer.Visualizer
	persist Persister
	diag    diagnostics.Diagnostics

	trackers []tracker.Tracker
	progress Progress
}

// NewTrainer returns a new Trainer. Training episodes are collected in
// e and evaluation episodes in evalEnv, which must be distinct so that
// evaluation never interrupts a training episode. A nil persist
// disables checkpoints and model exports; otherwise the newest
// checkpoint is restored before NewTrainer returns.
func NewTrainer(c TrainerConfig, e, evalEnv env.Environment,
	agent *deepq.DeepQ, store *expreplay.Buffer, vis visualizer.Visualizer,
	persist Persister, d diagnostics.Diagnostics) (*Trainer, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if e == nil || evalEnv == nil || agent == nil || store == nil {
		return nil, fmt.Errorf("newTrainer: environments, agent and replay " +
			"buffer must not be nil")
	}
	if features := env.ObservationSize(e); store.Features() != features {
		return nil, fmt.Errorf("newTrainer: replay buffer does not fit "+
			"environment\n\twant(%v features)\n\thave(%v features)", features,
			store.Features())
	}
	if b, ok := agent.Network().(batchSizer); ok && b.BatchSize() != c.BatchSize {
		return nil, fmt.Errorf("newTrainer: approximator fits batches of a "+
			"different size\n\twant(%v)\n\thave(%v)", c.BatchSize,
			b.BatchSize())
	}
	if vis == nil {
		vis = visualizer.NewNone()
	}

	if persist != nil {
		restored, err := persist.Restore()
		if err != nil {
			return nil, fmt.Errorf("newTrainer: %w", err)
		}
		if restored && d.Progress() {
			d.Log.Info("restored latest checkpoint")
		}
	}

	return &Trainer{
		config:  c,
		env:     e,
		evalEnv: evalEnv,
		agent:   agent,
		store:   store,
		vis:     vis,
		persist: persist,
		diag:    d,
	}, nil
}

// Register adds trackers which are sent every timestep of every
// training episode. Trackers are saved when Run returns successfully.
func (t *Trainer) Register(trackers ...tracker.Tracker) {
	t.trackers = append(t.trackers, trackers...)
}

// SetProgress sets the Progress notified after every iteration
func (t *Trainer) SetProgress(p Progress) {
	t.progress = p
}

// Run runs the training loop. The benchmark return of the random
// policy is computed once, before any training. Any error aborts the
// run.
func (t *Trainer) Run() (Result, error) {
	benchmark, err := AverageReturn(t.evalEnv, t.agent.Random(),
		t.config.EvalEpisodes)
	if err != nil {
		return Result{}, fmt.Errorf("run: could not compute benchmark: %w",
			err)
	}

	result := Result{BenchmarkReturn: benchmark}
	greedy := t.agent.Greedy()

	for i := 0; i < t.config.Iterations; i++ {
		result.Iterations++

		episodeReturn, err := CollectEpisodeTracked(t.env, greedy, t.store,
			t.config.Render, t.trackers...)
		if err != nil {
			return result, fmt.Errorf("run: iteration %v: %w", i, err)
		}

		if !t.store.CanSample(t.config.BatchSize) {
			if t.diag.Progress() {
				t.diag.Log.WithField("iteration", i).Info(
					"not enough samples, skipping")
			}
			t.increment()
			continue
		}

		avg, loss, err := t.step(greedy)
		if err != nil {
			return result, fmt.Errorf("run: iteration %v: %w", i, err)
		}
		result.TrainSteps++

		if avg > result.BestAverageReturn {
			result.BestAverageReturn = avg
			if t.persist != nil {
				if err := t.persist.Export(); err != nil {
					return result, fmt.Errorf("run: iteration %v: %w", i, err)
				}
			}
		}

		if t.diag.Progress() {
			percent := float64(i) / float64(t.config.Iterations) * 100
			t.diag.Log.WithFields(logrus.Fields{
				"iteration":     i,
				"episodeReturn": episodeReturn,
				"loss":          loss,
				"avgReward":     avg,
				"benchmark":     benchmark,
				"bufferVolume":  t.store.Len(),
			}).Infof("episode %d/%d (%.2f%%) finished with avg reward %v "+
				"w/ benchmark reward %v and buffer volume %d", i,
				t.config.Iterations, percent, avg, benchmark, t.store.Len())
		}
		t.increment()
	}

	for _, tr := range t.trackers {
		if err := tr.Save(); err != nil {
			return result, fmt.Errorf("run: %w", err)
		}
	}

	return result, nil
}

// step performs a single training step followed by an evaluation of
// the greedy policy, returning its average return and the loss
func (t *Trainer) step(greedy agent.Policy) (float64, float64, error) {
	batch, err := t.store.Sample(t.config.BatchSize)
	if err != nil {
		return 0, 0, err
	}

	loss, err := t.agent.Train(batch)
	if err != nil {
		return 0, 0, err
	}
	t.vis.LogLoss(loss)

	if t.persist != nil {
		if err := t.persist.Checkpoint(); err != nil {
			return 0, 0, err
		}
	}

	avg, err := AverageReturn(t.evalEnv, greedy, t.config.EvalEpisodes)
	if err != nil {
		return 0, 0, fmt.Errorf("could not evaluate: %w", err)
	}
	t.vis.LogReward([]float64{avg})

	return avg, loss, nil
}

func (t *Trainer) increment() {
	if t.progress != nil {
		t.progress.Increment()
	}
}
