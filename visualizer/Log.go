package visualizer

import (
	"github.com/sirupsen/logrus"
)

// logVisualizer writes every loss and reward as a structured log entry
type logVisualizer struct {
	log   *logrus.Entry
	step  int
	evals int
}

// NewLog returns a Visualizer which logs to log
func NewLog(log *logrus.Entry) Visualizer {
	return &logVisualizer{log: log}
}

func (l *logVisualizer) LogLoss(loss float64) {
	l.log.WithFields(logrus.Fields{
		"step": l.step,
		"loss": loss,
	}).Info("loss")
	l.step++
}

func (l *logVisualizer) LogReward(reward []float64) {
	l.log.WithFields(logrus.Fields{
		"evaluation": l.evals,
		"reward":     reward,
	}).Info("reward")
	l.evals++
}

func (l *logVisualizer) Close() error {
	return nil
}
