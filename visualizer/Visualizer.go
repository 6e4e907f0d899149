// Package visualizer implements sinks for the training loss and
// evaluation reward series produced while training.
package visualizer

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// Visualizer records the loss of each training step and the average
// evaluation reward that follows it
type Visualizer interface {
	LogLoss(loss float64)
	LogReward(reward []float64)
	Close() error
}

// Type describes different types of Visualizer that are available
type Type string

// Available visualizer types
const (
	None  Type = "none"
	Log   Type = "log"
	Chart Type = "chart"
	HTTP  Type = "http"
)

// Config describes which Visualizer to create
type Config struct {
	Type Type `json:"type"`

	// ChartPath is the HTML file written by the chart visualizer
	ChartPath string `json:"chart_path"`

	// Addr is the address served by the http visualizer
	Addr string `json:"addr"`
}

// New returns the Visualizer described by c. The logger is used by
// the log and http visualizers.
func New(c Config, log *logrus.Entry) (Visualizer, error) {
	switch c.Type {
	case None, "":
		return NewNone(), nil

	case Log:
		return NewLog(log), nil

	case Chart:
		if c.ChartPath == "" {
			return nil, fmt.Errorf("new: chart visualizer needs a chart path")
		}
		return NewChart(c.ChartPath), nil

	case HTTP:
		return NewHTTP(c.Addr, log)
	}

	return nil, fmt.Errorf("new: no such visualizer %q", c.Type)
}

// none is a Visualizer which discards everything
type none struct{}

// NewNone returns a Visualizer which discards everything
func NewNone() Visualizer {
	return none{}
}

func (none) LogLoss(float64)     {}
func (none) LogReward([]float64) {}
func (none) Close() error        { return nil }

// series records the loss and reward series. It is safe for concurrent
// use so that it can be read while training continues.
type series struct {
	mu      sync.RWMutex
	losses  []float64
	rewards [][]float64
}

func (s *series) LogLoss(loss float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.losses = append(s.losses, loss)
}

func (s *series) LogReward(reward []float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rewards = append(s.rewards, append([]float64(nil), reward...))
}

// snapshot returns copies of the recorded series
func (s *series) snapshot() ([]float64, [][]float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	losses := append([]float64(nil), s.losses...)
	rewards := make([][]float64, len(s.rewards))
	for i := range s.rewards {
		rewards[i] = append([]float64(nil), s.rewards[i]...)
	}
	return losses, rewards
}
