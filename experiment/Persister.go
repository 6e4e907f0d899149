package experiment

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/samuelfneumann/dqn/experiment/checkpointer"
	"github.com/samuelfneumann/dqn/network"
)

// Persister saves and restores training progress
type Persister interface {
	// Checkpoint is called after every training step
	Checkpoint() error

	// Export is called whenever a new best average reward is reached
	Export() error

	// Restore restores the newest checkpoint, if any
	Restore() (bool, error)
}

// persister implements Persister over a checkpoint Manager and the
// export format of the approximator
type persister struct {
	net       network.Approximator
	manager   *checkpointer.Manager
	every     checkpointer.Checkpointer
	modelPath string
	steps     int
}

// NewPersister returns a Persister which checkpoints the weights of
// net after every training step and exports it to modelPath
func NewPersister(net network.Approximator, m *checkpointer.Manager,
	modelPath string) Persister {
	return NewPersisterWithInterval(net, m, 1, modelPath)
}

// NewPersisterWithInterval returns a Persister which checkpoints the
// weights of net once every interval training steps
func NewPersisterWithInterval(net network.Approximator,
	m *checkpointer.Manager, interval int, modelPath string) Persister {
	return &persister{
		net:       net,
		manager:   m,
		every:     checkpointer.NewNStep(interval, m),
		modelPath: modelPath,
	}
}

func (p *persister) Checkpoint() error {
	p.steps++
	if err := p.every.Checkpoint(p.steps); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	return nil
}

func (p *persister) Restore() (bool, error) {
	return p.manager.Restore()
}

// Export writes the exported model to a temporary file which then
// replaces the file at modelPath
func (p *persister) Export() error {
	dir := filepath.Dir(p.modelPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("export: %w", err)
	}

	tmp, err := ioutil.TempFile(dir, ".model-*")
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := p.net.Export(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := os.Rename(tmp.Name(), p.modelPath); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}
