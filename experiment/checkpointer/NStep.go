package checkpointer

// nStep implements checkpointing every N steps
type nStep struct {
	interval     int
	checkpointer Checkpointer
}

// NewNStep returns a checkpointer that forwards to c every n steps.
// An n below 1 checkpoints on every step.
func NewNStep(n int, c Checkpointer) Checkpointer {
	if n < 1 {
		n = 1
	}
	return &nStep{
		interval:     n,
		checkpointer: c,
	}
}

// Checkpoint checkpoints if step is a multiple of the interval
func (n *nStep) Checkpoint(step int) error {
	if step%n.interval == 0 {
		return n.checkpointer.Checkpoint(step)
	}
	return nil
}
