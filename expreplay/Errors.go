package expreplay

import "errors"

// ExpReplayError implements errors unique to an experience replay
// buffer.
type ExpReplayError struct {
	Op  string
	Err error
}

// Error satisifes the error interface
func (e *ExpReplayError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying error
func (e *ExpReplayError) Unwrap() error {
	return e.Err
}

var (
	// ErrInsufficientSamples is reported when a batch larger than the
	// number of stored transitions is requested
	ErrInsufficientSamples = errors.New("insufficient samples in buffer")

	// ErrInvalidBatchSize is reported when a non-positive batch size is
	// requested
	ErrInvalidBatchSize = errors.New("batch size must be positive")
)

// IsInsufficientSamples returns whether or not an error reports that
// there are insufficient samples in the buffer to sample from the
// buffer.
//
// A buffer has too few samples to sample a batch if its current
// length is less than the batch size.
func IsInsufficientSamples(err error) bool {
	return errors.Is(err, ErrInsufficientSamples)
}
