package tracker

import (
	ts "github.com/samuelfneumann/dqn/timestep"
)

// EpisodeLength tracks and saves the lengths of training episodes.
// Note that an episode must finish for this Tracker to save its length.
type EpisodeLength struct {
	episodeLengths []float64
	filename       string
}

// NewEpisodeLength returns a new EpisodeLength Tracker which will save
// its data at the specified location filename
func NewEpisodeLength(filename string) *EpisodeLength {
	return &EpisodeLength{filename: filename}
}

// Track caches the episode length if t is the last timestep in the
// episode
func (e *EpisodeLength) Track(t ts.TimeStep) {
	if t.Last() {
		e.episodeLengths = append(e.episodeLengths, float64(t.Number))
	}
}

// Lengths returns the lengths of all completed episodes
func (e *EpisodeLength) Lengths() []float64 {
	return append([]float64(nil), e.episodeLengths...)
}

// Save saves the episode lengths to disk
func (e *EpisodeLength) Save() error {
	return save(e.filename, e.episodeLengths)
}
