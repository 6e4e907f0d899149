// Package expreplay implements a fixed-capacity experience replay
// buffer of environment transitions.
package expreplay

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	ts "github.com/samuelfneumann/dqn/timestep"
)

// Batch is a batch of transitions sampled from a Buffer. Row/index i
// of each field belongs to the same stored transition.
type Batch struct {
	States     *mat.Dense // batch × features
	NextStates *mat.Dense // batch × features
	Actions    []int
	Rewards    []float64
	Terminals  []bool
}

// Size returns the number of transitions in the batch
func (b Batch) Size() int {
	return len(b.Actions)
}

// Buffer implements an experience replay buffer where transitions are
// stored in a ring: once the buffer is full, each new transition
// overwrites the earliest inserted one.
//
// Transition data is copied into flat caches on Push, so later
// mutation of a pushed Transition's vectors does not affect the buffer.
type Buffer struct {
	stateCache     []float64
	nextStateCache []float64
	actionCache    []int
	rewardCache    []float64
	terminalCache  []bool

	currentInUsePos int
	isFull          bool

	// Outlines how data is sampled
	sampler Selector

	maxCapacity int
	featureSize int
}

// New returns a new Buffer which holds at most capacity transitions
// with states of featureSize features. Sampling is uniformly random,
// seeded by seed.
func New(capacity, featureSize int, seed uint64) (*Buffer, error) {
	return NewWithSource(capacity, featureSize, rand.NewSource(seed))
}

// NewWithSource returns a new Buffer which samples uniformly randomly
// using the randomness source src.
func NewWithSource(capacity, featureSize int, src rand.Source) (*Buffer,
	error) {
	if capacity < 1 {
		return nil, fmt.Errorf("new: capacity must be >= 1\n\thave(%v)",
			capacity)
	}
	if featureSize < 1 {
		return nil, fmt.Errorf("new: feature size must be >= 1\n\thave(%v)",
			featureSize)
	}

	return &Buffer{
		stateCache:     make([]float64, capacity*featureSize),
		nextStateCache: make([]float64, capacity*featureSize),
		actionCache:    make([]int, capacity),
		rewardCache:    make([]float64, capacity),
		terminalCache:  make([]bool, capacity),

		sampler: NewUniformSelector(src),

		maxCapacity: capacity,
		featureSize: featureSize,
	}, nil
}

// String returns the string representation of the Buffer
func (b *Buffer) String() string {
	baseStr := "Buffer | Length: %v  |  Capacity: %v  |  Features: %v  |  " +
		"Next Insert: %v"
	return fmt.Sprintf(baseStr, b.Len(), b.Capacity(), b.featureSize,
		b.currentInUsePos)
}

// Push adds a transition to the Buffer, overwriting the earliest
// inserted transition if the Buffer is full. Transitions are not
// validated.
func (b *Buffer) Push(t ts.Transition) {
	index := b.currentInUsePos

	stateInd := index * b.featureSize
	copyVec(b.stateCache[stateInd:stateInd+b.featureSize], t.State)
	copyVec(b.nextStateCache[stateInd:stateInd+b.featureSize], t.NextState)

	b.actionCache[index] = t.Action
	b.rewardCache[index] = t.Reward
	b.terminalCache[index] = t.Terminal

	if index+1 == b.maxCapacity {
		b.isFull = true
	}
	b.currentInUsePos = (b.currentInUsePos + 1) % b.maxCapacity
}

// CanSample returns whether the Buffer holds at least batchSize
// transitions
func (b *Buffer) CanSample(batchSize int) bool {
	return b.Len() >= batchSize
}

// Sample samples and returns a batch of batchSize distinct stored
// transitions, drawn uniformly at random. Samples are drawn
// independently across calls. If fewer than batchSize transitions are
// stored, an error satisfying IsInsufficientSamples is returned.
func (b *Buffer) Sample(batchSize int) (Batch, error) {
	if batchSize < 1 {
		return Batch{}, &ExpReplayError{Op: "sample", Err: ErrInvalidBatchSize}
	}
	if !b.CanSample(batchSize) {
		err := &ExpReplayError{
			Op: "sample",
			Err: fmt.Errorf("%w\n\twant(>=%v)\n\thave(%v)",
				ErrInsufficientSamples, batchSize, b.Len()),
		}
		return Batch{}, err
	}

	indices := b.sampler.choose(b.Len(), batchSize)

	stateBatch := make([]float64, batchSize*b.featureSize)
	nextStateBatch := make([]float64, batchSize*b.featureSize)
	actionBatch := make([]int, batchSize)
	rewardBatch := make([]float64, batchSize)
	terminalBatch := make([]bool, batchSize)

	for i, index := range indices {
		batchStartInd := i * b.featureSize
		expStartInd := index * b.featureSize

		copy(stateBatch[batchStartInd:batchStartInd+b.featureSize],
			b.stateCache[expStartInd:expStartInd+b.featureSize])
		copy(nextStateBatch[batchStartInd:batchStartInd+b.featureSize],
			b.nextStateCache[expStartInd:expStartInd+b.featureSize])

		actionBatch[i] = b.actionCache[index]
		rewardBatch[i] = b.rewardCache[index]
		terminalBatch[i] = b.terminalCache[index]
	}

	return Batch{
		States:     mat.NewDense(batchSize, b.featureSize, stateBatch),
		NextStates: mat.NewDense(batchSize, b.featureSize, nextStateBatch),
		Actions:    actionBatch,
		Rewards:    rewardBatch,
		Terminals:  terminalBatch,
	}, nil
}

// Len returns the current number of transitions in the Buffer
func (b *Buffer) Len() int {
	if b.isFull {
		return b.maxCapacity
	}
	return b.currentInUsePos
}

// Capacity returns the maximum number of transitions that are allowed
// in the Buffer
func (b *Buffer) Capacity() int {
	return b.maxCapacity
}

// Features returns the number of features in each stored state
func (b *Buffer) Features() int {
	return b.featureSize
}

// copyVec copies at most len(dst) elements of src into dst
func copyVec(dst []float64, src mat.Vector) {
	if src == nil {
		return
	}
	n := src.Len()
	if n > len(dst) {
		n = len(dst)
	}
	for i := 0; i < n; i++ {
		dst[i] = src.AtVec(i)
	}
}
