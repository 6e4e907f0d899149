package expreplay

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	ts "github.com/samuelfneumann/dqn/timestep"
)

// tagged returns a transition whose every field encodes tag, so that
// sampled rows can be traced back to the pushed transition
func tagged(tag, features int) ts.Transition {
	state := make([]float64, features)
	next := make([]float64, features)
	for i := range state {
		state[i] = float64(tag)
		next[i] = float64(tag) + 0.5
	}
	return ts.Transition{
		State:     mat.NewVecDense(features, state),
		NextState: mat.NewVecDense(features, next),
		Action:    tag,
		Reward:    float64(tag) * 10,
		Terminal:  tag%2 == 0,
	}
}

func TestNewInvalid(t *testing.T) {
	_, err := New(0, 4, 1)
	require.Error(t, err)

	_, err = New(10, 0, 1)
	require.Error(t, err)
}

func TestSampleInsufficient(t *testing.T) {
	b, err := New(10, 2, 1)
	require.NoError(t, err)

	_, err = b.Sample(1)
	require.True(t, IsInsufficientSamples(err))

	for i := 0; i < 3; i++ {
		b.Push(tagged(i, 2))
	}
	require.False(t, b.CanSample(4))
	require.True(t, b.CanSample(3))

	_, err = b.Sample(4)
	require.Error(t, err)
	require.True(t, IsInsufficientSamples(err))

	var replayErr *ExpReplayError
	require.ErrorAs(t, err, &replayErr)
	require.Equal(t, "sample", replayErr.Op)

	_, err = b.Sample(3)
	require.NoError(t, err)
}

func TestSampleInvalidBatchSize(t *testing.T) {
	b, err := New(10, 2, 1)
	require.NoError(t, err)
	b.Push(tagged(1, 2))

	_, err = b.Sample(0)
	require.ErrorIs(t, err, ErrInvalidBatchSize)
	require.False(t, IsInsufficientSamples(err))
}

func TestSampleAlignment(t *testing.T) {
	const features = 3
	b, err := New(20, features, 7)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		b.Push(tagged(i, features))
	}

	batch, err := b.Sample(8)
	require.NoError(t, err)
	require.Equal(t, 8, batch.Size())

	r, c := batch.States.Dims()
	require.Equal(t, 8, r)
	require.Equal(t, features, c)
	r, c = batch.NextStates.Dims()
	require.Equal(t, 8, r)
	require.Equal(t, features, c)
	require.Len(t, batch.Rewards, 8)
	require.Len(t, batch.Terminals, 8)

	seen := make(map[int]bool)
	for i, a := range batch.Actions {
		require.False(t, seen[a], "transition %v sampled twice", a)
		seen[a] = true

		for j := 0; j < features; j++ {
			require.Equal(t, float64(a), batch.States.At(i, j))
			require.Equal(t, float64(a)+0.5, batch.NextStates.At(i, j))
		}
		require.Equal(t, float64(a)*10, batch.Rewards[i])
		require.Equal(t, a%2 == 0, batch.Terminals[i])
	}
}

func TestRingEviction(t *testing.T) {
	const (
		capacity = 10
		extra    = 4
	)
	b, err := New(capacity, 1, 3)
	require.NoError(t, err)

	for i := 0; i < capacity+extra; i++ {
		b.Push(tagged(i, 1))
		if i < capacity {
			require.Equal(t, i+1, b.Len())
		} else {
			require.Equal(t, capacity, b.Len())
		}
	}

	// A full-buffer batch contains exactly the most recent transitions
	batch, err := b.Sample(capacity)
	require.NoError(t, err)

	got := make(map[int]bool)
	for _, a := range batch.Actions {
		got[a] = true
	}
	require.Len(t, got, capacity)
	for i := 0; i < extra; i++ {
		require.False(t, got[i], "evicted transition %v was sampled", i)
	}
	for i := extra; i < capacity+extra; i++ {
		require.True(t, got[i], "transition %v missing", i)
	}
}

func TestPushCopiesData(t *testing.T) {
	b, err := New(2, 2, 1)
	require.NoError(t, err)

	tr := tagged(1, 2)
	b.Push(tr)
	tr.State.(*mat.VecDense).SetVec(0, 100)

	batch, err := b.Sample(1)
	require.NoError(t, err)
	require.Equal(t, 1.0, batch.States.At(0, 0))
}

func TestSampleIndependentCalls(t *testing.T) {
	b, err := New(50, 1, 11)
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		b.Push(tagged(i, 1))
	}

	// Draws across calls are independent, so some pair of small batches
	// out of many should differ
	first, err := b.Sample(5)
	require.NoError(t, err)
	differ := false
	for i := 0; i < 20 && !differ; i++ {
		next, err := b.Sample(5)
		require.NoError(t, err)
		for j := range next.Actions {
			if next.Actions[j] != first.Actions[j] {
				differ = true
				break
			}
		}
	}
	require.True(t, differ)
}
