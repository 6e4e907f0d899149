package deepq

import (
	"bytes"
	"fmt"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/dqn/diagnostics"
	"github.com/samuelfneumann/dqn/expreplay"
)

// tableNet is an approximator whose action values are looked up by the
// first feature of each state
type tableNet struct {
	actions int
	values  map[float64][]float64

	fitStates, fitTargets *mat.Dense
	fits                  int
}

func (n *tableNet) Predict(states *mat.Dense) (*mat.Dense, error) {
	rows, _ := states.Dims()
	out := mat.NewDense(rows, n.actions, nil)
	for i := 0; i < rows; i++ {
		v, ok := n.values[states.At(i, 0)]
		if !ok {
			return nil, fmt.Errorf("no values for state %v", states.At(i, 0))
		}
		out.SetRow(i, v)
	}
	return out, nil
}

func (n *tableNet) Fit(states, targets *mat.Dense) (float64, error) {
	n.fitStates = mat.DenseCopyOf(states)
	n.fitTargets = mat.DenseCopyOf(targets)
	n.fits++
	return 0.25, nil
}

func (n *tableNet) Save(io.Writer) error   { return nil }
func (n *tableNet) Load(io.Reader) error   { return nil }
func (n *tableNet) Export(io.Writer) error { return nil }

func newTestDeepQ(t *testing.T, net *tableNet, gamma float64,
	d diagnostics.Diagnostics) *DeepQ {
	t.Helper()

	q, err := New(net, Config{Gamma: gamma, Features: 2,
		Actions: net.actions}, rand.NewSource(1), d)
	require.NoError(t, err)
	return q
}

func singleBatch(state, next float64, action int, reward float64,
	terminal bool) expreplay.Batch {
	return expreplay.Batch{
		States:     mat.NewDense(1, 2, []float64{state, 0}),
		NextStates: mat.NewDense(1, 2, []float64{next, 0}),
		Actions:    []int{action},
		Rewards:    []float64{reward},
		Terminals:  []bool{terminal},
	}
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, Config{Gamma: 0, Features: 1, Actions: 1}.Validate())
	require.Error(t, Config{Gamma: 1, Features: 1, Actions: 1}.Validate())
	require.Error(t, Config{Gamma: -0.1, Features: 1, Actions: 1}.Validate())
	require.Error(t, Config{Gamma: 0.9, Features: 0, Actions: 1}.Validate())
	require.Error(t, Config{Gamma: 0.9, Features: 1, Actions: 0}.Validate())
}

func TestTerminalTarget(t *testing.T) {
	net := &tableNet{
		actions: 3,
		values: map[float64][]float64{
			0: {1, 2, 3},
			1: {70, 80, 90},
		},
	}
	q := newTestDeepQ(t, net, 0.9, diagnostics.Disabled())

	target, current, err := q.Targets(singleBatch(0, 1, 2, 5, true))
	require.NoError(t, err)
	require.Equal(t, []float64{1, 2, 3}, current.RawRowView(0))
	require.Equal(t, []float64{1, 2, 5}, target.RawRowView(0))
}

func TestNonTerminalTarget(t *testing.T) {
	net := &tableNet{
		actions: 3,
		values: map[float64][]float64{
			0: {4, -2, 6},
			1: {3, 10, -1},
		},
	}
	q := newTestDeepQ(t, net, 0.9, diagnostics.Disabled())

	target, _, err := q.Targets(singleBatch(0, 1, 1, 1, false))
	require.NoError(t, err)
	require.Equal(t, 4.0, target.At(0, 0))
	require.InDelta(t, 10.0, target.At(0, 1), 1e-12)
	require.Equal(t, 6.0, target.At(0, 2))
}

func TestTrain(t *testing.T) {
	net := &tableNet{
		actions: 2,
		values: map[float64][]float64{
			0: {0, 0},
			1: {2, 4},
			2: {1, 1},
		},
	}
	q := newTestDeepQ(t, net, 0.5, diagnostics.Disabled())

	batch := expreplay.Batch{
		States:     mat.NewDense(2, 2, []float64{0, 0, 2, 0}),
		NextStates: mat.NewDense(2, 2, []float64{1, 0, 1, 0}),
		Actions:    []int{0, 1},
		Rewards:    []float64{1, -1},
		Terminals:  []bool{false, true},
	}
	loss, err := q.Train(batch)
	require.NoError(t, err)
	require.Equal(t, 0.25, loss)
	require.Equal(t, 1, net.fits)

	require.True(t, mat.Equal(batch.States, net.fitStates))
	want := mat.NewDense(2, 2, []float64{3, 0, 1, -1})
	require.True(t, mat.Equal(want, net.fitTargets))
}

func TestIllegalAction(t *testing.T) {
	net := &tableNet{
		actions: 2,
		values:  map[float64][]float64{0: {0, 0}, 1: {0, 0}},
	}
	q := newTestDeepQ(t, net, 0.5, diagnostics.Disabled())

	_, err := q.Train(singleBatch(0, 1, 2, 0, false))
	require.Error(t, err)
	require.Equal(t, 0, net.fits)
}

func TestGreedyTieBreak(t *testing.T) {
	net := &tableNet{
		actions: 4,
		values:  map[float64][]float64{3: {0, 5, 1, 5}},
	}
	q := newTestDeepQ(t, net, 0.9, diagnostics.Disabled())

	action, err := q.GreedyAction(mat.NewVecDense(2, []float64{3, 0}))
	require.NoError(t, err)
	require.Equal(t, 1, action)

	action, err = q.Greedy().SelectAction(mat.NewVecDense(2, []float64{3, 0}))
	require.NoError(t, err)
	require.Equal(t, 1, action)

	_, err = q.GreedyAction(mat.NewVecDense(3, nil))
	require.Error(t, err)
}

func TestRandomAction(t *testing.T) {
	net := &tableNet{actions: 3}
	q := newTestDeepQ(t, net, 0.9, diagnostics.Disabled())

	counts := make([]int, 3)
	for i := 0; i < 300; i++ {
		a, err := q.Random().SelectAction(nil)
		require.NoError(t, err)
		require.GreaterOrEqual(t, a, 0)
		require.Less(t, a, 3)
		counts[a]++
	}
	for _, c := range counts {
		require.Greater(t, c, 0)
	}
}

func TestDiagnosticsDoNotChangeResults(t *testing.T) {
	values := map[float64][]float64{
		0: {1, 2},
		1: {3, 4},
	}
	batch := singleBatch(0, 1, 0, 1, false)

	quiet := newTestDeepQ(t, &tableNet{actions: 2, values: values}, 0.9,
		diagnostics.Disabled())
	wantTarget, _, err := quiet.Targets(batch)
	require.NoError(t, err)
	wantAction, err := quiet.GreedyAction(mat.NewVecDense(2, []float64{1, 0}))
	require.NoError(t, err)

	for _, level := range []diagnostics.Level{diagnostics.Loss,
		diagnostics.Policy, diagnostics.Init} {
		var buf bytes.Buffer
		l := logrus.New()
		l.SetOutput(&buf)

		loud := newTestDeepQ(t, &tableNet{actions: 2, values: values}, 0.9,
			diagnostics.New(level, logrus.NewEntry(l)))
		target, _, err := loud.Targets(batch)
		require.NoError(t, err)
		require.True(t, mat.Equal(wantTarget, target))

		action, err := loud.GreedyAction(mat.NewVecDense(2, []float64{1, 0}))
		require.NoError(t, err)
		require.Equal(t, wantAction, action)

		require.NotZero(t, buf.Len(), "level %v logged nothing", level)
	}
}
