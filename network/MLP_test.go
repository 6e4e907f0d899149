package network

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
)

func newTestMLP(t *testing.T, batch int) *MLP {
	t.Helper()

	m, err := NewMLP(Config{
		Features:    4,
		Outputs:     3,
		Batch:       batch,
		HiddenSizes: []int{16, 8},
		Biases:      []bool{true, true},
		Activations: []*Activation{ReLU(), TanH()},
		InitWFn:     G.GlorotU(1.0),
		Solver:      G.NewAdamSolver(G.WithLearnRate(0.01)),
	})
	require.NoError(t, err)
	return m
}

func states(rows int) *mat.Dense {
	data := make([]float64, rows*4)
	for i := range data {
		data[i] = math.Sin(float64(i))
	}
	return mat.NewDense(rows, 4, data)
}

func TestNewMLPInvalid(t *testing.T) {
	_, err := NewMLP(Config{
		Features:    4,
		Outputs:     2,
		Batch:       1,
		HiddenSizes: []int{8},
		Biases:      []bool{true},
		Activations: []*Activation{},
		InitWFn:     G.Zeroes(),
	})
	require.Error(t, err)

	_, err = NewMLP(Config{Features: 0, Outputs: 2, Batch: 1,
		InitWFn: G.Zeroes()})
	require.Error(t, err)
}

func TestPredictShape(t *testing.T) {
	m := newTestMLP(t, 8)

	for _, rows := range []int{1, 8, 5} {
		pred, err := m.Predict(states(rows))
		require.NoError(t, err)

		r, c := pred.Dims()
		require.Equal(t, rows, r)
		require.Equal(t, 3, c)
	}

	_, err := m.Predict(mat.NewDense(2, 5, nil))
	require.Error(t, err)
}

func TestPredictConsistentAcrossBatchSizes(t *testing.T) {
	m := newTestMLP(t, 8)
	batch := states(8)

	full, err := m.Predict(batch)
	require.NoError(t, err)

	first, err := m.Predict(mat.DenseCopyOf(batch.Slice(0, 1, 0, 4)))
	require.NoError(t, err)

	for j := 0; j < 3; j++ {
		require.InDelta(t, full.At(0, j), first.At(0, j), 1e-9)
	}
}

func TestFit(t *testing.T) {
	m := newTestMLP(t, 8)
	s := states(8)
	targets := mat.NewDense(8, 3, nil)

	before, err := m.Predict(s)
	require.NoError(t, err)

	var first, last float64
	for i := 0; i < 50; i++ {
		loss, err := m.Fit(s, targets)
		require.NoError(t, err)
		require.False(t, math.IsNaN(loss) || math.IsInf(loss, 0))
		require.GreaterOrEqual(t, loss, 0.0)

		if i == 0 {
			first = loss
		}
		last = loss
	}
	require.Less(t, last, first)

	// Prediction graphs see the fitted weights
	after, err := m.Predict(s)
	require.NoError(t, err)
	require.Less(t, mat.Norm(after, 2), mat.Norm(before, 2))

	_, err = m.Fit(states(3), mat.NewDense(3, 3, nil))
	require.Error(t, err)
}

func TestSaveLoad(t *testing.T) {
	m := newTestMLP(t, 4)
	s := states(4)

	_, err := m.Fit(s, mat.NewDense(4, 3, nil))
	require.NoError(t, err)
	want, err := m.Predict(s)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, m.Save(&buf))

	other := newTestMLP(t, 4)
	before, err := other.Predict(s)
	require.NoError(t, err)
	require.False(t, mat.EqualApprox(want, before, 1e-12))

	require.NoError(t, other.Load(&buf))
	got, err := other.Predict(s)
	require.NoError(t, err)
	require.True(t, mat.EqualApprox(want, got, 1e-12))
}

func TestLoadWrongArchitecture(t *testing.T) {
	m := newTestMLP(t, 4)
	var buf bytes.Buffer
	require.NoError(t, m.Save(&buf))

	other, err := NewMLP(Config{
		Features:    4,
		Outputs:     3,
		Batch:       4,
		HiddenSizes: []int{2},
		Biases:      []bool{true},
		Activations: []*Activation{ReLU()},
		InitWFn:     G.Zeroes(),
	})
	require.NoError(t, err)
	require.Error(t, other.Load(&buf))
}

func TestExportImport(t *testing.T) {
	m := newTestMLP(t, 4)
	s := states(2)
	want, err := m.Predict(s)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, m.Export(&buf))

	imported, err := Import(&buf)
	require.NoError(t, err)
	require.Equal(t, 4, imported.Features())
	require.Equal(t, 3, imported.Outputs())

	got, err := imported.Predict(s)
	require.NoError(t, err)
	require.True(t, mat.EqualApprox(want, got, 1e-12))

	_, err = imported.Fit(states(4), mat.NewDense(4, 3, nil))
	require.Error(t, err)
}

func TestActivationByName(t *testing.T) {
	for _, name := range []string{"relu", "ReLU", "tanh", "identity",
		"sigmoid"} {
		a, err := ActivationByName(name)
		require.NoError(t, err)
		require.NotNil(t, a)
	}

	_, err := ActivationByName("softmax")
	require.Error(t, err)

	var a Activation
	require.NoError(t, a.UnmarshalJSON([]byte(`"tanh"`)))
	require.Equal(t, "tanh", a.String())
}
