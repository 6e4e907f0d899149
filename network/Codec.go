package network

import (
	"encoding/gob"
	"fmt"
	"io"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/samuelfneumann/dqn/initwfn"
)

// weights is the gob representation of the learnables of an MLP, in
// layer order, with each layer's weights before its bias
type weights struct {
	Shapes [][]int
	Values [][]float64
}

// architecture is the gob header of an exported MLP
type architecture struct {
	Features    int
	Outputs     int
	Batch       int
	HiddenSizes []int
	Biases      []bool
	Activations []*Activation
}

// Save writes the current weights of the MLP to w
func (m *MLP) Save(w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(m.weights()); err != nil {
		return fmt.Errorf("save: could not encode weights: %w", err)
	}
	return nil
}

// Load replaces the weights of the MLP with those read from r. The
// weights must have been saved by an MLP of the same architecture.
func (m *MLP) Load(r io.Reader) error {
	var w weights
	if err := gob.NewDecoder(r).Decode(&w); err != nil {
		return fmt.Errorf("load: could not decode weights: %w", err)
	}
	if err := m.setWeights(w); err != nil {
		return fmt.Errorf("load: %w", err)
	}
	return nil
}

// Export writes the architecture of the MLP followed by its weights to
// w. The exported MLP can be rebuilt with Import.
func (m *MLP) Export(w io.Writer) error {
	enc := gob.NewEncoder(w)

	arch := architecture{
		Features:    m.config.Features,
		Outputs:     m.config.Outputs,
		Batch:       m.config.Batch,
		HiddenSizes: m.config.HiddenSizes,
		Biases:      m.config.Biases,
		Activations: m.config.Activations,
	}
	if err := enc.Encode(arch); err != nil {
		return fmt.Errorf("export: could not encode architecture: %w", err)
	}

	if err := enc.Encode(m.weights()); err != nil {
		return fmt.Errorf("export: could not encode weights: %w", err)
	}
	return nil
}

// Import rebuilds an MLP written by Export. The returned MLP has no
// solver and can only be used for prediction.
func Import(r io.Reader) (*MLP, error) {
	dec := gob.NewDecoder(r)

	var arch architecture
	if err := dec.Decode(&arch); err != nil {
		return nil, fmt.Errorf("import: could not decode architecture: %w",
			err)
	}

	zeroes, err := initwfn.NewZeroes()
	if err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}
	m, err := NewMLP(Config{
		Features:    arch.Features,
		Outputs:     arch.Outputs,
		Batch:       arch.Batch,
		HiddenSizes: arch.HiddenSizes,
		Biases:      arch.Biases,
		Activations: arch.Activations,
		InitWFn:     zeroes.InitWFn(),
	})
	if err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}

	var w weights
	if err := dec.Decode(&w); err != nil {
		return nil, fmt.Errorf("import: could not decode weights: %w", err)
	}
	if err := m.setWeights(w); err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}
	return m, nil
}

// weights returns a copy of the master weights of the MLP
func (m *MLP) weights() weights {
	nodes := m.train.learnables()
	w := weights{
		Shapes: make([][]int, len(nodes)),
		Values: make([][]float64, len(nodes)),
	}
	for i, node := range nodes {
		value := node.Value().(*tensor.Dense)
		w.Shapes[i] = append([]int(nil), value.Shape()...)
		w.Values[i] = append([]float64(nil), value.Data().([]float64)...)
	}
	return w
}

// setWeights replaces the master weights of the MLP and invalidates the
// weights of every prediction graph
func (m *MLP) setWeights(w weights) error {
	nodes := m.train.learnables()
	if len(w.Values) != len(nodes) || len(w.Shapes) != len(nodes) {
		return fmt.Errorf("setWeights: invalid number of learnables"+
			"\n\twant(%v)\n\thave(%v)", len(nodes), len(w.Values))
	}

	for i, node := range nodes {
		shape := node.Shape()
		if !shape.Eq(tensor.Shape(w.Shapes[i])) {
			return fmt.Errorf("setWeights: invalid shape for learnable %v"+
				"\n\twant(%v)\n\thave(%v)", i, shape, w.Shapes[i])
		}
		if len(w.Values[i]) != shape.TotalSize() {
			return fmt.Errorf("setWeights: invalid number of values for "+
				"learnable %v\n\twant(%v)\n\thave(%v)", i, shape.TotalSize(),
				len(w.Values[i]))
		}

		value := tensor.New(
			tensor.WithShape(w.Shapes[i]...),
			tensor.WithBacking(append([]float64(nil), w.Values[i]...)),
		)
		if err := G.Let(node, value); err != nil {
			return err
		}
	}
	m.version++
	return nil
}
