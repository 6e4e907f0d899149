package network

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Config describes the architecture and training setup of an MLP
type Config struct {
	Features int // Number of state features
	Outputs  int // Number of actions

	// Batch is the number of rows Fit accepts. Predict accepts any
	// number of rows.
	Batch int

	// Hidden layers. Index i of each slice describes hidden layer i. A
	// final linear layer with a bias unit and Outputs nodes is always
	// appended.
	HiddenSizes []int
	Biases      []bool
	Activations []*Activation

	InitWFn G.InitWFn

	// Solver adapts the weights in Fit. An MLP with a nil Solver can
	// only predict.
	Solver G.Solver
}

// Validate checks that the Config describes a buildable MLP
func (c Config) Validate() error {
	if c.Features < 1 {
		return fmt.Errorf("validate: features must be positive\n\twant(>0)"+
			"\n\thave(%v)", c.Features)
	}
	if c.Outputs < 1 {
		return fmt.Errorf("validate: outputs must be positive\n\twant(>0)"+
			"\n\thave(%v)", c.Outputs)
	}
	if c.Batch < 1 {
		return fmt.Errorf("validate: batch must be positive\n\twant(>0)"+
			"\n\thave(%v)", c.Batch)
	}
	if len(c.HiddenSizes) != len(c.Activations) {
		return fmt.Errorf("validate: invalid number of activations"+
			"\n\twant(%d)\n\thave(%d)", len(c.HiddenSizes), len(c.Activations))
	}
	if len(c.HiddenSizes) != len(c.Biases) {
		return fmt.Errorf("validate: invalid number of biases\n\twant(%d)"+
			"\n\thave(%d)", len(c.HiddenSizes), len(c.Biases))
	}
	for i, size := range c.HiddenSizes {
		if size < 1 {
			return fmt.Errorf("validate: hidden layer %v must have positive "+
				"size\n\thave(%v)", i, size)
		}
	}
	if c.InitWFn == nil {
		return fmt.Errorf("validate: no weight initializer")
	}
	return nil
}

// graph is a single computational graph of the MLP with a fixed input
// batch size
type graph struct {
	g       *G.ExprGraph
	input   *G.Node
	layers  []*fcLayer
	pred    *G.Node
	predVal G.Value
	vm      G.VM

	batch   int
	version int // Version of the master weights last copied in
}

// learnables returns the learnable nodes of the graph in layer order
func (gr *graph) learnables() G.Nodes {
	nodes := make(G.Nodes, 0, 2*len(gr.layers))
	for _, l := range gr.layers {
		nodes = append(nodes, l.learnables()...)
	}
	return nodes
}

// MLP implements a multi-layered perceptron Approximator with one
// output per action.
//
// The MLP keeps one training graph, built at the configured batch size,
// which holds the master copy of the weights. Predictions are run on
// separate graphs, one per distinct input batch size, whose weights are
// refreshed from the master copy whenever it has changed since their
// last run.
type MLP struct {
	config Config

	train   *graph
	target  *G.Node
	loss    *G.Node
	lossVal G.Value
	solver  G.Solver

	predictors map[int]*graph
	version    int
}

// NewMLP creates a new MLP
func NewMLP(c Config) (*MLP, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("newMLP: %w", err)
	}

	train, err := newGraph(c, c.Batch, c.InitWFn)
	if err != nil {
		return nil, fmt.Errorf("newMLP: %w", err)
	}

	m := &MLP{
		config:     c,
		train:      train,
		solver:     c.Solver,
		predictors: make(map[int]*graph),
		version:    1,
	}
	train.version = m.version

	// Regression target and the mean squared error over all outputs
	m.target = G.NewMatrix(
		train.g,
		tensor.Float64,
		G.WithShape(c.Batch, c.Outputs),
		G.WithName("target"),
		G.WithInit(G.Zeroes()),
	)
	losses := G.Must(G.Sub(train.pred, m.target))
	losses = G.Must(G.Square(losses))
	m.loss = G.Must(G.Mean(losses))
	G.Read(m.loss, &m.lossVal)

	if _, err := G.Grad(m.loss, train.learnables()...); err != nil {
		msg := fmt.Sprintf("newMLP: could not compute gradient: %v", err)
		panic(msg)
	}
	train.vm = G.NewTapeMachine(
		train.g,
		G.BindDualValues(train.learnables()...),
	)

	return m, nil
}

// newGraph builds the forward pass of the MLP described by c in a new
// graph with the given input batch size
func newGraph(c Config, batch int, init G.InitWFn) (*graph, error) {
	g := G.NewGraph()
	input := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(batch, c.Features),
		G.WithName("input"),
		G.WithInit(G.Zeroes()),
	)

	layers := make([]*fcLayer, 0, len(c.HiddenSizes)+1)
	in := c.Features
	for i, size := range c.HiddenSizes {
		name := fmt.Sprintf("L%d", i)
		layers = append(layers, newFCLayer(g, in, size, c.Biases[i],
			c.Activations[i], init, name))
		in = size
	}
	layers = append(layers, newFCLayer(g, in, c.Outputs, true, Identity(),
		init, "Out"))

	pred := input
	var err error
	for i, l := range layers {
		if pred, err = l.fwd(pred); err != nil {
			msg := "could not compute forward pass of layer %v: %v"
			return nil, fmt.Errorf(msg, i, err)
		}
	}

	gr := &graph{
		g:      g,
		input:  input,
		layers: layers,
		pred:   pred,
		batch:  batch,
	}
	G.Read(gr.pred, &gr.predVal)

	return gr, nil
}

// Features returns the number of features the MLP takes as input
func (m *MLP) Features() int {
	return m.config.Features
}

// Outputs returns the number of action values predicted per state
func (m *MLP) Outputs() int {
	return m.config.Outputs
}

// BatchSize returns the number of rows accepted by Fit
func (m *MLP) BatchSize() int {
	return m.config.Batch
}

// Predict returns the action values of each row of states
func (m *MLP) Predict(states *mat.Dense) (*mat.Dense, error) {
	rows, cols := states.Dims()
	if cols != m.config.Features {
		return nil, fmt.Errorf("predict: invalid number of features"+
			"\n\twant(%v)\n\thave(%v)", m.config.Features, cols)
	}

	p, err := m.predictor(rows)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}

	if err := setMatrix(p.input, states); err != nil {
		return nil, fmt.Errorf("predict: could not set input: %w", err)
	}
	if err := p.vm.RunAll(); err != nil {
		p.vm.Reset()
		return nil, fmt.Errorf("predict: %w", err)
	}

	out := make([]float64, rows*m.config.Outputs)
	copy(out, p.predVal.Data().([]float64))
	p.vm.Reset()

	return mat.NewDense(rows, m.config.Outputs, out), nil
}

// predictor returns the prediction graph for the given batch size,
// creating it if needed, with its weights synced to the master copy
func (m *MLP) predictor(batch int) (*graph, error) {
	p, ok := m.predictors[batch]
	if !ok {
		var err error
		p, err = newGraph(m.config, batch, G.Zeroes())
		if err != nil {
			return nil, err
		}
		p.vm = G.NewTapeMachine(p.g)
		m.predictors[batch] = p
	}

	if p.version != m.version {
		if err := copyWeights(p.learnables(), m.train.learnables()); err != nil {
			return nil, err
		}
		p.version = m.version
	}
	return p, nil
}

// Fit performs a single gradient step on the mean squared error
// between Predict(states) and targets
func (m *MLP) Fit(states, targets *mat.Dense) (float64, error) {
	if m.solver == nil {
		return 0, fmt.Errorf("fit: MLP has no solver")
	}

	rows, cols := states.Dims()
	if rows != m.config.Batch || cols != m.config.Features {
		return 0, fmt.Errorf("fit: invalid states shape\n\twant(%v, %v)"+
			"\n\thave(%v, %v)", m.config.Batch, m.config.Features, rows, cols)
	}
	tRows, tCols := targets.Dims()
	if tRows != m.config.Batch || tCols != m.config.Outputs {
		return 0, fmt.Errorf("fit: invalid targets shape\n\twant(%v, %v)"+
			"\n\thave(%v, %v)", m.config.Batch, m.config.Outputs, tRows, tCols)
	}

	if err := setMatrix(m.train.input, states); err != nil {
		return 0, fmt.Errorf("fit: could not set input: %w", err)
	}
	if err := setMatrix(m.target, targets); err != nil {
		return 0, fmt.Errorf("fit: could not set target: %w", err)
	}

	if err := m.train.vm.RunAll(); err != nil {
		m.train.vm.Reset()
		return 0, fmt.Errorf("fit: %w", err)
	}
	loss := m.lossVal.Data().(float64)

	model := make([]G.ValueGrad, 0, 2*len(m.train.layers))
	for _, node := range m.train.learnables() {
		model = append(model, node)
	}
	if err := m.solver.Step(model); err != nil {
		m.train.vm.Reset()
		return 0, fmt.Errorf("fit: could not step solver: %w", err)
	}
	m.train.vm.Reset()
	m.version++

	return loss, nil
}

// setMatrix binds a copy of the data in d to the matrix node n
func setMatrix(n *G.Node, d *mat.Dense) error {
	rows, cols := d.Dims()
	backing := make([]float64, 0, rows*cols)
	for i := 0; i < rows; i++ {
		backing = append(backing, d.RawRowView(i)...)
	}

	t := tensor.New(
		tensor.WithShape(rows, cols),
		tensor.WithBacking(backing),
	)
	return G.Let(n, t)
}

// copyWeights sets the value of each dest node to a copy of the value
// of the corresponding source node
func copyWeights(dest, source G.Nodes) error {
	if len(dest) != len(source) {
		return fmt.Errorf("copyWeights: invalid number of learnables"+
			"\n\twant(%v)\n\thave(%v)", len(dest), len(source))
	}
	for i := range dest {
		value := source[i].Value().(*tensor.Dense).Clone().(*tensor.Dense)
		if err := G.Let(dest[i], value); err != nil {
			return err
		}
	}
	return nil
}
