package expreplay

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// Selector implements functionality for choosing which stored
// transitions should be sampled from an experience replay buffer
type Selector interface {
	// choose selects batch distinct indices in [0, n)
	choose(n, batch int) []int
}

// uniformSelector is a Selector which selects data from an experience
// replay buffer uniformly randomly, without replacement within a
// single batch
type uniformSelector struct {
	src rand.Source
}

// NewUniformSelector returns a new Selector which selects data uniformly
// randomly from an experience replay buffer using the randomness
// source src
func NewUniformSelector(src rand.Source) Selector {
	return &uniformSelector{src: src}
}

// choose selects a number of indices at which to draw data from the
// buffer
func (u *uniformSelector) choose(n, batch int) []int {
	selected := make([]int, batch)
	sampleuv.WithoutReplacement(selected, n, u.src)
	return selected
}
