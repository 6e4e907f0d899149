package cartpole

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"
)

const (
	DefaultRenderDir = "frames"

	ViewportW float64 = 600
	ViewportH float64 = 400

	cartWidth  float64 = 50
	cartHeight float64 = 30
	poleWidth  float64 = 10
	trackY     float64 = 300 // pixels from the top of the frame
)

// SetRenderDir sets the directory that Render writes frames to
func (c *Cartpole) SetRenderDir(dir string) {
	c.renderDir = dir
}

// Render draws the current state of the environment and saves it as a
// PNG frame in the render directory. Frames are numbered consecutively
// across episodes.
func (c *Cartpole) Render() error {
	if err := os.MkdirAll(c.renderDir, 0o755); err != nil {
		return fmt.Errorf("render: could not create frame directory: %v", err)
	}

	state := c.lastStep.Observation
	x, th := state.AtVec(0), state.AtVec(2)

	scale := ViewportW / (2 * FailPosition)
	cartX := x*scale + ViewportW/2
	poleLength := scale * 2 * c.halfPoleLength

	dc := gg.NewContext(int(ViewportW), int(ViewportH))
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	// Track
	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(1)
	dc.DrawLine(0, trackY, ViewportW, trackY)
	dc.Stroke()

	// Cart
	dc.DrawRectangle(cartX-cartWidth/2, trackY-cartHeight/2, cartWidth,
		cartHeight)
	dc.Fill()

	// Pole, with θ = 0 pointing straight up
	axleY := trackY - cartHeight/4
	tipX := cartX + poleLength*math.Sin(th)
	tipY := axleY - poleLength*math.Cos(th)
	dc.SetRGB(0.8, 0.6, 0.4)
	dc.SetLineWidth(poleWidth)
	dc.DrawLine(cartX, axleY, tipX, tipY)
	dc.Stroke()

	// Axle
	dc.SetRGB(0.5, 0.5, 0.8)
	dc.DrawCircle(cartX, axleY, poleWidth/2)
	dc.Fill()

	filename := filepath.Join(c.renderDir, fmt.Sprintf("frame%06d.png",
		c.frames))
	c.frames++
	if err := dc.SavePNG(filename); err != nil {
		return fmt.Errorf("render: could not save frame: %v", err)
	}
	return nil
}
