package visualizer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// chartVisualizer records the series and writes them as HTML line
// charts when closed
type chartVisualizer struct {
	series
	path string
}

// NewChart returns a Visualizer which renders the loss and reward
// series to an HTML page at path on Close
func NewChart(path string) Visualizer {
	return &chartVisualizer{path: path}
}

// Close renders the charts
func (c *chartVisualizer) Close() error {
	if dir := filepath.Dir(c.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("close: %w", err)
		}
	}

	f, err := os.Create(c.path)
	if err != nil {
		return fmt.Errorf("close: %w", err)
	}
	defer f.Close()

	losses, rewards := c.snapshot()
	if err := renderPage(f, losses, rewards); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}

// renderPage renders a page with one line chart of the loss series and
// one line chart per reward component
func renderPage(w io.Writer, losses []float64, rewards [][]float64) error {
	page := components.NewPage()
	page.AddCharts(
		lineChart("Loss", "train step", []string{"loss"},
			[][]float64{losses}),
		lineChart("Average reward", "evaluation", rewardNames(rewards),
			transpose(rewards)),
	)
	return page.Render(w)
}

func lineChart(title, xName string, names []string,
	values [][]float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: title,
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: xName,
		}),
	)

	var steps int
	for _, v := range values {
		if len(v) > steps {
			steps = len(v)
		}
	}
	x := make([]string, steps)
	for i := range x {
		x[i] = fmt.Sprintf("%d", i)
	}
	line.SetXAxis(x)

	for i, v := range values {
		items := make([]opts.LineData, 0, len(v))
		for _, value := range v {
			items = append(items, opts.LineData{Value: value})
		}
		line.AddSeries(names[i], items)
	}
	return line
}

// transpose turns a series of reward vectors into one series per
// vector component
func transpose(rewards [][]float64) [][]float64 {
	var width int
	for _, r := range rewards {
		if len(r) > width {
			width = len(r)
		}
	}

	out := make([][]float64, width)
	for _, r := range rewards {
		for j := 0; j < width; j++ {
			if j < len(r) {
				out[j] = append(out[j], r[j])
			}
		}
	}
	return out
}

func rewardNames(rewards [][]float64) []string {
	names := make([]string, len(transpose(rewards)))
	for i := range names {
		if len(names) == 1 {
			names[i] = "reward"
		} else {
			names[i] = fmt.Sprintf("reward %d", i)
		}
	}
	return names
}
