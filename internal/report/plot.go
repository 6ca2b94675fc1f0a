package report

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	_ "gonum.org/v1/plot/vg/vgimg"

	"github.com/Plant-Net/Metabolomic-project/internal/evaluation"
)

// PlotMetrics saves one box per metric, built from the fold values.
// The image format follows the extension of path.
func PlotMetrics(path, title string, table *evaluation.MetricsTable) error {
	if table == nil || table.Len() == 0 {
		return fmt.Errorf("metrics table is empty")
	}

	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = "score"
	p.Y.Min = 0
	p.Y.Max = 1.05

	for i := range evaluation.MetricNames {
		box, err := plotter.NewBoxPlot(vg.Points(20), float64(i), plotter.Values(table.Column(i)))
		if err != nil {
			return fmt.Errorf("failed to build box for %s: %w", evaluation.MetricNames[i], err)
		}
		p.Add(box)
	}
	p.NominalX(evaluation.MetricNames...)
	p.Add(plotter.NewGrid())

	if err := p.Save(10*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save plot %s: %w", path, err)
	}
	return nil
}
