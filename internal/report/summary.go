package report

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/Plant-Net/Metabolomic-project/internal/evaluation"
)

// MetricSummary aggregates one metric column across folds.
type MetricSummary struct {
	Name  string
	Mean  float64
	Std   float64
	Lower float64
	Upper float64
}

// MeanSD renders mean and population standard deviation as percentages.
func (s MetricSummary) MeanSD() string {
	return fmt.Sprintf("%.1f (±%.1f)", s.Mean*100, s.Std*100)
}

// Interval renders the empirical confidence interval.
func (s MetricSummary) Interval() string {
	return fmt.Sprintf("[%.3f ; %.3f]", s.Lower, s.Upper)
}

type Summary struct {
	Metrics         []MetricSummary
	LowerPercentile float64
	UpperPercentile float64
}

// Summarize computes mean, population standard deviation and the
// [lower, upper] percentiles of every metric column.
func Summarize(table *evaluation.MetricsTable, lower, upper float64) (*Summary, error) {
	if table == nil || table.Len() == 0 {
		return nil, fmt.Errorf("metrics table is empty")
	}

	summary := &Summary{
		Metrics:         make([]MetricSummary, len(evaluation.MetricNames)),
		LowerPercentile: lower,
		UpperPercentile: upper,
	}

	for i, name := range evaluation.MetricNames {
		col := table.Column(i)
		mean, variance := stat.PopMeanVariance(col, nil)

		lo, err := Percentile(col, lower)
		if err != nil {
			return nil, err
		}
		hi, err := Percentile(col, upper)
		if err != nil {
			return nil, err
		}

		summary.Metrics[i] = MetricSummary{
			Name:  name,
			Mean:  mean,
			Std:   math.Sqrt(variance),
			Lower: lo,
			Upper: hi,
		}
	}

	return summary, nil
}

// Percentile returns the q-th percentile (0..100) of values, interpolating
// linearly between the two closest ranks.
func Percentile(values []float64, q float64) (float64, error) {
	if len(values) == 0 {
		return 0, fmt.Errorf("percentile of empty slice")
	}
	if q < 0 || q > 100 || math.IsNaN(q) {
		return 0, fmt.Errorf("percentile must be within [0, 100], got %v", q)
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	pos := q / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)

	return sorted[lo] + (sorted[hi]-sorted[lo])*frac, nil
}
