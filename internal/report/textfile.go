package report

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Plant-Net/Metabolomic-project/internal/evaluation"
)

// runMetrics is a private registry, so a batch run exports only its own series.
type runMetrics struct {
	registry     *prometheus.Registry
	metricMean   *prometheus.GaugeVec
	metricStd    *prometheus.GaugeVec
	ciLower      *prometheus.GaugeVec
	ciUpper      *prometheus.GaugeVec
	foldsTotal   prometheus.Gauge
	runDuration  prometheus.Gauge
	foldDuration prometheus.Histogram
}

func newRunMetrics(constLabels prometheus.Labels) *runMetrics {
	gauge := func(name, help string) *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   "omicscv",
			Name:        name,
			Help:        help,
			ConstLabels: constLabels,
		}, []string{"metric"})
	}

	m := &runMetrics{
		registry:   prometheus.NewRegistry(),
		metricMean: gauge("metric_mean", "Mean of the metric across folds"),
		metricStd:  gauge("metric_std", "Population standard deviation of the metric across folds"),
		ciLower:    gauge("metric_ci_lower", "Lower bound of the empirical confidence interval"),
		ciUpper:    gauge("metric_ci_upper", "Upper bound of the empirical confidence interval"),
		foldsTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "omicscv",
			Name:        "folds_total",
			Help:        "Number of evaluated folds",
			ConstLabels: constLabels,
		}),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "omicscv",
			Name:        "run_duration_seconds",
			Help:        "Wall-clock duration of the cross-validation run",
			ConstLabels: constLabels,
		}),
		foldDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "omicscv",
			Name:        "fold_duration_seconds",
			Help:        "Fit, predict and score time per fold",
			ConstLabels: constLabels,
			Buckets:     prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
		}),
	}

	m.registry.MustRegister(
		m.metricMean, m.metricStd, m.ciLower, m.ciUpper,
		m.foldsTotal, m.runDuration, m.foldDuration,
	)
	return m
}

// WriteTextfile exports the run in the Prometheus text format, for the
// node_exporter textfile collector. Labels tag every series.
func WriteTextfile(path string, labels map[string]string, table *evaluation.MetricsTable, summary *Summary, runDuration time.Duration) error {
	m := newRunMetrics(prometheus.Labels(labels))

	for _, s := range summary.Metrics {
		m.metricMean.WithLabelValues(s.Name).Set(s.Mean)
		m.metricStd.WithLabelValues(s.Name).Set(s.Std)
		m.ciLower.WithLabelValues(s.Name).Set(s.Lower)
		m.ciUpper.WithLabelValues(s.Name).Set(s.Upper)
	}
	for _, row := range table.Rows {
		m.foldDuration.Observe(row.Duration.Seconds())
	}
	m.foldsTotal.Set(float64(table.Len()))
	m.runDuration.Set(runDuration.Seconds())

	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile %s: %w", path, err)
	}
	return nil
}
