package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Plant-Net/Metabolomic-project/internal/config"
	"github.com/Plant-Net/Metabolomic-project/internal/evaluation"
)

// metricOffset gives every metric its own value so a column written under
// the wrong header is detected.
var metricOffset = map[string]float64{
	"accuracy":          0,
	"balanced_accuracy": 0.01,
	"precision":         0.02,
	"recall":            0.03,
	"f1score":           0.04,
	"roc_auc":           0.05,
	"specificity":       0.06,
}

// metricsTable builds one fold per value; metric m of that fold is
// value + metricOffset[m].
func metricsTable(values ...float64) *evaluation.MetricsTable {
	table := evaluation.NewMetricsTable(len(values))
	for i, v := range values {
		table.Append(evaluation.FoldResult{
			Name:     "fold" + strconv.Itoa(i+1),
			TestSize: 4,
			Duration: time.Duration(i+1) * time.Millisecond,
			BinaryMetrics: evaluation.BinaryMetrics{
				ConfusionMatrix:  evaluation.ConfusionMatrix{TN: 1, FP: 1, FN: 1, TP: 1},
				Accuracy:         v + metricOffset["accuracy"],
				BalancedAccuracy: v + metricOffset["balanced_accuracy"],
				Precision:        v + metricOffset["precision"],
				Recall:           v + metricOffset["recall"],
				F1Score:          v + metricOffset["f1score"],
				ROCAUC:           v + metricOffset["roc_auc"],
				Specificity:      v + metricOffset["specificity"],
			},
		})
	}
	return table
}

// For metricsTable(0.2, 0.6, 0.6, 1.0) every metric has mean 0.6+offset,
// population std sqrt(0.08) and CI [0.23+offset, 0.97+offset].
func wantMeanSD(name string) string {
	return fmt.Sprintf("%.1f (±28.3)", 60+100*metricOffset[name])
}

func wantInterval(name string) string {
	return fmt.Sprintf("[%.3f ; %.3f]", 0.23+metricOffset[name], 0.97+metricOffset[name])
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	return records
}

// =============================================================================
// Aggregation
// =============================================================================

func TestPercentile(t *testing.T) {
	values := []float64{4, 1, 3, 2}

	tests := []struct {
		q    float64
		want float64
	}{
		{0, 1},
		{2.5, 1.075},
		{50, 2.5},
		{97.5, 3.925},
		{100, 4},
	}

	for _, tt := range tests {
		got, err := Percentile(values, tt.q)
		require.NoError(t, err)
		assert.InDelta(t, tt.want, got, 1e-12, "q=%v", tt.q)
	}

	// input order is preserved
	assert.Equal(t, []float64{4, 1, 3, 2}, values)

	single, err := Percentile([]float64{0.7}, 97.5)
	require.NoError(t, err)
	assert.Equal(t, 0.7, single)
}

func TestPercentileErrors(t *testing.T) {
	_, err := Percentile(nil, 50)
	assert.Error(t, err)

	_, err = Percentile([]float64{1}, 101)
	assert.Error(t, err)

	_, err = Percentile([]float64{1}, -1)
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	summary, err := Summarize(metricsTable(0.2, 0.6, 0.6, 1.0), 2.5, 97.5)
	require.NoError(t, err)
	require.Len(t, summary.Metrics, len(evaluation.MetricNames))

	for i, m := range summary.Metrics {
		off := metricOffset[m.Name]
		assert.Equal(t, evaluation.MetricNames[i], m.Name)
		assert.InDelta(t, 0.6+off, m.Mean, 1e-12, m.Name)
		assert.InDelta(t, 0.282842712474619, m.Std, 1e-12, m.Name)
		assert.InDelta(t, 0.23+off, m.Lower, 1e-12, m.Name)
		assert.InDelta(t, 0.97+off, m.Upper, 1e-12, m.Name)
		assert.Equal(t, wantMeanSD(m.Name), m.MeanSD())
		assert.Equal(t, wantInterval(m.Name), m.Interval())
	}

	assert.Equal(t, "62.0 (±28.3)", summary.Metrics[2].MeanSD())
	assert.Equal(t, "[0.290 ; 1.030]", summary.Metrics[6].Interval())
}

func TestSummarizeConstantColumn(t *testing.T) {
	summary, err := Summarize(metricsTable(1, 1, 1), 2.5, 97.5)
	require.NoError(t, err)

	acc := summary.Metrics[0]
	assert.Equal(t, 0.0, acc.Std)
	assert.Equal(t, "100.0 (±0.0)", acc.MeanSD())
	assert.Equal(t, "[1.000 ; 1.000]", acc.Interval())
}

func TestSummarizeEmpty(t *testing.T) {
	_, err := Summarize(evaluation.NewMetricsTable(0), 2.5, 97.5)
	assert.Error(t, err)

	_, err = Summarize(nil, 2.5, 97.5)
	assert.Error(t, err)
}

// =============================================================================
// Writers
// =============================================================================

func TestFormatValue(t *testing.T) {
	tests := map[float64]string{
		1:      "1.0",
		0:      "0.0",
		0.8:    "0.8",
		0.9375: "0.9375",
	}
	for v, want := range tests {
		assert.Equal(t, want, FormatValue(v))
	}
}

func TestFormatParams(t *testing.T) {
	got := FormatParams(map[string]any{"tol": 0.0001, "solver": "svd", "n_components": 2})
	assert.Equal(t, "n_components=2, solver=svd, tol=0.0001", got)
	assert.Equal(t, "", FormatParams(nil))
}

func TestWriteMetricsTable(t *testing.T) {
	values := []float64{0.2, 0.5, 0.6, 0.7, 0.8, 0.9, 0.3, 0.4, 0.6, 0.7, 0.8}
	path := filepath.Join(t.TempDir(), "metrics.csv")
	require.NoError(t, WriteMetricsTable(path, metricsTable(values...)))

	lines := readLines(t, path)
	require.Len(t, lines, len(values)+1)
	assert.Equal(t, ",accuracy,balanced_accuracy,precision,recall,f1score,roc_auc,specificity", lines[0])

	records := readCSV(t, path)
	header := records[0]
	for i, record := range records[1:] {
		assert.Equal(t, "fold"+strconv.Itoa(i+1), record[0])
		for j := 1; j < len(header); j++ {
			got, err := strconv.ParseFloat(record[j], 64)
			require.NoError(t, err)
			assert.InDelta(t, values[i]+metricOffset[header[j]], got, 1e-12, "%s %s", record[0], header[j])
		}
	}
	assert.Equal(t, "fold10", records[10][0])
	assert.Equal(t, "fold11", records[11][0])
}

func TestWriteStatisticsTable(t *testing.T) {
	summary, err := Summarize(metricsTable(0.2, 0.6, 0.6, 1.0), 2.5, 97.5)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "stats.csv")
	require.NoError(t, WriteStatisticsTable(path, summary))

	records := readCSV(t, path)
	require.Len(t, records, 3)

	header := records[0]
	assert.Equal(t, append([]string{""}, evaluation.MetricNames...), header)
	assert.Equal(t, "mean_sd", records[1][0])
	assert.Equal(t, "confidence_interval", records[2][0])
	for j := 1; j < len(header); j++ {
		assert.Equal(t, wantMeanSD(header[j]), records[1][j], header[j])
		assert.Equal(t, wantInterval(header[j]), records[2][j], header[j])
	}
}

func TestWriteSummaryFile(t *testing.T) {
	summary, err := Summarize(metricsTable(0.2, 0.6, 0.6, 1.0), 2.5, 97.5)
	require.NoError(t, err)

	info := RunInfo{
		TissueType:    "BRCA",
		OmicsType:     "proteomics",
		NumSamples:    120,
		NumFeatures:   35,
		ExecutionTime: 1500 * time.Millisecond,
		Params:        map[string]any{"solver": "svd", "tol": 0.0001},
	}

	path := filepath.Join(t.TempDir(), "summary.txt")
	require.NoError(t, WriteSummaryFile(path, info, summary))

	lines := readLines(t, path)
	require.Len(t, lines, 25)

	assert.Equal(t, "1- Information about the analysis ", lines[0])
	assert.Equal(t, "Cancer type: BRCA", lines[1])
	assert.Equal(t, "Omic analyzed: proteomics", lines[2])
	assert.Equal(t, "Number of samples: 120", lines[3])
	assert.Equal(t, "Number of features: 35", lines[4])
	assert.Equal(t, "Execution time: 1.5s ", lines[5])
	assert.Equal(t, "Hyperparameters: solver=svd, tol=0.0001", lines[6])
	assert.Equal(t, "", lines[7])
	assert.Equal(t, "2- Mean and Standard deviation: ", lines[8])
	assert.Equal(t, "The mean accuracy is: 60.0 (±28.3) ", lines[9])
	assert.Equal(t, "The mean precision is: 62.0 (±28.3) ", lines[11])
	assert.Equal(t, "The mean F1 score is: 64.0 (±28.3) ", lines[13])
	assert.Equal(t, "The mean specificity is: 66.0 (±28.3) ", lines[15])
	assert.Equal(t, "", lines[16])
	assert.Equal(t, "3- Confidence interval: ", lines[17])
	assert.Equal(t, "The confidence interval for balanced accuracy is [0.240 ; 0.980]", lines[19])
	assert.Equal(t, "The confidence interval for recall is [0.260 ; 1.000]", lines[21])
	assert.Equal(t, "The confidence interval for specificity score is [0.290 ; 1.030]", lines[24])
}

func TestWriteSummaryFileWithoutParams(t *testing.T) {
	summary, err := Summarize(metricsTable(0.5, 0.7), 2.5, 97.5)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "summary.txt")
	require.NoError(t, WriteSummaryFile(path, RunInfo{}, summary))

	lines := readLines(t, path)
	require.Len(t, lines, 24)
	assert.Equal(t, "", lines[6])
}

func TestWriteFeatureImportance(t *testing.T) {
	path := filepath.Join(t.TempDir(), "importance.csv")
	require.NoError(t, WriteFeatureImportance(path, []string{"geneA", "geneB", "geneC"}, []float64{1, 3.5, 1}))

	assert.Equal(t, [][]string{
		{"feature", "gain"},
		{"geneB", "3.5"},
		{"geneA", "1.0"},
		{"geneC", "1.0"},
	}, readCSV(t, path))

	err := WriteFeatureImportance(path, []string{"geneA"}, []float64{1, 2})
	assert.ErrorContains(t, err, "1 feature names for 2 importance values")
}

func TestWriteFailsOnMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "metrics.csv")
	err := WriteMetricsTable(path, metricsTable(0.5))
	assert.ErrorContains(t, err, "failed to create")
}

// =============================================================================
// Plot and metrics textfile
// =============================================================================

func TestPlotMetrics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "box.png")
	require.NoError(t, PlotMetrics(path, "test", metricsTable(0.2, 0.6, 0.6, 0.9)))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	assert.Error(t, PlotMetrics(path, "empty", evaluation.NewMetricsTable(0)))
}

func TestWriteTextfile(t *testing.T) {
	table := metricsTable(0.2, 0.6, 0.6, 1.0)
	summary, err := Summarize(table, 2.5, 97.5)
	require.NoError(t, err)

	labels := map[string]string{"tissue": "brca", "omics": "rna", "analysis": "LDA"}
	path := filepath.Join(t.TempDir(), "omicscv.prom")
	require.NoError(t, WriteTextfile(path, labels, table, summary, 3*time.Second))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(raw)

	assert.Contains(t, out, "# TYPE omicscv_metric_mean gauge")
	assert.Contains(t, out, `omicscv_metric_mean{analysis="LDA",metric="accuracy",omics="rna",tissue="brca"} 0.6`)
	assert.Contains(t, out, `omicscv_metric_ci_upper{analysis="LDA",metric="specificity",omics="rna",tissue="brca"} 1.03`)
	assert.Contains(t, out, `omicscv_folds_total{analysis="LDA",omics="rna",tissue="brca"} 4`)
	assert.Contains(t, out, `omicscv_run_duration_seconds{analysis="LDA",omics="rna",tissue="brca"} 3`)
	assert.Contains(t, out, "# TYPE omicscv_fold_duration_seconds histogram")
	assert.Contains(t, out, `omicscv_fold_duration_seconds_count{analysis="LDA",omics="rna",tissue="brca"} 4`)
}

// =============================================================================
// Reporter
// =============================================================================

func TestReporterWriteAll(t *testing.T) {
	dir := t.TempDir()
	opts := config.Options{
		OutputDir:         filepath.Join(dir, "results"),
		AnalysisName:      "XGBoost",
		TissueType:        "LUAD",
		OmicsType:         "metabolomics",
		Plot:              true,
		FeatureImportance: true,
		MetricsTextfile:   filepath.Join(dir, "run.prom"),
	}
	table := metricsTable(0.2, 0.6, 0.6, 0.9)
	for i := range table.Rows {
		table.Rows[i].Importance = []float64{float64(i), 1}
	}
	summary, err := Summarize(table, 2.5, 97.5)
	require.NoError(t, err)

	info := RunInfo{TissueType: "LUAD", OmicsType: "metabolomics", Features: []string{"m1", "m2"}}
	reporter := NewReporter(opts, slog.New(slog.NewTextHandler(io.Discard, nil)))
	written, err := reporter.WriteAll(info, table, summary)
	require.NoError(t, err)

	want := []string{
		filepath.Join(dir, "results", "LUAD_metabolomics_XGBoost_metrics_table.csv"),
		filepath.Join(dir, "results", "LUAD_metabolomics_XGBoost_statistics_table.csv"),
		filepath.Join(dir, "results", "LUAD_metabolomics_XGBoost_summary_file.txt"),
		filepath.Join(dir, "results", "LUAD_metabolomics_XGBoost_metrics_boxplot.png"),
		filepath.Join(dir, "results", "LUAD_metabolomics_XGBoost_feature_importance.csv"),
		filepath.Join(dir, "run.prom"),
	}
	assert.Equal(t, want, written)
	for _, p := range want {
		assert.FileExists(t, p)
	}

	// mean importance is m1=1.5, m2=1
	assert.Equal(t, [][]string{{"feature", "gain"}, {"m1", "1.5"}, {"m2", "1.0"}}, readCSV(t, want[4]))
}

func TestReporterSkipsImportanceWhenNotRanked(t *testing.T) {
	opts := config.Options{
		OutputDir:         t.TempDir(),
		AnalysisName:      "LDA",
		TissueType:        "COAD",
		OmicsType:         "rna",
		FeatureImportance: true,
	}
	table := metricsTable(0.5, 0.7)
	summary, err := Summarize(table, 2.5, 97.5)
	require.NoError(t, err)

	var logs strings.Builder
	reporter := NewReporter(opts, slog.New(slog.NewTextHandler(&logs, nil)))
	written, err := reporter.WriteAll(RunInfo{}, table, summary)
	require.NoError(t, err)

	assert.Len(t, written, 3)
	assert.NoFileExists(t, opts.ArtifactPath(ImportanceSuffix))
	assert.NoFileExists(t, opts.ArtifactPath(BoxPlotSuffix))
	assert.Contains(t, logs.String(), "skipping feature importance")
}
