package report

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Plant-Net/Metabolomic-project/internal/evaluation"
)

const (
	MetricsTableSuffix    = "metrics_table.csv"
	StatisticsTableSuffix = "statistics_table.csv"
	SummaryFileSuffix     = "summary_file.txt"
	BoxPlotSuffix         = "metrics_boxplot.png"
	ImportanceSuffix      = "feature_importance.csv"
)

// RunInfo describes the analysed dataset and classifier for the narrative summary.
type RunInfo struct {
	TissueType    string
	OmicsType     string
	NumSamples    int
	NumFeatures   int
	ExecutionTime time.Duration
	Params        map[string]any
	Features      []string
}

var meanLabels = map[string]string{
	"accuracy":          "accuracy",
	"balanced_accuracy": "balanced accuracy",
	"precision":         "precision",
	"recall":            "recall",
	"f1score":           "F1 score",
	"roc_auc":           "ROC AUC",
	"specificity":       "specificity",
}

var intervalLabels = map[string]string{
	"accuracy":          "accuracy",
	"balanced_accuracy": "balanced accuracy",
	"precision":         "precision",
	"recall":            "recall",
	"f1score":           "F1 score",
	"roc_auc":           "ROC AUC score",
	"specificity":       "specificity score",
}

// createFile runs write against a new file at path and reports the first
// error among write and close.
func createFile(path string, write func(f *os.File) error) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()

	if err := write(file); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func WriteMetricsTable(path string, table *evaluation.MetricsTable) error {
	return createFile(path, func(f *os.File) error {
		writer := csv.NewWriter(f)

		header := append([]string{""}, evaluation.MetricNames...)
		if err := writer.Write(header); err != nil {
			return err
		}

		for _, row := range table.Rows {
			record := make([]string, 0, len(header))
			record = append(record, row.Name)
			for _, v := range row.Values() {
				record = append(record, FormatValue(v))
			}
			if err := writer.Write(record); err != nil {
				return err
			}
		}

		writer.Flush()
		return writer.Error()
	})
}

func WriteStatisticsTable(path string, summary *Summary) error {
	return createFile(path, func(f *os.File) error {
		writer := csv.NewWriter(f)

		header := []string{""}
		meanRow := []string{"mean_sd"}
		ciRow := []string{"confidence_interval"}
		for _, m := range summary.Metrics {
			header = append(header, m.Name)
			meanRow = append(meanRow, m.MeanSD())
			ciRow = append(ciRow, m.Interval())
		}

		if err := writer.WriteAll([][]string{header, meanRow, ciRow}); err != nil {
			return err
		}
		return writer.Error()
	})
}

func WriteSummaryFile(path string, info RunInfo, summary *Summary) error {
	return createFile(path, func(f *os.File) error {
		w := bufio.NewWriter(f)

		// Trailing spaces match the historical summary files byte for byte.
		fmt.Fprint(w, "1- Information about the analysis \n")
		fmt.Fprintf(w, "Cancer type: %s\n", info.TissueType)
		fmt.Fprintf(w, "Omic analyzed: %s\n", info.OmicsType)
		fmt.Fprintf(w, "Number of samples: %d\n", info.NumSamples)
		fmt.Fprintf(w, "Number of features: %d\n", info.NumFeatures)
		fmt.Fprintf(w, "Execution time: %s \n", info.ExecutionTime)
		if len(info.Params) > 0 {
			fmt.Fprintf(w, "Hyperparameters: %s\n", FormatParams(info.Params))
		}

		fmt.Fprint(w, "\n2- Mean and Standard deviation: \n")
		for _, m := range summary.Metrics {
			fmt.Fprintf(w, "The mean %s is: %s \n", labelFor(meanLabels, m.Name), m.MeanSD())
		}

		fmt.Fprint(w, "\n3- Confidence interval: \n")
		for _, m := range summary.Metrics {
			fmt.Fprintf(w, "The confidence interval for %s is %s\n", labelFor(intervalLabels, m.Name), m.Interval())
		}

		return w.Flush()
	})
}

// WriteFeatureImportance writes one row per feature, highest score first.
// Ties keep the column order of the input table.
func WriteFeatureImportance(path string, features []string, importance []float64) error {
	if len(features) != len(importance) {
		return fmt.Errorf("%d feature names for %d importance values", len(features), len(importance))
	}

	order := make([]int, len(importance))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return importance[order[a]] > importance[order[b]]
	})

	return createFile(path, func(f *os.File) error {
		writer := csv.NewWriter(f)
		if err := writer.Write([]string{"feature", "gain"}); err != nil {
			return err
		}
		for _, j := range order {
			if err := writer.Write([]string{features[j], FormatValue(importance[j])}); err != nil {
				return err
			}
		}
		writer.Flush()
		return writer.Error()
	})
}

// FormatParams renders hyperparameters as "key=value" pairs sorted by key.
func FormatParams(params map[string]any) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = fmt.Sprintf("%s=%v", k, params[k])
	}
	return strings.Join(pairs, ", ")
}

// FormatValue prints v with the shortest exact representation, keeping a
// trailing ".0" on integral values.
func FormatValue(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".NI") {
		s += ".0"
	}
	return s
}

func labelFor(labels map[string]string, name string) string {
	if label, ok := labels[name]; ok {
		return label
	}
	return strings.ReplaceAll(name, "_", " ")
}
