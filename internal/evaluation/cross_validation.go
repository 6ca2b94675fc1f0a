package evaluation

import (
	"fmt"
	"log/slog"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/Plant-Net/Metabolomic-project/internal/config"
	"github.com/Plant-Net/Metabolomic-project/internal/data"
	"github.com/Plant-Net/Metabolomic-project/internal/models"
)

type FoldResult struct {
	Name     string
	Repeat   int
	Split    int
	TestSize int
	Duration time.Duration
	BinaryMetrics

	// Importance is the per-feature score of the fold's model, nil when the
	// classifier does not rank features.
	Importance []float64
}

// MetricsTable holds one FoldResult per fold, in fold order.
type MetricsTable struct {
	Rows []FoldResult
}

func NewMetricsTable(capacity int) *MetricsTable {
	return &MetricsTable{Rows: make([]FoldResult, 0, capacity)}
}

func (t *MetricsTable) Append(r FoldResult) {
	t.Rows = append(t.Rows, r)
}

func (t *MetricsTable) Len() int {
	return len(t.Rows)
}

// Column returns the values of metric i (an index into MetricNames) across folds.
func (t *MetricsTable) Column(i int) []float64 {
	col := make([]float64, len(t.Rows))
	for r, row := range t.Rows {
		col[r] = row.Values()[i]
	}
	return col
}

// MeanImportance averages feature importance over the folds that report it.
// It returns nil when no fold does.
func (t *MetricsTable) MeanImportance() []float64 {
	var mean []float64
	var n int
	for _, row := range t.Rows {
		if row.Importance == nil {
			continue
		}
		if mean == nil {
			mean = make([]float64, len(row.Importance))
		}
		floats.Add(mean, row.Importance)
		n++
	}
	if n > 0 {
		floats.Scale(1/float64(n), mean)
	}
	return mean
}

type CrossValidator struct {
	Splitter *RepeatedStratifiedKFold
	Analysis models.Analysis
	Config   config.ModelConfig
	Logger   *slog.Logger
}

func NewCrossValidator(splits, repeats int, analysis models.Analysis, cfg config.ModelConfig, logger *slog.Logger) *CrossValidator {
	if logger == nil {
		logger = slog.Default()
	}

	splitter := NewRepeatedStratifiedKFold(splits, repeats, cfg.CrossValidation.Seed)
	splitter.Logger = logger

	return &CrossValidator{
		Splitter: splitter,
		Analysis: analysis,
		Config:   cfg,
		Logger:   logger,
	}
}

// Run evaluates a fresh classifier on every fold, sequentially, and stops at
// the first failing fold.
func (cv *CrossValidator) Run(ds *data.Dataset) (*MetricsTable, error) {
	folds, err := cv.Splitter.Split(ds.Y)
	if err != nil {
		return nil, err
	}

	table := NewMetricsTable(len(folds))
	for i, fold := range folds {
		result, err := cv.evaluateFold(ds, fold)
		if err != nil {
			return nil, fmt.Errorf("fold %d failed: %w", i+1, err)
		}
		result.Name = fmt.Sprintf("fold%d", i+1)
		table.Append(result)

		cv.Logger.Info("fold evaluated",
			"fold", result.Name,
			"analysis", cv.Analysis.String(),
			"repeat", fold.Repeat+1,
			"split", fold.Split+1,
			"confusion_matrix", result.ConfusionMatrix.String(),
			"accuracy", result.Accuracy,
			"roc_auc", result.ROCAUC,
			"duration", result.Duration,
		)
	}

	return table, nil
}

func (cv *CrossValidator) evaluateFold(ds *data.Dataset, fold Fold) (FoldResult, error) {
	start := time.Now()

	XTrain, yTrain := ds.Rows(fold.Train)
	XTest, yTest := ds.Rows(fold.Test)

	model := models.CreateModel(cv.Analysis, cv.Config, cv.Logger)
	yPred, scores, err := models.FitPredict(model, XTrain, yTrain, XTest)
	if err != nil {
		return FoldResult{}, err
	}

	metrics, err := CalculateMetrics(yTest, yPred, scores)
	if err != nil {
		return FoldResult{}, err
	}

	result := FoldResult{
		Repeat:        fold.Repeat,
		Split:         fold.Split,
		TestSize:      len(fold.Test),
		BinaryMetrics: metrics,
	}
	if ranker, ok := model.(models.ImportanceRanker); ok {
		result.Importance = ranker.FeatureImportance()
	}
	result.Duration = time.Since(start)
	return result, nil
}
