package evaluation

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

var ErrDegenerateFold = errors.New("test labels contain a single class")

// MetricNames is the column order of the metrics and statistics tables.
var MetricNames = []string{
	"accuracy",
	"balanced_accuracy",
	"precision",
	"recall",
	"f1score",
	"roc_auc",
	"specificity",
}

// ConfusionMatrix of a binary problem; row 0 is the negative class.
type ConfusionMatrix struct {
	TN int `json:"tn"`
	FP int `json:"fp"`
	FN int `json:"fn"`
	TP int `json:"tp"`
}

func (cm ConfusionMatrix) Total() int {
	return cm.TN + cm.FP + cm.FN + cm.TP
}

func (cm ConfusionMatrix) String() string {
	return fmt.Sprintf("[[%d %d] [%d %d]]", cm.TN, cm.FP, cm.FN, cm.TP)
}

type BinaryMetrics struct {
	ConfusionMatrix
	Accuracy         float64 `json:"accuracy"`
	BalancedAccuracy float64 `json:"balanced_accuracy"`
	Precision        float64 `json:"precision"`
	Recall           float64 `json:"recall"`
	F1Score          float64 `json:"f1score"`
	ROCAUC           float64 `json:"roc_auc"`
	Specificity      float64 `json:"specificity"`
}

// Values returns the metrics in MetricNames order.
func (m BinaryMetrics) Values() []float64 {
	return []float64{
		m.Accuracy,
		m.BalancedAccuracy,
		m.Precision,
		m.Recall,
		m.F1Score,
		m.ROCAUC,
		m.Specificity,
	}
}

func BuildConfusionMatrix(yTrue, yPred []int) (ConfusionMatrix, error) {
	var cm ConfusionMatrix
	if len(yTrue) != len(yPred) {
		return cm, fmt.Errorf("y_true and y_pred have different lengths: %d vs %d", len(yTrue), len(yPred))
	}

	for i := range yTrue {
		switch {
		case yTrue[i] == 0 && yPred[i] == 0:
			cm.TN++
		case yTrue[i] == 0 && yPred[i] == 1:
			cm.FP++
		case yTrue[i] == 1 && yPred[i] == 0:
			cm.FN++
		case yTrue[i] == 1 && yPred[i] == 1:
			cm.TP++
		default:
			return cm, fmt.Errorf("sample %d: labels must be 0 or 1, got true=%d pred=%d", i, yTrue[i], yPred[i])
		}
	}

	return cm, nil
}

// CalculateMetrics scores one fold. Threshold metrics use yPred, ROC AUC
// uses the continuous scores.
func CalculateMetrics(yTrue, yPred []int, scores []float64) (BinaryMetrics, error) {
	var m BinaryMetrics

	if len(scores) != len(yTrue) {
		return m, fmt.Errorf("y_true and scores have different lengths: %d vs %d", len(yTrue), len(scores))
	}

	cm, err := BuildConfusionMatrix(yTrue, yPred)
	if err != nil {
		return m, err
	}
	if cm.TN+cm.FP == 0 || cm.TP+cm.FN == 0 {
		return m, fmt.Errorf("%w: %s", ErrDegenerateFold, cm)
	}

	tn, fp, fn, tp := float64(cm.TN), float64(cm.FP), float64(cm.FN), float64(cm.TP)

	m.ConfusionMatrix = cm
	m.Accuracy = (tp + tn) / float64(cm.Total())
	m.Recall = tp / (tp + fn)
	m.Specificity = tn / (tn + fp)
	m.BalancedAccuracy = (m.Recall + m.Specificity) / 2
	m.Precision = safeDivide(tp, tp+fp)
	m.F1Score = safeDivide(2*tp, 2*tp+fp+fn)

	m.ROCAUC, err = ROCAUC(yTrue, scores)
	if err != nil {
		return m, err
	}

	return m, nil
}

// ROCAUC is the area under the ROC curve of scores against yTrue, with
// tied scores treated as a single threshold.
func ROCAUC(yTrue []int, scores []float64) (float64, error) {
	if len(yTrue) != len(scores) {
		return 0, fmt.Errorf("y_true and scores have different lengths: %d vs %d", len(yTrue), len(scores))
	}

	sorted := make([]float64, len(scores))
	copy(sorted, scores)
	for _, s := range sorted {
		if math.IsNaN(s) {
			return 0, fmt.Errorf("scores contain NaN")
		}
	}

	inds := make([]int, len(sorted))
	floats.Argsort(sorted, inds)

	classes := make([]bool, len(sorted))
	var positives int
	for i, idx := range inds {
		classes[i] = yTrue[idx] == 1
		if classes[i] {
			positives++
		}
	}
	if positives == 0 || positives == len(classes) {
		return 0, fmt.Errorf("%w: ROC AUC is undefined", ErrDegenerateFold)
	}

	tpr, fpr, _ := stat.ROC(nil, sorted, classes, nil)
	return integrate.Trapezoidal(fpr, tpr), nil
}

func safeDivide(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0.0
	}
	result := numerator / denominator
	if math.IsNaN(result) || math.IsInf(result, 0) {
		return 0.0
	}
	return result
}
