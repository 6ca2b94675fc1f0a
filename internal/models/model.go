package models

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var ErrNotFitted = errors.New("model is not fitted")

// Classifier is a binary classifier over labels {0,1}. Predict returns the
// hard labels and a positive-class score for each row of X.
type Classifier interface {
	Fit(X *mat.Dense, y []int) error
	Predict(X *mat.Dense) ([]int, []float64, error)
	Name() string
	Params() map[string]any
}

// ImportanceRanker is implemented by classifiers that score each input
// feature after Fit.
type ImportanceRanker interface {
	FeatureImportance() []float64
}

type BaseModel struct {
	name   string
	params map[string]any
}

func (bm *BaseModel) Name() string {
	return bm.name
}

func (bm *BaseModel) Params() map[string]any {
	return bm.params
}

// FitPredict fits c on the training rows and scores the test rows.
func FitPredict(c Classifier, XTrain *mat.Dense, yTrain []int, XTest *mat.Dense) ([]int, []float64, error) {
	if err := c.Fit(XTrain, yTrain); err != nil {
		return nil, nil, fmt.Errorf("fit %s: %w", c.Name(), err)
	}
	labels, scores, err := c.Predict(XTest)
	if err != nil {
		return nil, nil, fmt.Errorf("predict %s: %w", c.Name(), err)
	}
	return labels, scores, nil
}

func checkTrainingSet(X *mat.Dense, y []int) error {
	if X == nil {
		return fmt.Errorf("nil feature matrix")
	}
	r, _ := X.Dims()
	if r != len(y) {
		return fmt.Errorf("feature matrix and labels have different lengths: %d vs %d", r, len(y))
	}
	for i, label := range y {
		if label != 0 && label != 1 {
			return fmt.Errorf("sample %d: label must be 0 or 1, got %d", i, label)
		}
	}
	return nil
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func logit(p float64) float64 {
	return math.Log(p / (1 - p))
}
