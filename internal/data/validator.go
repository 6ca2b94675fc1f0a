package data

import (
	"fmt"
	"math"
)

type DataValidator struct{}

func NewDataValidator() *DataValidator {
	return &DataValidator{}
}

func (dv *DataValidator) ValidateDataset(ds *Dataset) error {
	if ds == nil || ds.NumSamples() == 0 {
		return fmt.Errorf("dataset is empty")
	}

	r, c := ds.X.Dims()
	if r != len(ds.Y) {
		return fmt.Errorf("feature matrix and labels have different lengths: %d vs %d", r, len(ds.Y))
	}

	if c == 0 {
		return fmt.Errorf("features cannot be empty")
	}

	for i := 0; i < r; i++ {
		for j, value := range ds.X.RawRowView(i) {
			if math.IsNaN(value) || math.IsInf(value, 0) {
				return fmt.Errorf("non-finite value at sample %d, feature %q", i, ds.Features[j])
			}
		}
	}

	return dv.ValidateLabels(ds.Y)
}

func (dv *DataValidator) ValidateLabels(y []int) error {
	if len(y) == 0 {
		return fmt.Errorf("labels are empty")
	}

	counts := ClassCounts(y)
	for label := range counts {
		if label != 0 && label != 1 {
			return fmt.Errorf("%w: got %d", ErrNonBinaryLabel, label)
		}
	}

	if len(counts) < 2 {
		return fmt.Errorf("dataset must have both classes, found %d", len(counts))
	}

	return nil
}

func ClassCounts(y []int) map[int]int {
	counts := make(map[int]int)
	for _, label := range y {
		counts[label]++
	}
	return counts
}
