package preprocessing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Scaler centres columns and optionally divides them by their standard
// deviation. DDOF selects population (0) or sample (1) deviation.
type Scaler struct {
	WithStd     bool
	DDOF        int
	IsFitted    bool
	FeatureMean []float64
	FeatureStd  []float64
}

func NewScaler(withStd bool, ddof int) *Scaler {
	return &Scaler{
		WithStd:  withStd,
		DDOF:     ddof,
		IsFitted: false,
	}
}

func (s *Scaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return fmt.Errorf("empty dataset")
	}
	if s.WithStd && r <= s.DDOF {
		return fmt.Errorf("need more than %d samples to scale, got %d", s.DDOF, r)
	}

	s.FeatureMean = make([]float64, c)
	s.FeatureStd = make([]float64, c)
	col := make([]float64, r)

	for j := 0; j < c; j++ {
		mat.Col(col, j, X)
		mean, variance := stat.PopMeanVariance(col, nil)
		s.FeatureMean[j] = mean
		s.FeatureStd[j] = 1

		if s.WithStd {
			variance *= float64(r) / float64(r-s.DDOF)
			if std := math.Sqrt(variance); std != 0 {
				s.FeatureStd[j] = std
			}
		}
	}

	s.IsFitted = true
	return nil
}

func (s *Scaler) Transform(X mat.Matrix) (*mat.Dense, error) {
	if !s.IsFitted {
		return nil, fmt.Errorf("scaler must be fitted before transform")
	}

	r, c := X.Dims()
	if c != len(s.FeatureMean) {
		return nil, fmt.Errorf("scaler fitted on %d features, got %d", len(s.FeatureMean), c)
	}

	result := mat.NewDense(r, c, nil)
	result.Apply(func(i, j int, v float64) float64 {
		return (v - s.FeatureMean[j]) / s.FeatureStd[j]
	}, X)
	return result, nil
}

func (s *Scaler) FitTransform(X mat.Matrix) (*mat.Dense, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}
