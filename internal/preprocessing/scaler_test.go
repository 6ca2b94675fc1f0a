package preprocessing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestScalerSampleDeviation(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1, 5,
		2, 5,
		3, 5,
		4, 5,
	})

	s := NewScaler(true, 1)
	out, err := s.FitTransform(X)
	require.NoError(t, err)

	assert.InDelta(t, 2.5, s.FeatureMean[0], 1e-12)
	assert.InDelta(t, math.Sqrt(5.0/3.0), s.FeatureStd[0], 1e-12)
	// constant column keeps unit scale
	assert.Equal(t, 1.0, s.FeatureStd[1])

	assert.InDelta(t, -1.5/math.Sqrt(5.0/3.0), out.At(0, 0), 1e-12)
	assert.Equal(t, 0.0, out.At(2, 1))
}

func TestScalerPopulationDeviation(t *testing.T) {
	X := mat.NewDense(2, 1, []float64{0, 2})
	s := NewScaler(true, 0)
	require.NoError(t, s.Fit(X))
	assert.InDelta(t, 1.0, s.FeatureStd[0], 1e-12)
}

func TestScalerCentreOnly(t *testing.T) {
	X := mat.NewDense(2, 1, []float64{10, 20})
	s := NewScaler(false, 0)
	out, err := s.FitTransform(X)
	require.NoError(t, err)
	assert.Equal(t, []float64{-5, 5}, mat.Col(nil, 0, out))
}

func TestScalerErrors(t *testing.T) {
	s := NewScaler(true, 1)
	_, err := s.Transform(mat.NewDense(1, 1, nil))
	assert.ErrorContains(t, err, "fitted")

	assert.Error(t, s.Fit(mat.NewDense(1, 2, nil)))

	require.NoError(t, s.Fit(mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})))
	_, err = s.Transform(mat.NewDense(3, 3, nil))
	assert.ErrorContains(t, err, "features")
}
