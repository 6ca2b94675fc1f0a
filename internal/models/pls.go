package models

import (
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/Plant-Net/Metabolomic-project/internal/preprocessing"
)

// yResidualTol is ten machine epsilons.
const yResidualTol = 10 * 2.220446049250313e-16

// PLSDA regresses the 0/1 label on PLS components and thresholds the
// regression output to classify.
type PLSDA struct {
	BaseModel
	Components int
	Threshold  float64
	Logger     *slog.Logger

	// fitted
	xScaler    *preprocessing.Scaler
	yMean      float64
	yStd       float64
	Coef       []float64
	nComponent int
}

func NewPLSDA(components int, threshold float64) *PLSDA {
	if components <= 0 {
		components = 2
	}

	return &PLSDA{
		Components: components,
		Threshold:  threshold,
		BaseModel: BaseModel{
			name: "PLSDA",
			params: map[string]any{
				"n_components": components,
				"threshold":    threshold,
				"scale":        true,
			},
		},
	}
}

func (pls *PLSDA) Fit(X *mat.Dense, y []int) error {
	if err := checkTrainingSet(X, y); err != nil {
		return err
	}

	n, p := X.Dims()
	if pls.Components > p {
		return fmt.Errorf("n_components=%d exceeds feature count %d", pls.Components, p)
	}

	pls.xScaler = preprocessing.NewScaler(true, 1)
	Xk, err := pls.xScaler.FitTransform(X)
	if err != nil {
		return err
	}

	yf := make([]float64, n)
	for i, label := range y {
		yf[i] = float64(label)
	}
	yScaler := preprocessing.NewScaler(true, 1)
	if err := yScaler.Fit(mat.NewDense(n, 1, yf)); err != nil {
		return err
	}
	pls.yMean, pls.yStd = yScaler.FeatureMean[0], yScaler.FeatureStd[0]

	yk := make([]float64, n)
	for i := range yf {
		yk[i] = (yf[i] - pls.yMean) / pls.yStd
	}

	W := mat.NewDense(p, pls.Components, nil)
	P := mat.NewDense(p, pls.Components, nil)
	q := make([]float64, 0, pls.Components)

	w := make([]float64, p)
	t := make([]float64, n)
	loading := make([]float64, p)
	for k := 0; k < pls.Components; k++ {
		if floats.Norm(yk, math.Inf(1)) < yResidualTol {
			pls.logger().Warn("y residual is constant, stopping early",
				"component", k, "n_components", pls.Components)
			break
		}

		// With a single response the power iteration converges on X'y.
		mat.NewVecDense(p, w).MulVec(Xk.T(), mat.NewVecDense(n, yk))
		norm := floats.Norm(w, 2)
		if norm == 0 {
			break
		}
		floats.Scale(1/norm, w)

		mat.NewVecDense(n, t).MulVec(Xk, mat.NewVecDense(p, w))
		tt := floats.Dot(t, t)
		if tt == 0 {
			break
		}

		mat.NewVecDense(p, loading).MulVec(Xk.T(), mat.NewVecDense(n, t))
		floats.Scale(1/tt, loading)
		yLoading := floats.Dot(t, yk) / tt

		for i := 0; i < n; i++ {
			row := Xk.RawRowView(i)
			floats.AddScaled(row, -t[i], loading)
			yk[i] -= t[i] * yLoading
		}

		W.SetCol(k, w)
		P.SetCol(k, loading)
		q = append(q, yLoading)
	}

	pls.nComponent = len(q)
	if pls.nComponent == 0 {
		return fmt.Errorf("no PLS component could be extracted")
	}

	Wk := W.Slice(0, p, 0, pls.nComponent)
	Pk := P.Slice(0, p, 0, pls.nComponent)

	var ptw mat.Dense
	ptw.Mul(Pk.T(), Wk)
	var inv mat.Dense
	if err := inv.Inverse(&ptw); err != nil {
		return fmt.Errorf("invert loadings-weights product: %w", err)
	}

	var rotations mat.Dense
	rotations.Mul(Wk, &inv)

	coef := mat.NewVecDense(p, nil)
	coef.MulVec(&rotations, mat.NewVecDense(pls.nComponent, q))

	pls.Coef = make([]float64, p)
	for j := 0; j < p; j++ {
		pls.Coef[j] = coef.AtVec(j) * pls.yStd
	}
	return nil
}

// Regress returns the continuous PLS prediction for each row of X.
func (pls *PLSDA) Regress(X *mat.Dense) ([]float64, error) {
	if pls.Coef == nil {
		return nil, ErrNotFitted
	}

	r, c := X.Dims()
	if c != len(pls.Coef) {
		return nil, fmt.Errorf("model fitted on %d features, got %d", len(pls.Coef), c)
	}

	scaled, err := pls.xScaler.Transform(X)
	if err != nil {
		return nil, err
	}

	out := make([]float64, r)
	for i := 0; i < r; i++ {
		out[i] = floats.Dot(scaled.RawRowView(i), pls.Coef) + pls.yMean
	}
	return out, nil
}

func (pls *PLSDA) Predict(X *mat.Dense) ([]int, []float64, error) {
	scores, err := pls.Regress(X)
	if err != nil {
		return nil, nil, err
	}

	labels := make([]int, len(scores))
	for i, s := range scores {
		if s > pls.Threshold {
			labels[i] = 1
		}
	}
	return labels, scores, nil
}

func (pls *PLSDA) logger() *slog.Logger {
	if pls.Logger == nil {
		return slog.Default()
	}
	return pls.Logger
}
