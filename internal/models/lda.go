package models

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// LDA is two-class linear discriminant analysis with the SVD solver. It
// never inverts the covariance matrix, so it copes with more features than
// samples.
type LDA struct {
	BaseModel
	Tol       float64
	Priors    [2]float64
	Means     [2][]float64
	Coef      []float64
	Intercept float64
}

func NewLDA(tol float64) *LDA {
	if tol <= 0 {
		tol = 1e-4
	}

	return &LDA{
		Tol: tol,
		BaseModel: BaseModel{
			name: "LDA",
			params: map[string]any{
				"solver": "svd",
				"tol":    tol,
			},
		},
	}
}

func (lda *LDA) Fit(X *mat.Dense, y []int) error {
	if err := checkTrainingSet(X, y); err != nil {
		return err
	}

	n, p := X.Dims()
	var counts [2]int
	for _, label := range y {
		counts[label]++
	}
	if counts[0] == 0 || counts[1] == 0 {
		return fmt.Errorf("training set needs both classes, got %d negatives and %d positives", counts[0], counts[1])
	}
	if n <= 2 {
		return fmt.Errorf("need more than 2 samples, got %d", n)
	}

	for c := 0; c < 2; c++ {
		lda.Priors[c] = float64(counts[c]) / float64(n)
		lda.Means[c] = make([]float64, p)
	}
	for i := 0; i < n; i++ {
		floats.Add(lda.Means[y[i]], X.RawRowView(i))
	}
	for c := 0; c < 2; c++ {
		floats.Scale(1/float64(counts[c]), lda.Means[c])
	}

	xbar := make([]float64, p)
	floats.AddScaled(xbar, lda.Priors[0], lda.Means[0])
	floats.AddScaled(xbar, lda.Priors[1], lda.Means[1])

	// Within-class centred data, scaled per feature.
	Xc := mat.NewDense(n, p, nil)
	for i := 0; i < n; i++ {
		row := Xc.RawRowView(i)
		floats.SubTo(row, X.RawRowView(i), lda.Means[y[i]])
	}

	std := make([]float64, p)
	col := make([]float64, n)
	for j := 0; j < p; j++ {
		mat.Col(col, j, Xc)
		std[j] = math.Sqrt(floats.Dot(col, col) / float64(n))
		if std[j] == 0 {
			std[j] = 1
		}
	}

	fac := math.Sqrt(1 / float64(n-2))
	Xc.Apply(func(i, j int, v float64) float64 {
		return fac * v / std[j]
	}, Xc)

	var svd mat.SVD
	if !svd.Factorize(Xc, mat.SVDThin) {
		return fmt.Errorf("svd of within-class scatter did not converge")
	}
	S := svd.Values(nil)
	rank := 0
	for _, s := range S {
		if s > lda.Tol {
			rank++
		}
	}
	if rank == 0 {
		return fmt.Errorf("within-class scatter has rank 0")
	}

	var V mat.Dense
	svd.VTo(&V)

	// scalings[j][r] = V[j][r] / std[j] / S[r]
	scalings := mat.NewDense(p, rank, nil)
	scalings.Apply(func(j, r int, _ float64) float64 {
		return V.At(j, r) / std[j] / S[r]
	}, scalings)

	centred := mat.NewDense(2, p, nil)
	weighted := mat.NewDense(2, p, nil)
	for c := 0; c < 2; c++ {
		floats.SubTo(centred.RawRowView(c), lda.Means[c], xbar)
		w := math.Sqrt(float64(n) * lda.Priors[c])
		floats.ScaleTo(weighted.RawRowView(c), w, centred.RawRowView(c))
	}

	var between mat.Dense
	between.Mul(weighted, scalings)

	var svd2 mat.SVD
	if !svd2.Factorize(&between, mat.SVDThin) {
		return fmt.Errorf("svd of between-class scatter did not converge")
	}
	S2 := svd2.Values(nil)
	rank2 := 0
	for _, s := range S2 {
		if s > lda.Tol*S2[0] {
			rank2++
		}
	}

	lda.Coef = make([]float64, p)
	intercepts := [2]float64{math.Log(lda.Priors[0]), math.Log(lda.Priors[1])}

	if rank2 > 0 {
		var V2 mat.Dense
		svd2.VTo(&V2)

		var final mat.Dense
		final.Mul(scalings, V2.Slice(0, rank, 0, rank2))

		var proj mat.Dense
		proj.Mul(centred, &final)

		var coefFull mat.Dense
		coefFull.Mul(&proj, final.T())

		for c := 0; c < 2; c++ {
			row := proj.RawRowView(c)
			intercepts[c] += -0.5*floats.Dot(row, row) - floats.Dot(xbar, coefFull.RawRowView(c))
		}
		floats.SubTo(lda.Coef, coefFull.RawRowView(1), coefFull.RawRowView(0))
	}

	lda.Intercept = intercepts[1] - intercepts[0]
	return nil
}

func (lda *LDA) DecisionFunction(sample []float64) float64 {
	return floats.Dot(lda.Coef, sample) + lda.Intercept
}

func (lda *LDA) Predict(X *mat.Dense) ([]int, []float64, error) {
	if lda.Coef == nil {
		return nil, nil, ErrNotFitted
	}

	r, c := X.Dims()
	if c != len(lda.Coef) {
		return nil, nil, fmt.Errorf("model fitted on %d features, got %d", len(lda.Coef), c)
	}

	labels := make([]int, r)
	proba := make([]float64, r)
	for i := 0; i < r; i++ {
		d := lda.DecisionFunction(X.RawRowView(i))
		proba[i] = sigmoid(d)
		if d > 0 {
			labels[i] = 1
		}
	}
	return labels, proba, nil
}
