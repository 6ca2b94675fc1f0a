package models

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

type BoostingParams struct {
	NEstimators     int
	MaxDepth        int
	LearningRate    float64
	RegLambda       float64
	Gamma           float64
	MinChildWeight  float64
	Subsample       float64
	ColsampleByTree float64
	BaseScore       float64
	Seed            int64
}

// GradientBoosting is a binary logistic booster of regression trees.
type GradientBoosting struct {
	BaseModel
	BoostingParams
	Trees      []*RegressionTree
	baseMargin float64
	nFeatures  int
}

func NewGradientBoosting(p BoostingParams) *GradientBoosting {
	if p.NEstimators <= 0 {
		p.NEstimators = 100
	}
	if p.LearningRate <= 0 {
		p.LearningRate = 0.3
	}
	if p.Subsample <= 0 || p.Subsample > 1 {
		p.Subsample = 1
	}
	if p.ColsampleByTree <= 0 || p.ColsampleByTree > 1 {
		p.ColsampleByTree = 1
	}
	if p.BaseScore <= 0 || p.BaseScore >= 1 {
		p.BaseScore = 0.5
	}

	return &GradientBoosting{
		BoostingParams: p,
		BaseModel: BaseModel{
			name: "XGBoost",
			params: map[string]any{
				"n_estimators":     p.NEstimators,
				"max_depth":        p.MaxDepth,
				"learning_rate":    p.LearningRate,
				"reg_lambda":       p.RegLambda,
				"gamma":            p.Gamma,
				"min_child_weight": p.MinChildWeight,
				"subsample":        p.Subsample,
				"colsample_bytree": p.ColsampleByTree,
				"seed":             p.Seed,
			},
		},
	}
}

func (gb *GradientBoosting) Fit(X *mat.Dense, y []int) error {
	if err := checkTrainingSet(X, y); err != nil {
		return err
	}

	n, nFeatures := X.Dims()
	gb.nFeatures = nFeatures
	gb.baseMargin = logit(gb.BaseScore)
	gb.Trees = make([]*RegressionTree, 0, gb.NEstimators)

	rng := rand.New(rand.NewSource(gb.Seed))
	margin := make([]float64, n)
	for i := range margin {
		margin[i] = gb.baseMargin
	}

	grad := make([]float64, n)
	hess := make([]float64, n)

	for round := 0; round < gb.NEstimators; round++ {
		for i := 0; i < n; i++ {
			p := sigmoid(margin[i])
			grad[i] = p - float64(y[i])
			hess[i] = math.Max(p*(1-p), 1e-16)
		}

		rows := gb.sampleRows(rng, n)
		features := gb.sampleFeatures(rng, nFeatures)

		tree := NewRegressionTree(gb.MaxDepth, gb.RegLambda, gb.Gamma, gb.MinChildWeight, gb.LearningRate)
		tree.Fit(X, grad, hess, rows, features)
		gb.Trees = append(gb.Trees, tree)

		for i := 0; i < n; i++ {
			margin[i] += tree.PredictRow(X.RawRowView(i))
		}
	}

	return nil
}

func (gb *GradientBoosting) sampleRows(rng *rand.Rand, n int) []int {
	rows := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if gb.Subsample >= 1 || rng.Float64() < gb.Subsample {
			rows = append(rows, i)
		}
	}
	if len(rows) == 0 {
		rows = append(rows, rng.Intn(n))
	}
	return rows
}

func (gb *GradientBoosting) sampleFeatures(rng *rand.Rand, nFeatures int) []int {
	if gb.ColsampleByTree >= 1 {
		features := make([]int, nFeatures)
		for j := range features {
			features[j] = j
		}
		return features
	}

	k := int(math.Round(gb.ColsampleByTree * float64(nFeatures)))
	k = max(k, 1)
	return rng.Perm(nFeatures)[:k]
}

func (gb *GradientBoosting) Margin(sample []float64) float64 {
	m := gb.baseMargin
	for _, tree := range gb.Trees {
		m += tree.PredictRow(sample)
	}
	return m
}

func (gb *GradientBoosting) Predict(X *mat.Dense) ([]int, []float64, error) {
	if gb.Trees == nil {
		return nil, nil, ErrNotFitted
	}

	r, c := X.Dims()
	if c != gb.nFeatures {
		return nil, nil, fmt.Errorf("model fitted on %d features, got %d", gb.nFeatures, c)
	}

	labels := make([]int, r)
	proba := make([]float64, r)
	for i := 0; i < r; i++ {
		proba[i] = sigmoid(gb.Margin(X.RawRowView(i)))
		if proba[i] > 0.5 {
			labels[i] = 1
		}
	}
	return labels, proba, nil
}

// FeatureImportance sums split gain per feature across all trees.
func (gb *GradientBoosting) FeatureImportance() []float64 {
	gain := make([]float64, gb.nFeatures)
	var walk func(node *TreeNode)
	walk = func(node *TreeNode) {
		if node == nil || node.IsLeaf {
			return
		}
		gain[node.Feature] += node.Gain
		walk(node.Left)
		walk(node.Right)
	}
	for _, tree := range gb.Trees {
		walk(tree.Root)
	}
	return gain
}
