package models

import (
	"sort"

	"gonum.org/v1/gonum/mat"
)

type TreeNode struct {
	IsLeaf    bool
	Value     float64
	Feature   int
	Threshold float64
	Left      *TreeNode
	Right     *TreeNode
	Samples   int
	Gain      float64
}

// RegressionTree fits leaf weights to first and second order gradient
// statistics, splitting greedily on the exact feature values.
type RegressionTree struct {
	Root           *TreeNode
	MaxDepth       int
	RegLambda      float64
	Gamma          float64
	MinChildWeight float64
	Shrinkage      float64
}

func NewRegressionTree(maxDepth int, regLambda, gamma, minChildWeight, shrinkage float64) *RegressionTree {
	if maxDepth <= 0 {
		maxDepth = 6
	}

	return &RegressionTree{
		MaxDepth:       maxDepth,
		RegLambda:      regLambda,
		Gamma:          gamma,
		MinChildWeight: minChildWeight,
		Shrinkage:      shrinkage,
	}
}

func (rt *RegressionTree) Fit(X *mat.Dense, grad, hess []float64, rows, features []int) {
	rt.Root = rt.buildTree(X, grad, hess, rows, features, 0)
}

func (rt *RegressionTree) buildTree(X *mat.Dense, grad, hess []float64, rows, features []int, depth int) *TreeNode {
	G, H := sumStats(grad, hess, rows)
	node := &TreeNode{
		Samples: len(rows),
		Value:   rt.leafWeight(G, H),
	}

	if depth >= rt.MaxDepth || len(rows) < 2 || H < 2*rt.MinChildWeight {
		node.IsLeaf = true
		return node
	}

	bestFeature, bestThreshold, bestGain := rt.findBestSplit(X, grad, hess, rows, features, G, H)
	if bestGain <= 0 {
		node.IsLeaf = true
		return node
	}

	leftRows, rightRows := splitRows(X, rows, bestFeature, bestThreshold)
	if len(leftRows) == 0 || len(rightRows) == 0 {
		node.IsLeaf = true
		return node
	}

	node.Feature = bestFeature
	node.Threshold = bestThreshold
	node.Gain = bestGain
	node.Left = rt.buildTree(X, grad, hess, leftRows, features, depth+1)
	node.Right = rt.buildTree(X, grad, hess, rightRows, features, depth+1)

	return node
}

func (rt *RegressionTree) findBestSplit(X *mat.Dense, grad, hess []float64, rows, features []int, G, H float64) (int, float64, float64) {
	bestFeature := -1
	bestThreshold := 0.0
	bestGain := 0.0

	parentScore := rt.score(G, H)
	sorted := make([]int, len(rows))

	for _, feature := range features {
		copy(sorted, rows)
		sort.SliceStable(sorted, func(a, b int) bool {
			return X.At(sorted[a], feature) < X.At(sorted[b], feature)
		})

		var GL, HL float64
		for k := 0; k < len(sorted)-1; k++ {
			idx := sorted[k]
			GL += grad[idx]
			HL += hess[idx]

			current := X.At(idx, feature)
			next := X.At(sorted[k+1], feature)
			if current == next {
				continue
			}

			GR, HR := G-GL, H-HL
			if HL < rt.MinChildWeight || HR < rt.MinChildWeight {
				continue
			}

			gain := 0.5*(rt.score(GL, HL)+rt.score(GR, HR)-parentScore) - rt.Gamma
			if gain > bestGain {
				bestGain = gain
				bestFeature = feature
				bestThreshold = current + (next-current)/2
			}
		}
	}

	return bestFeature, bestThreshold, bestGain
}

func (rt *RegressionTree) score(G, H float64) float64 {
	return G * G / (H + rt.RegLambda)
}

func (rt *RegressionTree) leafWeight(G, H float64) float64 {
	return -G / (H + rt.RegLambda) * rt.Shrinkage
}

func (rt *RegressionTree) PredictRow(sample []float64) float64 {
	node := rt.Root
	for !node.IsLeaf {
		if sample[node.Feature] < node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Value
}

func sumStats(grad, hess []float64, rows []int) (float64, float64) {
	var G, H float64
	for _, idx := range rows {
		G += grad[idx]
		H += hess[idx]
	}
	return G, H
}

func splitRows(X *mat.Dense, rows []int, feature int, threshold float64) ([]int, []int) {
	var leftRows, rightRows []int

	for _, idx := range rows {
		if X.At(idx, feature) < threshold {
			leftRows = append(leftRows, idx)
		} else {
			rightRows = append(rightRows, idx)
		}
	}

	return leftRows, rightRows
}
