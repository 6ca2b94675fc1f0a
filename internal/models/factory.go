package models

import (
	"log/slog"
	"strings"

	"github.com/Plant-Net/Metabolomic-project/internal/config"
)

// Analysis selects which classifier the cross-validation runs.
type Analysis int

const (
	BoostedTree Analysis = iota
	DiscriminantAnalysis
	PartialLeastSquares
)

func (a Analysis) String() string {
	switch a {
	case DiscriminantAnalysis:
		return "LDA"
	case PartialLeastSquares:
		return "PLSDA"
	default:
		return "XGBoost"
	}
}

// ParseAnalysis matches name case-insensitively against LDA and PLSDA.
// Every other name selects the boosted-tree classifier.
func ParseAnalysis(name string) Analysis {
	switch strings.ToUpper(name) {
	case "LDA":
		return DiscriminantAnalysis
	case "PLSDA":
		return PartialLeastSquares
	default:
		return BoostedTree
	}
}

// CreateModel builds an unfitted classifier for a with hyperparameters from cfg.
// A nil logger falls back to slog.Default.
func CreateModel(a Analysis, cfg config.ModelConfig, logger *slog.Logger) Classifier {
	switch a {
	case DiscriminantAnalysis:
		return NewLDA(cfg.LDA.Tol)
	case PartialLeastSquares:
		pls := NewPLSDA(cfg.PLS.Components, cfg.PLS.Threshold)
		pls.Logger = logger
		return pls
	default:
		b := cfg.Boosting
		return NewGradientBoosting(BoostingParams{
			NEstimators:     b.NEstimators,
			MaxDepth:        b.MaxDepth,
			LearningRate:    b.LearningRate,
			RegLambda:       b.RegLambda,
			Gamma:           b.Gamma,
			MinChildWeight:  b.MinChildWeight,
			Subsample:       b.Subsample,
			ColsampleByTree: b.ColsampleByTree,
			BaseScore:       b.BaseScore,
			Seed:            b.Seed,
		})
	}
}
