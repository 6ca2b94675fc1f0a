package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	DefaultFolds   = 4
	DefaultRepeats = 5
)

// Options carries the values given on the command line.
type Options struct {
	InputFile         string `validate:"required"`
	OutputDir         string `validate:"required"`
	AnalysisName      string `validate:"required"`
	TissueType        string `validate:"required"`
	OmicsType         string `validate:"required"`
	Folds             int    `validate:"gte=2"`
	Repeats           int    `validate:"gte=1"`
	ConfigFile        string
	Plot              bool
	FeatureImportance bool
	MetricsTextfile   string
	LogLevel          string `validate:"oneof=debug info warn error"`
	LogFormat         string `validate:"oneof=text json"`
}

// ArtifactPath returns the path of an output file named after the run.
func (o Options) ArtifactPath(suffix string) string {
	name := o.TissueType + "_" + o.OmicsType + "_" + o.AnalysisName + "_" + suffix
	return filepath.Join(o.OutputDir, name)
}

// ModelConfig holds hyperparameters and seeds read from the optional YAML file.
type ModelConfig struct {
	CrossValidation struct {
		Seed int64 `yaml:"seed"`
	} `yaml:"cross_validation"`
	Boosting struct {
		NEstimators     int     `yaml:"n_estimators" validate:"gte=1"`
		MaxDepth        int     `yaml:"max_depth" validate:"gte=1"`
		LearningRate    float64 `yaml:"learning_rate" validate:"gt=0"`
		RegLambda       float64 `yaml:"reg_lambda" validate:"gte=0"`
		Gamma           float64 `yaml:"gamma" validate:"gte=0"`
		MinChildWeight  float64 `yaml:"min_child_weight" validate:"gte=0"`
		Subsample       float64 `yaml:"subsample" validate:"gt=0,lte=1"`
		ColsampleByTree float64 `yaml:"colsample_bytree" validate:"gt=0,lte=1"`
		BaseScore       float64 `yaml:"base_score" validate:"gt=0,lt=1"`
		Seed            int64   `yaml:"seed"`
	} `yaml:"boosting"`
	LDA struct {
		Tol float64 `yaml:"tol" validate:"gt=0"`
	} `yaml:"lda"`
	PLS struct {
		Components int     `yaml:"components" validate:"gte=1"`
		Threshold  float64 `yaml:"threshold"`
	} `yaml:"pls"`
	Report struct {
		LowerPercentile float64 `yaml:"lower_percentile" validate:"gte=0,lte=100"`
		UpperPercentile float64 `yaml:"upper_percentile" validate:"gte=0,lte=100,gtefield=LowerPercentile"`
	} `yaml:"report"`
}

func DefaultModelConfig() ModelConfig {
	var c ModelConfig
	c.CrossValidation.Seed = 0

	c.Boosting.NEstimators = 100
	c.Boosting.MaxDepth = 6
	c.Boosting.LearningRate = 0.3
	c.Boosting.RegLambda = 1
	c.Boosting.Gamma = 0
	c.Boosting.MinChildWeight = 1
	c.Boosting.Subsample = 1
	c.Boosting.ColsampleByTree = 1
	c.Boosting.BaseScore = 0.5
	c.Boosting.Seed = 1234

	c.LDA.Tol = 1e-4

	c.PLS.Components = 2
	c.PLS.Threshold = 0.5

	c.Report.LowerPercentile = 2.5
	c.Report.UpperPercentile = 97.5
	return c
}

// LoadModelConfig reads a YAML file over the defaults. An empty path returns the defaults.
func LoadModelConfig(path string) (ModelConfig, error) {
	cfg := DefaultModelConfig()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct tags on Options or ModelConfig and flattens the
// validator output into a single readable error.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	errs := make([]error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Param() != "" {
			errs = append(errs, fmt.Errorf("%s must satisfy %s=%s (got %v)", fe.Namespace(), fe.Tag(), fe.Param(), fe.Value()))
		} else {
			errs = append(errs, fmt.Errorf("%s must satisfy %s", fe.Namespace(), fe.Tag()))
		}
	}
	return errors.Join(errs...)
}
