// Package config loads and validates the YAML configuration that drives
// the feature pipeline.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/davidfumo/kaggle-quora-question-pairs/internal/svd"
	"github.com/davidfumo/kaggle-quora-question-pairs/internal/text"
	"github.com/davidfumo/kaggle-quora-question-pairs/internal/trainer"
)

// Config is the full pipeline configuration.
type Config struct {
	Run        RunConfig        `yaml:"run"`
	Dataset    DatasetConfig    `yaml:"dataset"`
	Vectorizer VectorizerConfig `yaml:"vectorizer"`
	SVD        SVDConfig        `yaml:"svd"`
	Model      ModelConfig      `yaml:"model"`
}

// RunConfig identifies a run and where its artifacts live.
type RunConfig struct {
	// ID is assigned by the pipeline when empty and recorded in the
	// dumped effective config.
	ID          string `yaml:"id,omitempty"`
	DumpDir     string `yaml:"dump_dir"`
	Seed        int64  `yaml:"seed"`
	FeatureName string `yaml:"feature_name"`
}

// DatasetConfig points at the train and test CSV files.
type DatasetConfig struct {
	Train string `yaml:"train"`
	Test  string `yaml:"test"`
}

// VectorizerConfig controls TF-IDF vectorization. Lowercase is a pointer
// so that an absent key keeps the default of true.
type VectorizerConfig struct {
	Tokenizer   string `yaml:"tokenizer"`
	Lowercase   *bool  `yaml:"lowercase"`
	MinDF       int    `yaml:"min_df"`
	MaxFeatures int    `yaml:"max_features"`
	SublinearTF bool   `yaml:"sublinear_tf"`
}

// SVDConfig controls the randomized truncated SVD.
type SVDConfig struct {
	K          int `yaml:"k"`
	Oversample int `yaml:"oversample"`
	PowerIters int `yaml:"power_iters"`
}

// ModelConfig controls the per-fold neural networks and cross-validation.
type ModelConfig struct {
	Layers          []int    `yaml:"layers"`
	Activations     []string `yaml:"activations"`
	Optimizer       string   `yaml:"optimizer"`
	LearningRate    float64  `yaml:"learning_rate"`
	Epochs          int      `yaml:"epochs"`
	BatchSize       int      `yaml:"batch_size"`
	Folds           int      `yaml:"folds"`
	ReliabilityBins int      `yaml:"reliability_bins"`
}

// Load reads a YAML config file, applies defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Run.FeatureName == "" {
		c.Run.FeatureName = "svdff"
	}
	if c.Vectorizer.Lowercase == nil {
		t := true
		c.Vectorizer.Lowercase = &t
	}
	if c.SVD.K == 0 {
		c.SVD.K = 100
	}
	if c.Model.Folds == 0 {
		c.Model.Folds = 5
	}
	if c.Model.ReliabilityBins == 0 {
		c.Model.ReliabilityBins = 50
	}
}

// Validate checks the configuration for values the pipeline cannot work with.
func (c *Config) Validate() error {
	if c.Run.DumpDir == "" {
		return fmt.Errorf("run.dump_dir is required")
	}
	if c.Dataset.Train == "" {
		return fmt.Errorf("dataset.train is required")
	}
	if c.Dataset.Test == "" {
		return fmt.Errorf("dataset.test is required")
	}
	if c.SVD.K <= 0 {
		return fmt.Errorf("svd.k must be positive, got %d", c.SVD.K)
	}
	if c.Model.Folds < 2 {
		return fmt.Errorf("model.folds must be at least 2, got %d", c.Model.Folds)
	}
	if len(c.Model.Layers) != len(c.Model.Activations) {
		return fmt.Errorf("model.layers has %d entries but model.activations has %d",
			len(c.Model.Layers), len(c.Model.Activations))
	}
	if c.Model.LearningRate < 0 {
		return fmt.Errorf("model.learning_rate must not be negative")
	}
	return nil
}

// Dump writes the effective configuration to path so a run's settings can
// be inspected later.
func (c *Config) Dump(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// TextOptions maps the vectorizer section onto text.Options.
func (c *Config) TextOptions() text.Options {
	return text.Options{
		Tokenizer:   c.Vectorizer.Tokenizer,
		Lowercase:   *c.Vectorizer.Lowercase,
		MinDF:       c.Vectorizer.MinDF,
		MaxFeatures: c.Vectorizer.MaxFeatures,
		SublinearTF: c.Vectorizer.SublinearTF,
	}
}

// SVDOptions maps the svd section onto svd.Options, sharing the run seed.
func (c *Config) SVDOptions() svd.Options {
	return svd.Options{
		K:          c.SVD.K,
		Oversample: c.SVD.Oversample,
		PowerIters: c.SVD.PowerIters,
		Seed:       c.Run.Seed,
	}
}

// TrainerOptions maps the model section onto trainer.Options, sharing the
// run seed.
func (c *Config) TrainerOptions() trainer.Options {
	return trainer.Options{
		Layers:          c.Model.Layers,
		Activations:     c.Model.Activations,
		Optimizer:       c.Model.Optimizer,
		LearningRate:    c.Model.LearningRate,
		Epochs:          c.Model.Epochs,
		BatchSize:       c.Model.BatchSize,
		Seed:            c.Run.Seed,
		ReliabilityBins: c.Model.ReliabilityBins,
	}
}
