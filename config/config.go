// Package config provides configuration loading for the bayes-tree CLI.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vonSplit/bayes-tree/bayesdist"
)

// Config represents the complete CLI configuration
type Config struct {
	Prior   PriorConfig `yaml:"prior"`
	Data    DataConfig  `yaml:"data"`
	Seed    uint64      `yaml:"seed"`
	Threads int         `yaml:"threads"`
}

// PriorConfig selects the prior the model starts from
type PriorConfig struct {
	// Type is one of jeffreys, equal-alpha, manual-alphas, manual-probs
	Type string `yaml:"type"`
	// Categories is the number of categories for jeffreys and equal-alpha
	Categories int `yaml:"categories"`
	// Alpha is the shared concentration for equal-alpha
	Alpha float64 `yaml:"alpha"`
	// Alphas are the concentrations for manual-alphas
	Alphas []float64 `yaml:"alphas"`
	// Probs shape the prior for manual-probs
	Probs []float64 `yaml:"probs"`
}

// DataConfig points at the observations
type DataConfig struct {
	// Path is the observation file
	Path string `yaml:"path"`
	// Format is counts (one count vector per line) or labels (category indices per line)
	Format string `yaml:"format"`
}

const (
	FormatCounts = "counts"
	FormatLabels = "labels"
)

// DefaultConfig returns a Config with a two category Jeffreys prior
func DefaultConfig() *Config {
	return &Config{
		Prior: PriorConfig{
			Type:       bayesdist.Jeffreys.String(),
			Categories: 2,
			Alpha:      1.0,
		},
		Data: DataConfig{
			Format: FormatCounts,
		},
		Seed:    0, // nondeterministic
		Threads: 4,
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	priorType, err := bayesdist.ParsePriorType(c.Prior.Type)
	if err != nil {
		return fmt.Errorf("prior.type: %w", err)
	}
	switch priorType {
	case bayesdist.Jeffreys, bayesdist.EqualAlpha:
		if c.Prior.Categories < 1 {
			return fmt.Errorf("prior.categories must be at least 1")
		}
		if priorType == bayesdist.EqualAlpha && !(c.Prior.Alpha > 0) {
			return fmt.Errorf("prior.alpha must be positive")
		}
	case bayesdist.ManualAlphas:
		if len(c.Prior.Alphas) == 0 {
			return fmt.Errorf("prior.alphas is required for %s", priorType)
		}
	case bayesdist.ManualProbs:
		if len(c.Prior.Probs) == 0 {
			return fmt.Errorf("prior.probs is required for %s", priorType)
		}
	}
	if c.Data.Format != FormatCounts && c.Data.Format != FormatLabels {
		return fmt.Errorf("data.format must be %q or %q", FormatCounts, FormatLabels)
	}
	if c.Threads < 1 {
		return fmt.Errorf("threads must be at least 1")
	}
	return nil
}

// PriorParams converts the prior section for bayesdist.GenerateConjugate
func (c *Config) PriorParams() bayesdist.PriorParams {
	return bayesdist.PriorParams{
		NumCategories: c.Prior.Categories,
		Alpha:         c.Prior.Alpha,
		Alphas:        c.Prior.Alphas,
		Probs:         c.Prior.Probs,
	}
}

// NewModel builds the configured model
func (c *Config) NewModel() (*bayesdist.Conjugate, error) {
	var opts []bayesdist.Option
	if c.Seed != 0 {
		opts = append(opts, bayesdist.WithSeed(c.Seed))
	}
	return bayesdist.GenerateConjugate(c.Prior.Type, c.PriorParams(), opts...)
}

// LoadData reads the configured observation file
func (c *Config) LoadData() (*bayesdist.DataContainer, error) {
	if c.Data.Path == "" {
		return nil, fmt.Errorf("data.path is required")
	}
	if c.Data.Format == FormatLabels {
		numCategories := c.Prior.Categories
		priorType, _ := bayesdist.ParsePriorType(c.Prior.Type)
		switch priorType {
		case bayesdist.ManualAlphas:
			numCategories = len(c.Prior.Alphas)
		case bayesdist.ManualProbs:
			numCategories = len(c.Prior.Probs)
		}
		return bayesdist.NewDataContainerFromLabels(c.Data.Path, numCategories)
	}
	return bayesdist.NewDataContainer(c.Data.Path)
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}
