package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds non-interactive defaults for a rebalance run. Interactive
// prompts and CLI flags override anything set here.
type Config struct {
	Input struct {
		SummaryFile        string `yaml:"summary_file"`
		ImplementationFile string `yaml:"implementation_file"`
	} `yaml:"input"`

	Rebalance struct {
		AllowShareExchanges   bool    `yaml:"allow_share_exchanges"`
		AllowFractionalShares bool    `yaml:"allow_fractional_shares"`
		RoundingBehavior      string  `yaml:"rounding_behavior"`
		DriftTolerance        float64 `yaml:"drift_tolerance"`
	} `yaml:"rebalance"`

	Validation struct {
		PercentTolerance float64 `yaml:"percent_tolerance"`
		ValueTolerance   float64 `yaml:"value_tolerance"`
	} `yaml:"validation"`
}

// Default returns the configuration used when no config file is supplied.
func Default() *Config {
	cfg := &Config{}
	cfg.Rebalance.RoundingBehavior = "NEAREST"
	cfg.Rebalance.DriftTolerance = 0.01
	cfg.Validation.PercentTolerance = 0.01
	cfg.Validation.ValueTolerance = 10
	return cfg
}

// Load reads a YAML config file, layering it over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}
