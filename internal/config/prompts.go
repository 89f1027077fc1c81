package config

import (
	"fmt"
	"os"
	"text/template"

	"gopkg.in/yaml.v3"
)

const defaultPromptsPath = "configs/prompts.yaml"

func LoadPromptsConfig() (*PromptsConfig, error) {
	path := os.Getenv("PROMPTS_CONFIG_PATH")
	if path == "" {
		path = defaultPromptsPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg PromptsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML %s: %w", path, err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *PromptsConfig) {
	if cfg.Model.MaxTokens == 0 {
		cfg.Model.MaxTokens = 2048
	}
	if cfg.Scoring.DefaultMaxScore == 0 {
		cfg.Scoring.DefaultMaxScore = 2
	}
	if cfg.Scoring.SuccessThreshold == 0 {
		cfg.Scoring.SuccessThreshold = 70
	}
	if cfg.Scoring.WarningThreshold == 0 {
		cfg.Scoring.WarningThreshold = 40
	}
}

func (c *PromptsConfig) Validate() error {
	if c.Evaluation.Instructions == "" {
		return fmt.Errorf("evaluation config missing instructions prompt")
	}
	if _, err := template.New("instructions").Parse(c.Evaluation.Instructions); err != nil {
		return fmt.Errorf("invalid instructions template: %w", err)
	}
	if c.Model.MaxTokens < 0 {
		return fmt.Errorf("negative max_tokens: %d", c.Model.MaxTokens)
	}
	if c.Model.Temperature < 0.0 || c.Model.Temperature > 1.0 {
		return fmt.Errorf("invalid temperature: %f", c.Model.Temperature)
	}
	if c.Scoring.WarningThreshold > c.Scoring.SuccessThreshold {
		return fmt.Errorf("warning threshold %d above success threshold %d",
			c.Scoring.WarningThreshold, c.Scoring.SuccessThreshold)
	}
	return nil
}
