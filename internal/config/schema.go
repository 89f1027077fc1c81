package config

// PromptsConfig is the externalized scoring configuration. Rubric wording is
// a tunable parameter, not program logic, so every prompt lives here.
type PromptsConfig struct {
	Evaluation EvaluationPrompts `yaml:"evaluation"`
	Model      ModelConfig       `yaml:"model"`
	Scoring    ScoringConfig     `yaml:"scoring"`
}

// EvaluationPrompts drives the request builder.
type EvaluationPrompts struct {
	// Instructions is the system prompt template. It may reference
	// {{.QuestionCount}} and {{.MaxScore}}.
	Instructions string `yaml:"instructions"`
	// Trailer is appended after the serialized question blocks.
	Trailer string `yaml:"trailer"`
	// Transcription is the instruction sent alongside raw audio.
	Transcription string `yaml:"transcription"`
}

type ModelConfig struct {
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
	Retry       bool    `yaml:"retry"`
}

// ScoringConfig holds the aggregation policy knobs.
type ScoringConfig struct {
	// DefaultMaxScore applies when a score entry cannot be matched back to
	// a rubric item by name.
	DefaultMaxScore int `yaml:"default_max_score"`
	// Banding thresholds are percentages: >= Success is a pass,
	// >= Warning is borderline, below is a fail.
	SuccessThreshold int `yaml:"success_threshold"`
	WarningThreshold int `yaml:"warning_threshold"`
}
