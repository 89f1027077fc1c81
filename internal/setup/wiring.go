package setup

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/vivalab/interview-agent/internal/auth"
	"github.com/vivalab/interview-agent/internal/config"
	"github.com/vivalab/interview-agent/internal/evaluate"
	"github.com/vivalab/interview-agent/internal/history"
	"github.com/vivalab/interview-agent/internal/llm"
	"github.com/vivalab/interview-agent/internal/llm/bedrock"
	"github.com/vivalab/interview-agent/internal/llm/gemini"
	"github.com/vivalab/interview-agent/internal/llm/openai"
	"github.com/vivalab/interview-agent/internal/prompt"
	"github.com/vivalab/interview-agent/internal/questions"
	redisclient "github.com/vivalab/interview-agent/internal/redis"
	"github.com/vivalab/interview-agent/internal/score"
	"github.com/vivalab/interview-agent/internal/session"
	"github.com/vivalab/interview-agent/internal/transcribe"
)

type Config struct {
	DefaultProvider string

	GeminiBaseURL string
	GeminiModelID string
	GeminiToken   string

	OpenAIKey      string
	OpenAIModelID  string
	WhisperModelID string

	AWSRegion     string
	ClaudeModelID string

	STTProvider   string
	TokenEndpoint string
	GitHubToken   string
	QuestionsPath string

	RedisAddr      string
	RedisPassword  string
	HistoryEnabled bool

	StreamProvider string
	StreamName     string
	StreamGroup    string
	ConsumerName   string

	RetryMaxElapsed time.Duration
}

type Dependencies struct {
	Prompts     *config.PromptsConfig
	Catalog     *questions.Catalog
	Generator   *questions.Generator
	Sessions    *session.Store
	Tokens      *auth.TokenClient
	Transcriber transcribe.Transcriber
	Evaluator   *evaluate.Evaluator
	Results     *history.Store
	Logger      *zerolog.Logger
}

func LoadConfig() *Config {
	return &Config{
		DefaultProvider: getEnv("DEFAULT_LLM_PROVIDER", "gemini"),

		GeminiBaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		GeminiModelID: getEnv("GEMINI_MODEL_ID", "gemini-2.0-flash"),
		GeminiToken:   getEnv("GEMINI_API_TOKEN", ""),

		OpenAIKey:      getEnv("OPEN_AI_KEY", ""),
		OpenAIModelID:  getEnv("OPEN_AI_MODEL_ID", "gpt-4o-mini"),
		WhisperModelID: getEnv("WHISPER_MODEL_ID", "whisper-1"),

		AWSRegion:     getEnv("AWS_REGION", "us-east-1"),
		ClaudeModelID: getEnv("CLAUDE_MODEL_ID", ""),

		STTProvider:   getEnv("STT_PROVIDER", "gemini"),
		TokenEndpoint: getEnv("TOKEN_ENDPOINT", ""),
		GitHubToken:   getEnv("GITHUB_API_TOKEN", ""),
		QuestionsPath: getEnv("QUESTIONS_CONFIG_PATH", ""),

		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		HistoryEnabled: getEnvBool("HISTORY_ENABLED", true),

		StreamProvider: getEnv("STREAM_PROVIDER", "redis"),
		StreamName:     getEnv("STREAM_NAME", "interview:jobs"),
		StreamGroup:    getEnv("STREAM_GROUP", "interview-workers"),
		ConsumerName:   getEnv("CONSUMER_NAME", "worker-1"),

		RetryMaxElapsed: time.Duration(getEnvFloat("RETRY_MAX_ELAPSED_SECONDS", 30)) * time.Second,
	}
}

func Wire(ctx context.Context, cfg *Config, logger *zerolog.Logger) (*Dependencies, error) {
	prompts, err := config.LoadPromptsConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load prompts config: %w", err)
	}

	llmClient, err := createLLMClient(ctx, cfg.DefaultProvider, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	if prompts.Model.Retry {
		llmClient = llm.NewRetryClient(llmClient, cfg.RetryMaxElapsed, logger)
	}

	builder, err := prompt.NewBuilder(prompts.Evaluation)
	if err != nil {
		return nil, fmt.Errorf("failed to build prompt templates: %w", err)
	}

	aggregator := score.NewAggregator(prompts.Scoring, logger)
	evaluator := evaluate.NewEvaluator(builder, llmClient, aggregator, prompts.Model, logger)

	catalog, err := questions.Load(cfg.QuestionsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}

	var tokens *auth.TokenClient
	if cfg.TokenEndpoint != "" {
		tokens, err = auth.NewTokenClient(cfg.TokenEndpoint)
		if err != nil {
			return nil, fmt.Errorf("failed to create token client: %w", err)
		}
	}

	transcriber, err := createTranscriber(cfg, prompts)
	if err != nil {
		return nil, err
	}

	var results *history.Store
	if cfg.HistoryEnabled && cfg.RedisAddr != "" {
		client, err := redisclient.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, 5)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		results = history.NewStore(client, logger)
	}

	return &Dependencies{
		Prompts:     prompts,
		Catalog:     catalog,
		Generator:   questions.NewGenerator(llmClient, cfg.GitHubToken, logger),
		Sessions:    session.NewStore(),
		Tokens:      tokens,
		Transcriber: transcriber,
		Evaluator:   evaluator,
		Results:     results,
		Logger:      logger,
	}, nil
}

func createLLMClient(ctx context.Context, provider string, cfg *Config, logger *zerolog.Logger) (llm.Client, error) {
	switch provider {
	case "gemini":
		return gemini.NewClient(cfg.GeminiBaseURL, cfg.GeminiModelID, cfg.GeminiToken, logger)
	case "openai":
		return openai.NewClient(cfg.OpenAIKey, cfg.OpenAIModelID)
	case "bedrock":
		return bedrock.NewClient(ctx, cfg.AWSRegion, cfg.ClaudeModelID)
	default:
		return gemini.NewClient(cfg.GeminiBaseURL, cfg.GeminiModelID, cfg.GeminiToken, logger)
	}
}

func createTranscriber(cfg *Config, prompts *config.PromptsConfig) (transcribe.Transcriber, error) {
	switch transcribe.Provider(cfg.STTProvider) {
	case transcribe.ProviderWhisper:
		if cfg.OpenAIKey == "" {
			return nil, nil // transcription disabled without credentials
		}
		return transcribe.NewWhisperTranscriber(cfg.OpenAIKey, cfg.WhisperModelID)
	case transcribe.ProviderGemini:
		if cfg.GeminiToken == "" {
			return nil, nil
		}
		return transcribe.NewGeminiTranscriber(cfg.GeminiBaseURL, cfg.GeminiModelID, cfg.GeminiToken, prompts.Evaluation.Transcription), nil
	default:
		return nil, fmt.Errorf("unsupported STT provider: %s", cfg.STTProvider)
	}
}

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		value = defaultValue
	}

	return value
}

func getEnvFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		value = defaultValue
	}

	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		value = defaultValue
	}

	return value
}
