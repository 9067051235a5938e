package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the grading API service.
type Config struct {
	AppName           string
	AppEnv            string
	AppPort           string
	DatabaseURL       string
	RedisURL          string
	NATSURL           string
	ProgressChannel   string
	OpenAIAPIKey      string
	OpenAIModel       string
	OpenAIMaxTokens   int
	OpenAITemperature float64
	ModelMinInterval  time.Duration
	ModelMaxRetries   int
	ModelRetryBackoff time.Duration
	FuzzyThreshold    float64
	MaxEvidence       int
	ReportCacheTTL    time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("DPT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "DPT Scoring API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("progress.channel", "dpt")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.max_tokens", 2048)
	v.SetDefault("openai.temperature", 0.0)
	v.SetDefault("model.min_interval", "1s")
	v.SetDefault("model.max_retries", 2)
	v.SetDefault("model.retry_backoff", "2s")
	v.SetDefault("fuzzy.threshold", 0.75)
	v.SetDefault("max.evidence", 3)
	v.SetDefault("report.cache_ttl", "10m")

	minInterval, err := parseDuration(v.GetString("model.min_interval"), "model min interval")
	if err != nil {
		return Config{}, err
	}
	retryBackoff, err := parseDuration(v.GetString("model.retry_backoff"), "model retry backoff")
	if err != nil {
		return Config{}, err
	}
	cacheTTL, err := parseDuration(v.GetString("report.cache_ttl"), "report cache ttl")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:           v.GetString("app.name"),
		AppEnv:            v.GetString("app.env"),
		AppPort:           v.GetString("app.port"),
		DatabaseURL:       v.GetString("database.url"),
		RedisURL:          v.GetString("redis.url"),
		NATSURL:           v.GetString("nats.url"),
		ProgressChannel:   v.GetString("progress.channel"),
		OpenAIAPIKey:      v.GetString("openai_api_key"),
		OpenAIModel:       v.GetString("openai.model"),
		OpenAIMaxTokens:   v.GetInt("openai.max_tokens"),
		OpenAITemperature: v.GetFloat64("openai.temperature"),
		ModelMinInterval:  minInterval,
		ModelMaxRetries:   v.GetInt("model.max_retries"),
		ModelRetryBackoff: retryBackoff,
		FuzzyThreshold:    v.GetFloat64("fuzzy.threshold"),
		MaxEvidence:       v.GetInt("max.evidence"),
		ReportCacheTTL:    cacheTTL,
	}

	if cfg.OpenAIAPIKey == "" {
		return Config{}, fmt.Errorf("openai api key must be provided")
	}

	if cfg.FuzzyThreshold <= 0 || cfg.FuzzyThreshold > 1 {
		cfg.FuzzyThreshold = 0.75
	}

	if cfg.MaxEvidence <= 0 {
		cfg.MaxEvidence = 3
	}

	return cfg, nil
}

func parseDuration(value, name string) (time.Duration, error) {
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return parsed, nil
}
