// Package config loads process settings from an optional YAML file and the
// environment. Environment variables win over the file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type LLM struct {
	Provider string        `yaml:"provider"`
	Model    string        `yaml:"model,omitempty"`
	BaseURL  string        `yaml:"base_url,omitempty"`
	Timeout  time.Duration `yaml:"timeout"`
	// APIKey is only read from the environment.
	APIKey string `yaml:"-"`
}

type Config struct {
	DatabaseURL        string        `yaml:"database_url"`
	Addr               string        `yaml:"addr"`
	LogMode            string        `yaml:"log_mode"`
	LLM                LLM           `yaml:"llm"`
	PromptsDir         string        `yaml:"prompts_dir,omitempty"`
	PromptBudget       int           `yaml:"prompt_budget"`
	CycleInterval      time.Duration `yaml:"cycle_interval"`
	ReflectionInterval time.Duration `yaml:"reflection_interval"`
	Concurrency        int           `yaml:"concurrency"`
	RedisAddr          string        `yaml:"redis_addr,omitempty"`
	OTelStdout         bool          `yaml:"otel_stdout"`
	OTLPEndpoint       string        `yaml:"otlp_endpoint,omitempty"`
	OTLPInsecure       bool          `yaml:"otlp_insecure,omitempty"`
}

func Default() Config {
	return Config{
		DatabaseURL:        "sqlite:file:wellagent.sqlite?_busy_timeout=5000",
		Addr:               ":8080",
		LogMode:            "prod",
		LLM:                LLM{Provider: "openai", Timeout: 60 * time.Second},
		PromptBudget:       1500,
		CycleInterval:      6 * time.Hour,
		ReflectionInterval: 7 * 24 * time.Hour,
		Concurrency:        4,
	}
}

// Load reads path when it is not empty, applies the environment and
// validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config: %w", err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

var apiKeyEnv = map[string]string{
	"openai":    "OPENAI_API_KEY",
	"gemini":    "GOOGLE_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
}

func (c *Config) applyEnv() error {
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.Addr = getEnv("WELLAGENT_ADDR", c.Addr)
	c.LogMode = getEnv("WELLAGENT_LOG_MODE", c.LogMode)
	c.LLM.Provider = strings.ToLower(getEnv("WELLAGENT_LLM_PROVIDER", c.LLM.Provider))
	c.LLM.Model = getEnv("WELLAGENT_LLM_MODEL", c.LLM.Model)
	c.PromptsDir = getEnv("WELLAGENT_PROMPTS_DIR", c.PromptsDir)
	c.RedisAddr = getEnv("REDIS_ADDR", c.RedisAddr)
	c.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.OTLPEndpoint)
	if env, ok := apiKeyEnv[c.LLM.Provider]; ok {
		c.LLM.APIKey = os.Getenv(env)
	}

	var err error
	if c.LLM.Timeout, err = durationEnv("WELLAGENT_LLM_TIMEOUT", c.LLM.Timeout); err != nil {
		return err
	}
	if c.CycleInterval, err = durationEnv("WELLAGENT_CYCLE_INTERVAL", c.CycleInterval); err != nil {
		return err
	}
	if c.ReflectionInterval, err = durationEnv("WELLAGENT_REFLECTION_INTERVAL", c.ReflectionInterval); err != nil {
		return err
	}
	if c.Concurrency, err = intEnv("WELLAGENT_CONCURRENCY", c.Concurrency); err != nil {
		return err
	}
	if c.PromptBudget, err = intEnv("WELLAGENT_PROMPT_BUDGET", c.PromptBudget); err != nil {
		return err
	}
	if c.OTelStdout, err = boolEnv("WELLAGENT_OTEL_STDOUT", c.OTelStdout); err != nil {
		return err
	}
	if c.OTLPInsecure, err = boolEnv("OTEL_EXPORTER_OTLP_INSECURE", c.OTLPInsecure); err != nil {
		return err
	}
	return nil
}

// Validate checks ranges and enumerations.
func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("database_url is required")
	}
	if _, ok := apiKeyEnv[c.LLM.Provider]; !ok {
		return fmt.Errorf("llm.provider %q is not one of openai, gemini, anthropic", c.LLM.Provider)
	}
	switch c.LogMode {
	case "dev", "prod", "test":
	default:
		return fmt.Errorf("log_mode %q is not one of dev, prod, test", c.LogMode)
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("llm.timeout must be positive")
	}
	if c.CycleInterval < time.Minute {
		return fmt.Errorf("cycle_interval must be at least 1m")
	}
	if c.ReflectionInterval < 0 {
		return fmt.Errorf("reflection_interval must not be negative")
	}
	if c.Concurrency < 1 || c.Concurrency > 64 {
		return fmt.Errorf("concurrency must be between 1 and 64")
	}
	if c.PromptBudget < 100 {
		return fmt.Errorf("prompt_budget must be at least 100 tokens")
	}
	return nil
}

var placeholderKeys = []string{"your-api-key", "your_api_key", "changeme", "sk-xxx", "<api-key>", "placeholder"}

// ReasoningEnabled reports whether a usable model credential is configured.
// Empty and well-known placeholder keys count as absent.
func (c Config) ReasoningEnabled() bool {
	k := strings.TrimSpace(c.LLM.APIKey)
	if k == "" {
		return false
	}
	lower := strings.ToLower(k)
	for _, p := range placeholderKeys {
		if strings.Contains(lower, p) {
			return false
		}
	}
	return true
}

// ProviderConfig is the map handed to the llm factory.
func (c Config) ProviderConfig() map[string]any {
	m := map[string]any{"api_key": c.LLM.APIKey}
	if c.LLM.Model != "" {
		m["model"] = c.LLM.Model
	}
	if c.LLM.BaseURL != "" {
		m["base_url"] = c.LLM.BaseURL
	}
	return m
}

func getEnv(key string, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func boolEnv(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
