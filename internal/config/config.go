package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTPAddr             string   `yaml:"http_addr"`
	DatabaseURL          string   `yaml:"database_url"`
	CORSAllowedOrigins   []string `yaml:"cors_allowed_origins"`
	CORSAllowCredentials bool     `yaml:"cors_allow_credentials"`

	JWTSecret string `yaml:"jwt_secret"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"` // json or console

	AI AIConfig `yaml:"ai"`

	WorkerCount     int           `yaml:"worker_count"`
	JanitorSchedule string        `yaml:"janitor_schedule"`
	RateLimit       int           `yaml:"rate_limit_requests"`
	RateWindow      time.Duration `yaml:"rate_limit_window"`
}

// AIConfig selects the completion backend used for tags, summaries and standups.
type AIConfig struct {
	Provider string        `yaml:"provider"` // openai (any compatible endpoint) or gemini
	BaseURL  string        `yaml:"base_url"`
	APIKey   string        `yaml:"api_key"`
	Model    string        `yaml:"model"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Load reads .env, then an optional YAML file named by CONFIG_FILE, then the
// environment. Later sources win.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		HTTPAddr:        ":8080",
		LogLevel:        "info",
		LogFormat:       "json",
		WorkerCount:     2,
		JanitorSchedule: "@every 1m",
		RateLimit:       200,
		RateWindow:      15 * time.Minute,
		AI: AIConfig{
			Provider: "openai",
			BaseURL:  "https://router.huggingface.co/v1",
			Model:    "meta-llama/Meta-Llama-3-8B-Instruct",
			Timeout:  30 * time.Second,
		},
	}

	if path := getenv("CONFIG_FILE", ""); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.HTTPAddr = getenv("HTTP_ADDR", cfg.HTTPAddr)
	cfg.DatabaseURL = getenv("DATABASE_URL", cfg.DatabaseURL)
	cfg.JWTSecret = getenv("JWT_SECRET", cfg.JWTSecret)
	cfg.LogLevel = getenv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getenv("LOG_FORMAT", cfg.LogFormat)
	cfg.JanitorSchedule = getenv("JANITOR_SCHEDULE", cfg.JanitorSchedule)

	if v := getenv("CORS_ALLOW_CREDENTIALS", ""); v != "" {
		cfg.CORSAllowCredentials = v == "true"
	}
	if v := getenv("CORS_ALLOWED_ORIGINS", ""); v != "" {
		cfg.CORSAllowedOrigins = nil
		for _, o := range strings.Split(v, ",") {
			o = strings.TrimSpace(o)
			if o != "" {
				cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
			}
		}
	}

	cfg.AI.Provider = strings.ToLower(getenv("AI_PROVIDER", cfg.AI.Provider))
	cfg.AI.BaseURL = getenv("AI_BASE_URL", cfg.AI.BaseURL)
	cfg.AI.APIKey = getenv("AI_API_KEY", getenv("HF_ACCESS_TOKEN", cfg.AI.APIKey))
	cfg.AI.Model = getenv("AI_MODEL", getenv("HF_MODEL_ID", cfg.AI.Model))

	var err error
	if cfg.AI.Timeout, err = getDuration("AI_TIMEOUT", cfg.AI.Timeout); err != nil {
		return cfg, err
	}
	if cfg.RateWindow, err = getDuration("RATE_LIMIT_WINDOW", cfg.RateWindow); err != nil {
		return cfg, err
	}
	if cfg.WorkerCount, err = getInt("WORKER_COUNT", cfg.WorkerCount); err != nil {
		return cfg, err
	}
	if cfg.RateLimit, err = getInt("RATE_LIMIT_REQUESTS", cfg.RateLimit); err != nil {
		return cfg, err
	}

	if cfg.DatabaseURL == "" {
		return cfg, fmt.Errorf("missing env: DATABASE_URL")
	}
	if cfg.JWTSecret == "" {
		return cfg, fmt.Errorf("missing env: JWT_SECRET")
	}
	if cfg.WorkerCount < 1 {
		cfg.WorkerCount = 1
	}
	return cfg, nil
}

func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func getInt(key string, def int) (int, error) {
	v := getenv(key, "")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := getenv(key, "")
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
