package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port         string `yaml:"port"`
		ReadTimeout  string `yaml:"readTimeout"`
		WriteTimeout string `yaml:"writeTimeout"`
	} `yaml:"server"`
	Store struct {
		Driver string `yaml:"driver"` // memory, mongo, postgres
	} `yaml:"store"`
	Mongo struct {
		URI      string `yaml:"uri"`
		Database string `yaml:"database"`
	} `yaml:"mongo"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Challenge struct {
		CacheTTL string `yaml:"cacheTTL"`
	} `yaml:"challenge"`
	Sandbox struct {
		Timeout      string `yaml:"timeout"`
		Budget       string `yaml:"budget"`
		Parallelism  int    `yaml:"parallelism"`
		MaxLogLines  int    `yaml:"maxLogLines"`
		MaxCallStack int    `yaml:"maxCallStack"`
	} `yaml:"sandbox"`
	Gamification struct {
		MaxRetries int `yaml:"maxRetries"`
	} `yaml:"gamification"`
	Hint struct {
		APIKey      string  `yaml:"apiKey"`
		BaseURL     string  `yaml:"baseURL"`
		Model       string  `yaml:"model"`
		MaxTokens   int     `yaml:"maxTokens"`
		Temperature float32 `yaml:"temperature"`
		Timeout     string  `yaml:"timeout"`
	} `yaml:"hint"`
	Auth struct {
		JWTSecret string `yaml:"jwtSecret"`
		TokenTTL  string `yaml:"tokenTTL"`
	} `yaml:"auth"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"log"`
}

// Load reads YAML config from path, then applies .env and environment overrides.
// A missing file is not an error; the environment alone can configure the service.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	// .env is optional
	_ = godotenv.Load()
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Server.Port, "PORT")
	setString(&cfg.Store.Driver, "STORE_DRIVER")
	setString(&cfg.Mongo.URI, "MONGODB_URI")
	setString(&cfg.Mongo.Database, "MONGODB_DATABASE")
	setString(&cfg.Postgres.URL, "POSTGRES_URL")
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setString(&cfg.Auth.JWTSecret, "JWT_SECRET")
	setString(&cfg.Hint.APIKey, "OPENAI_API_KEY")
	setString(&cfg.Hint.BaseURL, "OPENAI_BASE_URL")
	setString(&cfg.Log.Level, "LOG_LEVEL")
	if raw, ok := os.LookupEnv("REDIS_DB"); ok {
		if db, err := strconv.Atoi(raw); err == nil {
			cfg.Redis.DB = db
		}
	}
}

func setString(dst *string, key string) {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		*dst = value
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// IntOr returns v when positive, otherwise fallback.
func IntOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}
