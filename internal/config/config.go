// Package config resolves process settings from an optional .env file, an
// optional YAML file, and the environment, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPort        = "8080"
	DefaultCORSOrigins = "http://localhost:5173,http://127.0.0.1:5173"
	DefaultKafkaTopic  = "parking.events"
)

type Config struct {
	HTTPAddr    string   `yaml:"httpAddr"`
	DatabaseURL string   `yaml:"databaseURL"`
	CORSOrigins []string `yaml:"corsOrigins"`

	JWTSecret string        `yaml:"jwtSecret"`
	TokenTTL  time.Duration `yaml:"tokenTTL"`

	RequestTimeout      time.Duration `yaml:"requestTimeout"`
	CompensationTimeout time.Duration `yaml:"compensationTimeout"`
	ShutdownTimeout     time.Duration `yaml:"shutdownTimeout"`

	LogLevel string `yaml:"logLevel"`
	LogFile  string `yaml:"logFile"`

	RedisAddr      string        `yaml:"redisAddr"`
	IdempotencyTTL time.Duration `yaml:"idempotencyTTL"`

	KafkaBrokers []string `yaml:"kafkaBrokers"`
	KafkaTopic   string   `yaml:"kafkaTopic"`

	AuthRatePerMinute float64 `yaml:"authRatePerMinute"`
	AuthRateBurst     int     `yaml:"authRateBurst"`
}

func Defaults() Config {
	return Config{
		HTTPAddr:            ":" + DefaultPort,
		CORSOrigins:         ParseCSV(DefaultCORSOrigins),
		TokenTTL:            2 * time.Hour,
		RequestTimeout:      10 * time.Second,
		CompensationTimeout: 5 * time.Second,
		ShutdownTimeout:     10 * time.Second,
		LogLevel:            "info",
		IdempotencyTTL:      24 * time.Hour,
		KafkaTopic:          DefaultKafkaTopic,
		AuthRatePerMinute:   30,
		AuthRateBurst:       10,
	}
}

// Load builds the configuration. A missing .env is not an error; a named
// CONFIG_FILE that cannot be read is. The returned notes describe where
// values came from, for the caller to log once a logger exists.
func Load() (Config, []string, error) {
	var notes []string
	path, err := LoadEnvFile()
	switch {
	case err != nil:
		notes = append(notes, fmt.Sprintf("failed to load .env: %v", err))
	case path != "":
		notes = append(notes, "loaded env from "+path)
	}

	cfg := Defaults()
	if file := os.Getenv("CONFIG_FILE"); file != "" {
		if err := cfg.mergeYAML(file); err != nil {
			return Config{}, notes, err
		}
		notes = append(notes, "loaded config file "+file)
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, notes, err
	}
	return cfg, notes, nil
}

func (c *Config) mergeYAML(path string) error {
	body, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(body, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get("PORT"); ok {
		c.HTTPAddr = ":" + v
	}
	if v, ok := get("HTTP_ADDR"); ok {
		c.HTTPAddr = v
	}
	if v, ok := get("DATABASE_URL"); ok {
		c.DatabaseURL = v
	}
	if v, ok := get("CORS_ORIGINS"); ok {
		c.CORSOrigins = ParseCSV(v)
	}
	if v, ok := get("JWT_SECRET"); ok {
		c.JWTSecret = v
	}
	if v, ok := get("LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	if v, ok := get("LOG_FILE"); ok {
		c.LogFile = v
	}
	if v, ok := get("REDIS_ADDR"); ok {
		c.RedisAddr = v
	}
	if v, ok := get("KAFKA_BROKERS"); ok {
		c.KafkaBrokers = ParseCSV(v)
	}
	if v, ok := get("KAFKA_TOPIC"); ok {
		c.KafkaTopic = v
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"TOKEN_TTL", &c.TokenTTL},
		{"REQUEST_TIMEOUT", &c.RequestTimeout},
		{"COMPENSATION_TIMEOUT", &c.CompensationTimeout},
		{"SHUTDOWN_TIMEOUT", &c.ShutdownTimeout},
		{"IDEMPOTENCY_TTL", &c.IdempotencyTTL},
	}
	for _, d := range durations {
		v, ok := get(d.key)
		if !ok {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil || parsed <= 0 {
			return fmt.Errorf("%s: invalid duration %q", d.key, v)
		}
		*d.dst = parsed
	}

	if v, ok := get("AUTH_RATE_PER_MINUTE"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			return fmt.Errorf("AUTH_RATE_PER_MINUTE: invalid value %q", v)
		}
		c.AuthRatePerMinute = f
	}
	if v, ok := get("AUTH_RATE_BURST"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("AUTH_RATE_BURST: invalid value %q", v)
		}
		c.AuthRateBurst = n
	}
	return nil
}

// ValidateServer checks the settings the HTTP server cannot start without.
// inMemory servers need no database.
func (c Config) ValidateServer(inMemory bool) error {
	var errs []error
	if c.DatabaseURL == "" && !inMemory {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	return errors.Join(errs...)
}

func ParseCSV(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
