package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/Harshitk-cp/pyramid/internal/domain"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load reads the .env file specified by PYRAMID_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("PYRAMID_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Missing files are fine; the process env still applies.
	_ = godotenv.Load(envFile)
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

// StoreBackend returns "postgres" or "memory".
// Defaults to postgres when DATABASE_URL is set, memory otherwise.
func StoreBackend() string {
	switch b := os.Getenv("STORE_BACKEND"); b {
	case "postgres", "memory":
		return b
	}
	if DatabaseURL() != "" {
		return "postgres"
	}
	return "memory"
}

func MigrationsPath() string {
	p := os.Getenv("MIGRATIONS_PATH")
	if p == "" {
		return "migrations"
	}
	return p
}

// RateLimitRPS returns requests per second limit.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}

// CascadeInterval is how often the background cascade re-evaluates every
// school. Zero disables the worker.
func CascadeInterval() time.Duration {
	raw := os.Getenv("CASCADE_INTERVAL")
	if raw == "" {
		return time.Hour
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return time.Hour
	}
	return d
}

func CascadeWorkers() int {
	n, err := strconv.Atoi(os.Getenv("CASCADE_WORKERS"))
	if err != nil || n <= 0 {
		return 4
	}
	return n
}

func ClassifierConfigPath() string {
	return os.Getenv("CLASSIFIER_CONFIG")
}

// Classifier builds the classifier constants: defaults, then the YAML file
// at CLASSIFIER_CONFIG if set, then individual env overrides.
func Classifier() (domain.ClassifierConfig, error) {
	cfg := domain.DefaultClassifierConfig()

	if path := ClassifierConfigPath(); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read classifier config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse classifier config %s: %w", path, err)
		}
	}

	overrides := []struct {
		key string
		dst *float64
	}{
		{"SAMPLE_NORM", &cfg.SampleNorm},
		{"NOISE_SAMPLE_NORM", &cfg.NoiseSampleNorm},
		{"SIGNIFICANCE_CUTOFF", &cfg.SignificanceCutoff},
		{"CONSISTENCY_EPSILON", &cfg.ConsistencyEpsilon},
		{"NOISE_FLOOR", &cfg.NoiseFloor},
		{"TIER_MIDDLE_THRESHOLD", &cfg.Thresholds.Middle},
		{"TIER_FOUNDATION_THRESHOLD", &cfg.Thresholds.Foundation},
		{"CONFLICT_MARGIN", &cfg.ConflictMargin},
	}
	for _, o := range overrides {
		raw := os.Getenv(o.key)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", o.key, err)
		}
		*o.dst = v
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
