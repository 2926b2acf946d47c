// Package config loads application configuration from a YAML file and
// environment variables. Precedence, lowest to highest: built-in defaults,
// config file, environment (prefix PULSE). A .env file, when present, is
// loaded into the environment before processing.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	yaml "gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable the application reads.
const EnvPrefix = "PULSE"

// Config is the complete application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Data      DataConfig      `yaml:"data" envconfig:"DATA"`
	Normalize NormalizeConfig `yaml:"normalize" envconfig:"NORMALIZE"`
}

// ServerConfig tunes the HTTP server.
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
}

// SecurityConfig groups the request-hardening knobs.
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig tunes the per-process request rate limiter.
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"gte=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"gte=0"`
}

// LoggingConfig tunes the structured logger.
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
}

// DataConfig names the data directory and the expected export files.
type DataConfig struct {
	Dir              string `yaml:"dir" envconfig:"DIR" validate:"required"`
	TransactionsFile string `yaml:"transactions_file" envconfig:"TRANSACTIONS_FILE" validate:"required"`
	SettlementsFile  string `yaml:"settlements_file" envconfig:"SETTLEMENTS_FILE" validate:"required"`
	SupportFile      string `yaml:"support_file" envconfig:"SUPPORT_FILE" validate:"required"`
}

// NormalizeConfig tunes the cleaning heuristics.
type NormalizeConfig struct {
	SparseThreshold    float64 `yaml:"sparse_threshold" envconfig:"SPARSE_THRESHOLD" validate:"gt=0,lte=1"`
	MaxAmount          float64 `yaml:"max_amount" envconfig:"MAX_AMOUNT" validate:"gt=0"`
	MinorUnitColumn    string  `yaml:"minor_unit_column" envconfig:"MINOR_UNIT_COLUMN"`
	MinorUnitThreshold float64 `yaml:"minor_unit_threshold" envconfig:"MINOR_UNIT_THRESHOLD" validate:"gt=0"`
}

// Default returns the built-in configuration. File and environment values
// are layered on top of it.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			RequestTimeout:  30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Data: DataConfig{
			Dir:              "data",
			TransactionsFile: "txn_refunds.csv",
			SettlementsFile:  "settlement_data.csv",
			SupportFile:      "Support Data(Sheet1).csv",
		},
		Normalize: NormalizeConfig{
			SparseThreshold:    0.8,
			MaxAmount:          10_000_000,
			MinorUnitColumn:    "convenience_fees_amt_in_paise",
			MinorUnitThreshold: 10_000,
		},
	}
}

// Load builds the configuration. A missing config file is not an error; a
// malformed one is.
func Load() (*Config, error) {
	// Best effort: a .env file is a development convenience, not a
	// requirement.
	_ = godotenv.Load()

	cfg := Default()
	if path := configFilePath(); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	// PULSE_* variables override anything the file set. Fields without an
	// environment value are left untouched.
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// configFilePath returns the config file to read, or "" when none exists.
func configFilePath() string {
	if path := os.Getenv(EnvPrefix + "_CONFIG_FILE"); path != "" {
		return path
	}
	if _, err := os.Stat("config.yaml"); err == nil {
		return "config.yaml"
	}
	return ""
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks the configuration against its declared constraints.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		messages := make([]string, 0, len(errs))
		for _, fe := range errs {
			messages = append(messages, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
		}
		return fmt.Errorf("config validation: %s", strings.Join(messages, "; "))
	}
	return fmt.Errorf("config validation: %w", err)
}
