package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

type Config struct {
	Environment string `yaml:"environment"`
	ListenAddr  string `yaml:"listen_addr"`
	LogLevel    string `yaml:"log_level"`

	StoreDriver string `yaml:"store_driver"`
	DatabaseDSN string `yaml:"db_dsn"`
	RLSEnabled  bool   `yaml:"rls_enabled"`

	JWTSecret   string        `yaml:"jwt_secret"`
	JWTIssuer   string        `yaml:"jwt_issuer"`
	JWTAudience string        `yaml:"jwt_audience"`
	JWTExpiry   time.Duration `yaml:"jwt_expiry"`

	EnableMetrics           bool   `yaml:"enable_metrics"`
	AssignmentInitialStatus string `yaml:"assignment_initial_status"`

	// Seed account for the memory driver.
	AdminUsername string `yaml:"admin_username"`
	AdminPassword string `yaml:"admin_password"`
}

// LoadError reports a config file that could not be read or parsed.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

func defaults() *Config {
	return &Config{
		Environment:             "development",
		ListenAddr:              ":8080",
		LogLevel:                "info",
		StoreDriver:             DriverPostgres,
		JWTSecret:               defaultJWTSecret,
		JWTIssuer:               "asset-ledger-api",
		JWTAudience:             "asset-ledger-api",
		JWTExpiry:               24 * time.Hour,
		EnableMetrics:           true,
		AssignmentInitialStatus: "active",
		AdminUsername:           "admin",
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// CONFIG_FILE (if any), then environment variables.
func Load() (*Config, error) {
	config := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := config.loadFile(path); err != nil {
			return nil, err
		}
	}

	config.Environment = getEnv("ENVIRONMENT", config.Environment)
	config.ListenAddr = getEnv("LISTEN_ADDR", config.ListenAddr)
	config.LogLevel = getEnv("LOG_LEVEL", config.LogLevel)
	config.StoreDriver = getEnv("STORE_DRIVER", config.StoreDriver)
	config.DatabaseDSN = getEnv("DB_DSN", config.DatabaseDSN)
	config.JWTSecret = getEnv("JWT_SECRET", config.JWTSecret)
	config.JWTIssuer = getEnv("JWT_ISS", config.JWTIssuer)
	config.JWTAudience = getEnv("JWT_AUD", config.JWTAudience)
	config.AssignmentInitialStatus = getEnv("ASSIGNMENT_INITIAL_STATUS", config.AssignmentInitialStatus)
	config.AdminUsername = getEnv("ADMIN_USERNAME", config.AdminUsername)
	config.AdminPassword = getEnv("ADMIN_PASSWORD", config.AdminPassword)

	if expiryStr := os.Getenv("JWT_EXPIRY"); expiryStr != "" {
		expiry, err := time.ParseDuration(expiryStr)
		if err != nil {
			return nil, fmt.Errorf("JWT_EXPIRY: %w", err)
		}
		config.JWTExpiry = expiry
	}

	var err error
	if config.EnableMetrics, err = getBool("ENABLE_METRICS", config.EnableMetrics); err != nil {
		return nil, err
	}
	if config.RLSEnabled, err = getBool("RLS_ENABLED", config.RLSEnabled); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &LoadError{Path: path, Err: err}
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return &LoadError{Path: path, Err: err}
	}
	return nil
}

// IsProduction reports whether ENVIRONMENT is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// SlogLevel maps LogLevel to a slog level.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Validate checks the configuration for values the server cannot start with.
func (c *Config) Validate() error {
	var errs []error

	switch {
	case c.JWTSecret == "":
		errs = append(errs, errors.New("JWT_SECRET is required"))
	case len(c.JWTSecret) < 32:
		errs = append(errs, errors.New("JWT_SECRET must be at least 32 characters"))
	case c.IsProduction() && c.JWTSecret == defaultJWTSecret:
		errs = append(errs, errors.New("JWT_SECRET must be changed in production"))
	}
	if c.JWTIssuer == "" {
		errs = append(errs, errors.New("JWT_ISS is required"))
	}
	if c.JWTAudience == "" {
		errs = append(errs, errors.New("JWT_AUD is required"))
	}
	switch {
	case c.JWTExpiry <= 0:
		errs = append(errs, errors.New("JWT_EXPIRY must be positive"))
	case c.JWTExpiry < time.Minute:
		errs = append(errs, errors.New("JWT_EXPIRY must be at least 1m"))
	case c.JWTExpiry > 30*24*time.Hour:
		errs = append(errs, errors.New("JWT_EXPIRY must be at most 720h"))
	}

	switch c.StoreDriver {
	case DriverPostgres:
		if c.DatabaseDSN == "" {
			errs = append(errs, errors.New("DB_DSN is required for the postgres store"))
		}
	case DriverMemory:
		if c.RLSEnabled {
			errs = append(errs, errors.New("RLS_ENABLED requires the postgres store"))
		}
		if c.IsProduction() {
			errs = append(errs, errors.New("the memory store is not allowed in production"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", DriverMemory, DriverPostgres, c.StoreDriver))
	}

	if c.AssignmentInitialStatus != "active" && c.AssignmentInitialStatus != "pending" {
		errs = append(errs, fmt.Errorf("ASSIGNMENT_INITIAL_STATUS must be active or pending, got %q", c.AssignmentInitialStatus))
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	if c.ListenAddr == "" {
		errs = append(errs, errors.New("LISTEN_ADDR is required"))
	}

	return errors.Join(errs...)
}

// LoadAndValidate loads the configuration and validates it.
func LoadAndValidate() (*Config, error) {
	config, err := Load()
	if err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
