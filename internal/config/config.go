// Package config provides configuration loading and validation for the API
// server. It uses koanf to merge environment variables with optional file
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration values for the API server.
type Config struct {
	// Server settings
	Port int    `koanf:"port"`
	Env  string `koanf:"env"`

	// Authorization
	AdminAddress      string `koanf:"admin_address"`
	PrimaryCollection string `koanf:"primary_collection"`

	// JWT authentication (previous secret supports zero-downtime rotation)
	JWTSecret         string `koanf:"jwt_secret"`
	JWTSecretPrevious string `koanf:"jwt_secret_previous"`

	// Storage; empty selects the in-memory store
	DatabaseURL string `koanf:"database_url"`

	// Ownership oracle; empty selects the static development oracle
	OracleURL string `koanf:"oracle_url"`

	// Distributed tracing; disabled by default
	TracingEnabled bool   `koanf:"tracing_enabled"`
	OTLPEndpoint   string `koanf:"otlp_endpoint"`
}

// Configuration validation errors.
var (
	ErrMissingAdminAddress      = errors.New("ADMIN_ADDRESS is required")
	ErrMissingPrimaryCollection = errors.New("PRIMARY_COLLECTION is required")
	ErrMissingJWTSecret         = errors.New("JWT_SECRET is required")
	ErrInvalidPort              = errors.New("PORT must be a valid integer")
	ErrInvalidTracingFlag       = errors.New("TRACING_ENABLED must be a boolean")
)

// Default values for non-secret configuration.
const (
	DefaultPort = 8080
	DefaultEnv  = "development"
)

// Load reads configuration from environment variables and an optional
// config file. Environment variables take precedence over file values.
// Returns the loaded config and a slice of validation errors (empty if valid).
func Load(configFilePath string) (*Config, []error) {
	k := koanf.New(".")
	var loadErrs []error

	if configFilePath != "" {
		if err := k.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return nil, []error{fmt.Errorf("failed to load config file %s: %w", configFilePath, err)}
		}
	}

	port, portErr := getEnvIntOrDefault([]string{"PALETTE_PORT", "PORT"}, k.Int("port"), DefaultPort)
	if portErr != nil {
		loadErrs = append(loadErrs, portErr)
	}

	tracingEnabled, tracingErr := getEnvBool("TRACING_ENABLED", k.Bool("tracing_enabled"))
	if tracingErr != nil {
		loadErrs = append(loadErrs, tracingErr)
	}

	cfg := &Config{
		Port:              port,
		Env:               getEnvOrDefault([]string{"PALETTE_ENV", "ENV"}, k.String("env"), DefaultEnv),
		AdminAddress:      getEnvOrKoanf("ADMIN_ADDRESS", k, "admin_address"),
		PrimaryCollection: getEnvOrKoanf("PRIMARY_COLLECTION", k, "primary_collection"),
		JWTSecret:         getEnvOrKoanf("JWT_SECRET", k, "jwt_secret"),
		JWTSecretPrevious: getEnvOrKoanf("JWT_SECRET_PREVIOUS", k, "jwt_secret_previous"),
		DatabaseURL:       getEnvOrKoanf("DATABASE_URL", k, "database_url"),
		OracleURL:         getEnvOrKoanf("ORACLE_URL", k, "oracle_url"),
		TracingEnabled:    tracingEnabled,
		OTLPEndpoint:      getEnvOrKoanf("OTLP_ENDPOINT", k, "otlp_endpoint"),
	}

	errs := cfg.Validate()
	errs = append(loadErrs, errs...)

	return cfg, errs
}

// getEnvOrKoanf returns the environment variable value if set, otherwise the koanf value.
func getEnvOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	return k.String(koanfKey)
}

// getEnvBool returns the environment variable parsed as a boolean if set,
// otherwise the koanf value.
func getEnvBool(envKey string, koanfVal bool) (bool, error) {
	if val := os.Getenv(envKey); val != "" {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return false, fmt.Errorf("%w: got %q", ErrInvalidTracingFlag, val)
		}
		return b, nil
	}
	return koanfVal, nil
}

// getEnvOrDefault tries multiple environment variable keys in order.
// Returns the first non-empty value found, otherwise the koanf value, or default.
func getEnvOrDefault(envKeys []string, koanfVal string, defaultVal string) string {
	for _, key := range envKeys {
		if val := os.Getenv(key); val != "" {
			return val
		}
	}
	if koanfVal != "" {
		return koanfVal
	}
	return defaultVal
}

// getEnvIntOrDefault tries multiple environment variable keys in order.
// Returns an error if a set variable cannot be parsed as an integer.
func getEnvIntOrDefault(envKeys []string, koanfVal int, defaultVal int) (int, error) {
	for _, key := range envKeys {
		if val := os.Getenv(key); val != "" {
			i, err := strconv.Atoi(val)
			if err != nil {
				return 0, fmt.Errorf("%s must be a valid integer: %w", key, ErrInvalidPort)
			}
			return i, nil
		}
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// Validate checks that all required configuration values are present.
// Returns a slice of validation errors (empty if valid).
func (c *Config) Validate() []error {
	var errs []error

	if c.AdminAddress == "" {
		errs = append(errs, ErrMissingAdminAddress)
	}
	if c.PrimaryCollection == "" {
		errs = append(errs, ErrMissingPrimaryCollection)
	}
	if c.JWTSecret == "" {
		errs = append(errs, ErrMissingJWTSecret)
	}

	return errs
}

// LogSummary returns a summary of the configuration suitable for logging.
// Secrets are masked to prevent accidental exposure.
func (c *Config) LogSummary() map[string]string {
	return map[string]string{
		"port":                fmt.Sprintf("%d", c.Port),
		"env":                 c.Env,
		"admin_address":       c.AdminAddress,
		"primary_collection":  c.PrimaryCollection,
		"jwt_secret":          maskSecret(c.JWTSecret),
		"jwt_secret_previous": maskSecret(c.JWTSecretPrevious),
		"database_url":        maskDatabaseURL(c.DatabaseURL),
		"oracle_url":          c.OracleURL,
		"tracing_enabled":     strconv.FormatBool(c.TracingEnabled),
		"otlp_endpoint":       c.OTLPEndpoint,
	}
}

// maskSecret masks a secret value, showing only the first 4 characters.
// Secrets shorter than 8 characters are fully masked.
func maskSecret(s string) string {
	if s == "" {
		return "<not set>"
	}
	if len(s) < 8 {
		return "****"
	}
	return s[:4] + "****"
}

// maskDatabaseURL masks the password in a database URL.
func maskDatabaseURL(s string) string {
	if s == "" {
		return "<not set>"
	}

	schemeEnd := strings.Index(s, "://")
	if schemeEnd == -1 {
		return maskSecret(s)
	}

	rest := s[schemeEnd+3:]
	atIndex := strings.Index(rest, "@")
	if atIndex == -1 {
		return s // No credentials in URL
	}

	colonIndex := strings.Index(rest[:atIndex], ":")
	if colonIndex == -1 {
		return s // No password (only username)
	}

	return s[:schemeEnd+3] + rest[:colonIndex] + ":****" + rest[atIndex:]
}
