package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for fabric-fusion.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	BaseURL  string `yaml:"base_url" env:"BASE_URL" env-default:""` // Auto-derived from Port if empty
	Version  string `yaml:"-"`                                      // Set at load time, not from config

	// ShutdownTimeout bounds the graceful drain on SIGINT/SIGTERM.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" env-default:"10s"`

	// Authentication configuration
	Auth AuthConfig `yaml:"auth"`

	// Session configuration for the selection cookie
	Session SessionConfig `yaml:"session"`

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// Object storage for fabric images and user photos
	Storage StorageConfig `yaml:"storage"`

	// Image generation provider
	OpenAI OpenAIConfig `yaml:"openai"`
}

// AuthConfig holds authentication-related configuration.
type AuthConfig struct {
	// EnableVerification controls whether JWT signatures are validated.
	// Set to false for local development without an identity provider.
	EnableVerification bool `yaml:"enable_verification" env:"AUTH_ENABLE_VERIFICATION" env-default:"true"`

	// JWTSecret verifies HS256 tokens (the shared secret of the identity provider).
	JWTSecret string `yaml:"-" env:"AUTH_JWT_SECRET"` // Secret - not in YAML

	// JWKSEndpointsStr is a comma-separated list of issuer=jwks_url pairs
	// used to verify RS256/ES256 tokens.
	// Format: "issuer1=url1,issuer2=url2"
	JWKSEndpointsStr string `yaml:"jwks_endpoints" env:"JWKS_ENDPOINTS" env-default:""`

	// Audience, when set, must be present in the token's aud claim.
	Audience string `yaml:"audience" env:"AUTH_AUDIENCE" env-default:"authenticated"`

	// JWKSEndpoints is the parsed map from JWKSEndpointsStr (not from config file).
	JWKSEndpoints map[string]string `yaml:"-"`
}

// SessionConfig holds cookie session settings.
type SessionConfig struct {
	Secret string `yaml:"-" env:"SESSION_SECRET"` // Secret - not in YAML
	MaxAge int    `yaml:"max_age" env:"SESSION_MAX_AGE" env-default:"86400"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"fabric_fusion"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"fabric_fusion"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// StorageConfig holds S3-compatible object storage configuration.
type StorageConfig struct {
	Endpoint  string `yaml:"endpoint" env:"STORAGE_ENDPOINT" env-default:"localhost:9000"`
	AccessKey string `yaml:"access_key" env:"STORAGE_ACCESS_KEY" env-default:""`
	SecretKey string `yaml:"-" env:"STORAGE_SECRET_KEY"` // Secret - not in YAML
	Bucket    string `yaml:"bucket" env:"STORAGE_BUCKET" env-default:"fabrics"`
	UseSSL    bool   `yaml:"use_ssl" env:"STORAGE_USE_SSL" env-default:"false"`
	// PublicBaseURL is the externally reachable origin of the storage endpoint.
	// Auto-derived from Endpoint and UseSSL if empty.
	PublicBaseURL string `yaml:"public_base_url" env:"STORAGE_PUBLIC_BASE_URL" env-default:""`
}

// OpenAIConfig holds the image generation provider settings.
// The API key may be empty at startup; the relay reports it per request.
type OpenAIConfig struct {
	APIKey  string `yaml:"-" env:"OPENAI_API_KEY"` // Secret - not in YAML
	BaseURL string `yaml:"base_url" env:"OPENAI_BASE_URL" env-default:"https://api.openai.com/v1"`
	Model   string `yaml:"model" env:"OPENAI_IMAGE_MODEL" env-default:"dall-e-3"`
	Size    string `yaml:"size" env:"OPENAI_IMAGE_SIZE" env-default:"1024x1024"`
	Quality string `yaml:"quality" env:"OPENAI_IMAGE_QUALITY" env-default:"standard"`
	Style   string `yaml:"style" env:"OPENAI_IMAGE_STYLE" env-default:"natural"`
}

// Load reads configuration from config.yaml with environment variable overrides.
// When config.yaml does not exist, configuration comes from the environment only.
// The version parameter is injected at build time and set on the returned Config.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else if errors.Is(err, os.ErrNotExist) {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	} else {
		return nil, fmt.Errorf("failed to stat config.yaml: %w", err)
	}

	cfg.Auth.JWKSEndpoints = parseJWKSEndpoints(cfg.Auth.JWKSEndpointsStr)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Auto-derive BaseURL from Port if not explicitly set
	if cfg.BaseURL == "" {
		cfg.BaseURL = (&url.URL{
			Scheme: "http",
			Host:   "localhost:" + cfg.Port,
		}).String()
	}

	if cfg.Storage.PublicBaseURL == "" {
		scheme := "http"
		if cfg.Storage.UseSSL {
			scheme = "https"
		}
		cfg.Storage.PublicBaseURL = (&url.URL{Scheme: scheme, Host: cfg.Storage.Endpoint}).String()
	}
	cfg.Storage.PublicBaseURL = strings.TrimSuffix(cfg.Storage.PublicBaseURL, "/")

	return cfg, nil
}

// validate checks settings that would otherwise fail late at request time.
func (c *Config) validate() error {
	if c.Auth.EnableVerification && c.Auth.JWTSecret == "" && len(c.Auth.JWKSEndpoints) == 0 {
		return fmt.Errorf("auth verification enabled but neither AUTH_JWT_SECRET nor JWKS_ENDPOINTS is set")
	}
	if c.Session.Secret == "" && c.Env != "local" {
		return fmt.Errorf("SESSION_SECRET is required outside local environment")
	}
	return nil
}

// parseJWKSEndpoints parses the JWKS endpoints string into a map.
// Format: "issuer1=url1,issuer2=url2"
func parseJWKSEndpoints(value string) map[string]string {
	endpoints := make(map[string]string)
	if value == "" {
		return endpoints
	}

	pairs := strings.Split(value, ",")
	for _, pair := range pairs {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) == 2 {
			endpoints[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		}
	}
	return endpoints
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// IsLocal reports whether the service runs in the local development environment.
func (c *Config) IsLocal() bool {
	return c.Env == "local"
}
