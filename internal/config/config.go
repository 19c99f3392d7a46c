package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"go.opentelemetry.io/otel/attribute"
)

// Token store backends.
const (
	TokenStoreMemory = "memory"
	TokenStoreRedis  = "redis"
)

// Config holds all configuration for the service.
type Config struct {
	// Server
	Port           int    `envconfig:"PORT" default:"80"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	DefaultCarrier string `envconfig:"DEFAULT_CARRIER" default:"ups"`

	// UPS
	UPSEnabled       bool    `envconfig:"UPS_ENABLED" default:"true"`
	UPSClientID      string  `envconfig:"UPS_CLIENT_ID"`
	UPSClientSecret  string  `envconfig:"UPS_CLIENT_SECRET"`
	UPSAccountNumber string  `envconfig:"UPS_ACCOUNT_NUMBER"`
	UPSBaseURL       string  `envconfig:"UPS_BASE_URL" default:"https://wwwcie.ups.com"`
	UPSUseMock       bool    `envconfig:"UPS_USE_MOCK" default:"false"`
	UPSMaxRPS        float64 `envconfig:"UPS_MAX_RPS" default:"0"`

	// FedEx
	FedExEnabled       bool   `envconfig:"FEDEX_ENABLED" default:"true"`
	FedExClientID      string `envconfig:"FEDEX_CLIENT_ID"`
	FedExClientSecret  string `envconfig:"FEDEX_CLIENT_SECRET"`
	FedExAccountNumber string `envconfig:"FEDEX_ACCOUNT_NUMBER"`
	FedExBaseURL       string `envconfig:"FEDEX_BASE_URL" default:"https://apis-sandbox.fedex.com"`

	// Credential cache
	TokenStore string `envconfig:"TOKEN_STORE" default:"memory"`
	RedisURL   string `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`

	// Telemetry
	OTELEnabled  bool   `envconfig:"OTEL_ENABLED" default:"false"`
	OTELEndpoint string `envconfig:"OTEL_ENDPOINT" default:"localhost:4318"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"ratebridge"`
	Version      string `envconfig:"SERVICE_VERSION" default:"0.0.1"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values envconfig cannot check on its own.
func (c *Config) Validate() error {
	switch c.TokenStore {
	case TokenStoreMemory, TokenStoreRedis:
	default:
		return fmt.Errorf("invalid TOKEN_STORE %q: must be %q or %q", c.TokenStore, TokenStoreMemory, TokenStoreRedis)
	}
	if c.UPSMaxRPS < 0 {
		return fmt.Errorf("invalid UPS_MAX_RPS %v: must not be negative", c.UPSMaxRPS)
	}
	if c.DefaultCarrier == "" {
		return fmt.Errorf("DEFAULT_CARRIER must not be empty")
	}
	return nil
}

// Attributes returns OpenTelemetry attributes for this configuration.
func (c *Config) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("service.name", c.ServiceName),
		attribute.String("service.version", c.Version),
		attribute.String("default_carrier", c.DefaultCarrier),
		attribute.Bool("ups.enabled", c.UPSEnabled),
		attribute.Bool("ups.mock", c.UPSUseMock),
		attribute.Bool("fedex.enabled", c.FedExEnabled),
		attribute.String("token_store", c.TokenStore),
	}
}
