// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package config

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	API      APIConfig      `mapstructure:"api"`
	Graph    GraphConfig    `mapstructure:"graph"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port" validate:"min=1,max=65535"`

	// AccessToken guards the HTTP API; empty leaves it open
	AccessToken string `mapstructure:"access_token"`
}

// DatabaseConfig holds the position store connection settings
type DatabaseConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Type        string `mapstructure:"type" validate:"oneof=sqlite postgres"`
	SQLitePath  string `mapstructure:"sqlite_path"`
	PostgresDSN string `mapstructure:"postgres_dsn"`
}

// APIConfig holds the documents backend settings
type APIConfig struct {
	BaseURL        string        `mapstructure:"base_url" validate:"omitempty,url"`
	Token          string        `mapstructure:"token"`
	TokenEnv       string        `mapstructure:"token_env"` // env var holding the bearer token
	TimeoutSeconds int           `mapstructure:"timeout_seconds" validate:"min=1"`
	Retry          RetryConfig   `mapstructure:"retry"`
	Breaker        BreakerConfig `mapstructure:"breaker"`
}

// RetryConfig bounds fetch retries
type RetryConfig struct {
	MaxTries          uint `mapstructure:"max_tries" validate:"min=1"`
	InitialIntervalMS int  `mapstructure:"initial_interval_ms" validate:"min=1"`
	MaxIntervalMS     int  `mapstructure:"max_interval_ms" validate:"gtefield=InitialIntervalMS"`
}

// BreakerConfig configures the circuit breaker around the backend
type BreakerConfig struct {
	Enabled             bool   `mapstructure:"enabled"`
	ConsecutiveFailures uint32 `mapstructure:"consecutive_failures" validate:"min=1"`
	CooldownSeconds     int    `mapstructure:"cooldown_seconds" validate:"min=1"`
}

// GraphConfig holds loading, edge selection and layout pacing settings
type GraphConfig struct {
	PageSize             int      `mapstructure:"page_size" validate:"min=1,max=1000"`
	ContainerTags        []string `mapstructure:"container_tags" validate:"omitempty,dive,required"`
	Sort                 string   `mapstructure:"sort" validate:"oneof=createdAt updatedAt"`
	Order                string   `mapstructure:"order" validate:"oneof=asc desc"`
	Strategy             string   `mapstructure:"strategy" validate:"oneof=window nearest"`
	SimilarityThreshold  float64  `mapstructure:"similarity_threshold" validate:"min=-1,max=1"` // negative keeps every pair
	MaxComparisonsPerDoc int      `mapstructure:"max_comparisons_per_doc" validate:"min=1"`
	TickIntervalMS       int      `mapstructure:"tick_interval_ms" validate:"min=1"`
	LoadMoreThreshold    float64  `mapstructure:"load_more_threshold" validate:"gt=0"`
	Seed                 int64    `mapstructure:"seed"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level       string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Development bool   `mapstructure:"development"`
}

// MetricsConfig holds Prometheus settings
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace" validate:"required_if=Enabled true"`
}

// Database types
const (
	DatabaseSQLite   = "sqlite"
	DatabasePostgres = "postgres"
)
