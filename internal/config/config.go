// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	// DefaultConfigDir is the default configuration directory
	DefaultConfigDir = ".mimir-graph/configs"
	// DefaultConfigFile is the default configuration filename
	DefaultConfigFile = "config.json"
	// DefaultTokenEnv names the variable the bearer token is read from
	DefaultTokenEnv = "MIMIR_GRAPH_TOKEN"
)

// Load reads configuration from ~/.mimir-graph/configs/config.json
func Load() (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}

	configPath := filepath.Join(homeDir, DefaultConfigDir)

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(configPath)

	// Set defaults
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// Config file not found, use defaults
			return loadFromDefaults(v)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return unmarshalAndValidate(v)
}

// LoadFromPath loads configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return unmarshalAndValidate(v)
}

func unmarshalAndValidate(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	// Server defaults
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)

	// Database defaults
	v.SetDefault("database.enabled", d.Database.Enabled)
	v.SetDefault("database.type", d.Database.Type)
	v.SetDefault("database.sqlite_path", d.Database.SQLitePath)

	// API defaults
	v.SetDefault("api.token_env", d.API.TokenEnv)
	v.SetDefault("api.timeout_seconds", d.API.TimeoutSeconds)
	v.SetDefault("api.retry.max_tries", d.API.Retry.MaxTries)
	v.SetDefault("api.retry.initial_interval_ms", d.API.Retry.InitialIntervalMS)
	v.SetDefault("api.retry.max_interval_ms", d.API.Retry.MaxIntervalMS)
	v.SetDefault("api.breaker.enabled", d.API.Breaker.Enabled)
	v.SetDefault("api.breaker.consecutive_failures", d.API.Breaker.ConsecutiveFailures)
	v.SetDefault("api.breaker.cooldown_seconds", d.API.Breaker.CooldownSeconds)

	// Graph defaults
	v.SetDefault("graph.page_size", d.Graph.PageSize)
	v.SetDefault("graph.sort", d.Graph.Sort)
	v.SetDefault("graph.order", d.Graph.Order)
	v.SetDefault("graph.strategy", d.Graph.Strategy)
	v.SetDefault("graph.similarity_threshold", d.Graph.SimilarityThreshold)
	v.SetDefault("graph.max_comparisons_per_doc", d.Graph.MaxComparisonsPerDoc)
	v.SetDefault("graph.tick_interval_ms", d.Graph.TickIntervalMS)
	v.SetDefault("graph.load_more_threshold", d.Graph.LoadMoreThreshold)
	v.SetDefault("graph.seed", d.Graph.Seed)

	// Logging and metrics defaults
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.development", d.Logging.Development)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.namespace", d.Metrics.Namespace)
}

// loadFromDefaults creates a config from default values
func loadFromDefaults(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal default config: %w", err)
	}
	return &cfg, nil
}

var structValidator = validator.New()

// Validate checks field ranges and the cross-field database requirements
func Validate(cfg *Config) error {
	if err := structValidator.Struct(cfg); err != nil {
		return err
	}

	// Validate database connection info
	if cfg.Database.Type == DatabaseSQLite && cfg.Database.SQLitePath == "" {
		return fmt.Errorf("database.sqlite_path is required when type is 'sqlite'")
	}
	if cfg.Database.Type == DatabasePostgres && cfg.Database.PostgresDSN == "" {
		return fmt.Errorf("database.postgres_dsn is required when type is 'postgres'")
	}

	return nil
}

// ApplyEnvOverrides applies environment variable overrides to configuration
func ApplyEnvOverrides(cfg *Config, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if apiURL := getEnv("MIMIR_GRAPH_API_URL"); apiURL != "" {
		cfg.API.BaseURL = apiURL
		logger.Info("API base URL from ENV", zap.String("url", apiURL))
	}

	if dbType := getEnv("DB_TYPE", "MIMIR_GRAPH_DB_TYPE"); dbType != "" {
		cfg.Database.Type = dbType
		cfg.Database.Enabled = true
		logger.Info("Database type from ENV", zap.String("type", dbType))
	}

	if dbPath := getEnv("DB_PATH", "MIMIR_GRAPH_DB_PATH"); dbPath != "" {
		cfg.Database.SQLitePath = dbPath
		logger.Info("Database path from ENV")
	}

	if dbDSN := getEnv("DB_DSN", "MIMIR_GRAPH_DB_DSN"); dbDSN != "" {
		cfg.Database.PostgresDSN = dbDSN
		logger.Info("Database DSN from ENV (hidden)")
	}

	if token := getEnv("MIMIR_GRAPH_ACCESS_TOKEN"); token != "" {
		cfg.Server.AccessToken = token
		logger.Info("Server access token from ENV (hidden)")
	}

	if portStr := getEnv("PORT", "MIMIR_GRAPH_PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil {
			cfg.Server.Port = port
			logger.Info("Port from ENV", zap.Int("port", port))
		}
	}
}

// getEnv tries multiple environment variable names and returns the first non-empty value
func getEnv(names ...string) string {
	for _, name := range names {
		if val := os.Getenv(name); val != "" {
			return val
		}
	}
	return ""
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get user home directory: %w", err)
	}

	configPath := filepath.Join(homeDir, DefaultConfigDir)
	if err := os.MkdirAll(configPath, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return nil
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
		Database: DatabaseConfig{
			Type:       DatabaseSQLite,
			SQLitePath: filepath.Join(homeDir, ".mimir-graph/db/layout.db"),
		},
		API: APIConfig{
			TokenEnv:       DefaultTokenEnv,
			TimeoutSeconds: 30,
			Retry: RetryConfig{
				MaxTries:          3,
				InitialIntervalMS: 200,
				MaxIntervalMS:     5000,
			},
			Breaker: BreakerConfig{
				Enabled:             true,
				ConsecutiveFailures: 5,
				CooldownSeconds:     30,
			},
		},
		Graph: GraphConfig{
			PageSize:             50,
			Sort:                 "createdAt",
			Order:                "desc",
			Strategy:             "window",
			SimilarityThreshold:  0.725,
			MaxComparisonsPerDoc: 10,
			TickIntervalMS:       16,
			LoadMoreThreshold:    200,
			Seed:                 1,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "mimir_graph",
		},
	}
}
