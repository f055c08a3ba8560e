// Package config provides configuration management for the predicates CLI
// and evaluation service.
package config

import (
	"time"

	"github.com/solatis/predicates/internal/rules"
	"github.com/solatis/predicates/internal/types"
)

// Config holds the complete service configuration.
type Config struct {
	Server ServerConfig
	Engine EngineConfig
	Store  StoreConfig
	Log    LogConfig
}

// ServerConfig holds configuration for the gRPC evaluation service.
type ServerConfig struct {
	Host            string
	Port            int
	RequestTimeout  time.Duration
	MaxDocumentSize int
}

// EngineConfig controls rule evaluation.
type EngineConfig struct {
	OnError rules.OnErrorPolicy
}

// StoreConfig locates the rule store.
type StoreConfig struct {
	DBURL string
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string
	Format string
}

// DefaultConfig returns configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            50051,
			RequestTimeout:  30 * time.Second,
			MaxDocumentSize: types.MaxDocumentSize,
		},
		Engine: EngineConfig{
			OnError: rules.OnErrorSkip,
		},
		Store: StoreConfig{
			DBURL: "sqlite://./data/predicates.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
