package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/solatis/predicates/internal/core/logging"
	"github.com/solatis/predicates/internal/rules"
)

// EnvPrefix is prepended to every environment override (PRED_SERVER_PORT).
const EnvPrefix = "PRED"

// LoadConfig loads configuration from file using viper.
// Environment > config file > defaults precedence. CLI flags override the
// returned Config in the caller.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	def := DefaultConfig()

	// Set defaults matching DefaultConfig
	v.SetDefault("server.host", def.Server.Host)
	v.SetDefault("server.port", def.Server.Port)
	v.SetDefault("server.request_timeout", def.Server.RequestTimeout.String())
	v.SetDefault("server.max_document_size", def.Server.MaxDocumentSize)
	v.SetDefault("engine.on_error", def.Engine.OnError.String())
	v.SetDefault("store.db_url", def.Store.DBURL)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)

	// Bind environment variables with PRED_ prefix
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Load config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	onError, err := rules.ParseOnErrorPolicy(v.GetString("engine.on_error"))
	if err != nil {
		return nil, fmt.Errorf("engine.on_error: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:            v.GetString("server.host"),
			Port:            v.GetInt("server.port"),
			RequestTimeout:  v.GetDuration("server.request_timeout"),
			MaxDocumentSize: v.GetInt("server.max_document_size"),
		},
		Engine: EngineConfig{
			OnError: onError,
		},
		Store: StoreConfig{
			DBURL: v.GetString("store.db_url"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateConfig checks port range, positive limits and log settings.
func validateConfig(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", cfg.Server.Port)
	}
	if cfg.Server.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", cfg.Server.RequestTimeout)
	}
	if cfg.Server.MaxDocumentSize <= 0 {
		return fmt.Errorf("max_document_size must be positive, got %d", cfg.Server.MaxDocumentSize)
	}
	if cfg.Store.DBURL == "" {
		return fmt.Errorf("store.db_url must not be empty")
	}
	if _, err := logging.GetLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if _, err := logging.GetFormat(cfg.Log.Format); err != nil {
		return fmt.Errorf("log.format: %w", err)
	}
	return nil
}
