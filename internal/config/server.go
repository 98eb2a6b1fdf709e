package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/rezkam/tasks/internal/env"
)

// ConfigFileEnv names the optional TOML file loaded before the environment.
const ConfigFileEnv = "TASKS_CONFIG_FILE"

// ServerConfig holds all configuration for the server binary.
type ServerConfig struct {
	Storage         StorageConfig       `toml:"storage"`
	HTTP            HTTPConfig          `toml:"http"`
	Todo            TodoConfig          `toml:"todo"`
	Observability   ObservabilityConfig `toml:"observability"`
	ShutdownTimeout time.Duration       `toml:"shutdown_timeout" env:"TASKS_SHUTDOWN_TIMEOUT" default:"10s"`
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Host              string        `toml:"host" env:"TASKS_HTTP_HOST"`
	Port              string        `toml:"port" env:"TASKS_HTTP_PORT" default:"8081"`
	ReadTimeout       time.Duration `toml:"read_timeout" env:"TASKS_HTTP_READ_TIMEOUT" default:"15s"`
	WriteTimeout      time.Duration `toml:"write_timeout" env:"TASKS_HTTP_WRITE_TIMEOUT" default:"15s"`
	IdleTimeout       time.Duration `toml:"idle_timeout" env:"TASKS_HTTP_IDLE_TIMEOUT" default:"60s"`
	ReadHeaderTimeout time.Duration `toml:"read_header_timeout" env:"TASKS_HTTP_READ_HEADER_TIMEOUT" default:"5s"`
	MaxHeaderBytes    int           `toml:"max_header_bytes" env:"TASKS_HTTP_MAX_HEADER_BYTES" default:"1048576"`
	MaxBodyBytes      int64         `toml:"max_body_bytes" env:"TASKS_HTTP_MAX_BODY_BYTES" default:"1048576"`
}

// TodoConfig holds todo service configuration.
type TodoConfig struct {
	MutationTimeout time.Duration `toml:"mutation_timeout" env:"TASKS_TODO_MUTATION_TIMEOUT" default:"5s"`
}

// ObservabilityConfig holds observability configuration.
type ObservabilityConfig struct {
	OTelEnabled bool   `toml:"otel_enabled" env:"TASKS_OTEL_ENABLED" default:"false"`
	ServiceName string `toml:"service_name" env:"OTEL_SERVICE_NAME" default:"tasks"`
}

// Validate checks cross-field constraints.
func (c *ServerConfig) Validate() error {
	if c.ShutdownTimeout <= 0 {
		return errors.New("TASKS_SHUTDOWN_TIMEOUT must be positive")
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		return errors.New("TASKS_HTTP_MAX_BODY_BYTES must be positive")
	}
	return nil
}

// LoadServerConfig loads configuration from defaults, then the optional TOML
// file named by TASKS_CONFIG_FILE, then the environment, and validates it.
func LoadServerConfig() (*ServerConfig, error) {
	cfg := &ServerConfig{}
	if err := load(cfg, os.Getenv(ConfigFileEnv)); err != nil {
		return nil, fmt.Errorf("failed to load server config: %w", err)
	}
	return cfg, nil
}

// LoadStorageConfig loads only the storage section, for tools that talk to
// the backend directly.
func LoadStorageConfig() (*StorageConfig, error) {
	cfg := &ServerConfig{}
	if err := load(cfg, os.Getenv(ConfigFileEnv)); err != nil {
		return nil, fmt.Errorf("failed to load storage config: %w", err)
	}
	return &cfg.Storage, nil
}

func load(cfg *ServerConfig, file string) error {
	if err := env.SetDefaults(cfg); err != nil {
		return err
	}

	if file != "" {
		md, err := toml.DecodeFile(file, cfg)
		if err != nil {
			return fmt.Errorf("failed to read config file %s: %w", file, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return fmt.Errorf("unknown keys in config file %s: %v", file, undecoded)
		}
	}

	return env.Load(cfg)
}
