package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/conduit-lang/manifold/internal/orm/connect"
)

// FileName is the config file name, without extension
const FileName = "manifold"

// EnvPrefix prefixes the environment variables that override config keys,
// e.g. MANIFOLD_LOG_LEVEL for log.level
const EnvPrefix = "MANIFOLD"

// DefaultDatabaseURL is used when no database is configured
const DefaultDatabaseURL = "sqlite://./manifold.db"

// Config represents the project configuration
type Config struct {
	ProjectName         string                      `mapstructure:"project_name"`
	Debug               bool                        `mapstructure:"debug"`
	InstalledComponents []string                    `mapstructure:"installed_components"`
	Databases           map[string]connect.Settings `mapstructure:"databases"`
	Timezone            string                      `mapstructure:"timezone"`
	Log                 LogConfig                   `mapstructure:"log"`
	Registry            RegistryConfig              `mapstructure:"registry"`
	Server              ServerConfig                `mapstructure:"server"`

	// File is the config file that was read, empty when defaults were used
	File string `mapstructure:"-"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// RegistryConfig represents component registry configuration
type RegistryConfig struct {
	StrictRelations bool `mapstructure:"strict_relations"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	RootPath string `mapstructure:"root_path"`
}

// Addr returns host:port
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Load loads the configuration from manifold.yaml (or .yml, .toml, .json)
// in the current directory
func Load() (*Config, error) {
	return load("")
}

// LoadFile loads the configuration from an explicit file
func LoadFile(path string) (*Config, error) {
	if path == "" {
		return Load()
	}
	return load(path)
}

func load(path string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("project_name", "")
	v.SetDefault("debug", false)
	v.SetDefault("installed_components", []string{})
	v.SetDefault("timezone", "UTC")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("registry.strict_relations", false)
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.root_path", "")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.AddConfigPath(".")
	}

	// Enable environment variable support
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.File = v.ConfigFileUsed()

	if url := os.Getenv("DATABASE_URL"); url != "" {
		if config.Databases == nil {
			config.Databases = make(map[string]connect.Settings)
		}
		config.Databases[connect.DefaultConnection] = connect.Settings{URL: url}
	}
	if len(config.Databases) == 0 {
		config.Databases = map[string]connect.Settings{
			connect.DefaultConnection: {URL: DefaultDatabaseURL},
		}
	}

	// Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Connections validates the configured databases
func (c *Config) Connections() (map[string]*connect.Connection, error) {
	return connect.ValidateConnections(c.Databases, c.Timezone)
}

// GetProjectRoot finds the project root by looking for a manifold config file
func GetProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		for _, ext := range []string{".yaml", ".yml", ".toml", ".json"} {
			if _, err := os.Stat(filepath.Join(dir, FileName+ext)); err == nil {
				return dir, nil
			}
		}

		// Move up one directory
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not in a manifold project (no %s.yaml found)", FileName)
		}
		dir = parent
	}
}

var (
	logLevels  = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	logFormats = map[string]bool{"console": true, "json": true}
)

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if !logLevels[cfg.Log.Level] {
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got: %s", cfg.Log.Level)
	}
	if !logFormats[cfg.Log.Format] {
		return fmt.Errorf("log.format must be console or json, got: %s", cfg.Log.Format)
	}

	// Validate root path format
	if cfg.Server.RootPath != "" {
		if !strings.HasPrefix(cfg.Server.RootPath, "/") {
			return fmt.Errorf("server.root_path must start with '/', got: %s", cfg.Server.RootPath)
		}
		if strings.HasSuffix(cfg.Server.RootPath, "/") {
			return fmt.Errorf("server.root_path must not end with '/', got: %s", cfg.Server.RootPath)
		}
	}

	seen := make(map[string]bool, len(cfg.InstalledComponents))
	for _, name := range cfg.InstalledComponents {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("installed_components contains an empty entry")
		}
		if seen[name] {
			return fmt.Errorf("installed_components lists %s twice", name)
		}
		seen[name] = true
	}

	if _, err := cfg.Connections(); err != nil {
		return err
	}
	return nil
}
