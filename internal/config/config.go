// Package config provides configuration management for the stock API service.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Users    []DemoUser     `mapstructure:"users"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `mapstructure:"port"`
}

// JWTConfig holds token signing configuration.
type JWTConfig struct {
	Key           string `mapstructure:"key"`
	Issuer        string `mapstructure:"issuer"`
	Audience      string `mapstructure:"audience"`
	ExpiryMinutes int    `mapstructure:"expiry_minutes"`
}

// DatabaseConfig holds trade store configuration.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // "sqlite" or "memory"
	Path   string `mapstructure:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
	File    bool   `mapstructure:"file"`
}

// DemoUser is a configured demo credential pair. Passwords are stored and
// compared in plain text; this is a placeholder scheme for the demo tier
// and must be replaced with hashed credentials before production use.
type DemoUser struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/londonstock"
	}
	return filepath.Join(home, ".config", "londonstock")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := &Config{}
	if err := loadConfigFile(configDir, "config", cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	applyDefaults(cfg, configDir)
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func loadConfigFile(configDir, name string, target interface{}) error {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found, write the template so the operator
			// has something to fill in. The template carries no signing
			// key, so Validate will still fail until one is set.
			return createTemplateConfig(configDir)
		}
		return err
	}

	return v.Unmarshal(target)
}

func applyDefaults(cfg *Config, configDir string) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "londonstock"
	}
	if cfg.JWT.Audience == "" {
		cfg.JWT.Audience = "londonstock-api"
	}
	if cfg.JWT.ExpiryMinutes <= 0 {
		cfg.JWT.ExpiryMinutes = 60
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = filepath.Join(configDir, "londonstock.db")
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
		cfg.Logging.Console = true
		cfg.Logging.File = true
	}
	if len(cfg.Users) == 0 {
		cfg.Users = []DemoUser{
			{Username: "broker1", Password: "Password123!"},
			{Username: "broker2", Password: "SecurePassword!"},
		}
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LONDONSTOCK_JWT_KEY"); v != "" {
		cfg.JWT.Key = v
	}
	if v := os.Getenv("LONDONSTOCK_PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("LONDONSTOCK_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
}

// Validate validates the configuration. A missing signing key is a fatal
// configuration error: the service never falls back to an unsigned or
// default-key mode.
func (c *Config) Validate() error {
	if c.JWT.Key == "" {
		return fmt.Errorf("jwt.key is not configured (set it in config.toml or LONDONSTOCK_JWT_KEY)")
	}
	if len(c.JWT.Key) < 32 {
		return fmt.Errorf("jwt.key must be at least 32 bytes for HS256")
	}
	if c.JWT.ExpiryMinutes <= 0 {
		return fmt.Errorf("jwt.expiry_minutes must be positive")
	}
	if c.Database.Driver != "sqlite" && c.Database.Driver != "memory" {
		return fmt.Errorf("invalid database driver: %s (must be 'sqlite' or 'memory')", c.Database.Driver)
	}
	for i, u := range c.Users {
		if u.Username == "" || u.Password == "" {
			return fmt.Errorf("users[%d]: username and password must be set", i)
		}
	}
	return nil
}
