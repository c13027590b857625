// Package config provides secret validation and project settings for the deployer.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the non-secret project settings.
type Config struct {
	Network  string      `mapstructure:"network"`
	Contract string      `mapstructure:"contract"`
	Solidity string      `mapstructure:"solidity"` // compiler version the artifacts are expected to come from
	EnvFile  string      `mapstructure:"env_file"`
	LogLevel string      `mapstructure:"log_level"`
	Paths    PathsConfig `mapstructure:"paths"`
}

// PathsConfig mirrors the project's source and build-output layout.
type PathsConfig struct {
	Sources   string `mapstructure:"sources"`
	Artifacts string `mapstructure:"artifacts"`
	Cache     string `mapstructure:"cache"`
}

// NewViper returns a viper instance with defaults, search paths and NFTST_ env overrides.
// Callers may bind flags on it before passing it to Load.
func NewViper() *viper.Viper {
	v := viper.New()

	v.SetConfigName("deploy")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("NFTST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	return v
}

// Load reads the optional deploy.yaml and unmarshals the merged settings.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we use defaults, env vars and flags
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the settings needed to run a deployment are set.
func (c *Config) Validate() error {
	switch {
	case c.Network == "":
		return fmt.Errorf("%w: network is required", ErrInvalidConfig)
	case c.Contract == "":
		return fmt.Errorf("%w: contract is required", ErrInvalidConfig)
	case c.Paths.Artifacts == "":
		return fmt.Errorf("%w: artifacts path is required", ErrInvalidConfig)
	}
	return nil
}

// setDefaults configures default values for all settings.
func setDefaults(v *viper.Viper) {
	v.SetDefault("network", "sepolia")
	v.SetDefault("contract", "NFTst")
	v.SetDefault("solidity", "0.8.28")
	v.SetDefault("env_file", ".env")
	v.SetDefault("log_level", "info")

	v.SetDefault("paths.sources", "./contracts")
	v.SetDefault("paths.artifacts", "./artifacts")
	v.SetDefault("paths.cache", "./cache")
}
