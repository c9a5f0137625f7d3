// Package config loads engine configuration from a YAML file plus
// environment overrides.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the root engine configuration.
type Config struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Engine  EngineConfig  `mapstructure:"engine"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// EngineConfig tunes the rules engine.
type EngineConfig struct {
	// MaxReplacementIterations bounds the per-event replacement loop.
	MaxReplacementIterations int `mapstructure:"max_replacement_iterations"`
	// StartingLife is the default life total for restored players that
	// carry none.
	StartingLife int `mapstructure:"starting_life"`
	// MaxHandSize is the default maximum hand size.
	MaxHandSize int `mapstructure:"max_hand_size"`
}

// Load reads configuration from the given path. A missing file is not an
// error; defaults and environment variables still apply.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("engine.max_replacement_iterations", 100)
	v.SetDefault("engine.starting_life", 20)
	v.SetDefault("engine.max_hand_size", 7)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
				if !strings.Contains(err.Error(), "no such file") {
					return nil, fmt.Errorf("read config %s: %w", path, err)
				}
			}
		}
	}

	v.SetEnvPrefix("MANAFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}
