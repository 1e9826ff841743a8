package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Database struct {
		Path string `mapstructure:"path" yaml:"path"`
	} `mapstructure:"database" yaml:"database"`

	Server struct {
		Addr string `mapstructure:"addr" yaml:"addr"`
	} `mapstructure:"server" yaml:"server"`

	Dedup struct {
		Threshold            float64 `mapstructure:"threshold" yaml:"threshold"`
		AutoConsolidateFloor float64 `mapstructure:"auto_consolidate_floor" yaml:"auto_consolidate_floor"`
		ReviewMarginChars    int     `mapstructure:"review_margin_chars" yaml:"review_margin_chars"`
		CanonicalMode        string  `mapstructure:"canonical_mode" yaml:"canonical_mode"`
		AliasFile            string  `mapstructure:"alias_file" yaml:"alias_file"`
	} `mapstructure:"dedup" yaml:"dedup"`

	Export struct {
		Delimiter      string `mapstructure:"delimiter" yaml:"delimiter"`
		IncludeHeaders bool   `mapstructure:"include_headers" yaml:"include_headers"`
	} `mapstructure:"export" yaml:"export"`
}

// InitializeConfig initializes Viper configuration with hierarchical loading:
// defaults, then config file, then FINTRACK_* environment variables.
func InitializeConfig() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.fintrack")
	v.AddConfigPath(".fintrack")
	v.AddConfigPath(".")

	v.SetEnvPrefix("FINTRACK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Log the error but don't fail - continue with defaults and env vars
			fmt.Printf("Warning: error reading config file %s: %v\n", v.ConfigFileUsed(), err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("database.path", "fintrack.db")

	v.SetDefault("server.addr", ":8080")

	v.SetDefault("dedup.threshold", 0.75)
	v.SetDefault("dedup.auto_consolidate_floor", 0.85)
	v.SetDefault("dedup.review_margin_chars", 5)
	v.SetDefault("dedup.canonical_mode", "shortest")
	v.SetDefault("dedup.alias_file", "merchant-aliases.yaml")

	v.SetDefault("export.delimiter", ",")
	v.SetDefault("export.include_headers", true)
}

// validateConfig rejects settings the engine cannot operate with.
func validateConfig(c *Config) error {
	switch c.Log.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level must be one of debug/info/warn/error, got %q", c.Log.Level)
	}

	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be 'text' or 'json', got %q", c.Log.Format)
	}

	if c.Dedup.Threshold < 0.5 || c.Dedup.Threshold > 0.95 {
		return fmt.Errorf("dedup.threshold must be in [0.5, 0.95], got %v", c.Dedup.Threshold)
	}

	if c.Dedup.AutoConsolidateFloor < c.Dedup.Threshold || c.Dedup.AutoConsolidateFloor > 1.0 {
		return fmt.Errorf("dedup.auto_consolidate_floor must be in [threshold, 1.0], got %v",
			c.Dedup.AutoConsolidateFloor)
	}

	if c.Dedup.ReviewMarginChars < 0 {
		return fmt.Errorf("dedup.review_margin_chars must be non-negative, got %d", c.Dedup.ReviewMarginChars)
	}

	switch c.Dedup.CanonicalMode {
	case "shortest", "history":
	default:
		return fmt.Errorf("dedup.canonical_mode must be 'shortest' or 'history', got %q", c.Dedup.CanonicalMode)
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}

	return nil
}
