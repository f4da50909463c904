// Package config loads server settings from an optional YAML file and
// IMAGE_TEXT_MCP_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/ironsheep/image-text-mcp/internal/textgroup"
)

// EnvPrefix is prepended to every environment override, e.g.
// IMAGE_TEXT_MCP_LOG_LEVEL or IMAGE_TEXT_MCP_HISTORY_LIMIT.
const EnvPrefix = "IMAGE_TEXT_MCP"

// DefaultConfigName is the file name (without extension) searched for in the
// working directory when no explicit path is given.
const DefaultConfigName = "image-text-mcp"

// HistoryConfig controls the persisted copy history.
type HistoryConfig struct {
	Path  string `mapstructure:"path"`
	Limit int    `mapstructure:"limit"`
}

// OCRConfig controls the OCR engine.
type OCRConfig struct {
	Languages      []string `mapstructure:"languages"`
	Level          string   `mapstructure:"level"` // "word" or "line"
	TessdataPrefix string   `mapstructure:"tessdata_prefix"`
	Preprocess     bool     `mapstructure:"preprocess"`
}

// BatchConfig controls concurrent batch scans.
type BatchConfig struct {
	Workers int `mapstructure:"workers"`
}

// Config is the complete server configuration.
type Config struct {
	LogLevel string           `mapstructure:"log_level"`
	History  HistoryConfig    `mapstructure:"history"`
	OCR      OCRConfig        `mapstructure:"ocr"`
	Grouping textgroup.Params `mapstructure:"grouping"`
	Batch    BatchConfig      `mapstructure:"batch"`
}

func setDefaults(v *viper.Viper) {
	defaults := textgroup.DefaultParams()

	v.SetDefault("log_level", "info")
	v.SetDefault("history.path", defaultHistoryPath())
	v.SetDefault("history.limit", 50)
	v.SetDefault("ocr.languages", []string{"eng"})
	v.SetDefault("ocr.level", "word")
	v.SetDefault("ocr.tessdata_prefix", "")
	v.SetDefault("ocr.preprocess", true)
	v.SetDefault("grouping.line_overlap", defaults.LineOverlap)
	v.SetDefault("grouping.gap_factor", defaults.GapFactor)
	v.SetDefault("batch.workers", 4)
}

func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	return filepath.Join(home, ".image-text-mcp", "history.json")
}

// Load reads configuration. When path is empty, ./image-text-mcp.yaml is used
// if present; a missing default file is not an error. Environment variables
// override file values.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.History.Limit <= 0 {
		return fmt.Errorf("history.limit must be positive, got %d", c.History.Limit)
	}
	if c.History.Path == "" {
		return errors.New("history.path must not be empty")
	}
	if c.Batch.Workers <= 0 {
		return fmt.Errorf("batch.workers must be positive, got %d", c.Batch.Workers)
	}
	switch c.OCR.Level {
	case "word", "line":
	default:
		return fmt.Errorf("ocr.level must be \"word\" or \"line\", got %q", c.OCR.Level)
	}
	if c.Grouping.LineOverlap <= 0 || c.Grouping.GapFactor <= 0 {
		return fmt.Errorf("grouping thresholds must be positive, got %+v", c.Grouping)
	}
	return nil
}
