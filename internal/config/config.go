// Package config loads yuffin CLI settings from defaults, an optional YAML
// file and YUFFIN_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the resolved settings.
type Config struct {
	LogLevel       string            `mapstructure:"log_level"`
	LogFormat      string            `mapstructure:"log_format"`
	PageSize       int               `mapstructure:"page_size"`
	Concurrency    int               `mapstructure:"concurrency"`
	ChapterPattern string            `mapstructure:"chapter_pattern"`
	CacheBlocks    int               `mapstructure:"cache_blocks"`
	BlockSize      int64             `mapstructure:"block_size"`
	CacheDir       string            `mapstructure:"cache_dir"`
	CacheMaxBytes  int64             `mapstructure:"cache_max_bytes"`
	HTTPHeaders    map[string]string `mapstructure:"http_headers"`
}

// Chapter compiles ChapterPattern.
func (c *Config) Chapter() (*regexp.Regexp, error) {
	re, err := regexp.Compile(c.ChapterPattern)
	if err != nil {
		return nil, fmt.Errorf("chapter_pattern: %w", err)
	}
	return re, nil
}

// Load reads configuration from cfgFile, or from yuffin.yaml in the home or
// working directory if cfgFile is empty. A missing default file is not an error.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("page_size", 36)
	v.SetDefault("concurrency", 8)
	v.SetDefault("chapter_pattern", `(?i)^chapter_`)
	v.SetDefault("cache_blocks", 1024)
	v.SetDefault("block_size", 64<<10)
	v.SetDefault("cache_dir", "")
	v.SetDefault("cache_max_bytes", 512<<20)
	v.SetDefault("http_headers", map[string]string{})

	v.SetEnvPrefix("yuffin")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigName("yuffin")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log_format %q: want text or json", c.LogFormat)
	}
	if c.PageSize < 1 {
		return fmt.Errorf("page_size %d: must be positive", c.PageSize)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency %d: must be positive", c.Concurrency)
	}
	if c.CacheBlocks < 0 {
		return fmt.Errorf("cache_blocks %d: must not be negative", c.CacheBlocks)
	}
	if c.BlockSize < 1 {
		return fmt.Errorf("block_size %d: must be positive", c.BlockSize)
	}
	if c.CacheMaxBytes < 0 {
		return fmt.Errorf("cache_max_bytes %d: must not be negative", c.CacheMaxBytes)
	}
	if _, err := c.Chapter(); err != nil {
		return err
	}
	return nil
}
