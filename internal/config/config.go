// Package config loads orderlens configuration from a YAML file and the
// environment into one explicit Config object handed to the commands at
// startup. Credentials may be given as ${ENV_VAR} references and are
// resolved at load time.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/spf13/viper"

	"github.com/orderlens/orderlens/internal/extract"
	"github.com/orderlens/orderlens/internal/track"
)

// OpenAIConfig holds model API settings.
type OpenAIConfig struct {
	APIKey        string `mapstructure:"api_key"`
	AzureEndpoint string `mapstructure:"azure_endpoint"`
	APIVersion    string `mapstructure:"api_version"`
	Model         string `mapstructure:"model"`
	MaxTokens     int    `mapstructure:"max_tokens"`
	TimeoutSecs   int    `mapstructure:"timeout_seconds"`
	RateLimit     int    `mapstructure:"rate_limit"`
}

// TrackingConfig holds tracking platform settings.
type TrackingConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	PublicKey string `mapstructure:"public_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// Config is the complete orderlens configuration.
type Config struct {
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Tracking TrackingConfig `mapstructure:"tracking"`
	Dataset  string         `mapstructure:"dataset"`
	PDFDir   string         `mapstructure:"pdf_dir"`
	Workers  int            `mapstructure:"workers"`
}

// Load reads configuration from cfgFile (or ./config.yaml,
// ~/.orderlens/config.yaml) and ORDERLENS_-prefixed environment variables.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("openai.model", "gpt-4o")
	v.SetDefault("openai.api_version", "2024-08-01-preview")
	v.SetDefault("openai.max_tokens", 3000)
	v.SetDefault("openai.timeout_seconds", 120)
	v.SetDefault("dataset", "email_order_extraction")
	v.SetDefault("workers", 4)

	v.SetEnvPrefix("ORDERLENS")
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.orderlens")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.OpenAI.APIKey = ResolveEnvVars(cfg.OpenAI.APIKey)
	cfg.OpenAI.AzureEndpoint = ResolveEnvVars(cfg.OpenAI.AzureEndpoint)
	cfg.Tracking.BaseURL = ResolveEnvVars(cfg.Tracking.BaseURL)
	cfg.Tracking.PublicKey = ResolveEnvVars(cfg.Tracking.PublicKey)
	cfg.Tracking.SecretKey = ResolveEnvVars(cfg.Tracking.SecretKey)

	return &cfg, nil
}

// ResolveEnvVars expands ${ENV_VAR} references in a string.
func ResolveEnvVars(value string) string {
	if value == "" {
		return value
	}
	pattern := regexp.MustCompile(`\$\{([^}]+)\}`)
	return pattern.ReplaceAllStringFunc(value, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})
}

// ValidateExtraction checks the settings needed for model calls.
func (c *Config) ValidateExtraction() error {
	if c.OpenAI.APIKey == "" {
		return errors.New("openai.api_key is required")
	}
	return nil
}

// ValidateTracking checks the settings needed to reach the tracking platform.
func (c *Config) ValidateTracking() error {
	switch {
	case c.Tracking.BaseURL == "":
		return errors.New("tracking.base_url is required")
	case c.Tracking.PublicKey == "":
		return errors.New("tracking.public_key is required")
	case c.Tracking.SecretKey == "":
		return errors.New("tracking.secret_key is required")
	}
	return nil
}

// ExtractClientConfig converts the config for the extraction client.
func (c *Config) ExtractClientConfig() extract.ClientConfig {
	return extract.ClientConfig{
		APIKey:        c.OpenAI.APIKey,
		AzureEndpoint: c.OpenAI.AzureEndpoint,
		APIVersion:    c.OpenAI.APIVersion,
		Model:         c.OpenAI.Model,
		MaxTokens:     c.OpenAI.MaxTokens,
		Timeout:       time.Duration(c.OpenAI.TimeoutSecs) * time.Second,
		RateLimit:     c.OpenAI.RateLimit,
	}
}

// TrackClientConfig converts the config for the tracking client.
func (c *Config) TrackClientConfig() track.Config {
	return track.Config{
		BaseURL:   c.Tracking.BaseURL,
		PublicKey: c.Tracking.PublicKey,
		SecretKey: c.Tracking.SecretKey,
	}
}
