package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/mcncl/toonkit/internal/errors"
)

// Environment variables read by ApplyEnv.
const (
	EnvPricingURL     = "TOONKIT_PRICING_URL"
	EnvPricingTimeout = "TOONKIT_PRICING_TIMEOUT"
	EnvPricingModel   = "TOONKIT_PRICING_MODEL"
	EnvEncoding       = "TOONKIT_ENCODING"
	EnvXMLRoot        = "TOONKIT_XML_ROOT"
)

// Config represents the complete configuration for toonkit
type Config struct {
	JSON    JSONConfig    `yaml:"json"`
	XML     XMLConfig     `yaml:"xml"`
	Toon    ToonConfig    `yaml:"toon"`
	Tokens  TokensConfig  `yaml:"tokens"`
	Pricing PricingConfig `yaml:"pricing"`
	Dev     DevConfig     `yaml:"dev"`
}

// JSONConfig controls JSON output
type JSONConfig struct {
	Indent int `yaml:"indent"` // 0 writes compact JSON
}

// XMLConfig names the tags XML output cannot take from the data
type XMLConfig struct {
	RootTag string `yaml:"root_tag"`
	ItemTag string `yaml:"item_tag"`
}

// ToonConfig controls the compact notation
type ToonConfig struct {
	Indent       int  `yaml:"indent"`
	LengthMarker bool `yaml:"length_marker"`
}

// TokensConfig selects the tokenizer vocabulary. Encoding, when set, wins
// over Model.
type TokensConfig struct {
	Model    string `yaml:"model"`
	Encoding string `yaml:"encoding"`
}

// PricingConfig controls the price feed
type PricingConfig struct {
	URL       string        `yaml:"url"`
	Timeout   time.Duration `yaml:"timeout"`
	CacheSize int           `yaml:"cache_size"`
	Model     string        `yaml:"model"`
}

// DevConfig contains development/debug options
type DevConfig struct {
	Debug bool `yaml:"debug"`
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		JSON: JSONConfig{
			Indent: 2,
		},
		XML: XMLConfig{
			RootTag: "root",
			ItemTag: "item",
		},
		Toon: ToonConfig{
			Indent:       2,
			LengthMarker: false,
		},
		Tokens: TokensConfig{
			Model: "gpt-4",
		},
		Pricing: PricingConfig{
			URL:       "https://www.llm-prices.com/current-v1.json",
			Timeout:   10 * time.Second,
			CacheSize: 16,
			Model:     "gpt-5.1",
		},
		Dev: DevConfig{
			Debug: false,
		},
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewConfigError("failed to read config file", err)
	}

	// Start with defaults
	cfg := NewConfig()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.NewConfigError("failed to parse config file", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FindConfigFile searches for a config file in current directory and parents
func FindConfigFile() string {
	configNames := []string{".toonkit.yml", ".toonkit.yaml", "toonkit.yml", "toonkit.yaml"}

	currentDir, err := os.Getwd()
	if err != nil {
		return ""
	}

	// Search up the directory tree
	for {
		for _, name := range configNames {
			configPath := filepath.Join(currentDir, name)
			if _, err := os.Stat(configPath); err == nil {
				return configPath
			}
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	return ""
}

// Load builds the effective configuration: defaults, then the config file
// (configPath, or the nearest one found by FindConfigFile), then .env and
// the process environment.
func Load(configPath string) (*Config, error) {
	cfg := NewConfig()

	if configPath == "" {
		configPath = FindConfigFile()
	}
	if configPath != "" {
		fileConfig, err := LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = fileConfig
	}

	// A missing .env is normal.
	_ = godotenv.Load()

	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// ApplyEnv overrides settings from environment variables looked up with
// getenv. Unset or blank variables leave the current value.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	get := func(key string) string { return strings.TrimSpace(getenv(key)) }

	c.Pricing.URL = firstNonEmpty(get(EnvPricingURL), c.Pricing.URL)
	c.Pricing.Model = firstNonEmpty(get(EnvPricingModel), c.Pricing.Model)
	c.Tokens.Encoding = firstNonEmpty(get(EnvEncoding), c.Tokens.Encoding)
	c.XML.RootTag = firstNonEmpty(get(EnvXMLRoot), c.XML.RootTag)

	if raw := get(EnvPricingTimeout); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return errors.NewConfigError(fmt.Sprintf("invalid %s %q", EnvPricingTimeout, raw), err)
		}
		c.Pricing.Timeout = d
	}
	return nil
}

// Validate rejects settings no component can work with.
func (c *Config) Validate() error {
	switch {
	case c.JSON.Indent < 0 || c.JSON.Indent > 10:
		return errors.NewConfigError(fmt.Sprintf("json.indent must be between 0 and 10, got %d", c.JSON.Indent), nil)
	case c.Toon.Indent < 1 || c.Toon.Indent > 10:
		return errors.NewConfigError(fmt.Sprintf("toon.indent must be between 1 and 10, got %d", c.Toon.Indent), nil)
	case c.Pricing.Timeout < 0:
		return errors.NewConfigError("pricing.timeout must not be negative", nil)
	case c.Pricing.CacheSize < 0:
		return errors.NewConfigError("pricing.cache_size must not be negative", nil)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
