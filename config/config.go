// Package config loads the stockfeed configuration.
//
// Order: DefaultConfig -> yaml file -> environment overrides -> Validate.
// Loading .env into the environment is left to the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"stock-ratings/api"
	"stock-ratings/logging"
	"stock-ratings/search"
)

const (
	EngineMemory = "memory"
	EngineBleve  = "bleve"
)

// Config holds the application configuration
type Config struct {
	API   api.Config     `yaml:"api"`
	Log   logging.Config `yaml:"log"`
	Store StoreConfig    `yaml:"store"`
	View  ViewConfig     `yaml:"view"`
}

// StoreConfig holds the collection store parameters.
type StoreConfig struct {
	Limit           int    `yaml:"limit"`
	MinimumScore    int    `yaml:"minimum_score"`
	ServerFiltering bool   `yaml:"server_filtering"`
	SearchEngine    string `yaml:"search_engine"` // memory, bleve
	Language        string `yaml:"language"`      // BCP 47 tag for string collation
}

// ViewConfig holds the HTTP view server settings.
type ViewConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	Mode           string   `yaml:"mode"` // gin mode: debug, release, test
}

func DefaultConfig() *Config {
	return &Config{
		API: api.DefaultConfig(),
		Log: logging.DefaultConfig(),
		Store: StoreConfig{
			Limit:        10,
			MinimumScore: 7,
			SearchEngine: EngineMemory,
			Language:     "en",
		},
		View: ViewConfig{
			Addr:           ":8090",
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
			Mode:           "release",
		},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// ApplyEnvOverrides applies environment variable overrides.
func (c *Config) ApplyEnvOverrides() error {
	if val := os.Getenv("STOCKFEED_API_BASE_URL"); val != "" {
		c.API.BaseURL = val
	} else if val := os.Getenv("API_BASE_URL"); val != "" {
		c.API.BaseURL = val
	}
	if val := os.Getenv("STOCKFEED_API_TIMEOUT"); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("invalid STOCKFEED_API_TIMEOUT: %w", err)
		}
		c.API.Timeout = d
	}
	if val := os.Getenv("STOCKFEED_LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("STOCKFEED_SERVER_FILTERING"); val != "" {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid STOCKFEED_SERVER_FILTERING: %w", err)
		}
		c.Store.ServerFiltering = b
	}
	if val := os.Getenv("STOCKFEED_VIEW_ADDR"); val != "" {
		c.View.Addr = val
	}
	return nil
}

// Validate returns an error if the configuration is invalid.
func (c *Config) Validate() error {
	if err := c.API.Validate(); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	if c.View.Addr == "" {
		return fmt.Errorf("view.addr cannot be empty")
	}
	switch c.View.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("invalid view.mode: %q (must be debug, release, or test)", c.View.Mode)
	}
	return nil
}

func (s StoreConfig) Validate() error {
	if s.Limit < 1 {
		return fmt.Errorf("store.limit must be at least 1, got %d", s.Limit)
	}
	if s.MinimumScore < 0 {
		return fmt.Errorf("store.minimum_score cannot be negative, got %d", s.MinimumScore)
	}
	if s.SearchEngine != EngineMemory && s.SearchEngine != EngineBleve {
		return fmt.Errorf("invalid store.search_engine: %q (must be memory or bleve)", s.SearchEngine)
	}
	if _, err := language.Parse(s.Language); err != nil {
		return fmt.Errorf("invalid store.language %q: %w", s.Language, err)
	}
	return nil
}

// LanguageTag returns the collation language, English when unset or invalid.
func (s StoreConfig) LanguageTag() language.Tag {
	tag, err := language.Parse(s.Language)
	if err != nil {
		return language.English
	}
	return tag
}

// NewEngine builds the configured filter engine.
func (s StoreConfig) NewEngine(logger zerolog.Logger) search.Engine {
	if s.SearchEngine == EngineBleve {
		return search.NewBleveEngine(logger)
	}
	return search.NewInMemoryEngine()
}
