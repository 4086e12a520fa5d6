package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	configPathEnv    = "MENTIONS_SCANNER_CONFIG"
	databaseDSNEnv   = "DATABASE_DSN"
	nerEndpointEnv   = "NER_ENDPOINT"
	nerAPIKeyEnv     = "NER_API_KEY"
	nerWorkersEnv    = "NER_WORKERS"
	logLevelEnv      = "LOG_LEVEL"
	episodesDirEnv   = "EPISODES_DIR"
	storageDriverEnv = "STORAGE_DRIVER"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging    LoggingConfig    `yaml:"logging"`
	Episodes   EpisodesConfig   `yaml:"episodes"`
	Source     SourceConfig     `yaml:"source"`
	YouTube    YouTubeConfig    `yaml:"youtube"`
	Recognizer RecognizerConfig `yaml:"recognizer"`
	Storage    StorageConfig    `yaml:"storage"`
	Rules      RulesConfig      `yaml:"rules"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// EpisodesConfig points at the directory holding raw and parsed episode files.
type EpisodesConfig struct {
	Dir string `yaml:"dir" validate:"required"`
}

// SourceConfig names the segment source strategy used by parse runs.
type SourceConfig struct {
	Name string `yaml:"name" validate:"oneof=file youtube"`
}

// YouTubeConfig describes the caption endpoint used by fetch runs.
type YouTubeConfig struct {
	BaseURL  string        `yaml:"baseUrl" validate:"required,url"`
	Language string        `yaml:"language" validate:"required"`
	Timeout  time.Duration `yaml:"timeout" validate:"gt=0"`
}

// RecognizerConfig selects and configures the named-entity recognizer.
type RecognizerConfig struct {
	Driver   string            `yaml:"driver" validate:"oneof=http prose none"`
	Endpoint string            `yaml:"endpoint" validate:"required_if=Driver http"`
	APIKey   string            `yaml:"apiKey"`
	Models   []string          `yaml:"models"`
	Workers  int               `yaml:"workers" validate:"min=1,max=64"`
	Timeout  time.Duration     `yaml:"timeout" validate:"gt=0"`
	LabelMap map[string]string `yaml:"labelMap"`
}

// StorageConfig selects where episode results are persisted.
type StorageConfig struct {
	Driver string `yaml:"driver" validate:"oneof=file postgres sqlite"`
	DSN    string `yaml:"dsn" validate:"required_unless=Driver file"`
}

// RulesConfig adjusts the built-in mention rules.
type RulesConfig struct {
	ExtraSkipBrands []string `yaml:"extraSkipBrands"`
	AdWindow        int      `yaml:"adWindow" validate:"min=0"`
	SuppressAdReads bool     `yaml:"suppressAdReads"`
}

// Load reads YAML configuration over the defaults and applies environment
// overrides. path wins over MENTIONS_SCANNER_CONFIG; both may be empty.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks field constraints.
func (c Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Storage.DSN = v
	}

	if v := os.Getenv(storageDriverEnv); v != "" {
		c.Storage.Driver = strings.ToLower(v)
	}

	if v := os.Getenv(nerEndpointEnv); v != "" {
		c.Recognizer.Endpoint = v
	}

	if v := os.Getenv(nerAPIKeyEnv); v != "" {
		c.Recognizer.APIKey = v
	}

	if v := os.Getenv(nerWorkersEnv); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", nerWorkersEnv, err)
		}
		c.Recognizer.Workers = n
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(episodesDirEnv); v != "" {
		c.Episodes.Dir = v
	}

	return nil
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Logging:  LoggingConfig{Level: "info", Format: "text"},
		Episodes: EpisodesConfig{Dir: "public/episodes"},
		Source:   SourceConfig{Name: "file"},
		YouTube: YouTubeConfig{
			BaseURL:  "https://www.youtube.com",
			Language: "en",
			Timeout:  20 * time.Second,
		},
		Recognizer: RecognizerConfig{
			Driver:   "http",
			Endpoint: "http://localhost:8080",
			Models:   []string{"en_core_web_lg", "en_core_web_sm"},
			Workers:  4,
			Timeout:  15 * time.Second,
			LabelMap: map[string]string{"GPE": "ORG"},
		},
		Storage: StorageConfig{Driver: "file"},
		Rules:   RulesConfig{AdWindow: 15},
	}
}
