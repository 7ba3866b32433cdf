package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"mcserver/internal/catalog"
	"mcserver/internal/logx"
)

const (
	// DefaultFile is looked up in the working directory when no --config is given.
	DefaultFile = "mcserver.yaml"
	envPrefix   = "MCSERVER"
)

// Config captures how mcserver finds, downloads and launches servers.
type Config struct {
	// JavaBin is the executable used to launch server.jar. A non-empty bare
	// JAVA_BIN environment variable is honoured as well as MCSERVER_JAVA_BIN.
	JavaBin string `yaml:"java_bin" split_words:"true" validate:"required"`
	// Root is the directory installations are created under.
	Root            string        `yaml:"root"`
	ManifestURL     string        `yaml:"manifest_url" split_words:"true" validate:"required,url"`
	DownloadTimeout time.Duration `yaml:"download_timeout" split_words:"true" validate:"gt=0"`
	Retry           RetryConfig   `yaml:"retry"`
	Logging         logx.Config   `yaml:"logging"`
}

// RetryConfig shapes the start-and-wait-with-retry policy.
type RetryConfig struct {
	Attempts int           `yaml:"attempts" validate:"min=1,max=2"`
	Cooldown time.Duration `yaml:"cooldown" validate:"gte=0"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		JavaBin:         "java",
		Root:            ".",
		ManifestURL:     catalog.DefaultManifestURL,
		DownloadTimeout: 20 * time.Second,
		Retry: RetryConfig{
			Attempts: 2,
			Cooldown: 10 * time.Second,
		},
		Logging: logx.DefaultConfig(),
	}
}

// Load reads the YAML configuration from disk if it exists, then applies a
// .env file from the working directory, then environment overrides, and
// validates the result. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg, err := LoadUnvalidated(path)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadUnvalidated is Load without the final validation.
func LoadUnvalidated(path string) (Config, error) {
	cfg := Default()

	contents, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(contents, &cfg); err != nil {
			return Config{}, fmt.Errorf("unmarshal config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if err := loadDotEnv(".env"); err != nil {
		return Config{}, err
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if bin := strings.TrimSpace(os.Getenv("JAVA_BIN")); bin != "" {
		c.JavaBin = bin
	}
	if err := envconfig.Process(envPrefix, c); err != nil {
		return fmt.Errorf("process environment: %w", err)
	}
	return nil
}

// ApplyDefaults fills fields the YAML or environment left empty.
func (c *Config) ApplyDefaults() {
	defaults := Default()

	if strings.TrimSpace(c.JavaBin) == "" {
		c.JavaBin = defaults.JavaBin
	}
	if strings.TrimSpace(c.Root) == "" {
		c.Root = defaults.Root
	}
	if strings.TrimSpace(c.ManifestURL) == "" {
		c.ManifestURL = defaults.ManifestURL
	}
	if c.DownloadTimeout == 0 {
		c.DownloadTimeout = defaults.DownloadTimeout
	}
	if c.Retry.Attempts == 0 {
		c.Retry.Attempts = defaults.Retry.Attempts
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaults.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = defaults.Logging.Format
	}
}

// Marshal returns the YAML encoding of the configuration.
func (c Config) Marshal() ([]byte, error) {
	buf, err := yaml.Marshal(&c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return buf, nil
}
