package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v10"
	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	configDirName = "jawab"
	defaultConfig = ".config"
)

var configFiles = []string{
	"config.yaml",
	"config.yml",
	"config.toml",
}

// Output formats.
const (
	FormatTerminal = "terminal"
	FormatPlain    = "plain"
	FormatHTML     = "html"
)

// Config represents the structure of the configuration file used by the application.
type Config struct {
	Endpoint string        `yaml:"endpoint" toml:"endpoint" env:"JAWAB_ENDPOINT" default:"http://localhost:8089"`
	Ratio    float64       `yaml:"ratio" toml:"ratio" env:"JAWAB_RATIO" default:"0.8"`
	Timeout  time.Duration `yaml:"timeout" toml:"timeout" env:"JAWAB_TIMEOUT" default:"5m"`
	LogLevel string        `yaml:"log_level" toml:"log_level" env:"JAWAB_LOG_LEVEL" default:"warn"`
	Render   RenderConfig  `yaml:"render" toml:"render"`
}

// RenderConfig controls how answers are written out.
type RenderConfig struct {
	Format    string `yaml:"format" toml:"format" env:"JAWAB_FORMAT" default:"terminal"`
	Wrap      int    `yaml:"wrap" toml:"wrap" env:"JAWAB_WRAP"`
	Theme     string `yaml:"theme" toml:"theme" env:"JAWAB_THEME" default:"auto"`
	CodeStyle string `yaml:"code_style" toml:"code_style" env:"JAWAB_CODE_STYLE" default:"monokai"`
	Labels    bool   `yaml:"labels" toml:"labels" env:"JAWAB_LABELS" default:"true"`
}

// configResult is a struct used to return the configuration and any error that occurs during loading.
type configResult struct {
	config *Config
	err    error
}

// NewDefaultConfig returns a configuration with every default applied.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		// Only reachable with a malformed default tag.
		panic(fmt.Sprintf("invalid config defaults: %v", err))
	}
	return cfg
}

// Validate checks value ranges that the file and environment cannot express.
func (c *Config) Validate() error {
	if c.Ratio < 0 || c.Ratio > 1 {
		return fmt.Errorf("ratio must be between 0 and 1, got %g", c.Ratio)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	switch c.Render.Format {
	case FormatTerminal, FormatPlain, FormatHTML:
	default:
		return fmt.Errorf("unknown render format %q", c.Render.Format)
	}
	if strings.TrimSpace(c.Endpoint) == "" {
		return errors.New("endpoint must not be empty")
	}
	return nil
}

// getConfigPath retrieves the path to the configuration directory based on the XDG_CONFIG_HOME environment variable.
func getConfigPath() (string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}
		configHome = filepath.Join(home, defaultConfig)
	}

	return filepath.Join(configHome, configDirName), nil
}

// tryLoadConfig attempts to load a configuration file from the specified path.
func tryLoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := NewDefaultConfig()
	if filepath.Ext(path) == ".toml" {
		err = toml.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// LoadConfig loads the configuration from the user's config directory and
// applies environment overrides, with a timeout.
func LoadConfig(ctx context.Context) (*Config, error) {
	return load(ctx, "")
}

// LoadConfigFile loads the configuration from an explicit file path and
// applies environment overrides.
func LoadConfigFile(ctx context.Context, path string) (*Config, error) {
	return load(ctx, path)
}

func load(ctx context.Context, path string) (*Config, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	result := make(chan configResult, 1)

	go func() {
		var (
			cfg *Config
			err error
		)
		if path != "" {
			if cfg, err = tryLoadConfig(path); err != nil {
				err = fmt.Errorf("failed to load config from %s: %w", path, err)
			}
		} else {
			cfg, err = loadConfigFiles(ctx)
		}
		if err == nil {
			err = applyEnv(cfg)
		}
		result <- configResult{config: cfg, err: err}
	}()

	done := ctx.Done()
	select {
	case <-done:
		return nil, ctx.Err()
	case r := <-result:
		if r.err != nil {
			return nil, r.err
		}
		if err := r.config.Validate(); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
		return r.config, nil
	}
}

// applyEnv loads an optional .env file and overlays JAWAB_* variables.
func applyEnv(cfg *Config) error {
	_ = godotenv.Load()

	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}
	return nil
}

// loadConfigFiles loads configuration files from the user's home directory.
func loadConfigFiles(ctx context.Context) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error before loading config: %w", err)
	}

	configDir, err := getConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}

	// Return default config early if directory doesn't exist
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		return NewDefaultConfig(), nil
	}

	for _, filename := range configFiles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		cfg, err := tryLoadConfig(filepath.Join(configDir, filename))
		if err == nil {
			return cfg, nil
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load config from %s: %w", filename, err)
		}
	}

	return NewDefaultConfig(), nil
}
