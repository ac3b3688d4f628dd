// Package config loads docket configuration from config.toml, an optional
// environment overlay, and DOCKET_* environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"

	"github.com/JaimeStill/docket/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvDocketEnv             = "DOCKET_ENV"
	EnvDocketLogLevel        = "DOCKET_LOG_LEVEL"
	EnvDocketShutdownTimeout = "DOCKET_SHUTDOWN_TIMEOUT"
	EnvDocketVersion         = "DOCKET_VERSION"
)

var storageEnv = &storage.Env{
	Backend:          "DOCKET_STORAGE_BACKEND",
	ContainerName:    "DOCKET_STORAGE_CONTAINER_NAME",
	ConnectionString: "DOCKET_STORAGE_CONNECTION_STRING",
	AccountURL:       "DOCKET_STORAGE_ACCOUNT_URL",
}

// Config is the root configuration for docket.
type Config struct {
	LogLevel        string                          `toml:"log_level"`
	ShutdownTimeout string                          `toml:"shutdown_timeout"`
	Version         string                          `toml:"version"`
	Pipeline        PipelineConfig                  `toml:"pipeline"`
	Extract         ExtractConfig                   `toml:"extract"`
	Publish         PublishConfig                   `toml:"publish"`
	Storage         storage.Config                  `toml:"storage"`
	Prompts         PromptsConfig                   `toml:"prompts"`
	Agent           gaconfig.AgentConfig            `toml:"agent"`
	StageAgents     map[string]gaconfig.AgentConfig `toml:"stage_agents"`
}

// Env returns the DOCKET_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvDocketEnv); env != "" {
		return env
	}
	return "local"
}

// Level returns LogLevel as a slog.Level.
func (c *Config) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.Finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
// Stage agent overrides in overlay replace base entries of the same name.
func (c *Config) Merge(overlay *Config) {
	if overlay.LogLevel != "" {
		c.LogLevel = overlay.LogLevel
	}
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Pipeline.Merge(&overlay.Pipeline)
	c.Extract.Merge(&overlay.Extract)
	c.Publish.Merge(&overlay.Publish)
	c.Storage.Merge(&overlay.Storage)
	c.Prompts.Merge(&overlay.Prompts)
	c.Agent.Merge(&overlay.Agent)

	for name, agent := range overlay.StageAgents {
		if c.StageAgents == nil {
			c.StageAgents = make(map[string]gaconfig.AgentConfig)
		}
		c.StageAgents[name] = agent
	}
}

// Finalize applies defaults, environment overrides, and validation to every
// section. Load calls it; callers that build a Config in code call it directly.
func (c *Config) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Pipeline.Finalize(); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	if err := c.Extract.Finalize(); err != nil {
		return fmt.Errorf("extract: %w", err)
	}
	if err := c.Publish.Finalize(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Prompts.Finalize(); err != nil {
		return fmt.Errorf("prompts: %w", err)
	}
	if err := FinalizeAgent(&c.Agent); err != nil {
		return fmt.Errorf("agent: %w", err)
	}
	if err := c.finalizeStageAgents(); err != nil {
		return err
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvDocketLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvDocketShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvDocketVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvDocketEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
