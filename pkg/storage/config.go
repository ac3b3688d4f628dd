package storage

import (
	"fmt"
	"os"
)

// Backend names a storage implementation.
type Backend string

const (
	Filesystem Backend = "filesystem"
	Azure      Backend = "azure"
)

// Config selects a storage backend and holds Azure Blob Storage connection parameters.
// The Azure backend authenticates with ConnectionString when set, otherwise
// with the default Azure credential chain against AccountURL.
type Config struct {
	Backend          Backend `toml:"backend"`
	ContainerName    string  `toml:"container_name"`
	ConnectionString string  `toml:"connection_string"`
	AccountURL       string  `toml:"account_url"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Backend          string
	ContainerName    string
	ConnectionString string
	AccountURL       string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Backend != "" {
		c.Backend = overlay.Backend
	}
	if overlay.ContainerName != "" {
		c.ContainerName = overlay.ContainerName
	}
	if overlay.ConnectionString != "" {
		c.ConnectionString = overlay.ConnectionString
	}
	if overlay.AccountURL != "" {
		c.AccountURL = overlay.AccountURL
	}
}

func (c *Config) loadDefaults() {
	if c.Backend == "" {
		c.Backend = Filesystem
	}
	if c.ContainerName == "" {
		c.ContainerName = "docket"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Backend != "" {
		if v := os.Getenv(env.Backend); v != "" {
			c.Backend = Backend(v)
		}
	}
	if env.ContainerName != "" {
		if v := os.Getenv(env.ContainerName); v != "" {
			c.ContainerName = v
		}
	}
	if env.ConnectionString != "" {
		if v := os.Getenv(env.ConnectionString); v != "" {
			c.ConnectionString = v
		}
	}
	if env.AccountURL != "" {
		if v := os.Getenv(env.AccountURL); v != "" {
			c.AccountURL = v
		}
	}
}

func (c *Config) validate() error {
	switch c.Backend {
	case Filesystem:
		return nil
	case Azure:
		if c.ContainerName == "" {
			return fmt.Errorf("container_name required")
		}
		if c.ConnectionString == "" && c.AccountURL == "" {
			return fmt.Errorf("connection_string or account_url required for azure backend")
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Backend)
	}
}
