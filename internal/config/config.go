// Package config resolves runtime settings from defaults, FORMMAP_*
// environment variables and command line flags, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ModeStdio = "stdio"

	DefaultLogLevel = "info"
	DefaultTimeout  = 30 * time.Second
	DefaultName     = "formmap"
	DefaultVersion  = "0.1.0"

	envPrefix = "FORMMAP"
)

// Config holds every setting shared by the CLI and the MCP server.
type Config struct {
	APIURL   string
	APIToken string
	Timeout  time.Duration
	LogLevel string
	Dev      bool

	// MCP server identity
	Mode    string
	Name    string
	Version string
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Timeout:  DefaultTimeout,
		LogLevel: DefaultLogLevel,
		Mode:     ModeStdio,
		Name:     DefaultName,
		Version:  DefaultVersion,
	}
}

// RegisterFlags defines the shared flags on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	def := DefaultConfig()
	fs.String("api-url", def.APIURL, "Base URL of the prompts/schemas/forms REST API")
	fs.String("api-token", def.APIToken, "Bearer token for the REST API")
	fs.Duration("timeout", def.Timeout, "Request timeout")
	fs.String("loglevel", def.LogLevel, "Log level (debug, info, warn, error)")
	fs.Bool("dev", def.Dev, "Human readable development logging")
	fs.String("mode", def.Mode, "MCP transport (stdio)")
	fs.String("name", def.Name, "MCP server name")
	fs.String("version", def.Version, "MCP server version")
}

// Load resolves the configuration for an already parsed flag set. Flags that
// were not registered on fs are taken from the environment or defaults.
func Load(fs *pflag.FlagSet) (*Config, error) {
	def := DefaultConfig()

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("api-url", def.APIURL)
	v.SetDefault("api-token", def.APIToken)
	v.SetDefault("timeout", def.Timeout)
	v.SetDefault("loglevel", def.LogLevel)
	v.SetDefault("dev", def.Dev)
	v.SetDefault("mode", def.Mode)
	v.SetDefault("name", def.Name)
	v.SetDefault("version", def.Version)

	if fs != nil {
		for _, key := range []string{"api-url", "api-token", "timeout", "loglevel", "dev", "mode", "name", "version"} {
			if flag := fs.Lookup(key); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return nil, fmt.Errorf("config: bind %s: %w", key, err)
				}
			}
		}
	}

	cfg := &Config{
		APIURL:   strings.TrimSpace(v.GetString("api-url")),
		APIToken: v.GetString("api-token"),
		Timeout:  v.GetDuration("timeout"),
		LogLevel: strings.ToLower(strings.TrimSpace(v.GetString("loglevel"))),
		Dev:      v.GetBool("dev"),
		Mode:     v.GetString("mode"),
		Name:     v.GetString("name"),
		Version:  v.GetString("version"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the resolved settings.
func (c *Config) Validate() error {
	if c.Mode != ModeStdio {
		return fmt.Errorf("mode must be %q", ModeStdio)
	}
	if c.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}
	if c.APIURL != "" {
		u, err := url.Parse(c.APIURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid api-url %q", c.APIURL)
		}
	}
	return nil
}

// HasAPI reports whether a backend is configured.
func (c *Config) HasAPI() bool {
	return c.APIURL != ""
}

// String renders the configuration without the token.
func (c *Config) String() string {
	return fmt.Sprintf("Config{APIURL: %s, Timeout: %s, LogLevel: %s, Mode: %s, Name: %s, Version: %s}",
		c.APIURL, c.Timeout, c.LogLevel, c.Mode, c.Name, c.Version)
}
