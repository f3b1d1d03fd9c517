// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable Load reads the config path
// from.
const EnvVar = "HOSTBRIDGE_CONFIG"

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Staging is for pre-production testing.
	Staging Environment = "staging"
	// Production is for production deployments.
	Production Environment = "production"
)

// Config is the daemon configuration.
type Config struct {
	// Environment identifies the deployment type.
	Environment Environment `yaml:"environment"`

	Bridge    BridgeConfig    `yaml:"bridge"`
	Transport TransportConfig `yaml:"transport"`
	Control   ControlConfig   `yaml:"control"`
	Logging   LoggingConfig   `yaml:"logging"`

	// Per-environment overrides, applied after the base config is
	// loaded.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	Bridge    *BridgeConfig    `yaml:"bridge,omitempty"`
	Transport *TransportConfig `yaml:"transport,omitempty"`
	Control   *ControlConfig   `yaml:"control,omitempty"`
	Logging   *LoggingConfig   `yaml:"logging,omitempty"`
}

// BridgeConfig configures request handling.
type BridgeConfig struct {
	// RequestTimeout bounds a device data request.
	// Default: 5s
	RequestTimeout string `yaml:"request_timeout"`

	// Answers maps SDK message kinds to the string returned for them
	// without consulting the host. Entries in the file are merged over
	// the defaults.
	// Default: {8000: "0", 8001: ""}
	Answers map[int32]string `yaml:"answers"`
}

// TransportConfig configures the connection to the host runtime.
type TransportConfig struct {
	// HostSocket is the Unix socket of the host's mailbox server.
	// Default: ${XDG_RUNTIME_DIR:-/tmp}/hostbridge/host.sock
	HostSocket string `yaml:"host_socket"`

	// Compression is applied to large frames: none, lz4, or zstd.
	// Default: none
	Compression string `yaml:"compression"`

	// DialTimeout bounds each connection attempt to the host.
	// Default: 2s
	DialTimeout string `yaml:"dial_timeout"`
}

// ControlConfig configures the control socket.
type ControlConfig struct {
	// SocketPath is where the control server listens.
	// Default: ${XDG_RUNTIME_DIR:-/tmp}/hostbridge/control.sock
	SocketPath string `yaml:"socket_path"`

	// SameUserOnly rejects peers running under another UID.
	// Default: false (development), true (production)
	SameUserOnly bool `yaml:"same_user_only"`
}

// LoggingConfig configures the daemon's slog handler.
type LoggingConfig struct {
	// Level is debug, info, warn, or error.
	// Default: info
	Level string `yaml:"level"`

	// Format is auto (text on a terminal, JSON otherwise), text, or
	// json.
	// Default: auto (development), json (production)
	Format string `yaml:"format"`
}

// Default returns the default configuration. These defaults are the
// base the config file is merged over.
func Default() *Config {
	return &Config{
		Environment: Development,
		Bridge: BridgeConfig{
			RequestTimeout: "5s",
			Answers: map[int32]string{
				8000: "0",
				8001: "",
			},
		},
		Transport: TransportConfig{
			HostSocket:  "${XDG_RUNTIME_DIR:-/tmp}/hostbridge/host.sock",
			Compression: "none",
			DialTimeout: "2s",
		},
		Control: ControlConfig{
			SocketPath: "${XDG_RUNTIME_DIR:-/tmp}/hostbridge/control.sock",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// Load loads configuration from the file named by HOSTBRIDGE_CONFIG.
// It fails if the variable is not set.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvVar)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your hostbridge.yaml config file, or use --config flag", EnvVar)
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path, applies the
// matching environment section, and expands variables in socket paths.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()

	return cfg, nil
}

// loadFile loads a single configuration file, merging into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// applyEnvironmentOverrides applies the environment-specific overrides.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
		// Production defaults: only same-user control peers, JSON logs.
		if overrides == nil {
			overrides = &ConfigOverrides{
				Control: &ControlConfig{SameUserOnly: true},
				Logging: &LoggingConfig{Format: "json"},
			}
		}
	}

	if overrides == nil {
		return
	}

	if overrides.Bridge != nil {
		if overrides.Bridge.RequestTimeout != "" {
			c.Bridge.RequestTimeout = overrides.Bridge.RequestTimeout
		}
		if c.Bridge.Answers == nil && len(overrides.Bridge.Answers) > 0 {
			c.Bridge.Answers = make(map[int32]string, len(overrides.Bridge.Answers))
		}
		for kind, answer := range overrides.Bridge.Answers {
			c.Bridge.Answers[kind] = answer
		}
	}

	if overrides.Transport != nil {
		if overrides.Transport.HostSocket != "" {
			c.Transport.HostSocket = overrides.Transport.HostSocket
		}
		if overrides.Transport.Compression != "" {
			c.Transport.Compression = overrides.Transport.Compression
		}
		if overrides.Transport.DialTimeout != "" {
			c.Transport.DialTimeout = overrides.Transport.DialTimeout
		}
	}

	if overrides.Control != nil {
		if overrides.Control.SocketPath != "" {
			c.Control.SocketPath = overrides.Control.SocketPath
		}
		// SameUserOnly is a bool, so it is always applied from overrides.
		c.Control.SameUserOnly = overrides.Control.SameUserOnly
	}

	if overrides.Logging != nil {
		if overrides.Logging.Level != "" {
			c.Logging.Level = overrides.Logging.Level
		}
		if overrides.Logging.Format != "" {
			c.Logging.Format = overrides.Logging.Format
		}
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}

	c.Transport.HostSocket = expandVars(c.Transport.HostSocket, vars)
	c.Control.SocketPath = expandVars(c.Control.SocketPath, vars)
}

// varPattern matches ${VAR} and ${VAR:-default}.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

var (
	compressionValues = []string{"none", "lz4", "zstd"}
	levelValues       = []string{"debug", "info", "warn", "error"}
	formatValues      = []string{"auto", "text", "json"}
)

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if timeout, err := time.ParseDuration(c.Bridge.RequestTimeout); err != nil {
		errs = append(errs, fmt.Errorf("bridge.request_timeout: %w", err))
	} else if timeout <= 0 {
		errs = append(errs, fmt.Errorf("bridge.request_timeout must be positive, got %s", timeout))
	}

	if c.Transport.HostSocket == "" {
		errs = append(errs, errors.New("transport.host_socket is required"))
	}
	if !slices.Contains(compressionValues, c.Transport.Compression) {
		errs = append(errs, fmt.Errorf("transport.compression must be one of: %v", compressionValues))
	}
	if timeout, err := time.ParseDuration(c.Transport.DialTimeout); err != nil {
		errs = append(errs, fmt.Errorf("transport.dial_timeout: %w", err))
	} else if timeout <= 0 {
		errs = append(errs, fmt.Errorf("transport.dial_timeout must be positive, got %s", timeout))
	}

	if c.Control.SocketPath == "" {
		errs = append(errs, errors.New("control.socket_path is required"))
	}

	if !slices.Contains(levelValues, c.Logging.Level) {
		errs = append(errs, fmt.Errorf("logging.level must be one of: %v", levelValues))
	}
	if !slices.Contains(formatValues, c.Logging.Format) {
		errs = append(errs, fmt.Errorf("logging.format must be one of: %v", formatValues))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// RequestTimeout returns bridge.request_timeout as a duration. Call
// Validate first; an unparseable value yields zero.
func (c *Config) RequestTimeout() time.Duration {
	timeout, _ := time.ParseDuration(c.Bridge.RequestTimeout)
	return timeout
}

// DialTimeout returns transport.dial_timeout as a duration. Call
// Validate first; an unparseable value yields zero.
func (c *Config) DialTimeout() time.Duration {
	timeout, _ := time.ParseDuration(c.Transport.DialTimeout)
	return timeout
}
