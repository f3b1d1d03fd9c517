// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "hostbridge.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return configPath
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Environment != Development {
		t.Errorf("expected environment=development, got %s", cfg.Environment)
	}
	if cfg.Bridge.RequestTimeout != "5s" {
		t.Errorf("expected request_timeout=5s, got %s", cfg.Bridge.RequestTimeout)
	}
	if cfg.Bridge.Answers[8000] != "0" {
		t.Errorf("expected answer for 8000 to be \"0\", got %q", cfg.Bridge.Answers[8000])
	}
	if answer, ok := cfg.Bridge.Answers[8001]; !ok || answer != "" {
		t.Errorf("expected empty answer for 8001, got %q (present=%v)", answer, ok)
	}
	if cfg.Control.SameUserOnly {
		t.Error("expected same_user_only=false for development")
	}
}

func TestLoad_RequiresConfigEnv(t *testing.T) {
	t.Setenv(EnvVar, "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when HOSTBRIDGE_CONFIG not set, got nil")
	}
	if !strings.HasPrefix(err.Error(), "HOSTBRIDGE_CONFIG environment variable not set") {
		t.Errorf("unexpected error message %q", err.Error())
	}
}

func TestLoad_WithConfigEnv(t *testing.T) {
	configPath := writeConfig(t, `
environment: staging
transport:
  host_socket: /test/host.sock
`)
	t.Setenv(EnvVar, configPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Environment != Staging {
		t.Errorf("expected environment=staging, got %s", cfg.Environment)
	}
	if cfg.Transport.HostSocket != "/test/host.sock" {
		t.Errorf("expected host_socket=/test/host.sock, got %s", cfg.Transport.HostSocket)
	}
}

func TestLoadFile(t *testing.T) {
	configPath := writeConfig(t, `
environment: staging

bridge:
  request_timeout: 250ms
  answers:
    8000: "1"
    9000: "custom"

transport:
  host_socket: /custom/host.sock
  compression: zstd
  dial_timeout: 1s

control:
  socket_path: /custom/control.sock
  same_user_only: true

logging:
  level: debug
  format: text
`)

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if cfg.RequestTimeout() != 250*time.Millisecond {
		t.Errorf("expected request timeout 250ms, got %s", cfg.RequestTimeout())
	}
	if cfg.DialTimeout() != time.Second {
		t.Errorf("expected dial timeout 1s, got %s", cfg.DialTimeout())
	}
	// File entries merge over the default answers.
	if cfg.Bridge.Answers[8000] != "1" || cfg.Bridge.Answers[9000] != "custom" {
		t.Errorf("answers = %v", cfg.Bridge.Answers)
	}
	if _, ok := cfg.Bridge.Answers[8001]; !ok {
		t.Error("default answer for 8001 lost after merge")
	}
	if cfg.Transport.Compression != "zstd" {
		t.Errorf("expected compression=zstd, got %s", cfg.Transport.Compression)
	}
	if cfg.Control.SocketPath != "/custom/control.sock" || !cfg.Control.SameUserOnly {
		t.Errorf("control = %+v", cfg.Control)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "text" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadFileMalformed(t *testing.T) {
	configPath := writeConfig(t, "bridge: [unterminated")
	if _, err := LoadFile(configPath); err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	configPath := writeConfig(t, `
environment: development

control:
  socket_path: /base/control.sock

development:
  bridge:
    request_timeout: 30s
  control:
    socket_path: /dev/control.sock
  logging:
    level: debug

production:
  control:
    socket_path: /prod/control.sock
`)

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Control.SocketPath != "/dev/control.sock" {
		t.Errorf("expected development socket path, got %s", cfg.Control.SocketPath)
	}
	if cfg.Bridge.RequestTimeout != "30s" {
		t.Errorf("expected development request timeout, got %s", cfg.Bridge.RequestTimeout)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected development log level, got %s", cfg.Logging.Level)
	}
}

func TestProductionDefaults(t *testing.T) {
	configPath := writeConfig(t, "environment: production\n")

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if !cfg.Control.SameUserOnly {
		t.Error("expected same_user_only=true in production")
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("expected json logs in production, got %s", cfg.Logging.Format)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("production defaults do not validate: %v", err)
	}
}

func TestEnvVarsDoNotOverride(t *testing.T) {
	t.Setenv("HOSTBRIDGE_HOST_SOCKET", "/env/host.sock")
	t.Setenv("HOSTBRIDGE_ENVIRONMENT", "production")

	configPath := writeConfig(t, `
environment: development
transport:
  host_socket: /file/host.sock
`)
	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Transport.HostSocket != "/file/host.sock" {
		t.Errorf("environment variable overrode host_socket: %s", cfg.Transport.HostSocket)
	}
	if cfg.Environment != Development {
		t.Errorf("environment variable overrode environment: %s", cfg.Environment)
	}
}

func TestExpandVars(t *testing.T) {
	t.Setenv("HOSTBRIDGE_TEST_DIR", "/from/env")
	t.Setenv("HOSTBRIDGE_TEST_UNSET", "")

	vars := map[string]string{"HOME": "/home/test"}
	tests := []struct {
		input string
		want  string
	}{
		{"${HOME}/x.sock", "/home/test/x.sock"},
		{"${HOSTBRIDGE_TEST_DIR}/x.sock", "/from/env/x.sock"},
		{"${HOSTBRIDGE_TEST_UNSET:-/tmp}/x.sock", "/tmp/x.sock"},
		{"${HOSTBRIDGE_TEST_DIR:-/tmp}/x.sock", "/from/env/x.sock"},
		{"/plain/path.sock", "/plain/path.sock"},
	}
	for _, test := range tests {
		if got := expandVars(test.input, vars); got != test.want {
			t.Errorf("expandVars(%q) = %q, want %q", test.input, got, test.want)
		}
	}
}

func TestLoadFileExpandsSocketPaths(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")

	cfg, err := LoadFile(writeConfig(t, "environment: development\n"))
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Transport.HostSocket != "/run/user/1000/hostbridge/host.sock" {
		t.Errorf("host_socket = %s", cfg.Transport.HostSocket)
	}
	if cfg.Control.SocketPath != "/run/user/1000/hostbridge/control.sock" {
		t.Errorf("control socket = %s", cfg.Control.SocketPath)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"valid default", func(*Config) {}, ""},
		{"bad environment", func(c *Config) { c.Environment = "qa" }, "invalid environment"},
		{"bad timeout", func(c *Config) { c.Bridge.RequestTimeout = "soon" }, "bridge.request_timeout"},
		{"zero timeout", func(c *Config) { c.Bridge.RequestTimeout = "0s" }, "must be positive"},
		{"missing host socket", func(c *Config) { c.Transport.HostSocket = "" }, "transport.host_socket"},
		{"bad compression", func(c *Config) { c.Transport.Compression = "gzip" }, "transport.compression"},
		{"bad dial timeout", func(c *Config) { c.Transport.DialTimeout = "-1s" }, "transport.dial_timeout"},
		{"missing control socket", func(c *Config) { c.Control.SocketPath = "" }, "control.socket_path"},
		{"bad level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := Default()
			test.modify(cfg)
			err := cfg.Validate()
			if test.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", test.wantErr)
			}
			if !strings.Contains(err.Error(), test.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), test.wantErr)
			}
		})
	}
}
