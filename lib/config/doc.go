// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for the hostbridge
// daemon.
//
// Configuration is loaded from a single file specified by either the
// HOSTBRIDGE_CONFIG environment variable (via [Load]) or a --config
// flag (via [LoadFile]). There are no fallbacks and no automatic file
// search.
//
// The file may contain environment-specific sections (development,
// staging, production) that override base values when
// [Config].Environment matches. Production defaults are stricter: the
// control socket only accepts same-user peers and logs are JSON.
//
// Socket paths support ${VAR} and ${VAR:-default} expansion after
// loading. No other environment variables override config values.
//
// This package depends on no other hostbridge packages.
package config
