// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version provides build version information for hostbridge
// binaries.
//
// Three package-level variables are injected at build time via
// -ldflags -X:
//
//	go build -ldflags "-X github.com/bureau-foundation/hostbridge/lib/version.GitCommit=$(git rev-parse --short HEAD)"
//
// Without them, [Info] falls back to the VCS stamp the go command
// embeds, then to "unknown". [Full] adds the Go toolchain, platform,
// and cgo setting.
package version
