// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// These variables are set via -ldflags at build time.
var (
	// GitCommit is the short git SHA of the build.
	GitCommit = "unknown"

	// GitDirty is "true" when the build had uncommitted changes.
	GitDirty = "false"

	// BuildTime is the UTC timestamp of the build.
	BuildTime = "unknown"

	// Version is the semantic version. Set manually for releases.
	Version = "0.1.0-dev"
)

// Info returns "version (commit[-dirty], build time)". Values not
// injected with -ldflags are taken from the VCS stamp the go command
// embeds, when there is one.
func Info() string {
	commit, dirty, built := GitCommit, GitDirty == "true", BuildTime
	if commit == "unknown" {
		if stamp, ok := readVCSStamp(); ok {
			commit, dirty = stamp.revision, stamp.modified
			if built == "unknown" && stamp.time != "" {
				built = stamp.time
			}
		}
	}
	suffix := ""
	if dirty {
		suffix = "-dirty"
	}
	return fmt.Sprintf("%s (%s%s, %s)", Version, commit, suffix, built)
}

// Full returns Info plus the Go toolchain, platform, and whether the
// binary was built with cgo (required for the C library).
func Full() string {
	return fmt.Sprintf("%s\n  Go: %s\n  Platform: %s/%s\n  Cgo: %t",
		Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH, cgoEnabled())
}

type vcsStamp struct {
	revision string
	time     string
	modified bool
}

func readVCSStamp() (vcsStamp, bool) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return vcsStamp{}, false
	}
	var stamp vcsStamp
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			stamp.revision = setting.Value
			if len(stamp.revision) > 7 {
				stamp.revision = stamp.revision[:7]
			}
		case "vcs.time":
			stamp.time = setting.Value
		case "vcs.modified":
			stamp.modified = setting.Value == "true"
		}
	}
	return stamp, stamp.revision != ""
}

func cgoEnabled() bool {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return false
	}
	for _, setting := range info.Settings {
		if setting.Key == "CGO_ENABLED" {
			return setting.Value == "1"
		}
	}
	return false
}
