// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil holds test helpers shared by hostbridge packages.
//
// [SocketDir] returns a short /tmp directory for Unix sockets; the
// 108-byte sun_path limit rules out t.TempDir() under deep TMPDIRs.
//
// [RequireReceive] and [RequireClosed] wrap the select-with-timeout
// safety valve so a broken test fails instead of hanging. They are the
// only place test code reads the wall clock directly.
//
// [UniqueID] produces distinct logical device ids so concurrent tests
// sharing a bridge never collide on request ids.
package testutil
