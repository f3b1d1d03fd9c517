// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package service provides the Unix socket request/response plumbing
// used by the hostbridge control plane.
//
// The protocol is CBOR, one request per connection. A request is a
// CBOR map whose "action" field selects a handler registered with
// [SocketServer.Handle]; every other field belongs to the handler. The
// server answers with a [Response] and closes the connection. [Client]
// is the matching caller.
//
// # Authentication
//
// Filesystem permissions on the socket are the primary access control.
// [SocketServer.RequireSameUser] adds a kernel-verified check on Linux:
// connections from a process running under a different UID are
// rejected before the request is read.
package service
