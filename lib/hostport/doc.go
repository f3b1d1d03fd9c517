// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package hostport identifies host mailboxes and tracks which ones the
// bridge is currently connected to.
//
// A [Port] is an opaque integer the host runtime assigns to a mailbox.
// The host hands the bridge two of them when it connects: a request
// port, which receives every envelope the bridge posts, and a response
// port, reserved for a future split of request and response traffic.
// [Illegal] marks "no port"; a cleared [Registry] holds it for both.
//
// The registry is read on every send and written only when the host
// connects, reconnects, or disconnects. Reads always observe the most
// recent write; nothing outside the registry caches a port.
package hostport
