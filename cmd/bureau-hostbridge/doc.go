// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Bureau-hostbridge runs the call bridge as a standalone process. It
// posts envelopes to a host runtime's mailbox server over a Unix
// socket and serves the control socket the host uses to set ports and
// answer device data requests. Native code that cannot link the
// c-shared library drives the bridge through the same control socket.
package main
