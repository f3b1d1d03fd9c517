// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package bridge connects a native SDK's callback threads to a host
// runtime that is reachable only by posting messages to a port.
//
// Three callbacks are fire-and-forget: [Bridge.AVRecv],
// [Bridge.DeviceData] and [Bridge.Message] encode an envelope and post
// it to the host's request port. [Bridge.DeviceDataRequest] (and its
// general form [Bridge.Call]) is synchronous: it registers a pending
// request, posts a "deviceDataRequest" envelope carrying the generated
// request id, and blocks until the host answers through
// [Bridge.ResolveRequest] or the timeout elapses.
//
// The host configures the bridge with [Bridge.InitializeTransport]
// (once) and [Bridge.SetPorts] (whenever its isolate starts).
// [Bridge.ClearPorts] ends a session: ports are unset and every
// interned answer string is released. Requests already waiting are
// left to time out.
//
// The bridge holds no lock of its own while posting or waiting; port
// registry, pending registry and intern cache each guard their own
// state.
package bridge
