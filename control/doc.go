// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package control exposes a [bridge.Bridge] on a Unix socket so that a
// host running in another process can manage ports, answer device data
// requests, and inject SDK callbacks for testing.
//
// Actions follow the lib/service protocol: one CBOR request per
// connection, routed by its "action" field.
//
//	set-ports            {request_port, response_port}
//	clear-ports          {}
//	resolve-request      {request_id, response}
//	av-recv              {id, payload}
//	device-data          {id, payload}
//	message              {id, kind, text}            -> {answer}
//	device-data-request  {id, payload, timeout_ms?}  -> {response}
//	status               {}  -> {request_port, response_port, pending, interned, transport_ready}
package control
