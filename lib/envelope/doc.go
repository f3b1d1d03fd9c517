// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package envelope builds the messages the bridge posts to the host.
//
// An envelope is a [Value]: a small tagged variant that is a string, a
// 32-bit integer, a byte buffer, or an array of values. [Marshal] is
// the single serialization function; it produces CBOR through
// lib/codec, so the host decodes envelopes with any CBOR library.
//
// Every message the bridge sends has a fixed positional shape:
//
//	["avRecv", id, payload]
//	["deviceData", id, payload]
//	["msg", id, kind, text]
//	["deviceDataRequest", requestID, id, payload]
//
// plus the bare string "__test__", posted once when the host hands
// over a new port so it can confirm the path works. [Parse] turns a
// decoded value back into an [Event] for hosts written in Go and for
// tests.
//
// Values never retain caller memory beyond the Marshal call; byte
// buffers are encoded, not referenced.
package envelope
