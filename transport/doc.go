// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package transport delivers encoded envelopes to host mailboxes.
//
// The bridge never talks to the host directly. It hands each encoded
// envelope and the destination [hostport.Port] to a [Transport], the
// host's opaque "post to port" primitive. Post returns once the
// message has been handed off; it does not wait for the host to act
// on it, and the caller's buffer may be reused as soon as it returns.
//
// Implementations:
//
//   - [MemoryTransport]: in-process mailboxes, one buffered channel per
//     port. Used by hosts embedded in the same process and by tests.
//   - [StreamTransport]: one persistent Unix socket connection to a
//     host process. Each post is written as a CBOR [Frame], optionally
//     compressed with LZ4 or zstd. The connection is dialed lazily and
//     redialed after a write failure.
//   - [Func]: adapts a plain function.
//
// [MailboxServer] is the receiving end of a StreamTransport: it accepts
// connections on a Unix socket, decodes frames, and hands (port,
// message) pairs to a handler.
package transport
