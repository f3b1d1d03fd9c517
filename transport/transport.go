// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"errors"

	"github.com/bureau-foundation/hostbridge/lib/hostport"
)

var (
	// ErrPortClosed is returned when the destination mailbox does not
	// exist or has been closed by the host.
	ErrPortClosed = errors.New("transport: port closed")

	// ErrMailboxFull is returned when the destination mailbox cannot
	// accept another message without blocking.
	ErrMailboxFull = errors.New("transport: mailbox full")

	// ErrClosed is returned by Post after the transport is closed.
	ErrClosed = errors.New("transport: closed")
)

// Transport posts one encoded envelope to a host mailbox.
type Transport interface {
	// Post hands message to the mailbox identified by port. It must
	// not retain message after returning.
	Post(port hostport.Port, message []byte) error
}

// Func adapts an ordinary function to Transport.
type Func func(port hostport.Port, message []byte) error

// Post calls f.
func (f Func) Post(port hostport.Port, message []byte) error { return f(port, message) }

// Frame is the unit written to a host socket by StreamTransport.
type Frame struct {
	Port        hostport.Port `cbor:"port"`
	Compression Compression   `cbor:"compression,omitempty"`

	// Size is the uncompressed length of Message. Zero when the frame
	// is not compressed.
	Size    int    `cbor:"size,omitempty"`
	Message []byte `cbor:"message"`
}
