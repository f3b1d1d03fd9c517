// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"sync"

	"github.com/bureau-foundation/hostbridge/lib/hostport"
)

var _ Transport = (*MemoryTransport)(nil)

// MemoryTransport is an in-process Transport. The host side opens a
// mailbox per port and reads envelopes from its channel.
type MemoryTransport struct {
	mu        sync.Mutex
	capacity  int
	nextPort  hostport.Port
	mailboxes map[hostport.Port]chan []byte
}

// NewMemoryTransport returns a transport whose mailboxes each buffer up
// to capacity messages. Posting to a full mailbox fails rather than
// blocks, matching a host that drops messages it cannot queue.
func NewMemoryTransport(capacity int) *MemoryTransport {
	if capacity < 1 {
		capacity = 1
	}
	return &MemoryTransport{
		capacity:  capacity,
		nextPort:  hostport.Illegal + 1,
		mailboxes: make(map[hostport.Port]chan []byte),
	}
}

// Open allocates a new mailbox and returns its port and the channel
// the host reads from.
func (m *MemoryTransport) Open() (hostport.Port, <-chan []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	port := m.nextPort
	m.nextPort++
	mailbox := make(chan []byte, m.capacity)
	m.mailboxes[port] = mailbox
	return port, mailbox
}

// Close removes the mailbox for port and closes its channel. Closing an
// unknown port is a no-op.
func (m *MemoryTransport) Close(port hostport.Port) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if mailbox, exists := m.mailboxes[port]; exists {
		delete(m.mailboxes, port)
		close(mailbox)
	}
}

// Post copies message into the mailbox for port.
func (m *MemoryTransport) Post(port hostport.Port, message []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	mailbox, exists := m.mailboxes[port]
	if !exists {
		return ErrPortClosed
	}
	select {
	case mailbox <- append([]byte(nil), message...):
		return nil
	default:
		return ErrMailboxFull
	}
}
