// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hostport

import (
	"strconv"
	"sync"
)

// Port is a host-assigned mailbox handle.
type Port int64

// Illegal is the sentinel for an unset or cleared port. It matches the
// host runtime's own ILLEGAL_PORT value.
const Illegal Port = 0

// Valid reports whether p can address a mailbox.
func (p Port) Valid() bool { return p != Illegal }

// String formats the port as a decimal number, or "illegal".
func (p Port) String() string {
	if p == Illegal {
		return "illegal"
	}
	return strconv.FormatInt(int64(p), 10)
}

// Snapshot is a consistent view of both ports.
type Snapshot struct {
	Request  Port `cbor:"request_port"`
	Response Port `cbor:"response_port"`
}

// Registry holds the current request and response ports. The zero
// value is a cleared registry and is ready to use.
type Registry struct {
	mu       sync.Mutex
	request  Port
	response Port
}

// Set replaces both ports. Repeated calls are allowed (a host
// reconnect); the newest pair fully supersedes the old one.
func (r *Registry) Set(request, response Port) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.request = request
	r.response = response
}

// Clear resets both ports to Illegal.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.request = Illegal
	r.response = Illegal
}

// Request returns the port outbound envelopes are posted to.
func (r *Registry) Request() Port {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.request
}

// Response returns the reserved response port.
func (r *Registry) Response() Port {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.response
}

// Snapshot returns both ports read under a single lock acquisition.
func (r *Registry) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Snapshot{Request: r.request, Response: r.response}
}
