// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package pending

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/bureau-foundation/hostbridge/lib/clock"
)

var (
	// ErrNotFound is returned by Resolve when no request is registered
	// under the id: it was never issued, or it already finished.
	ErrNotFound = errors.New("pending: request not found")

	// ErrAlreadyResolved is returned by Resolve when another responder
	// already satisfied the request.
	ErrAlreadyResolved = errors.New("pending: request already resolved")

	// ErrTimeout is returned by Wait when the timeout elapses before a
	// response arrives.
	ErrTimeout = errors.New("pending: timed out waiting for response")
)

// Request is one in-flight call.
type Request struct {
	id string

	mu        sync.Mutex
	completed bool
	response  string
	done      chan struct{}
}

// ID returns the registry-unique request id.
func (r *Request) ID() string { return r.id }

// Done is closed when the request is resolved.
func (r *Request) Done() <-chan struct{} { return r.done }

// Resolved reports whether a response has been stored.
func (r *Request) Resolved() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.completed
}

// resolve stores response and wakes the waiter. The response is
// written before the flag is set and the channel closed, all under the
// request mutex.
func (r *Request) resolve(response string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.completed {
		return false
	}
	r.response = response
	r.completed = true
	close(r.done)
	return true
}

// Wait blocks until the request is resolved, timeout elapses on clk,
// or ctx is done. A response that lands at the same moment as the
// timeout is still returned.
func (r *Request) Wait(ctx context.Context, clk clock.Clock, timeout time.Duration) (string, error) {
	timer := clk.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-r.done:
	case <-timer.C:
	case <-ctx.Done():
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.completed {
		return r.response, nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "", ErrTimeout
}

// Registry maps request ids to in-flight requests.
type Registry struct {
	mu      sync.Mutex
	counter uint64
	entries map[string]*Request
}

// NewRegistry returns an empty registry whose counter starts at 0.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*Request)}
}

// Register allocates a fresh request id derived from logicalID and
// stores a new unresolved request under it.
func (r *Registry) Register(logicalID string) *Request {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := logicalID + "_" + strconv.FormatUint(r.counter, 10)
	r.counter++

	request := &Request{id: id, done: make(chan struct{})}
	r.entries[id] = request
	return request
}

// Resolve delivers response to the request registered under id.
func (r *Registry) Resolve(id, response string) error {
	r.mu.Lock()
	request, exists := r.entries[id]
	r.mu.Unlock()

	if !exists {
		return ErrNotFound
	}
	if !request.resolve(response) {
		return ErrAlreadyResolved
	}
	return nil
}

// Remove drops the request registered under id. It reports whether a
// request was present.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, exists := r.entries[id]
	delete(r.entries, id)
	return exists
}

// Contains reports whether a request is registered under id.
func (r *Registry) Contains(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, exists := r.entries[id]
	return exists
}

// Len returns the number of registered requests.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
