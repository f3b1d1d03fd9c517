// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package intern keeps owned copies of strings that are handed across
// the native boundary, so their storage outlives the call that produced
// them.
//
// A [Cache] holds at most one live [Buffer] per key. Interning a new
// value under an existing key frees the previous buffer first, which
// bounds memory under repeated calls with the same key. [Cache.Keep]
// instead returns the live buffer when the value has not changed, so a
// pointer already handed out stays valid. [Cache.Reset]
// frees everything at once; the bridge calls it when the host
// disconnects.
//
// Storage comes from an [Allocator]. The default keeps a Go copy; the
// C ABI installs an allocator backed by the C heap so it can return
// stable char pointers.
package intern

import (
	"sync"
	"sync/atomic"
)

// Storage is memory produced by an Allocator. Free is called exactly
// once, when the owning buffer is replaced or the cache is reset.
type Storage interface {
	Free()
}

// Allocator produces owned storage holding a copy of value.
type Allocator interface {
	Allocate(value string) Storage
}

// HeapStorage is the default Storage: a private Go copy of the value.
type HeapStorage struct {
	data []byte
}

// Bytes returns the stored copy, or nil once freed.
func (s *HeapStorage) Bytes() []byte { return s.data }

// Free drops the reference to the copy.
func (s *HeapStorage) Free() { s.data = nil }

type heapAllocator struct{}

func (heapAllocator) Allocate(value string) Storage {
	return &HeapStorage{data: []byte(value)}
}

// Buffer is one interned value.
type Buffer struct {
	key      string
	value    string
	storage  Storage
	released atomic.Bool
}

// Key returns the key the buffer was interned under.
func (b *Buffer) Key() string { return b.key }

// String returns the interned value. It stays readable after release;
// only the allocator's storage is freed.
func (b *Buffer) String() string { return b.value }

// Storage returns the allocator-owned memory. Callers must not use it
// after Released reports true.
func (b *Buffer) Storage() Storage { return b.storage }

// Released reports whether the buffer's storage has been freed.
func (b *Buffer) Released() bool { return b.released.Load() }

func (b *Buffer) release() {
	if b.released.CompareAndSwap(false, true) {
		b.storage.Free()
	}
}

// Cache maps keys to interned buffers. Use New; the zero value is not
// usable.
type Cache struct {
	mu        sync.Mutex
	allocator Allocator
	entries   map[string]*Buffer
}

// New returns an empty cache. A nil allocator selects the Go heap.
func New(allocator Allocator) *Cache {
	if allocator == nil {
		allocator = heapAllocator{}
	}
	return &Cache{
		allocator: allocator,
		entries:   make(map[string]*Buffer),
	}
}

// Intern stores a fresh copy of value under key and returns it. Any
// previous buffer for key is freed before the new one is installed.
func (c *Cache) Intern(key, value string) *Buffer {
	c.mu.Lock()
	defer c.mu.Unlock()

	if previous, exists := c.entries[key]; exists {
		previous.release()
	}
	buffer := &Buffer{
		key:     key,
		value:   value,
		storage: c.allocator.Allocate(value),
	}
	c.entries[key] = buffer
	return buffer
}

// Keep returns the live buffer for key when it already holds value.
// Otherwise it interns value as Intern does. Pointers handed out from
// a kept buffer stay valid across repeated calls with the same value.
func (c *Cache) Keep(key, value string) *Buffer {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, exists := c.entries[key]; exists {
		if existing.value == value {
			return existing
		}
		existing.release()
	}
	buffer := &Buffer{
		key:     key,
		value:   value,
		storage: c.allocator.Allocate(value),
	}
	c.entries[key] = buffer
	return buffer
}

// Lookup returns the live buffer for key.
func (c *Cache) Lookup(key string) (*Buffer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	buffer, exists := c.entries[key]
	return buffer, exists
}

// Len returns the number of live buffers.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Reset frees every buffer and empties the cache. It returns how many
// buffers were freed.
func (c *Cache) Reset() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := len(c.entries)
	for key, buffer := range c.entries {
		buffer.release()
		delete(c.entries, key)
	}
	return count
}
