// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build cgo

package main

/*
#include <stdlib.h>
#include "hostbridge.h"

static inline int hostbridge_call_post(hostbridge_post_fn fn, int64_t port, const uint8_t* data, size_t len) {
	return fn(port, data, len);
}

const char* hostbridge_empty_string(void) {
	return "";
}
*/
import "C"

import (
	"fmt"
	"unsafe"

	"github.com/bureau-foundation/hostbridge/lib/hostport"
	"github.com/bureau-foundation/hostbridge/lib/intern"
	"github.com/bureau-foundation/hostbridge/transport"
)

// cString is interned storage on the C heap.
type cString struct {
	ptr *C.char
}

func (s *cString) Free() {
	C.free(unsafe.Pointer(s.ptr))
	s.ptr = nil
}

// cAllocator interns strings on the C heap so exported functions can
// return pointers that outlive the call.
type cAllocator struct{}

func (cAllocator) Allocate(value string) intern.Storage {
	return &cString{ptr: C.CString(value)}
}

// postTransport forwards envelopes to the host's post function.
type postTransport struct {
	post C.hostbridge_post_fn
}

func (t postTransport) Post(port hostport.Port, message []byte) error {
	var data *C.uint8_t
	if len(message) > 0 {
		data = (*C.uint8_t)(unsafe.Pointer(&message[0]))
	}
	if C.hostbridge_call_post(t.post, C.int64_t(port), data, C.size_t(len(message))) == 0 {
		return fmt.Errorf("%w: host rejected message for port %v", transport.ErrPortClosed, port)
	}
	return nil
}
