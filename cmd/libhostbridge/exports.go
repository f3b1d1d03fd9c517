// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build cgo

package main

/*
#include <stdlib.h>
#include "hostbridge.h"

const char* hostbridge_empty_string(void);
*/
import "C"

import (
	"unsafe"

	"github.com/bureau-foundation/hostbridge/lib/envelope"
)

var lib = newLibrary(cAllocator{}, libraryLogger())

// recoverExport stops a panic inside an exported function from
// unwinding into native code. Deferred directly by each export.
func recoverExport(name string) {
	if r := recover(); r != nil {
		lib.logger.Error("panic in exported function", "function", name, "panic", r)
	}
}

// payloadBytes copies a native buffer into Go memory. A NULL buffer is
// an empty payload. An oversized length is logged and reported as
// false so the call is dropped.
func payloadBytes(function string, data *C.uint8_t, length C.size_t) ([]byte, bool) {
	payload, ok := copyNative(unsafe.Pointer(data), uint64(length))
	if !ok {
		lib.logger.Error("payload length out of range", "function", function, "length", uint64(length))
	}
	return payload, ok
}

//export hostbridge_init_transport
func hostbridge_init_transport(post C.hostbridge_post_fn) (status C.int) {
	status = -1
	defer recoverExport("hostbridge_init_transport")
	if post == nil {
		lib.logger.Error("hostbridge_init_transport: post function is null")
		return -1
	}
	if !lib.initTransport(postTransport{post: post}) {
		return -1
	}
	return 0
}

//export hostbridge_set_ports
func hostbridge_set_ports(requestPort, responsePort C.int64_t) {
	defer recoverExport("hostbridge_set_ports")
	lib.setPorts(int64(requestPort), int64(responsePort))
}

//export hostbridge_clear_ports
func hostbridge_clear_ports() {
	defer recoverExport("hostbridge_clear_ports")
	lib.clearPorts()
}

//export hostbridge_av_recv
func hostbridge_av_recv(id *C.char, data *C.uint8_t, length C.size_t) {
	defer recoverExport("hostbridge_av_recv")
	if id == nil {
		lib.logger.Error("hostbridge_av_recv: id is null")
		return
	}
	payload, ok := payloadBytes("hostbridge_av_recv", data, length)
	if !ok {
		return
	}
	lib.avRecv(C.GoString(id), payload)
}

//export hostbridge_msg
func hostbridge_msg(id *C.char, kind C.int32_t, text *C.char) (answer *C.char) {
	answer = C.hostbridge_empty_string()
	defer recoverExport("hostbridge_msg")
	if id == nil {
		lib.logger.Error("hostbridge_msg: id is null")
		return C.hostbridge_empty_string()
	}
	var message string
	if text != nil {
		message = C.GoString(text)
	}
	buffer := lib.message(C.GoString(id), envelope.MessageKind(kind), message)
	if buffer == nil {
		return C.hostbridge_empty_string()
	}
	storage, ok := buffer.Storage().(*cString)
	if !ok || storage.ptr == nil {
		return C.hostbridge_empty_string()
	}
	return storage.ptr
}

//export hostbridge_device_data
func hostbridge_device_data(id *C.char, data *C.uint8_t, length C.size_t) *C.char {
	defer recoverExport("hostbridge_device_data")
	if id == nil {
		lib.logger.Error("hostbridge_device_data: id is null")
		return nil
	}
	payload, ok := payloadBytes("hostbridge_device_data", data, length)
	if !ok {
		return nil
	}
	response, ok := lib.deviceData(C.GoString(id), payload)
	if !ok {
		return nil
	}
	return C.CString(response)
}

//export hostbridge_resolve_request
func hostbridge_resolve_request(requestID, response *C.char) {
	defer recoverExport("hostbridge_resolve_request")
	if requestID == nil || response == nil {
		lib.logger.Error("hostbridge_resolve_request: request_id or response is null")
		return
	}
	lib.resolveRequest(C.GoString(requestID), C.GoString(response))
}
