// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build cgo

// Libhostbridge exposes the call bridge to native SDK code as a C
// shared library. Build with:
//
//	go build -buildmode=c-shared -o libhostbridge.so ./cmd/libhostbridge
//
// The host installs its post function with hostbridge_init_transport
// and its ports with hostbridge_set_ports. SDK callbacks then forward
// through hostbridge_av_recv, hostbridge_msg, and hostbridge_device_data.
// The host answers device data requests with hostbridge_resolve_request.
//
// Strings returned by hostbridge_msg belong to the library and stay
// valid until the next hostbridge_clear_ports. Strings returned by
// hostbridge_device_data belong to the caller, who releases them with
// free.
package main

func main() {}
