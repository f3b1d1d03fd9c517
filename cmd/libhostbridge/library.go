// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build cgo

package main

import (
	"context"
	"log/slog"
	"math"
	"os"
	"unsafe"

	"github.com/bureau-foundation/hostbridge/bridge"
	"github.com/bureau-foundation/hostbridge/lib/envelope"
	"github.com/bureau-foundation/hostbridge/lib/hostport"
	"github.com/bureau-foundation/hostbridge/lib/intern"
	"github.com/bureau-foundation/hostbridge/transport"
)

// LogLevelEnvVar selects the library's log level (debug, info, warn,
// error). Logs go to stderr.
const LogLevelEnvVar = "HOSTBRIDGE_LOG_LEVEL"

// library is the process-wide state behind the exported functions.
// Native callers hold no handle, so there is exactly one.
type library struct {
	bridge *bridge.Bridge
	logger *slog.Logger
}

func newLibrary(allocator intern.Allocator, logger *slog.Logger) *library {
	return &library{
		bridge: bridge.New(bridge.Config{
			Logger:    logger,
			Allocator: allocator,
		}),
		logger: logger,
	}
}

// copyNative copies length bytes starting at data into Go memory. A
// nil or empty buffer is an empty payload. The second result is false
// when length does not fit in an int.
func copyNative(data unsafe.Pointer, length uint64) ([]byte, bool) {
	if length > math.MaxInt {
		return nil, false
	}
	if data == nil || length == 0 {
		return nil, true
	}
	return append([]byte(nil), unsafe.Slice((*byte)(data), int(length))...), true
}

func libraryLogger() *slog.Logger {
	var level slog.Level
	if value := os.Getenv(LogLevelEnvVar); value != "" {
		if err := level.UnmarshalText([]byte(value)); err != nil {
			level = slog.LevelInfo
		}
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})).
		With("component", "libhostbridge")
}

func (l *library) initTransport(t transport.Transport) bool {
	if err := l.bridge.InitializeTransport(t); err != nil {
		l.logger.Error("initializing transport", "error", err)
		return false
	}
	return true
}

func (l *library) setPorts(request, response int64) {
	l.bridge.SetPorts(hostport.Port(request), hostport.Port(response))
}

func (l *library) clearPorts() {
	l.bridge.ClearPorts()
}

func (l *library) avRecv(id string, payload []byte) {
	// Delivery failures are logged by the bridge; the SDK callback has
	// no way to report them.
	_ = l.bridge.AVRecv(id, payload)
}

// message returns the interned answer for kinds answered natively.
// Other kinds are posted to the host and answered with nil, which the
// export turns into the empty string.
func (l *library) message(id string, kind envelope.MessageKind, text string) *intern.Buffer {
	if buffer, ok := l.bridge.Answer(kind); ok {
		return buffer
	}
	_, _ = l.bridge.Message(id, kind, text)
	return nil
}

// deviceData issues a synchronous device data request. The second
// result is false when there is no answer to hand back: the call
// failed or the host answered with the empty string.
func (l *library) deviceData(id string, payload []byte) (string, bool) {
	response, err := l.bridge.DeviceDataRequest(context.Background(), id, payload)
	if err != nil || response == "" {
		return "", false
	}
	return response, true
}

func (l *library) resolveRequest(requestID, response string) {
	_ = l.bridge.ResolveRequest(requestID, response)
}
