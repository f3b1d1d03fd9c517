// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bureau-foundation/hostbridge/lib/clock"
	"github.com/bureau-foundation/hostbridge/lib/codec"
	"github.com/bureau-foundation/hostbridge/lib/envelope"
	"github.com/bureau-foundation/hostbridge/lib/hostport"
	"github.com/bureau-foundation/hostbridge/lib/intern"
	"github.com/bureau-foundation/hostbridge/lib/pending"
	"github.com/bureau-foundation/hostbridge/transport"
)

// DefaultTimeout bounds DeviceDataRequest when Config.Timeout is zero.
const DefaultTimeout = 5 * time.Second

// DefaultAnswers returns the message kinds answered without consulting
// the host: saving streams to disk is off and there is no save path.
func DefaultAnswers() map[envelope.MessageKind]string {
	return map[envelope.MessageKind]string{
		envelope.MessageSaveFileOn:  "0",
		envelope.MessageSaveFileURL: "",
	}
}

// Config holds the optional collaborators of a Bridge.
type Config struct {
	// Timeout bounds DeviceDataRequest. Zero selects DefaultTimeout.
	Timeout time.Duration

	// Clock drives call timeouts. Nil selects clock.Real().
	Clock clock.Clock

	// Logger receives structured log output. Nil selects
	// slog.Default().
	Logger *slog.Logger

	// Answers maps message kinds to the string returned for them
	// without posting. Nil selects DefaultAnswers(); an empty non-nil
	// map disables short-circuiting.
	Answers map[envelope.MessageKind]string

	// Allocator backs interned answer strings. Nil selects the Go
	// heap.
	Allocator intern.Allocator
}

// Bridge is the process-wide coordinator. Create one with New; it is
// safe for concurrent use from any number of callback threads.
type Bridge struct {
	timeout time.Duration
	clock   clock.Clock
	logger  *slog.Logger
	answers map[envelope.MessageKind]string

	ports   hostport.Registry
	pending *pending.Registry
	strings *intern.Cache

	transportMu sync.RWMutex
	transport   transport.Transport
}

// New returns a bridge with no transport and no ports.
func New(config Config) *Bridge {
	b := &Bridge{
		timeout: config.Timeout,
		clock:   config.Clock,
		logger:  config.Logger,
		answers: config.Answers,
		pending: pending.NewRegistry(),
		strings: intern.New(config.Allocator),
	}
	if b.timeout <= 0 {
		b.timeout = DefaultTimeout
	}
	if b.clock == nil {
		b.clock = clock.Real()
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	if b.answers == nil {
		b.answers = DefaultAnswers()
	}
	return b
}

// InitializeTransport installs the host transport. It must be called
// before any send; calling it again replaces the transport.
func (b *Bridge) InitializeTransport(t transport.Transport) error {
	if t == nil {
		return fmt.Errorf("%w: nil transport", ErrInvalidArgument)
	}
	b.transportMu.Lock()
	b.transport = t
	b.transportMu.Unlock()
	b.logger.Info("host transport initialized")
	return nil
}

func (b *Bridge) currentTransport() transport.Transport {
	b.transportMu.RLock()
	defer b.transportMu.RUnlock()
	return b.transport
}

// SetPorts records the host's ports. An illegal request port is stored
// anyway and logged. Otherwise, when a transport is installed, the
// probe string is posted to the new request port; a probe failure is
// logged only.
func (b *Bridge) SetPorts(request, response hostport.Port) {
	b.ports.Set(request, response)
	b.logger.Info("host ports set",
		"request_port", request,
		"response_port", response,
	)
	if !request.Valid() {
		b.logger.Warn("host request port is not valid; sends will fail until it is set",
			"request_port", request,
		)
		return
	}

	t := b.currentTransport()
	if t == nil {
		b.logger.Warn("host ports set before transport initialization")
		return
	}
	if err := b.postTo(t, request, envelope.Probe()); err != nil {
		b.logger.Error("connection probe failed",
			"request_port", request,
			"error", err,
		)
	}
}

// ClearPorts unsets both ports and releases every interned string.
// Requests already waiting are not woken; they run to their timeout.
func (b *Bridge) ClearPorts() {
	b.ports.Clear()
	released := b.strings.Reset()
	b.logger.Info("host ports cleared", "released_strings", released)
}

// Ports returns the current port pair.
func (b *Bridge) Ports() hostport.Snapshot { return b.ports.Snapshot() }

// post encodes value and posts it to the current request port.
func (b *Bridge) post(value envelope.Value) error {
	t := b.currentTransport()
	if t == nil {
		return ErrTransportNotInitialized
	}
	port := b.ports.Request()
	if !port.Valid() {
		return ErrNoPort
	}
	return b.postTo(t, port, value)
}

func (b *Bridge) postTo(t transport.Transport, port hostport.Port, value envelope.Value) error {
	if !port.Valid() {
		return ErrNoPort
	}
	data, err := envelope.Marshal(value)
	if err != nil {
		return fmt.Errorf("bridge: encoding envelope: %w", err)
	}
	if b.logger.Enabled(context.Background(), slog.LevelDebug) {
		diagnostic, _ := codec.Diagnose(data)
		b.logger.Debug("posting envelope",
			"port", port,
			"size", len(data),
			"envelope", diagnostic,
		)
	}
	if err := t.Post(port, data); err != nil {
		return fmt.Errorf("bridge: posting to port %v: %w", port, err)
	}
	return nil
}

// AVRecv posts an "avRecv" event.
func (b *Bridge) AVRecv(id string, payload []byte) error {
	if err := b.post(envelope.AVRecv(id, payload)); err != nil {
		b.logger.Error("avRecv not delivered", "id", id, "size", len(payload), "error", err)
		return err
	}
	return nil
}

// DeviceData posts a "deviceData" event.
func (b *Bridge) DeviceData(id string, payload []byte) error {
	if err := b.post(envelope.DeviceData(id, payload)); err != nil {
		b.logger.Error("deviceData not delivered", "id", id, "size", len(payload), "error", err)
		return err
	}
	return nil
}

// Answer returns the interned native answer for kind, if kind is one
// the bridge answers without the host. Repeated calls return the same
// buffer, which stays valid until the next ClearPorts.
func (b *Bridge) Answer(kind envelope.MessageKind) (*intern.Buffer, bool) {
	answer, ok := b.answers[kind]
	if !ok {
		return nil, false
	}
	return b.strings.Keep("msg/"+kind.String(), answer), true
}

// Message handles an SDK message. Kinds with a native answer return
// it immediately and nothing is posted. Any other kind is posted as a
// "msg" event and answered with the empty string.
func (b *Bridge) Message(id string, kind envelope.MessageKind, text string) (string, error) {
	if buffer, ok := b.Answer(kind); ok {
		return buffer.String(), nil
	}
	if err := b.post(envelope.Message(id, kind, text)); err != nil {
		b.logger.Error("msg not delivered", "id", id, "kind", kind, "error", err)
		return "", err
	}
	return "", nil
}

// DeviceDataRequest is Call with the configured timeout.
func (b *Bridge) DeviceDataRequest(ctx context.Context, id string, payload []byte) (string, error) {
	return b.Call(ctx, id, payload, b.timeout)
}

// Call posts a "deviceDataRequest" envelope and waits up to timeout
// for the host to resolve it. Every failure returns the empty string
// with an error. The pending entry is removed before Call returns,
// whatever the outcome.
func (b *Bridge) Call(ctx context.Context, id string, payload []byte, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = b.timeout
	}

	request := b.pending.Register(id)
	defer b.pending.Remove(request.ID())

	if err := b.post(envelope.DeviceDataRequest(request.ID(), id, payload)); err != nil {
		b.logger.Error("device data request not sent",
			"id", id,
			"request_id", request.ID(),
			"error", err,
		)
		return "", err
	}

	response, err := request.Wait(ctx, b.clock, timeout)
	if err != nil {
		if errors.Is(err, pending.ErrTimeout) {
			b.logger.Error("timed out waiting for device data response",
				"request_id", request.ID(),
				"timeout", timeout,
			)
		} else {
			b.logger.Warn("device data request abandoned",
				"request_id", request.ID(),
				"error", err,
			)
		}
		return "", err
	}
	return response, nil
}

// ResolveRequest hands response to the call waiting on requestID.
// Responses for unknown, finished, or already answered requests are
// logged and dropped; the returned error says which.
func (b *Bridge) ResolveRequest(requestID, response string) error {
	if requestID == "" {
		b.logger.Error("resolve request without request id")
		return fmt.Errorf("%w: empty request id", ErrInvalidArgument)
	}
	if err := b.pending.Resolve(requestID, response); err != nil {
		b.logger.Warn("response not delivered",
			"request_id", requestID,
			"error", err,
		)
		return err
	}
	return nil
}

// Status is a point-in-time view of the bridge.
type Status struct {
	Ports          hostport.Snapshot
	Pending        int
	Interned       int
	TransportReady bool
}

// Status reports the bridge's current state.
func (b *Bridge) Status() Status {
	return Status{
		Ports:          b.ports.Snapshot(),
		Pending:        b.pending.Len(),
		Interned:       b.strings.Len(),
		TransportReady: b.currentTransport() != nil,
	}
}

// Pending reports whether requestID is still awaiting a response.
func (b *Bridge) Pending(requestID string) bool { return b.pending.Contains(requestID) }
