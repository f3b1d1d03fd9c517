// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package control

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bureau-foundation/hostbridge/bridge"
	"github.com/bureau-foundation/hostbridge/lib/codec"
	"github.com/bureau-foundation/hostbridge/lib/envelope"
	"github.com/bureau-foundation/hostbridge/lib/hostport"
	"github.com/bureau-foundation/hostbridge/lib/service"
)

// Action names.
const (
	ActionSetPorts          = "set-ports"
	ActionClearPorts        = "clear-ports"
	ActionResolveRequest    = "resolve-request"
	ActionAVRecv            = "av-recv"
	ActionDeviceData        = "device-data"
	ActionMessage           = "message"
	ActionDeviceDataRequest = "device-data-request"
	ActionStatus            = "status"
)

// SetPortsRequest carries the host's port pair.
type SetPortsRequest struct {
	RequestPort  hostport.Port `cbor:"request_port"`
	ResponsePort hostport.Port `cbor:"response_port"`
}

// ResolveRequest answers a pending device data request. Both fields
// are required; Response is a pointer so an empty response can be told
// apart from a missing one.
type ResolveRequest struct {
	RequestID string  `cbor:"request_id"`
	Response  *string `cbor:"response"`
}

// DataRequest carries an avRecv or deviceData event.
type DataRequest struct {
	ID      string `cbor:"id"`
	Payload []byte `cbor:"payload"`
}

// MessageRequest carries an SDK message.
type MessageRequest struct {
	ID   string               `cbor:"id"`
	Kind envelope.MessageKind `cbor:"kind"`
	Text string               `cbor:"text"`
}

// MessageResponse is the answer returned to the SDK.
type MessageResponse struct {
	Answer string `cbor:"answer"`
}

// DeviceDataRequest issues a synchronous call through the bridge.
// TimeoutMS of zero selects the bridge's configured timeout.
type DeviceDataRequest struct {
	ID        string `cbor:"id"`
	Payload   []byte `cbor:"payload"`
	TimeoutMS int64  `cbor:"timeout_ms,omitempty"`
}

// DeviceDataResponse is the host's answer to a DeviceDataRequest.
type DeviceDataResponse struct {
	Response string `cbor:"response"`
}

// StatusResponse reports bridge state.
type StatusResponse struct {
	RequestPort    hostport.Port `cbor:"request_port"`
	ResponsePort   hostport.Port `cbor:"response_port"`
	Pending        int           `cbor:"pending"`
	Interned       int           `cbor:"interned"`
	TransportReady bool          `cbor:"transport_ready"`
}

// Register installs every control action on server.
func Register(server *service.SocketServer, b *bridge.Bridge) {
	h := &handlers{bridge: b}
	server.Handle(ActionSetPorts, h.setPorts)
	server.Handle(ActionClearPorts, h.clearPorts)
	server.Handle(ActionResolveRequest, h.resolveRequest)
	server.Handle(ActionAVRecv, h.avRecv)
	server.Handle(ActionDeviceData, h.deviceData)
	server.Handle(ActionMessage, h.message)
	server.Handle(ActionDeviceDataRequest, h.deviceDataRequest)
	server.Handle(ActionStatus, h.status)
}

type handlers struct {
	bridge *bridge.Bridge
}

func decode(raw []byte, target any) error {
	if err := codec.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	return nil
}

func (h *handlers) setPorts(ctx context.Context, raw []byte) (any, error) {
	var request SetPortsRequest
	if err := decode(raw, &request); err != nil {
		return nil, err
	}
	h.bridge.SetPorts(request.RequestPort, request.ResponsePort)
	return nil, nil
}

func (h *handlers) clearPorts(ctx context.Context, raw []byte) (any, error) {
	h.bridge.ClearPorts()
	return nil, nil
}

func (h *handlers) resolveRequest(ctx context.Context, raw []byte) (any, error) {
	var request ResolveRequest
	if err := decode(raw, &request); err != nil {
		return nil, err
	}
	if request.RequestID == "" {
		return nil, errors.New("missing required field: request_id")
	}
	if request.Response == nil {
		return nil, errors.New("missing required field: response")
	}
	return nil, h.bridge.ResolveRequest(request.RequestID, *request.Response)
}

func (h *handlers) avRecv(ctx context.Context, raw []byte) (any, error) {
	var request DataRequest
	if err := decode(raw, &request); err != nil {
		return nil, err
	}
	return nil, h.bridge.AVRecv(request.ID, request.Payload)
}

func (h *handlers) deviceData(ctx context.Context, raw []byte) (any, error) {
	var request DataRequest
	if err := decode(raw, &request); err != nil {
		return nil, err
	}
	return nil, h.bridge.DeviceData(request.ID, request.Payload)
}

func (h *handlers) message(ctx context.Context, raw []byte) (any, error) {
	var request MessageRequest
	if err := decode(raw, &request); err != nil {
		return nil, err
	}
	answer, err := h.bridge.Message(request.ID, request.Kind, request.Text)
	if err != nil {
		return nil, err
	}
	return MessageResponse{Answer: answer}, nil
}

func (h *handlers) deviceDataRequest(ctx context.Context, raw []byte) (any, error) {
	var request DeviceDataRequest
	if err := decode(raw, &request); err != nil {
		return nil, err
	}
	if request.TimeoutMS < 0 {
		return nil, fmt.Errorf("timeout_ms must not be negative, got %d", request.TimeoutMS)
	}
	timeout := time.Duration(request.TimeoutMS) * time.Millisecond
	response, err := h.bridge.Call(ctx, request.ID, request.Payload, timeout)
	if err != nil {
		return nil, err
	}
	return DeviceDataResponse{Response: response}, nil
}

func (h *handlers) status(ctx context.Context, raw []byte) (any, error) {
	status := h.bridge.Status()
	return StatusResponse{
		RequestPort:    status.Ports.Request,
		ResponsePort:   status.Ports.Response,
		Pending:        status.Pending,
		Interned:       status.Interned,
		TransportReady: status.TransportReady,
	}, nil
}
