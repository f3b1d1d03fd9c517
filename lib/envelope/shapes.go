// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package envelope

import (
	"fmt"
	"strconv"
)

// Type names the message shape; it is always the first array element.
type Type string

const (
	TypeAVRecv            Type = "avRecv"
	TypeDeviceData        Type = "deviceData"
	TypeMessage           Type = "msg"
	TypeDeviceDataRequest Type = "deviceDataRequest"

	// TypeProbe is not an array shape: the probe is the bare string
	// ProbeText.
	TypeProbe Type = "__test__"
)

// ProbeText is the body of the connection probe.
const ProbeText = "__test__"

// MessageKind is the P2P SDK's message type code carried in "msg"
// envelopes.
type MessageKind int32

// Message kinds the bridge treats specially. Other kinds pass through
// to the host unchanged.
const (
	// MessageSaveFileOn asks whether received streams should also be
	// written to disk. Answered natively.
	MessageSaveFileOn MessageKind = 8000

	// MessageSaveFileURL asks for the directory streams are written
	// to. Answered natively.
	MessageSaveFileURL MessageKind = 8001
)

func (k MessageKind) String() string { return strconv.FormatInt(int64(k), 10) }

// AVRecv is the audio/video data event.
func AVRecv(id string, payload []byte) Value {
	return Array(String(string(TypeAVRecv)), String(id), Bytes(payload))
}

// DeviceData is the fire-and-forget device data event.
func DeviceData(id string, payload []byte) Value {
	return Array(String(string(TypeDeviceData)), String(id), Bytes(payload))
}

// Message is the SDK message event.
func Message(id string, kind MessageKind, text string) Value {
	return Array(String(string(TypeMessage)), String(id), Int32(int32(kind)), String(text))
}

// DeviceDataRequest is the synchronous request the host must answer by
// resolving requestID.
func DeviceDataRequest(requestID, id string, payload []byte) Value {
	return Array(String(string(TypeDeviceDataRequest)), String(requestID), String(id), Bytes(payload))
}

// Probe is the connection probe posted when ports change.
func Probe() Value { return String(ProbeText) }

// Event is a parsed envelope. Fields that the shape does not carry are
// left zero.
type Event struct {
	Type      Type
	ID        string
	RequestID string
	Kind      MessageKind
	Text      string
	Payload   []byte
}

// Parse validates v against the known shapes and returns the event.
func Parse(v Value) (Event, error) {
	if text, ok := v.Str(); ok {
		if text != ProbeText {
			return Event{}, fmt.Errorf("envelope: unexpected bare string %q", text)
		}
		return Event{Type: TypeProbe}, nil
	}

	elements, ok := v.Elements()
	if !ok || len(elements) == 0 {
		return Event{}, fmt.Errorf("envelope: expected non-empty array, got %s", v.Kind())
	}
	name, ok := elements[0].Str()
	if !ok {
		return Event{}, fmt.Errorf("envelope: element 0 is %s, want string", elements[0].Kind())
	}

	event := Event{Type: Type(name)}
	var err error
	switch event.Type {
	case TypeAVRecv, TypeDeviceData:
		err = expect(elements, KindString, KindString, KindBytes)
		if err == nil {
			event.ID, _ = elements[1].Str()
			event.Payload, _ = elements[2].Data()
		}
	case TypeMessage:
		err = expect(elements, KindString, KindString, KindInt32, KindString)
		if err == nil {
			event.ID, _ = elements[1].Str()
			kind, _ := elements[2].Int()
			event.Kind = MessageKind(kind)
			event.Text, _ = elements[3].Str()
		}
	case TypeDeviceDataRequest:
		err = expect(elements, KindString, KindString, KindString, KindBytes)
		if err == nil {
			event.RequestID, _ = elements[1].Str()
			event.ID, _ = elements[2].Str()
			event.Payload, _ = elements[3].Data()
		}
	default:
		err = fmt.Errorf("envelope: unknown message type %q", name)
	}
	if err != nil {
		return Event{}, err
	}
	return event, nil
}

// ParseBytes unmarshals and parses in one step.
func ParseBytes(data []byte) (Event, error) {
	value, err := Unmarshal(data)
	if err != nil {
		return Event{}, err
	}
	return Parse(value)
}

func expect(elements []Value, kinds ...Kind) error {
	if len(elements) != len(kinds) {
		name, _ := elements[0].Str()
		return fmt.Errorf("envelope: %q has %d elements, want %d", name, len(elements), len(kinds))
	}
	for i, kind := range kinds {
		if elements[i].Kind() != kind {
			return fmt.Errorf("envelope: element %d is %s, want %s", i, elements[i].Kind(), kind)
		}
	}
	return nil
}
