// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package envelope

import (
	"errors"
	"fmt"
	"math"

	"github.com/bureau-foundation/hostbridge/lib/codec"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindString
	KindInt32
	KindBytes
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt32:
		return "int32"
	case KindBytes:
		return "bytes"
	case KindArray:
		return "array"
	default:
		return fmt.Sprintf("invalid(%d)", uint8(k))
	}
}

// Value is one envelope element. The zero Value is invalid and cannot
// be marshaled.
type Value struct {
	kind     Kind
	text     string
	number   int32
	data     []byte
	elements []Value
}

// String returns a string element.
func String(s string) Value { return Value{kind: KindString, text: s} }

// Int32 returns a 32-bit integer element.
func Int32(n int32) Value { return Value{kind: KindInt32, number: n} }

// Bytes returns a byte buffer element. The slice is referenced, not
// copied, until the value is marshaled.
func Bytes(b []byte) Value { return Value{kind: KindBytes, data: b} }

// Array returns an array element holding elements in order.
func Array(elements ...Value) Value { return Value{kind: KindArray, elements: elements} }

// Kind returns the variant tag.
func (v Value) Kind() Kind { return v.kind }

// Str returns the string payload and whether v is a string.
func (v Value) Str() (string, bool) { return v.text, v.kind == KindString }

// Int returns the integer payload and whether v is an int32.
func (v Value) Int() (int32, bool) { return v.number, v.kind == KindInt32 }

// Data returns the byte payload and whether v is a byte buffer.
func (v Value) Data() ([]byte, bool) { return v.data, v.kind == KindBytes }

// Elements returns the array elements and whether v is an array.
func (v Value) Elements() ([]Value, bool) { return v.elements, v.kind == KindArray }

// Len returns the number of elements of an array, or 0.
func (v Value) Len() int { return len(v.elements) }

// native converts v into the plain Go value fxamacker/cbor encodes as
// the matching CBOR major type.
func (v Value) native() (any, error) {
	switch v.kind {
	case KindString:
		return v.text, nil
	case KindInt32:
		return v.number, nil
	case KindBytes:
		if v.data == nil {
			return []byte{}, nil
		}
		return v.data, nil
	case KindArray:
		elements := make([]any, len(v.elements))
		for i, element := range v.elements {
			converted, err := element.native()
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			elements[i] = converted
		}
		return elements, nil
	default:
		return nil, fmt.Errorf("envelope: cannot encode %s value", v.kind)
	}
}

// Marshal serializes v to CBOR.
func Marshal(v Value) ([]byte, error) {
	native, err := v.native()
	if err != nil {
		return nil, err
	}
	return codec.Marshal(native)
}

// ErrUnsupported is returned by Unmarshal for CBOR items that have no
// envelope representation (maps, floats, booleans, null, tags).
var ErrUnsupported = errors.New("envelope: unsupported CBOR item")

// Unmarshal decodes CBOR produced by Marshal, or by any encoder that
// restricts itself to the envelope types.
func Unmarshal(data []byte) (Value, error) {
	var decoded any
	if err := codec.Unmarshal(data, &decoded); err != nil {
		return Value{}, fmt.Errorf("envelope: decoding: %w", err)
	}
	return fromNative(decoded)
}

func fromNative(decoded any) (Value, error) {
	switch typed := decoded.(type) {
	case string:
		return String(typed), nil
	case []byte:
		return Bytes(typed), nil
	case uint64:
		if typed > math.MaxInt32 {
			return Value{}, fmt.Errorf("%w: integer %d overflows int32", ErrUnsupported, typed)
		}
		return Int32(int32(typed)), nil
	case int64:
		if typed < math.MinInt32 || typed > math.MaxInt32 {
			return Value{}, fmt.Errorf("%w: integer %d overflows int32", ErrUnsupported, typed)
		}
		return Int32(int32(typed)), nil
	case []any:
		elements := make([]Value, len(typed))
		for i, element := range typed {
			converted, err := fromNative(element)
			if err != nil {
				return Value{}, fmt.Errorf("element %d: %w", i, err)
			}
			elements[i] = converted
		}
		return Array(elements...), nil
	default:
		return Value{}, fmt.Errorf("%w: %T", ErrUnsupported, decoded)
	}
}
