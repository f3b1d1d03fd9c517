// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"bytes"
	"crypto/rand"
	"testing"
)

func TestParseCompression(t *testing.T) {
	for _, test := range []struct {
		name string
		want Compression
	}{
		{"", CompressionNone},
		{"none", CompressionNone},
		{"lz4", CompressionLZ4},
		{"zstd", CompressionZstd},
	} {
		got, err := ParseCompression(test.name)
		if err != nil {
			t.Errorf("ParseCompression(%q): %v", test.name, err)
			continue
		}
		if got != test.want {
			t.Errorf("ParseCompression(%q) = %s, want %s", test.name, got, test.want)
		}
	}

	if _, err := ParseCompression("gzip"); err == nil {
		t.Error("ParseCompression(gzip) succeeded")
	}
}

func TestFrameCompressionRoundTrip(t *testing.T) {
	message := bytes.Repeat([]byte(`{"temperature":21.5,"humidity":40}`), 64)

	for _, compression := range []Compression{CompressionLZ4, CompressionZstd} {
		t.Run(compression.String(), func(t *testing.T) {
			frame, err := encodeFrame(3, message, compression, 16)
			if err != nil {
				t.Fatalf("encodeFrame: %v", err)
			}
			if frame.Compression != compression {
				t.Fatalf("frame compression = %s, want %s", frame.Compression, compression)
			}
			if frame.Size != len(message) {
				t.Errorf("frame size = %d, want %d", frame.Size, len(message))
			}
			if len(frame.Message) >= len(message) {
				t.Errorf("compressed %d bytes into %d", len(message), len(frame.Message))
			}

			decoded, err := decodeFrame(frame)
			if err != nil {
				t.Fatalf("decodeFrame: %v", err)
			}
			if !bytes.Equal(decoded, message) {
				t.Error("round trip changed the message")
			}
		})
	}
}

func TestFrameSmallMessageUncompressed(t *testing.T) {
	frame, err := encodeFrame(3, []byte("tiny"), CompressionZstd, 256)
	if err != nil {
		t.Fatalf("encodeFrame: %v", err)
	}
	if frame.Compression != CompressionNone || frame.Size != 0 {
		t.Errorf("small message framed as %s size %d", frame.Compression, frame.Size)
	}
}

func TestFrameIncompressibleUncompressed(t *testing.T) {
	message := make([]byte, 4096)
	if _, err := rand.Read(message); err != nil {
		t.Fatal(err)
	}
	for _, compression := range []Compression{CompressionLZ4, CompressionZstd} {
		frame, err := encodeFrame(3, message, compression, 16)
		if err != nil {
			t.Fatalf("encodeFrame(%s): %v", compression, err)
		}
		if frame.Compression != CompressionNone {
			t.Errorf("random data framed with %s", frame.Compression)
		}
		if !bytes.Equal(frame.Message, message) {
			t.Errorf("%s: uncompressed frame does not carry the original message", compression)
		}
	}
}

func TestDecodeFrameSizeMismatch(t *testing.T) {
	message := bytes.Repeat([]byte("abcd"), 256)
	frame, err := encodeFrame(3, message, CompressionLZ4, 16)
	if err != nil {
		t.Fatalf("encodeFrame: %v", err)
	}
	frame.Size--
	if _, err := decodeFrame(frame); err == nil {
		t.Error("decodeFrame accepted a frame with the wrong size")
	}

	frame.Size = maxFrameMessageSize + 1
	if _, err := decodeFrame(frame); err == nil {
		t.Error("decodeFrame accepted an oversized frame")
	}
}
