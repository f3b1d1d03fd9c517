// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/bureau-foundation/hostbridge/lib/hostport"
)

// Compression selects how StreamTransport compresses frame messages.
// The numeric values are written into frames and must not change.
type Compression uint8

const (
	// CompressionNone sends messages as-is. The right choice for
	// audio/video payloads, which the device has already encoded.
	CompressionNone Compression = 0

	// CompressionLZ4 uses LZ4 block compression: cheap, modest ratio.
	CompressionLZ4 Compression = 1

	// CompressionZstd uses zstd at the default level. Better for
	// text-heavy traffic such as JSON device data and SDK messages.
	CompressionZstd Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// ParseCompression parses the configuration spelling of a compression.
// The empty string selects CompressionNone.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", name)
	}
}

// maxFrameMessageSize caps the size a compressed frame may claim to
// expand to.
const maxFrameMessageSize = 64 << 20

// errIncompressible means the compressed form was not smaller than the
// input; the frame is then sent uncompressed.
var errIncompressible = errors.New("transport: message is incompressible")

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("transport: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxFrameMessageSize))
	if err != nil {
		panic("transport: zstd decoder initialization failed: " + err.Error())
	}
}

// compressMessage compresses message with c. It returns
// errIncompressible when compression would not save space.
func compressMessage(message []byte, c Compression) ([]byte, error) {
	switch c {
	case CompressionNone:
		return message, nil
	case CompressionLZ4:
		destination := make([]byte, lz4.CompressBlockBound(len(message)))
		written, err := lz4.CompressBlock(message, destination, nil)
		if err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		// CompressBlock reports 0 for data it cannot compress.
		if written == 0 || written >= len(message) {
			return nil, errIncompressible
		}
		return destination[:written], nil
	case CompressionZstd:
		compressed := zstdEncoder.EncodeAll(message, nil)
		if len(compressed) >= len(message) {
			return nil, errIncompressible
		}
		return compressed, nil
	default:
		return nil, fmt.Errorf("unsupported compression %s", c)
	}
}

// decompressMessage reverses compressMessage. size is the original
// length recorded in the frame and is verified.
func decompressMessage(compressed []byte, c Compression, size int) ([]byte, error) {
	if c == CompressionNone {
		return compressed, nil
	}
	if size < 0 || size > maxFrameMessageSize {
		return nil, fmt.Errorf("frame size %d out of range", size)
	}

	switch c {
	case CompressionLZ4:
		destination := make([]byte, size)
		read, err := lz4.UncompressBlock(compressed, destination)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		if read != size {
			return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", read, size)
		}
		return destination, nil
	case CompressionZstd:
		result, err := zstdDecoder.DecodeAll(compressed, make([]byte, 0, size))
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		if len(result) != size {
			return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d", len(result), size)
		}
		return result, nil
	default:
		return nil, fmt.Errorf("unsupported compression %s", c)
	}
}

// encodeFrame builds the frame for one post. Messages shorter than
// minSize, and messages that do not shrink, are sent uncompressed.
func encodeFrame(port hostport.Port, message []byte, c Compression, minSize int) (Frame, error) {
	frame := Frame{Port: port, Message: message}
	if c == CompressionNone || len(message) < minSize {
		return frame, nil
	}
	compressed, err := compressMessage(message, c)
	if errors.Is(err, errIncompressible) {
		return frame, nil
	}
	if err != nil {
		return Frame{}, err
	}
	frame.Compression = c
	frame.Size = len(message)
	frame.Message = compressed
	return frame, nil
}

// decodeFrame returns the uncompressed message carried by frame.
func decodeFrame(frame Frame) ([]byte, error) {
	return decompressMessage(frame.Message, frame.Compression, frame.Size)
}
