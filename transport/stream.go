// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/bureau-foundation/hostbridge/lib/codec"
	"github.com/bureau-foundation/hostbridge/lib/hostport"
	"github.com/bureau-foundation/hostbridge/lib/netutil"
)

var _ Transport = (*StreamTransport)(nil)

// Default StreamTransport settings.
const (
	DefaultDialTimeout     = 2 * time.Second
	DefaultWriteTimeout    = 5 * time.Second
	DefaultMinCompressSize = 256
)

// StreamConfig configures a StreamTransport.
type StreamConfig struct {
	// SocketPath is the Unix socket the host's MailboxServer listens on.
	SocketPath string

	// DialTimeout bounds each connection attempt. Zero selects
	// DefaultDialTimeout.
	DialTimeout time.Duration

	// WriteTimeout bounds writing one frame. Zero selects
	// DefaultWriteTimeout.
	WriteTimeout time.Duration

	// Compression is applied to messages of at least MinCompressSize
	// bytes.
	Compression Compression

	// MinCompressSize is the smallest message that is compressed. Zero
	// selects DefaultMinCompressSize.
	MinCompressSize int

	Logger *slog.Logger
}

// StreamTransport posts frames over one persistent Unix socket
// connection. The connection is dialed on first use. A write failure
// drops the connection; the post is retried once on a fresh one.
//
// Post is safe for concurrent use; frames are written one at a time.
type StreamTransport struct {
	config StreamConfig
	logger *slog.Logger

	mu     sync.Mutex
	conn   net.Conn
	closed bool
}

// NewStreamTransport validates config and returns a transport. No
// connection is made until the first Post.
func NewStreamTransport(config StreamConfig) (*StreamTransport, error) {
	if config.SocketPath == "" {
		return nil, errors.New("transport: stream socket path is required")
	}
	if config.DialTimeout <= 0 {
		config.DialTimeout = DefaultDialTimeout
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = DefaultWriteTimeout
	}
	if config.MinCompressSize <= 0 {
		config.MinCompressSize = DefaultMinCompressSize
	}
	switch config.Compression {
	case CompressionNone, CompressionLZ4, CompressionZstd:
	default:
		return nil, fmt.Errorf("transport: unsupported compression %s", config.Compression)
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &StreamTransport{config: config, logger: logger}, nil
}

// Post encodes message into a frame addressed to port and writes it.
func (s *StreamTransport) Post(port hostport.Port, message []byte) error {
	frame, err := encodeFrame(port, message, s.config.Compression, s.config.MinCompressSize)
	if err != nil {
		return fmt.Errorf("transport: encoding frame: %w", err)
	}
	data, err := codec.Marshal(frame)
	if err != nil {
		return fmt.Errorf("transport: encoding frame: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	reused := s.conn != nil
	if err := s.writeLocked(data); err != nil {
		if !reused {
			return err
		}
		// The host may have restarted since the last write.
		s.logger.Debug("host connection lost, redialing",
			"socket_path", s.config.SocketPath,
			"error", err,
		)
		return s.writeLocked(data)
	}
	return nil
}

// writeLocked dials if needed and writes data. On failure the
// connection is discarded so the next attempt starts fresh.
func (s *StreamTransport) writeLocked(data []byte) error {
	if s.conn == nil {
		dialer := net.Dialer{Timeout: s.config.DialTimeout}
		conn, err := dialer.DialContext(context.Background(), "unix", s.config.SocketPath)
		if err != nil {
			return fmt.Errorf("transport: connecting to %s: %w", s.config.SocketPath, err)
		}
		s.conn = conn
	}

	s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	if _, err := s.conn.Write(data); err != nil {
		s.conn.Close()
		s.conn = nil
		if netutil.IsExpectedCloseError(err) {
			return fmt.Errorf("transport: host closed connection: %w", err)
		}
		return fmt.Errorf("transport: writing frame: %w", err)
	}
	return nil
}

// Close closes the connection. Later posts return ErrClosed.
func (s *StreamTransport) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}
