// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"

	"github.com/bureau-foundation/hostbridge/lib/codec"
	"github.com/bureau-foundation/hostbridge/lib/hostport"
	"github.com/bureau-foundation/hostbridge/lib/netutil"
)

// MailboxHandler receives one decoded message. It is called from the
// connection's goroutine; messages on one connection arrive in order.
type MailboxHandler func(port hostport.Port, message []byte)

// MailboxServer is the host side of StreamTransport. It accepts
// connections on a Unix socket, decodes frames, and hands each
// message to the handler.
type MailboxServer struct {
	socketPath string
	handler    MailboxHandler
	logger     *slog.Logger

	ready     chan struct{}
	readyOnce sync.Once

	mu          sync.Mutex
	connections map[net.Conn]struct{}
	active      sync.WaitGroup
}

// NewMailboxServer returns a server that will listen on socketPath.
func NewMailboxServer(socketPath string, handler MailboxHandler, logger *slog.Logger) *MailboxServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &MailboxServer{
		socketPath:  socketPath,
		handler:     handler,
		logger:      logger,
		ready:       make(chan struct{}),
		connections: make(map[net.Conn]struct{}),
	}
}

// Ready is closed once the server is listening.
func (s *MailboxServer) Ready() <-chan struct{} { return s.ready }

// Serve listens until ctx is cancelled, then closes every open
// connection and waits for their readers to return. A stale socket
// file at the path is replaced; the file is removed on return.
func (s *MailboxServer) Serve(ctx context.Context) error {
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale socket %s: %w", s.socketPath, err)
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.socketPath, err)
	}
	defer os.Remove(s.socketPath)

	go func() {
		<-ctx.Done()
		listener.Close()
		s.closeConnections()
	}()

	s.logger.Info("mailbox server listening", "path", s.socketPath)
	s.readyOnce.Do(func() { close(s.ready) })

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Error("accept failed", "error", err)
			continue
		}

		if !s.track(conn) {
			conn.Close()
			continue
		}
		s.active.Add(1)
		go func() {
			defer s.active.Done()
			defer s.untrack(conn)
			s.readFrames(conn)
		}()
	}

	listener.Close()
	s.closeConnections()
	s.active.Wait()
	return nil
}

func (s *MailboxServer) readFrames(conn net.Conn) {
	decoder := codec.NewDecoder(conn)
	for {
		var frame Frame
		if err := decoder.Decode(&frame); err != nil {
			if !netutil.IsExpectedCloseError(err) {
				s.logger.Warn("dropping host connection", "error", err)
			}
			return
		}
		message, err := decodeFrame(frame)
		if err != nil {
			s.logger.Warn("discarding undecodable frame",
				"port", frame.Port,
				"compression", frame.Compression.String(),
				"error", err,
			)
			continue
		}
		s.handler(frame.Port, message)
	}
}

// track registers conn, or reports false if the server is shutting
// down.
func (s *MailboxServer) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.connections == nil {
		return false
	}
	s.connections[conn] = struct{}{}
	return true
}

func (s *MailboxServer) untrack(conn net.Conn) {
	s.mu.Lock()
	if s.connections != nil {
		delete(s.connections, conn)
	}
	s.mu.Unlock()
	conn.Close()
}

func (s *MailboxServer) closeConnections() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.connections {
		conn.Close()
	}
	s.connections = nil
}
