// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/bureau-foundation/hostbridge/lib/codec"
)

// ActionFunc handles one control action. raw is the whole CBOR
// request map, "action" key included; the handler decodes its own
// fields from it. A non-nil result is returned to the caller in the
// response's "data" field. A returned error becomes {ok: false}.
type ActionFunc func(ctx context.Context, raw []byte) (any, error)

// Response is what the server writes back for every request.
type Response struct {
	OK    bool             `cbor:"ok"`
	Error string           `cbor:"error,omitempty"`
	Data  codec.RawMessage `cbor:"data,omitempty"`
}

// SocketServer answers control requests on a Unix socket. A client
// connects, writes one CBOR map naming an action, reads one Response,
// and the connection is closed. Handlers run concurrently, so a
// device-data-request blocked on the host does not hold up the
// resolve-request that answers it.
type SocketServer struct {
	socketPath string
	handlers   map[string]ActionFunc
	logger     *slog.Logger

	sameUserOnly bool
	ready        chan struct{}

	inFlight sync.WaitGroup
}

// NewSocketServer returns a server for socketPath. Register actions
// with Handle, then call Serve.
func NewSocketServer(socketPath string, logger *slog.Logger) *SocketServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &SocketServer{
		socketPath: socketPath,
		handlers:   make(map[string]ActionFunc),
		logger:     logger,
		ready:      make(chan struct{}),
	}
}

// Handle installs handler for action. Registering an action twice is
// a programming error and panics.
func (s *SocketServer) Handle(action string, handler ActionFunc) {
	if _, exists := s.handlers[action]; exists {
		panic(fmt.Sprintf("service.SocketServer: duplicate handler for action %q", action))
	}
	s.handlers[action] = handler
}

// RequireSameUser rejects connections from peers whose UID differs
// from this process's. Call before Serve.
func (s *SocketServer) RequireSameUser() { s.sameUserOnly = true }

// Ready is closed once the socket is listening.
func (s *SocketServer) Ready() <-chan struct{} { return s.ready }

// Serve listens on the socket until ctx is cancelled. It then stops
// accepting, waits for in-flight requests, and removes the socket
// file. A socket file left by an earlier run is replaced.
func (s *SocketServer) Serve(ctx context.Context) error {
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale control socket %s: %w", s.socketPath, err)
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.socketPath, err)
	}
	defer func() {
		listener.Close()
		os.Remove(s.socketPath)
	}()

	stopAccept := context.AfterFunc(ctx, func() { listener.Close() })
	defer stopAccept()

	s.logger.Info("control socket listening",
		"path", s.socketPath,
		"actions", len(s.handlers),
		"same_user_only", s.sameUserOnly,
	)
	close(s.ready)

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Error("accepting control connection", "error", err)
			continue
		}

		s.inFlight.Add(1)
		go func() {
			defer s.inFlight.Done()
			s.serveRequest(ctx, conn)
		}()
	}

	s.inFlight.Wait()
	return nil
}

const (
	// readTimeout bounds how long a client may take to send its request.
	readTimeout = 30 * time.Second

	// writeTimeout bounds writing the response once the handler returns.
	writeTimeout = 10 * time.Second

	// maxRequestSize caps one request. Device data payloads travel
	// inside requests.
	maxRequestSize = 4 * 1024 * 1024
)

func (s *SocketServer) serveRequest(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	if s.sameUserOnly {
		if err := checkSameUser(conn); err != nil {
			s.logger.Warn("rejected control connection", "error", err)
			s.writeResponse(conn, Response{Error: "permission denied"})
			return
		}
	}

	action, raw, err := readRequest(conn)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return
		}
		s.writeResponse(conn, Response{Error: err.Error()})
		return
	}

	handler, exists := s.handlers[action]
	if !exists {
		s.writeResponse(conn, Response{Error: fmt.Sprintf("unknown action %q", action)})
		return
	}

	started := time.Now()
	result, err := handler(ctx, raw)
	if err != nil {
		s.logger.Debug("control action failed",
			"action", action,
			"duration", time.Since(started),
			"error", err,
		)
		s.writeResponse(conn, Response{Error: err.Error()})
		return
	}
	s.logger.Debug("control action handled", "action", action, "duration", time.Since(started))

	response := Response{OK: true}
	if result != nil {
		data, err := codec.Marshal(result)
		if err != nil {
			s.writeResponse(conn, Response{Error: fmt.Sprintf("internal: marshaling %s response: %v", action, err)})
			return
		}
		response.Data = data
	}
	s.writeResponse(conn, response)
}

// readRequest decodes one CBOR request and its action name. io.EOF
// means the client closed without sending anything.
func readRequest(conn net.Conn) (string, []byte, error) {
	conn.SetReadDeadline(time.Now().Add(readTimeout))

	var raw codec.RawMessage
	if err := codec.NewDecoder(io.LimitReader(conn, maxRequestSize)).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return "", nil, io.EOF
		}
		return "", nil, fmt.Errorf("invalid request: %w", err)
	}

	var header struct {
		Action string `cbor:"action"`
	}
	if err := codec.Unmarshal(raw, &header); err != nil {
		return "", nil, fmt.Errorf("invalid request: %w", err)
	}
	if header.Action == "" {
		return "", nil, errors.New("missing required field: action")
	}
	return header.Action, []byte(raw), nil
}

// writeResponse writes response. The connection is closed right after,
// so a write failure is only logged.
func (s *SocketServer) writeResponse(conn net.Conn, response Response) {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := codec.NewEncoder(conn).Encode(response); err != nil {
		s.logger.Debug("writing control response", "ok", response.OK, "error", err)
	}
}
