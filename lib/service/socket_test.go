// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/hostbridge/lib/codec"
	"github.com/bureau-foundation/hostbridge/lib/testutil"
)

// sendRequest connects to a Unix socket, sends a CBOR request, and
// returns the decoded response envelope.
func sendRequest(t *testing.T, socketPath string, request any) Response {
	t.Helper()

	conn, err := net.DialTimeout("unix", socketPath, 5*time.Second)
	if err != nil {
		t.Errorf("connecting to socket: %v", err)
		return Response{}
	}
	defer conn.Close()

	if err := codec.NewEncoder(conn).Encode(request); err != nil {
		t.Errorf("writing request: %v", err)
		return Response{}
	}
	if unixConn, ok := conn.(*net.UnixConn); ok {
		unixConn.CloseWrite()
	}

	var response Response
	if err := codec.NewDecoder(conn).Decode(&response); err != nil {
		t.Errorf("decoding response: %v", err)
	}
	return response
}

// decodeData unmarshals the Data field of a response into target.
func decodeData(t *testing.T, response Response, target any) {
	t.Helper()
	if len(response.Data) == 0 {
		t.Error("response has no data to decode")
		return
	}
	if err := codec.Unmarshal(response.Data, target); err != nil {
		t.Errorf("decoding response data: %v", err)
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// startServer runs server until the test ends and returns a channel
// carrying Serve's result, plus the cancel function that stops it.
func startServer(t *testing.T, server *SocketServer) (<-chan error, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	serveDone := make(chan error, 1)
	go func() {
		serveDone <- server.Serve(ctx)
	}()
	t.Cleanup(cancel)
	testutil.RequireClosed(t, server.Ready(), 5*time.Second, "socket server not ready")
	return serveDone, cancel
}

func TestSocketServerStatus(t *testing.T) {
	socketPath := testutil.SocketPath(t, "control.sock")
	server := NewSocketServer(socketPath, testLogger())

	server.Handle("status", func(ctx context.Context, raw []byte) (any, error) {
		return map[string]any{
			"pending":  42,
			"interned": 3,
		}, nil
	})

	serveDone, cancel := startServer(t, server)

	response := sendRequest(t, socketPath, map[string]string{"action": "status"})
	if !response.OK {
		t.Errorf("expected ok=true, got false")
	}

	var data map[string]any
	decodeData(t, response, &data)
	if data["pending"] != uint64(42) {
		t.Errorf("expected pending=42, got %v (%T)", data["pending"], data["pending"])
	}
	if data["interned"] != uint64(3) {
		t.Errorf("expected interned=3, got %v (%T)", data["interned"], data["interned"])
	}

	cancel()
	if err := testutil.RequireReceive(t, serveDone, 5*time.Second, "Serve did not return"); err != nil {
		t.Errorf("Serve returned error: %v", err)
	}
}

func TestSocketServerUnknownAction(t *testing.T) {
	socketPath := testutil.SocketPath(t, "control.sock")
	server := NewSocketServer(socketPath, testLogger())
	server.Handle("status", func(ctx context.Context, raw []byte) (any, error) {
		return nil, nil
	})
	startServer(t, server)

	response := sendRequest(t, socketPath, map[string]string{"action": "nonexistent"})
	if response.OK {
		t.Errorf("expected ok=false, got true")
	}
	if response.Error == "" {
		t.Error("expected error message for unknown action")
	}
}

func TestSocketServerMissingAction(t *testing.T) {
	socketPath := testutil.SocketPath(t, "control.sock")
	server := NewSocketServer(socketPath, testLogger())
	startServer(t, server)

	response := sendRequest(t, socketPath, map[string]string{"foo": "bar"})
	if response.OK {
		t.Errorf("expected ok=false, got true")
	}
}

func TestSocketServerInvalidCBOR(t *testing.T) {
	socketPath := testutil.SocketPath(t, "control.sock")
	server := NewSocketServer(socketPath, testLogger())
	startServer(t, server)

	conn, err := net.DialTimeout("unix", socketPath, 5*time.Second)
	if err != nil {
		t.Fatalf("connecting: %v", err)
	}
	defer conn.Close()

	// Bytes that are not valid CBOR.
	conn.Write([]byte{0xff, 0xfe, 0xfd, 0xfc, 0xfb})
	if unixConn, ok := conn.(*net.UnixConn); ok {
		unixConn.CloseWrite()
	}

	var response Response
	if err := codec.NewDecoder(conn).Decode(&response); err != nil {
		t.Fatalf("decoding error response: %v", err)
	}
	if response.OK {
		t.Errorf("expected ok=false for invalid CBOR, got true")
	}
}

func TestSocketServerHandlerError(t *testing.T) {
	socketPath := testutil.SocketPath(t, "control.sock")
	server := NewSocketServer(socketPath, testLogger())
	server.Handle("fail", func(ctx context.Context, raw []byte) (any, error) {
		return nil, fmt.Errorf("something broke")
	})
	startServer(t, server)

	response := sendRequest(t, socketPath, map[string]string{"action": "fail"})
	if response.OK {
		t.Errorf("expected ok=false, got true")
	}
	if response.Error != "something broke" {
		t.Errorf("expected error='something broke', got %q", response.Error)
	}
}

func TestSocketServerNilResult(t *testing.T) {
	socketPath := testutil.SocketPath(t, "control.sock")
	server := NewSocketServer(socketPath, testLogger())
	server.Handle("noop", func(ctx context.Context, raw []byte) (any, error) {
		return nil, nil
	})
	startServer(t, server)

	response := sendRequest(t, socketPath, map[string]string{"action": "noop"})
	if !response.OK {
		t.Errorf("expected ok=true, got false")
	}
	if len(response.Data) != 0 {
		t.Errorf("expected no data in response, got %d bytes", len(response.Data))
	}
}

func TestSocketServerConcurrentRequests(t *testing.T) {
	socketPath := testutil.SocketPath(t, "control.sock")
	server := NewSocketServer(socketPath, testLogger())
	server.Handle("echo", func(ctx context.Context, raw []byte) (any, error) {
		var request struct {
			Value int `cbor:"value"`
		}
		if err := codec.Unmarshal(raw, &request); err != nil {
			return nil, err
		}
		return map[string]any{"value": request.Value}, nil
	})
	startServer(t, server)

	const concurrency = 20
	var clientWg sync.WaitGroup
	for i := range concurrency {
		clientWg.Add(1)
		go func() {
			defer clientWg.Done()
			response := sendRequest(t, socketPath, map[string]any{
				"action": "echo",
				"value":  i,
			})
			if !response.OK {
				t.Errorf("request %d: expected ok=true", i)
				return
			}
			var data map[string]any
			decodeData(t, response, &data)
			if data["value"] != uint64(i) {
				t.Errorf("request %d: expected value=%d, got %v", i, i, data["value"])
			}
		}()
	}
	clientWg.Wait()
}

func TestSocketServerGracefulShutdown(t *testing.T) {
	socketPath := testutil.SocketPath(t, "control.sock")
	server := NewSocketServer(socketPath, testLogger())

	handlerStarted := make(chan struct{})
	handlerRelease := make(chan struct{})
	server.Handle("slow", func(ctx context.Context, raw []byte) (any, error) {
		close(handlerStarted)
		<-handlerRelease
		return map[string]any{"completed": true}, nil
	})

	serveDone, cancel := startServer(t, server)

	responseChan := make(chan Response, 1)
	go func() {
		responseChan <- sendRequest(t, socketPath, map[string]string{"action": "slow"})
	}()

	// Wait for the handler to start, then release it and cancel.
	testutil.RequireClosed(t, handlerStarted, 5*time.Second, "handler did not start")
	close(handlerRelease)
	cancel()

	// The in-flight request still completes.
	response := testutil.RequireReceive(t, responseChan, 5*time.Second, "waiting for in-flight response")
	if !response.OK {
		t.Errorf("expected ok=true for in-flight request, got false")
	}
	var data map[string]any
	decodeData(t, response, &data)
	if data["completed"] != true {
		t.Errorf("expected completed=true, got %v", data["completed"])
	}

	if err := testutil.RequireReceive(t, serveDone, 5*time.Second, "Serve did not return after cancellation"); err != nil {
		t.Errorf("Serve returned error: %v", err)
	}
	if _, err := os.Stat(socketPath); !os.IsNotExist(err) {
		t.Error("socket file not cleaned up after Serve returned")
	}
}

func TestSocketServerReplacesStaleSocket(t *testing.T) {
	socketPath := testutil.SocketPath(t, "control.sock")
	if err := os.WriteFile(socketPath, nil, 0o600); err != nil {
		t.Fatal(err)
	}

	server := NewSocketServer(socketPath, testLogger())
	server.Handle("noop", func(ctx context.Context, raw []byte) (any, error) { return nil, nil })
	startServer(t, server)

	if response := sendRequest(t, socketPath, map[string]string{"action": "noop"}); !response.OK {
		t.Errorf("request failed after replacing stale socket: %q", response.Error)
	}
}

func TestSocketServerDuplicateHandlerPanics(t *testing.T) {
	server := NewSocketServer("/tmp/test.sock", testLogger())
	server.Handle("foo", func(ctx context.Context, raw []byte) (any, error) {
		return nil, nil
	})

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic on duplicate handler registration")
		}
	}()

	server.Handle("foo", func(ctx context.Context, raw []byte) (any, error) {
		return nil, nil
	})
}

func TestSocketServerRequireSameUser(t *testing.T) {
	socketPath := testutil.SocketPath(t, "control.sock")
	server := NewSocketServer(socketPath, testLogger())
	server.RequireSameUser()
	server.Handle("noop", func(ctx context.Context, raw []byte) (any, error) { return nil, nil })
	startServer(t, server)

	response := sendRequest(t, socketPath, map[string]string{"action": "noop"})
	if runtime.GOOS == "linux" {
		// The test process is its own peer.
		if !response.OK {
			t.Errorf("same-user request rejected: %q", response.Error)
		}
		return
	}
	if response.OK {
		t.Error("peer check passed on a platform without SO_PEERCRED")
	}
}

func TestSocketServerBlockedActionDoesNotBlockOthers(t *testing.T) {
	socketPath := testutil.SocketPath(t, "control.sock")
	server := NewSocketServer(socketPath, testLogger())

	release := make(chan struct{})
	server.Handle("wait", func(ctx context.Context, raw []byte) (any, error) {
		<-release
		return map[string]string{"response": "OK"}, nil
	})
	server.Handle("answer", func(ctx context.Context, raw []byte) (any, error) {
		close(release)
		return nil, nil
	})
	startServer(t, server)

	waited := make(chan Response, 1)
	go func() {
		waited <- sendRequest(t, socketPath, map[string]any{"action": "wait"})
	}()

	if response := sendRequest(t, socketPath, map[string]any{"action": "answer"}); !response.OK {
		t.Fatalf("answer failed: %s", response.Error)
	}
	response := testutil.RequireReceive(t, waited, 5*time.Second, "blocked action never completed")
	if !response.OK {
		t.Fatalf("wait failed: %s", response.Error)
	}
	var result map[string]string
	decodeData(t, response, &result)
	if result["response"] != "OK" {
		t.Errorf("wait result = %v", result)
	}
}
