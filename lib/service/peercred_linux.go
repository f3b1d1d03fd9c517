// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build linux

package service

import (
	"errors"
	"fmt"
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// checkSameUser verifies via SO_PEERCRED that the process on the other
// end of conn runs under this process's UID.
func checkSameUser(conn net.Conn) error {
	unixConn, ok := conn.(*net.UnixConn)
	if !ok {
		return errors.New("peer credentials unavailable: not a unix socket")
	}
	rawConn, err := unixConn.SyscallConn()
	if err != nil {
		return fmt.Errorf("peer credentials: %w", err)
	}

	var credentials *unix.Ucred
	var credentialsErr error
	if err := rawConn.Control(func(fd uintptr) {
		credentials, credentialsErr = unix.GetsockoptUcred(int(fd), unix.SOL_SOCKET, unix.SO_PEERCRED)
	}); err != nil {
		return fmt.Errorf("peer credentials: %w", err)
	}
	if credentialsErr != nil {
		return fmt.Errorf("peer credentials: %w", credentialsErr)
	}

	if uid := os.Getuid(); int(credentials.Uid) != uid {
		return fmt.Errorf("peer uid %d (pid %d) does not match uid %d", credentials.Uid, credentials.Pid, uid)
	}
	return nil
}
