// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !linux

package service

import (
	"errors"
	"net"
)

// checkSameUser cannot verify peers without SO_PEERCRED, so it refuses
// every connection when the check is enabled.
func checkSameUser(net.Conn) error {
	return errors.New("peer credential checks are only supported on linux")
}
