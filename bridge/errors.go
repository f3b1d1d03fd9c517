// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import "errors"

var (
	// ErrTransportNotInitialized is returned by sends attempted before
	// InitializeTransport.
	ErrTransportNotInitialized = errors.New("bridge: transport not initialized")

	// ErrNoPort is returned by sends while the request port is unset.
	ErrNoPort = errors.New("bridge: host request port not set")

	// ErrInvalidArgument is returned for missing required arguments.
	ErrInvalidArgument = errors.New("bridge: invalid argument")
)
