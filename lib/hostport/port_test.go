// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hostport

import (
	"sync"
	"testing"
)

func TestRegistryStartsCleared(t *testing.T) {
	var registry Registry
	if got := registry.Request(); got != Illegal {
		t.Errorf("Request() = %v, want Illegal", got)
	}
	if got := registry.Response(); got != Illegal {
		t.Errorf("Response() = %v, want Illegal", got)
	}
}

func TestRegistrySetSupersedes(t *testing.T) {
	var registry Registry
	registry.Set(11, 12)
	registry.Set(21, 22)

	snapshot := registry.Snapshot()
	if snapshot.Request != 21 || snapshot.Response != 22 {
		t.Errorf("Snapshot() = %+v, want {21 22}", snapshot)
	}
}

func TestRegistryClear(t *testing.T) {
	var registry Registry
	registry.Set(5, 6)
	registry.Clear()

	if registry.Request().Valid() {
		t.Error("request port still valid after Clear")
	}
	if registry.Response().Valid() {
		t.Error("response port still valid after Clear")
	}
}

func TestPortString(t *testing.T) {
	if got := Illegal.String(); got != "illegal" {
		t.Errorf("Illegal.String() = %q", got)
	}
	if got := Port(-42).String(); got != "-42" {
		t.Errorf("Port(-42).String() = %q", got)
	}
}

// Concurrent readers must only ever observe a pair that some writer
// stored together.
func TestRegistrySnapshotIsConsistent(t *testing.T) {
	var registry Registry
	var waitGroup sync.WaitGroup

	for writer := 1; writer <= 4; writer++ {
		waitGroup.Add(1)
		go func(base Port) {
			defer waitGroup.Done()
			for i := range 500 {
				port := base*1000 + Port(i)
				registry.Set(port, -port)
			}
		}(Port(writer))
	}

	for range 4 {
		waitGroup.Add(1)
		go func() {
			defer waitGroup.Done()
			for range 500 {
				snapshot := registry.Snapshot()
				if snapshot.Response != -snapshot.Request {
					t.Errorf("torn snapshot: %+v", snapshot)
					return
				}
			}
		}()
	}
	waitGroup.Wait()
}
