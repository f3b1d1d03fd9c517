// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock is the injectable time source for the bridge.
//
// The only time-dependent behavior in hostbridge is the bounded wait a
// synchronous call performs while the host prepares its response. That
// wait is expressed against a [Clock] so that tests can drive it
// deterministically instead of sleeping.
//
// Production code uses [Real]. Tests use [Fake], which holds time still
// until [FakeClock.Advance] is called:
//
//	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	go func() { result <- b.Call(ctx, "dev1", payload, 50*time.Millisecond) }()
//	fake.WaitForTimers(1)               // the call is now parked
//	fake.Advance(50 * time.Millisecond) // its timeout fires
//
// [FakeClock.WaitForTimers] closes the race between a goroutine arming
// a timer and the test advancing past it.
package clock
