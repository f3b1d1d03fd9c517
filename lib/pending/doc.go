// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package pending tracks synchronous calls that are waiting for the
// host to answer.
//
// Each in-flight call is a [Request]: a single-resolution future keyed
// by a request id of the form "<logicalID>_<counter>". The counter
// belongs to the [Registry] and never repeats, so ids stay distinct
// even when many callers share one logical id.
//
// A request moves through
//
//	registered -> (resolved | timed out | cancelled) -> removed
//
// The waiter calls [Request.Wait]; the host's thread calls
// [Registry.Resolve]. Whoever registered the request removes it with
// [Registry.Remove] on every exit path, after which a late resolution
// finds nothing and returns [ErrNotFound].
//
// Locking: the registry mutex guards only the id map and the counter
// and is never held while waiting. Each request has its own mutex for
// its completion flag and response. Resolve looks the request up under
// the registry mutex, drops it, then takes the request's mutex; the two
// are never nested.
package pending
