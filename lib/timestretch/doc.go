// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package timestretch wraps an external tempo/pitch processing engine
// in an owned handle.
//
// The engine itself (typically a SoundTouch build reached through cgo)
// is supplied by the embedder as an [Engine]; this package implements
// no audio processing. [Processor] owns one engine instance: it checks
// sample buffers against the configured channel count, serializes
// access, and releases the engine exactly once. Every method called
// after [Processor.Close] returns [ErrClosed] instead of touching the
// released engine.
//
// This is a library for embedders that process received audio before
// handing it to the host; neither hostbridge binary links it.
package timestretch
