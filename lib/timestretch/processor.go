// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package timestretch

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrClosed is returned by every Processor method after Close.
	ErrClosed = errors.New("timestretch: processor closed")

	// ErrChannelsNotSet is returned by sample operations before
	// SetChannels.
	ErrChannelsNotSet = errors.New("timestretch: channel count not set")
)

// Processor is an owned engine handle.
type Processor struct {
	mu       sync.Mutex
	engine   Engine
	channels uint32
}

// Open creates a processor around a new engine from library.
func Open(library Library) (*Processor, error) {
	engine, err := library.New()
	if err != nil {
		return nil, fmt.Errorf("timestretch: creating engine: %w", err)
	}
	if engine == nil {
		return nil, errors.New("timestretch: library returned no engine")
	}
	return &Processor{engine: engine}, nil
}

// do runs fn with the live engine, or returns ErrClosed.
func (p *Processor) do(fn func(Engine)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.engine == nil {
		return ErrClosed
	}
	fn(p.engine)
	return nil
}

// Close destroys the engine. Further calls are no-ops.
func (p *Processor) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.engine == nil {
		return nil
	}
	p.engine.Destroy()
	p.engine = nil
	return nil
}

func (p *Processor) SetSampleRate(rate uint32) error {
	if rate == 0 {
		return errors.New("timestretch: sample rate must be positive")
	}
	return p.do(func(e Engine) { e.SetSampleRate(rate) })
}

// SetChannels sets the interleaved channel count used to size sample
// buffers.
func (p *Processor) SetChannels(channels uint32) error {
	if channels == 0 {
		return errors.New("timestretch: channel count must be positive")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.engine == nil {
		return ErrClosed
	}
	p.engine.SetChannels(channels)
	p.channels = channels
	return nil
}

func (p *Processor) SetRate(rate float64) error {
	return p.do(func(e Engine) { e.SetRate(rate) })
}

func (p *Processor) SetTempo(tempo float64) error {
	return p.do(func(e Engine) { e.SetTempo(tempo) })
}

func (p *Processor) SetRateChange(percent float64) error {
	return p.do(func(e Engine) { e.SetRateChange(percent) })
}

func (p *Processor) SetTempoChange(percent float64) error {
	return p.do(func(e Engine) { e.SetTempoChange(percent) })
}

func (p *Processor) SetPitch(pitch float64) error {
	return p.do(func(e Engine) { e.SetPitch(pitch) })
}

func (p *Processor) SetPitchOctaves(octaves float64) error {
	return p.do(func(e Engine) { e.SetPitchOctaves(octaves) })
}

func (p *Processor) SetPitchSemitones(semitones float64) error {
	return p.do(func(e Engine) { e.SetPitchSemitones(semitones) })
}

// frames converts an interleaved buffer length to whole frames.
func (p *Processor) frames(length int) (uint32, error) {
	if p.channels == 0 {
		return 0, ErrChannelsNotSet
	}
	if length%int(p.channels) != 0 {
		return 0, fmt.Errorf("timestretch: %d samples is not a whole number of %d-channel frames", length, p.channels)
	}
	return uint32(length / int(p.channels)), nil
}

// PutSamples feeds interleaved samples to the engine.
func (p *Processor) PutSamples(samples []float32) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.engine == nil {
		return ErrClosed
	}
	frames, err := p.frames(len(samples))
	if err != nil {
		return err
	}
	if frames == 0 {
		return nil
	}
	p.engine.PutSamples(samples, frames)
	return nil
}

// ReceiveSamples fills output with processed interleaved samples and
// returns the number of frames written.
func (p *Processor) ReceiveSamples(output []float32) (uint32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.engine == nil {
		return 0, ErrClosed
	}
	if p.channels == 0 {
		return 0, ErrChannelsNotSet
	}
	maxFrames := uint32(len(output) / int(p.channels))
	if maxFrames == 0 {
		return 0, nil
	}
	return p.engine.ReceiveSamples(output, maxFrames), nil
}

// Flush pushes the samples still buffered in the engine to its output.
func (p *Processor) Flush() error {
	return p.do(func(e Engine) { e.Flush() })
}

// Clear discards all buffered input and output.
func (p *Processor) Clear() error {
	return p.do(func(e Engine) { e.Clear() })
}

// NumSamples returns the number of processed frames ready to receive.
func (p *Processor) NumSamples() (uint32, error) {
	var n uint32
	err := p.do(func(e Engine) { n = e.NumSamples() })
	return n, err
}

// NumUnprocessedSamples returns the number of input frames not yet
// processed.
func (p *Processor) NumUnprocessedSamples() (uint32, error) {
	var n uint32
	err := p.do(func(e Engine) { n = e.NumUnprocessedSamples() })
	return n, err
}

func (p *Processor) IsEmpty() (bool, error) {
	var empty bool
	err := p.do(func(e Engine) { empty = e.IsEmpty() })
	return empty, err
}

func (p *Processor) InputOutputSampleRatio() (float64, error) {
	var ratio float64
	err := p.do(func(e Engine) { ratio = e.InputOutputSampleRatio() })
	return ratio, err
}

// SetSetting changes a tunable parameter. It reports whether the
// engine accepted the setting.
func (p *Processor) SetSetting(id Setting, value int) (bool, error) {
	var accepted bool
	err := p.do(func(e Engine) { accepted = e.SetSetting(id, value) })
	return accepted, err
}

func (p *Processor) Setting(id Setting) (int, error) {
	var value int
	err := p.do(func(e Engine) { value = e.Setting(id) })
	return value, err
}
