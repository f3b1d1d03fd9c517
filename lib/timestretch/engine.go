// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package timestretch

// Setting identifies a tunable engine parameter. The values match the
// SoundTouch setting ids.
type Setting int

const (
	SettingUseAAFilter           Setting = 0
	SettingAAFilterLength        Setting = 1
	SettingUseQuickSeek          Setting = 2
	SettingSequenceMS            Setting = 3
	SettingSeekWindowMS          Setting = 4
	SettingOverlapMS             Setting = 5
	SettingNominalInputSequence  Setting = 6
	SettingNominalOutputSequence Setting = 7
	SettingInitialLatency        Setting = 8
)

// Engine is one instance of the external processor. Sample counts are
// in frames: one frame holds one sample per channel, interleaved.
// Implementations need not be safe for concurrent use.
type Engine interface {
	SetSampleRate(rate uint32)
	SetChannels(channels uint32)

	// Rate changes tempo and pitch together; 1.0 is unchanged.
	SetRate(rate float64)
	// Tempo changes speed without changing pitch; 1.0 is unchanged.
	SetTempo(tempo float64)
	// RateChange and TempoChange are percentages relative to 1.0, in
	// the range -50 .. +100.
	SetRateChange(percent float64)
	SetTempoChange(percent float64)
	// Pitch changes pitch without changing tempo; 1.0 is unchanged.
	SetPitch(pitch float64)
	SetPitchOctaves(octaves float64)
	SetPitchSemitones(semitones float64)

	PutSamples(samples []float32, frames uint32)
	ReceiveSamples(output []float32, maxFrames uint32) uint32
	Flush()
	Clear()

	NumSamples() uint32
	NumUnprocessedSamples() uint32
	IsEmpty() bool
	InputOutputSampleRatio() float64

	SetSetting(id Setting, value int) bool
	Setting(id Setting) int

	// Destroy releases the instance. It is called exactly once.
	Destroy()
}

// Library creates engine instances and describes the linked engine.
type Library interface {
	New() (Engine, error)
	VersionString() string
	VersionID() uint32
}
