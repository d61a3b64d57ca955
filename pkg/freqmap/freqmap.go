// Package freqmap converts a (band, sequence index) pair into a carrier
// frequency in Hz, per spec §4.B, applying a per-radio frequency-correction
// estimate and a radio-class-dependent step scale.
package freqmap

import (
	"fmt"

	"github.com/herlein/glockcore/pkg/band"
)

// Scale is the radio-class-dependent divisor applied to the raw channel
// spread before it is added to freq_start. Direct-Hz radios (e.g. an
// LR1121 programmed in Hz) use 1; radios that program frequency as a
// step-register count (e.g. an SX127x PLL step) use 256. Per spec §9,
// this is a per-variant constant selected at init, not a preprocessor
// branch.
type Scale uint32

const (
	// ScaleDirectHz is used by radios whose frequency register is Hz-addressed.
	ScaleDirectHz Scale = 1
	// ScaleStepRegister is used by radios whose frequency register counts PLL steps.
	ScaleStepRegister Scale = 256
)

// RadioID distinguishes the two radios of a diversity pair; each carries an
// independent correction value (spec §4.B: "correction_2 exists for the
// second radio").
type RadioID int

const (
	Radio1 RadioID = 0
	Radio2 RadioID = 1
)

// Frequency computes the carrier frequency, in Hz, for channel index
// `channel` within the given band, at the given scale and correction.
//
//	freq = band.FreqStart + (spread * channel) / scale - correction
func Frequency(b band.Descriptor, channel uint16, scale Scale, correction int32) uint32 {
	spread := int64(b.Spread())
	raw := int64(b.FreqStart) + (spread*int64(channel))/int64(scale) - int64(correction)
	if raw < 0 {
		return 0
	}
	return uint32(raw)
}

// ChannelForFrequency inverts Frequency: given a carrier frequency observed
// (or computed) against the same band/scale/correction, it recovers the
// channel index that produced it. This is the round-trip spec §8 requires.
func ChannelForFrequency(b band.Descriptor, freq uint32, scale Scale, correction int32) (uint16, error) {
	spread := int64(b.Spread())
	if spread == 0 {
		return 0, fmt.Errorf("freqmap: band %q has zero spread", b.Name)
	}
	numerator := int64(freq) - int64(b.FreqStart) + int64(correction)
	scaled := numerator * int64(scale)
	channel := scaled / spread
	// Frequency floors spread*channel/scale, so round a remainder up.
	if scaled > channel*spread {
		channel++
	}
	if channel < 0 || channel >= int64(b.FreqCount) {
		return 0, fmt.Errorf("freqmap: frequency %d Hz out of range for band %q", freq, b.Name)
	}
	return uint16(channel), nil
}

// Map binds a radio-class scale and a maximum correction magnitude to a
// primary band and, for dual-band radios, a secondary band. It tracks an
// independent correction value per radio of the diversity pair.
type Map struct {
	primary      band.Descriptor
	secondary    band.Descriptor
	hasSecondary bool
	scale        Scale
	maxCorrect   int32
	correction   [2]int32
}

// New creates a Map for a single-band radio.
func New(primary band.Descriptor, scale Scale, maxCorrection int32) *Map {
	return &Map{
		primary:    primary,
		scale:      scale,
		maxCorrect: maxCorrection,
	}
}

// SetSecondary activates dual-band operation with the given secondary band.
func (m *Map) SetSecondary(secondary band.Descriptor) {
	m.secondary = secondary
	m.hasSecondary = true
}

// HasSecondary reports whether a secondary band is configured.
func (m *Map) HasSecondary() bool {
	return m.hasSecondary
}

// SetCorrection updates the frequency-correction estimate for one radio of
// the pair, clamping to [-maxCorrection, +maxCorrection] per spec §4.B.
func (m *Map) SetCorrection(radio RadioID, correction int32) {
	if correction > m.maxCorrect {
		correction = m.maxCorrect
	}
	if correction < -m.maxCorrect {
		correction = -m.maxCorrect
	}
	m.correction[radio] = correction
}

// Correction returns the current correction value for one radio.
func (m *Map) Correction(radio RadioID) int32 {
	return m.correction[radio]
}

// Band returns the active band descriptor: secondary if useSecondary is
// true and a secondary band is configured, primary otherwise.
func (m *Map) Band(useSecondary bool) band.Descriptor {
	if useSecondary && m.hasSecondary {
		return m.secondary
	}
	return m.primary
}

// Frequency computes the carrier frequency for the given radio at the given
// channel index, on the active band selected by useSecondary, applying that
// radio's current correction.
func (m *Map) Frequency(radio RadioID, useSecondary bool, channel uint16) uint32 {
	return Frequency(m.Band(useSecondary), channel, m.scale, m.correction[radio])
}
