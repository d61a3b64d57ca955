// Package rc decodes CRSF-scaled RC channel data into the mode-switch
// controller command byte (spec §6 "RC channel convention", §9 open
// question on aj_switch_process_from_rc).
package rc

import "github.com/herlein/glockcore/pkg/modeswitch"

// NumChannels is the CRSF channel count this package understands.
const NumChannels = 16

// crsfMin/crsfMax are the raw CRSF channel bounds that map onto the
// 1000..2000 microsecond convention.
const (
	crsfMin = 172
	crsfMax = 1811

	usMin    = 1000
	usMax    = 2000
	usCenter = 1500
	deadBand = 33
)

// EnableChannel and ModeChannel are the 1-indexed CRSF channels spec §6/§9
// designates for enable and mode: CH4 for enable, CH5 for mode.
const (
	EnableChannel = 4
	ModeChannel   = 5
)

// ToMicroseconds rescales a raw CRSF channel value (172..1811) onto the
// 1000..2000 microsecond pulse-width convention.
func ToMicroseconds(raw uint16) uint16 {
	if raw < crsfMin {
		raw = crsfMin
	}
	if raw > crsfMax {
		raw = crsfMax
	}
	span := crsfMax - crsfMin
	return usMin + uint16((uint32(raw-crsfMin)*uint32(usMax-usMin)+span/2)/span)
}

// DecodeEnable maps a channel's microsecond value to an enable flag: high
// half of the range (above center plus dead-band) is enabled, low half
// (below center minus dead-band) is disabled, and the dead-band itself
// holds the previous value.
func DecodeEnable(us uint16, previous bool) bool {
	if us > usCenter+deadBand {
		return true
	}
	if us < usCenter-deadBand {
		return false
	}
	return previous
}

// DecodeMode maps a channel's microsecond value to a three-way mode
// switch: above center plus dead-band is HIGH, below center minus
// dead-band is LOW, and the dead-band around center itself is AUTO.
func DecodeMode(us uint16) modeswitch.Mode {
	if us > usCenter+deadBand {
		return modeswitch.High
	}
	if us < usCenter-deadBand {
		return modeswitch.Low
	}
	return modeswitch.Auto
}

// Frame is a decoded 16-channel CRSF channel set.
type Frame [NumChannels]uint16

// DecodeCommand derives the packed controller command byte (spec §6 "Controller
// command wire format") from a CRSF frame, given the previously-decoded
// enable state to hold across the enable channel's dead-band.
func DecodeCommand(f Frame, previousEnabled bool) uint8 {
	enableUs := ToMicroseconds(f[EnableChannel-1])
	modeUs := ToMicroseconds(f[ModeChannel-1])

	enabled := DecodeEnable(enableUs, previousEnabled)
	mode := DecodeMode(modeUs)

	return modeswitch.PackCommand(enabled, mode)
}
