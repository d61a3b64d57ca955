package rc

import (
	"testing"

	"github.com/herlein/glockcore/pkg/modeswitch"
	"github.com/stretchr/testify/assert"
)

func TestToMicrosecondsBounds(t *testing.T) {
	assert.Equal(t, uint16(1000), ToMicroseconds(crsfMin))
	assert.Equal(t, uint16(2000), ToMicroseconds(crsfMax))
}

func TestToMicrosecondsClampsOutOfRange(t *testing.T) {
	assert.Equal(t, uint16(1000), ToMicroseconds(0))
	assert.Equal(t, uint16(2000), ToMicroseconds(65000))
}

func TestDecodeEnableDeadBandHoldsPrevious(t *testing.T) {
	assert.True(t, DecodeEnable(usCenter, true))
	assert.False(t, DecodeEnable(usCenter, false))
	assert.True(t, DecodeEnable(usCenter+deadBand, true))
}

func TestDecodeEnableOutsideDeadBand(t *testing.T) {
	assert.True(t, DecodeEnable(usCenter+deadBand+1, false))
	assert.False(t, DecodeEnable(usCenter-deadBand-1, true))
}

func TestDecodeModeThreeWay(t *testing.T) {
	assert.Equal(t, modeswitch.Auto, DecodeMode(usCenter))
	assert.Equal(t, modeswitch.High, DecodeMode(usMax))
	assert.Equal(t, modeswitch.Low, DecodeMode(usMin))
}

func TestCommandPacksEnableAndMode(t *testing.T) {
	var f Frame
	f[EnableChannel-1] = crsfMax
	f[ModeChannel-1] = crsfMax

	cmd := DecodeCommand(f, false)
	assert.Equal(t, modeswitch.PackCommand(true, modeswitch.High), cmd)
}

func TestCommandHoldsEnableAcrossDeadBand(t *testing.T) {
	var f Frame
	// Raw CRSF value that rescales to exactly usCenter.
	f[EnableChannel-1] = crsfMin + (crsfMax-crsfMin)/2
	f[ModeChannel-1] = crsfMin

	cmd := DecodeCommand(f, true)
	enabled := cmd&0x01 != 0
	assert.True(t, enabled, "dead-band holds the previous enable state")
}
