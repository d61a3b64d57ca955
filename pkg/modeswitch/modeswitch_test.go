package modeswitch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetEnabledFiresNotifyOnChange(t *testing.T) {
	s := New(0)
	var changes []Change
	s.OnChange(func(c Change) { changes = append(changes, c) })

	res := s.SetEnabled(true, 100)
	assert.Equal(t, OK, res)
	require.Len(t, changes, 1)
	assert.True(t, changes[0].Enabled)
}

func TestSetEnabledNoChangeReturnsNoChangeAndNoNotify(t *testing.T) {
	s := New(0)
	s.SetEnabled(true, 0)

	fired := 0
	s.OnChange(func(Change) { fired++ })

	res := s.SetEnabled(true, 100)
	assert.Equal(t, NoChange, res)
	assert.Equal(t, 0, fired)
}

func TestSetModeLocalDeniedUnderControllerOnly(t *testing.T) {
	s := New(0)
	s.SetControllerOnly(true)

	fired := 0
	s.OnChange(func(Change) { fired++ })

	res := s.SetModeLocal(High, 0)
	assert.Equal(t, Denied, res)
	assert.Equal(t, Auto, s.GetMode())
	assert.Equal(t, 0, fired)
}

func TestSetModeFromControllerSucceedsUnderControllerOnly(t *testing.T) {
	s := New(0)
	s.SetControllerOnly(true)

	var changes []Change
	s.OnChange(func(c Change) { changes = append(changes, c) })

	res := s.SetModeFromController(High, 0)
	assert.Equal(t, OK, res)
	assert.Equal(t, High, s.GetMode())
	require.Len(t, changes, 1)
	assert.Equal(t, High, changes[0].Mode)
}

// Scenario 5: controller lock.
func TestScenario_ControllerLock(t *testing.T) {
	s := New(0)
	s.SetControllerOnly(true)

	fired := 0
	s.OnChange(func(Change) { fired++ })

	res := s.SetModeLocal(High, 0)
	assert.Equal(t, Denied, res)
	assert.Equal(t, Auto, s.GetMode())
	assert.Equal(t, 0, fired)

	res = s.SetModeFromController(High, 0)
	assert.Equal(t, OK, res)
	assert.Equal(t, High, s.GetMode())
	assert.Equal(t, 1, fired)
}

func TestSetModeInvalidOutOfRange(t *testing.T) {
	s := New(0)
	res := s.SetModeLocal(Mode(7), 0)
	assert.Equal(t, Invalid, res)
}

func TestDebounceSuppressesRapidChanges(t *testing.T) {
	s := New(500)
	fired := 0
	s.OnChange(func(Change) { fired++ })

	res := s.SetEnabled(true, 0)
	assert.Equal(t, OK, res)
	assert.Equal(t, 1, fired)

	res = s.SetEnabled(false, 100)
	assert.Equal(t, NoChange, res, "well-formed change suppressed by debounce floor")
	assert.True(t, s.Enabled(), "state did not change while debounced")
	assert.Equal(t, 1, fired)

	res = s.SetEnabled(false, 600)
	assert.Equal(t, OK, res)
	assert.Equal(t, 2, fired)
}

func TestApplyCommandAppliesBothFieldsWithOneNotify(t *testing.T) {
	s := New(0)
	fired := 0
	var last Change
	s.OnChange(func(c Change) { fired++; last = c })

	cmd := PackCommand(true, High)
	res := s.ApplyCommand(cmd, 0)

	assert.Equal(t, OK, res)
	assert.Equal(t, 1, fired)
	assert.True(t, last.Enabled)
	assert.Equal(t, High, last.Mode)
}

func TestApplyCommandNoChangeWhenIdentical(t *testing.T) {
	s := New(0)
	s.ApplyCommand(PackCommand(true, Low), 0)

	fired := 0
	s.OnChange(func(Change) { fired++ })

	res := s.ApplyCommand(PackCommand(true, Low), 100)
	assert.Equal(t, NoChange, res)
	assert.Equal(t, 0, fired)
}

func TestApplyCommandBypassesControllerOnly(t *testing.T) {
	s := New(0)
	s.SetControllerOnly(true)

	res := s.ApplyCommand(PackCommand(true, High), 0)
	assert.Equal(t, OK, res)
	assert.Equal(t, High, s.GetMode())
}

func TestPackCommandReservedBitsZero(t *testing.T) {
	b := PackCommand(true, High)
	assert.Equal(t, uint8(0), b&0xF8, "bits 3..7 must be zero")
}

func TestDecodeReservedModeBitsFallsBackToAuto(t *testing.T) {
	s := New(0)
	// bits1..2 == 11 (3) decodes to AUTO fallback per wire format.
	cmd := uint8(0x01 | (3 << 1))
	s.ApplyCommand(cmd, 0)
	assert.Equal(t, Auto, s.GetMode())
}

func TestRequestEnableFromControllerBypassesControllerOnly(t *testing.T) {
	s := New(0)
	s.SetControllerOnly(true)

	res := s.RequestEnableFromController(true, 0)
	assert.Equal(t, OK, res)
	assert.True(t, s.Enabled())
}

func TestSetControllerOnlyNeverFiresNotify(t *testing.T) {
	s := New(0)
	fired := 0
	s.OnChange(func(Change) { fired++ })

	s.SetControllerOnly(true)
	s.SetControllerOnly(false)
	assert.Equal(t, 0, fired)
}
