// Package glock implements the cross-radio hop barrier (spec §4.C): the
// guarantee that both radios of a diversity pair land on the same sequence
// index every hop cycle, with exactly one of them actually advancing the
// shared cursor per cycle.
//
// The reference firmware this is ported from keeps the barrier's state in
// four process-wide variables touched by both the main loop and a radio
// IRQ: FHSSptr, FHSSptrSynced, FHSSHopCycleArmed, FHSSSyncEpoch (spec §9).
// Here they are fields of a single Barrier value, and the IRQ-disable
// critical section the firmware uses around the read-modify-write of
// (armed, cursor) is a sync.Mutex — the Go equivalent for code that may be
// entered from both a goroutine driving the main loop and one driving radio
// interrupts.
package glock

import (
	"sync"

	"github.com/herlein/glockcore/pkg/freqmap"
	"github.com/herlein/glockcore/pkg/sequence"
)

// Barrier coordinates hop-cursor advancement across the two radios of a
// diversity pair.
type Barrier struct {
	mu sync.Mutex

	armed  bool
	cursor int
	epoch  uint64

	primary   sequence.Table
	secondary sequence.Table
	haveSec   bool

	freqs *freqmap.Map
}

// New creates a Barrier over the given primary hop sequence and frequency
// map, with the cursor at its zero position and disarmed.
func New(primary sequence.Table, freqs *freqmap.Map) *Barrier {
	return &Barrier{
		primary: primary,
		freqs:   freqs,
	}
}

// SetSecondaryTable activates dual-band operation: RadioID 1's hops are
// read from the secondary sequence rather than the primary one.
func (b *Barrier) SetSecondaryTable(t sequence.Table) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.secondary = t
	b.haveSec = true
}

// BeginCycle arms the barrier and increments the epoch. It is idempotent
// only in the sense spec §4.C describes: calling it again before any
// NextSynced call in the current cycle simply re-arms (a radio that never
// called NextSynced never observed the cycle, so nothing is lost); calling
// it after a NextSynced call starts a genuinely new cycle.
func (b *Barrier) BeginCycle() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.armed = true
	b.epoch++
}

// NextSynced is called by one radio of the pair once per cycle. The first
// caller while the barrier is armed advances the cursor exactly once and
// disarms the barrier; every other caller in the same cycle observes the
// already-advanced cursor. radio selects which per-radio correction and
// (for dual-band) which sequence table the returned frequency is drawn
// from.
func (b *Barrier) NextSynced(radio freqmap.RadioID) uint32 {
	b.mu.Lock()
	if b.armed {
		b.cursor = (b.cursor + 1) % sequence.Length
		b.armed = false
	}
	cursor := b.cursor
	b.mu.Unlock()

	useSecondary := radio == freqmap.Radio2 && b.haveSec
	channel := b.channelAt(cursor, useSecondary)
	return b.freqs.Frequency(radio, useSecondary, channel)
}

func (b *Barrier) channelAt(cursor int, useSecondary bool) uint16 {
	if useSecondary {
		return b.secondary[cursor]
	}
	return b.primary[cursor]
}

// SyncedIndex returns the current hop cursor — the value both radios agree
// on once each has called NextSynced for the current cycle.
func (b *Barrier) SyncedIndex() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cursor
}

// Epoch returns the number of cycles begun so far.
func (b *Barrier) Epoch() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.epoch
}

// Armed reports whether the barrier is currently armed (no radio has yet
// called NextSynced in the current cycle).
func (b *Barrier) Armed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.armed
}
