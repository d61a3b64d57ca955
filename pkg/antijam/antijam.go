// Package antijam implements the sliding-window packet-quality monitor and
// debounced jam-state machine of spec §4.D: a ring of recent packet
// outcomes feeds a windowed bad-packet score, which a debounced state
// machine turns into a rate-limited hop recommendation.
package antijam

import (
	"sync"

	"github.com/herlein/glockcore/pkg/clockutil"
)

// State is the jam-detection state machine's current position.
type State uint8

const (
	NotJammed State = iota
	Suspect
	Jammed
)

func (s State) String() string {
	switch s {
	case NotJammed:
		return "NOT_JAMMED"
	case Suspect:
		return "SUSPECT"
	case Jammed:
		return "JAMMED"
	default:
		return "UNKNOWN"
	}
}

// Report is the detector's current windowed assessment.
type Report struct {
	State      State
	Score      uint8 // 0-100, bad-packet percentage (plus external-jam bonus)
	Confidence uint8 // 0-100
	Hint       uint8 // 0-255, score scaled for a compact wire field
	BadCount   uint32
	Count      uint32
}

// HopSuggestion is delivered to the registered callback when the detector
// newly recommends a hop.
type HopSuggestion struct {
	Recommend          bool
	Confidence         uint8
	Hint               uint8
	SuggestGroupSwitch bool
}

type entry struct {
	good bool
	ts   uint32
}

// Detector is the anti-jam packet-quality monitor. It owns a fixed-capacity
// ring allocated once at construction (NewDetector) — no further allocation
// occurs on the packet-registration hot path, matching spec §5's no-alloc
// requirement for code reachable from a radio IRQ.
type Detector struct {
	mu sync.Mutex

	cfg         Config
	maxCapacity uint32

	ring     []entry
	capacity uint32
	head     uint32
	count    uint32
	badCount uint32

	windowStartMs uint32
	lastNowMs     uint32

	state             State
	streak            uint32
	lastStateChangeMs uint32

	extJamSticky bool
	extJamAtMs   uint32

	lastRecoMs uint32
	lastReport Report

	onRecommend func(HopSuggestion)
}

// NewDetector allocates a Detector whose ring can hold up to maxCapacity
// entries — the largest window size this detector will ever be Configure'd
// to — and applies the initial configuration.
func NewDetector(maxCapacity uint32, cfg Config) (*Detector, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.WindowSizePackets > maxCapacity {
		return nil, ErrCapacityIncrease
	}
	d := &Detector{
		cfg:         cfg,
		maxCapacity: maxCapacity,
		ring:        make([]entry, maxCapacity),
		capacity:    cfg.WindowSizePackets,
	}
	return d, nil
}

// OnRecommend registers the callback invoked when the detector newly
// recommends a hop. It is called with the Detector's internal lock held
// released — i.e. safe to call back into the Detector's read-only methods,
// but callers that want to register a packet from within the callback
// should defer it.
func (d *Detector) OnRecommend(cb func(HopSuggestion)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onRecommend = cb
}

// Reset clears all accumulated state (ring contents, counters, jam state)
// back to a fresh NOT_JAMMED detector, keeping the current configuration.
// The integration façade calls this when the link transitions disabled ->
// enabled, to avoid recommending a hop off stale pre-disable data.
func (d *Detector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resetLocked()
}

func (d *Detector) resetLocked() {
	d.head = 0
	d.count = 0
	d.badCount = 0
	d.state = NotJammed
	d.streak = 0
	d.extJamSticky = false
	d.lastReport = Report{}
}

// Configure replaces the detector's configuration. If WindowSizePackets
// changed, the ring is reset (spec §4.D); growing WindowSizePackets past
// the capacity fixed at construction is rejected (spec §9).
func (d *Detector) Configure(cfg Config) error {
	if err := cfg.validate(); err != nil {
		return err
	}
	if cfg.WindowSizePackets > d.maxCapacity {
		return ErrCapacityIncrease
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if cfg.WindowSizePackets != d.capacity {
		d.resetLocked()
	}
	d.capacity = cfg.WindowSizePackets
	d.cfg = cfg
	d.streak = 0
	d.windowStartMs = d.lastNowMs
	return nil
}

// insert evicts the oldest entry if the ring is full, writes the new entry
// at the write cursor, and updates badCount accordingly.
func (d *Detector) insert(good bool, ts uint32) {
	if d.count == d.capacity {
		if !d.ring[d.head].good {
			d.badCount--
		}
	} else {
		d.count++
	}
	d.ring[d.head] = entry{good: good, ts: ts}
	if !good {
		d.badCount++
	}
	d.head = (d.head + 1) % d.capacity
}

// pruneByTime evicts entries older than now - WindowDurationMs from the
// tail of the logical queue (ByTime mode only).
func (d *Detector) pruneByTime(now uint32) {
	for d.count > 0 {
		tail := (d.head + d.capacity - d.count) % d.capacity
		e := d.ring[tail]
		if clockutil.Since(now, e.ts) <= d.cfg.WindowDurationMs {
			break
		}
		if !e.good {
			d.badCount--
		}
		d.count--
	}
}

// ageExtJam clears the sticky external-jam flag once it has been active for
// longer than the effective window duration.
func (d *Detector) ageExtJam(now uint32) {
	if d.extJamSticky && clockutil.Since(now, d.extJamAtMs) >= d.cfg.externalJamWindowMs() {
		d.extJamSticky = false
	}
}

func (d *Detector) extJamRecent(now uint32) bool {
	return d.extJamSticky && clockutil.Since(now, d.extJamAtMs) < d.cfg.externalJamWindowMs()
}

// scoreAndJammy computes the current windowed score (including the
// external-jam bonus) and whether the window is "jammy" per spec §4.D.
func (d *Detector) scoreAndJammy(now uint32) (score uint8, jammy bool) {
	var raw uint32
	if d.count > 0 {
		raw = d.badCount * 100 / d.count
	}
	if d.extJamRecent(now) {
		raw += 10
	}
	if raw > 100 {
		raw = 100
	}
	score = uint8(raw)
	jammy = d.badCount >= d.cfg.MinBadPackets && raw >= uint32(d.cfg.JamThresholdPercent)
	return score, jammy
}

func (d *Detector) transition(to State, now uint32) {
	if d.state != to {
		d.state = to
		d.lastStateChangeMs = now
	}
}

// applyBoundary runs the debounced jam-state transition table on a window
// boundary.
func (d *Detector) applyBoundary(now uint32) {
	_, jammy := d.scoreAndJammy(now)
	if jammy {
		d.streak++
		switch d.state {
		case NotJammed:
			if d.streak >= d.cfg.ConsecutiveWindowsToJam {
				d.transition(Jammed, now)
			} else {
				d.transition(Suspect, now)
			}
		case Suspect:
			if d.streak >= d.cfg.ConsecutiveWindowsToJam {
				d.transition(Jammed, now)
			}
		case Jammed:
			// already jammed; streak keeps accumulating but state is unchanged.
		}
		return
	}

	d.streak = 0
	switch d.state {
	case Jammed:
		if clockutil.Elapsed(now, d.lastStateChangeMs, d.cfg.JamStateHoldTimeMs) {
			d.transition(Suspect, now)
		}
	case Suspect:
		score, _ := d.scoreAndJammy(now)
		if d.count == 0 || uint32(score) < uint32(d.cfg.JamThresholdPercent)/2 {
			d.transition(NotJammed, now)
		}
	}
}

// atBoundary reports whether now/the latest insert crosses a window
// boundary, advancing the ByTime window start as a side effect.
func (d *Detector) atBoundary(now uint32) bool {
	if d.cfg.WindowMode == ByCount {
		return d.count == d.capacity && d.head == 0
	}
	if clockutil.Elapsed(now, d.windowStartMs, d.cfg.WindowDurationMs) {
		d.windowStartMs = now
		return true
	}
	return false
}

func (d *Detector) computeReportLocked(now uint32) Report {
	score, _ := d.scoreAndJammy(now)
	confidence := min32(d.count, 100)/2 + maxInt(0, int32(score)-int32(d.cfg.JamThresholdPercent))
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 100 {
		confidence = 100
	}
	return Report{
		State:      d.state,
		Score:      score,
		Confidence: uint8(confidence),
		Hint:       uint8(uint32(score) * 255 / 100),
		BadCount:   d.badCount,
		Count:      d.count,
	}
}

func min32(a uint32, b uint32) int32 {
	if a < b {
		return int32(a)
	}
	return int32(b)
}

func maxInt(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}

// shouldRecommend implements spec §4.D's recommend-hop predicate.
func (d *Detector) shouldRecommend(now uint32, score uint8) bool {
	byState := d.state == Jammed || (d.state == Suspect && uint32(score) >= uint32(d.cfg.JamThresholdPercent)+10)
	if !byState {
		return false
	}
	return clockutil.Elapsed(now, d.lastRecoMs, d.cfg.MinTimeBetweenRecoMs)
}

func (d *Detector) maybeFireLocked(now uint32, report Report) {
	if !d.shouldRecommend(now, report.Score) {
		return
	}
	d.lastRecoMs = now
	if d.onRecommend == nil {
		return
	}
	suggestion := HopSuggestion{
		Recommend:          true,
		Confidence:         report.Confidence,
		Hint:               report.Hint,
		SuggestGroupSwitch: d.cfg.AllowGroupSwitchSuggestions && (report.Score >= 80 || d.extJamRecent(now)),
	}
	cb := d.onRecommend
	d.mu.Unlock()
	cb(suggestion)
	d.mu.Lock()
}

// RegisterPacket feeds one packet outcome into the detector. It prunes,
// inserts, evaluates window boundaries, and fires the recommendation
// callback if the detector newly recommends a hop and the recommendation
// cadence floor allows it.
func (d *Detector) RegisterPacket(good bool, now uint32) Report {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.lastNowMs = now
	if d.cfg.WindowMode == ByTime {
		d.pruneByTime(now)
	}
	d.insert(good, now)

	if d.atBoundary(now) {
		d.applyBoundary(now)
	}
	d.ageExtJam(now)

	report := d.computeReportLocked(now)
	d.lastReport = report
	d.maybeFireLocked(now, report)
	return report
}

// RegisterExternalJam records an external, non-packet-derived jam
// indication (e.g. a hardware interference detector) at time now. It does
// not touch the packet ring, but feeds the score bonus and recommendation
// pacing spec §4.D and §8 describe.
func (d *Detector) RegisterExternalJam(now uint32) Report {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.lastNowMs = now
	d.extJamSticky = true
	d.extJamAtMs = now

	report := d.computeReportLocked(now)
	d.lastReport = report
	d.maybeFireLocked(now, report)
	return report
}

// Tick refreshes the cached report and ages out window/external-jam state
// without registering a packet. In ByCount mode, where windows close only
// on packet arrival, it also releases JAMMED to SUSPECT once the hold time
// has passed and the current window is no longer jammy. It never fires the recommendation
// callback, even if the refreshed report would otherwise qualify — spec
// §4.D reserves hop recommendations for packet-derived and
// externally-reported jam events.
func (d *Detector) Tick(now uint32) Report {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.lastNowMs = now
	if d.cfg.WindowMode == ByTime {
		d.pruneByTime(now)
		if d.atBoundary(now) {
			d.applyBoundary(now)
		}
	} else if d.state == Jammed {
		_, jammy := d.scoreAndJammy(now)
		if !jammy && clockutil.Elapsed(now, d.lastStateChangeMs, d.cfg.JamStateHoldTimeMs) {
			d.transition(Suspect, now)
		}
	}
	d.ageExtJam(now)

	report := d.computeReportLocked(now)
	d.lastReport = report
	return report
}

// LastReport returns the most recently computed report without performing
// any work.
func (d *Detector) LastReport() Report {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastReport
}

// BadCount returns the literal count of bad entries currently in the ring,
// for tests verifying the bad_count invariant (spec §8).
func (d *Detector) BadCount() uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.badCount
}
