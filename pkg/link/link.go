// Package link is the integration façade of spec §4.F: it owns the
// anti-jam detector, the mode switch, and the Glock barrier, and wires the
// publish-subscribe relationships between them that spec §9 calls out as
// naturally internal to a single façade rather than needing dynamic
// dispatch across module boundaries.
package link

import (
	"github.com/charmbracelet/log"

	"github.com/herlein/glockcore/pkg/antijam"
	"github.com/herlein/glockcore/pkg/freqmap"
	"github.com/herlein/glockcore/pkg/glock"
	"github.com/herlein/glockcore/pkg/modeswitch"
)

// Link binds a Detector, a Switch, and a Barrier into the single
// coordination object the main loop and radio IRQs hold a handle to.
type Link struct {
	Detector *antijam.Detector
	Switch   *modeswitch.Switch
	Barrier  *glock.Barrier

	log *log.Logger

	// enabled is the switch's enabled flag as of the last notify, so an
	// enable transition can be told apart from a mode-only change.
	enabled bool

	onHop               func()
	onRecommendObserver func(antijam.HopSuggestion)
	onChangeObserver    func(modeswitch.Change)
}

// New constructs a Link and wires its internal subscriptions: switch
// notify drives detector reset/no-op, and detector hop recommendations
// drive the Glock barrier, per spec §4.F.
func New(d *antijam.Detector, sw *modeswitch.Switch, b *glock.Barrier, logger *log.Logger) *Link {
	if logger == nil {
		logger = log.Default()
	}
	l := &Link{Detector: d, Switch: sw, Barrier: b, log: logger, enabled: sw.Enabled()}

	sw.OnChange(l.onSwitchChange)
	d.OnRecommend(l.onRecommend)

	return l
}

// OnHop registers an additional observer invoked whenever this Link
// executes a Glock cycle, recommended or forced. Intended for metrics
// wiring; it does not replace the internal switch/detector subscriptions.
func (l *Link) OnHop(cb func()) {
	l.onHop = cb
}

// OnRecommend registers an additional observer invoked alongside the
// Link's own handling of every detector hop recommendation, regardless of
// whether the link is enabled.
func (l *Link) OnRecommend(cb func(antijam.HopSuggestion)) {
	l.onRecommendObserver = cb
}

// OnSwitchChange registers an additional observer invoked alongside the
// Link's own handling of every mode-switch notify.
func (l *Link) OnSwitchChange(cb func(modeswitch.Change)) {
	l.onChangeObserver = cb
}

func (l *Link) onSwitchChange(c modeswitch.Change) {
	switch {
	case c.Enabled && !l.enabled:
		l.Detector.Reset()
		l.log.Info("link enabled, anti-jam context reset", "mode", c.Mode)
	case !c.Enabled && l.enabled:
		l.log.Info("link disabled", "mode", c.Mode)
	default:
		l.log.Info("link mode changed", "mode", c.Mode)
	}
	l.enabled = c.Enabled
	if l.onChangeObserver != nil {
		l.onChangeObserver(c)
	}
}

func (l *Link) onRecommend(h antijam.HopSuggestion) {
	if l.onRecommendObserver != nil {
		l.onRecommendObserver(h)
	}
	if !l.Switch.Enabled() {
		l.log.Debug("hop recommendation ignored, link disabled", "confidence", h.Confidence)
		return
	}
	l.hop()
	l.log.Info("hop executed on recommendation",
		"confidence", h.Confidence,
		"suggest_group_switch", h.SuggestGroupSwitch,
	)
}

// hop runs one Glock cycle across both radios of the pair.
func (l *Link) hop() {
	l.Barrier.BeginCycle()
	l.Barrier.NextSynced(freqmap.Radio1)
	l.Barrier.NextSynced(freqmap.Radio2)
	if l.onHop != nil {
		l.onHop()
	}
}

// ForceSyncedHop bypasses the anti-jam recommendation gate but still
// honors the enabled flag (spec §4.F).
func (l *Link) ForceSyncedHop() bool {
	if !l.Switch.Enabled() {
		return false
	}
	l.hop()
	l.log.Info("hop forced")
	return true
}
