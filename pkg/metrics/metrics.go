// Package metrics exposes the FHSS core's counters and gauges to
// Prometheus: hop count, jam-state transitions, and mode-switch notify
// counts, the ambient observability surface the spec's integration
// façade logs through but does not itself aggregate.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/herlein/glockcore/pkg/antijam"
	"github.com/herlein/glockcore/pkg/modeswitch"
)

// Collectors bundles every metric this package registers.
type Collectors struct {
	HopsTotal            prometheus.Counter
	JamStateTransitions  *prometheus.CounterVec
	ModeSwitchNotifies   *prometheus.CounterVec
	JamScore             prometheus.Gauge
	HopRecommendations   prometheus.Counter
}

// NewCollectors constructs and registers every metric against reg.
func NewCollectors(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		HopsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "glockcore",
			Name:      "hops_total",
			Help:      "Total number of synced hop cycles executed.",
		}),
		JamStateTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "glockcore",
			Name:      "jam_state_transitions_total",
			Help:      "Anti-jam state machine transitions, labeled by destination state.",
		}, []string{"state"}),
		ModeSwitchNotifies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "glockcore",
			Name:      "modeswitch_notifies_total",
			Help:      "Mode-switch change notifications, labeled by resulting mode.",
		}, []string{"mode"}),
		JamScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "glockcore",
			Name:      "jam_score",
			Help:      "Most recent anti-jam windowed bad-packet score (0-100).",
		}),
		HopRecommendations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "glockcore",
			Name:      "hop_recommendations_total",
			Help:      "Total number of hop recommendations fired by the anti-jam detector.",
		}),
	}

	reg.MustRegister(
		c.HopsTotal,
		c.JamStateTransitions,
		c.ModeSwitchNotifies,
		c.JamScore,
		c.HopRecommendations,
	)
	return c
}

// ObserveReport updates the jam-score gauge and, if the state differs from
// previous, bumps the transition counter for the new state.
func (c *Collectors) ObserveReport(previous antijam.State, report antijam.Report) {
	c.JamScore.Set(float64(report.Score))
	if report.State != previous {
		c.JamStateTransitions.WithLabelValues(report.State.String()).Inc()
	}
}

// ObserveHop increments the hops-executed counter, called once per
// link.Link hop (recommended or forced).
func (c *Collectors) ObserveHop() {
	c.HopsTotal.Inc()
}

// ObserveRecommendation increments the hop-recommendation counter.
// cmd/fhssd wires it through link.Link.OnRecommend, since the detector's
// own single OnRecommend slot is taken by the link.
func (c *Collectors) ObserveRecommendation(antijam.HopSuggestion) {
	c.HopRecommendations.Inc()
}

// ObserveSwitchChange increments the mode-switch notify counter.
// cmd/fhssd wires it through link.Link.OnSwitchChange, since the switch's
// own single OnChange slot is taken by the link.
func (c *Collectors) ObserveSwitchChange(change modeswitch.Change) {
	c.ModeSwitchNotifies.WithLabelValues(change.Mode.String()).Inc()
}
