// SPDX-License-Identifier: Apache-2.0

package rosetta

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/compassoutlaw/rosetta/internal/evidence"
)

// Metrics holds the conversion collectors. A nil *Metrics records nothing.
type Metrics struct {
	conversions *prometheus.CounterVec
	scores      prometheus.Histogram
	duration    prometheus.Histogram
}

// NewMetrics creates the conversion collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		conversions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rosetta",
			Name:      "conversions_total",
			Help:      "Conversions by outcome and target format.",
		}, []string{"outcome", "format"}),
		scores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rosetta",
			Name:      "evidence_score",
			Help:      "Evidence scores of successful conversions.",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rosetta",
			Name:      "conversion_duration_seconds",
			Help:      "Wall time of successful conversions.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.conversions, m.scores, m.duration)
	}
	return m
}

func (m *Metrics) observeSuccess(r *evidence.ConversionResult, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "verified"
	if evidence.TierFor(r.EvidenceScore) != evidence.TierVerified {
		outcome = "review_required"
	}
	m.conversions.WithLabelValues(outcome, string(r.OptimalFormat)).Inc()
	m.scores.Observe(float64(r.EvidenceScore))
	m.duration.Observe(elapsed.Seconds())
}

func (m *Metrics) observeFailure() {
	if m == nil {
		return
	}
	m.conversions.WithLabelValues("error", "").Inc()
}
