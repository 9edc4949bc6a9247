package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// classificationsTotal counts classifications by resulting tier.
	classificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pyramid",
		Subsystem: "classifier",
		Name:      "classifications_total",
		Help:      "Total practice classifications by resulting tier",
	}, []string{"tier"})

	strengthScores = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "pyramid",
		Subsystem: "classifier",
		Name:      "strength_score",
		Help:      "Distribution of computed truth pressure scores",
		Buckets:   []float64{0.1, 0.25, 0.5, 0.75, 1.0, 1.2, 1.35, 1.5, 2, 3, 5, 8},
	})

	// transitionsTotal counts tier changes.
	// Labels: direction (PROMOTE, DEMOTE), to_tier
	transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pyramid",
		Subsystem: "catalog",
		Name:      "tier_transitions_total",
		Help:      "Total tier transitions by direction and destination tier",
	}, []string{"direction", "to_tier"})

	observationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pyramid",
		Subsystem: "catalog",
		Name:      "observations_recorded_total",
		Help:      "Total observations appended to evidence bodies",
	})

	cascadeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pyramid",
		Subsystem: "cascade",
		Name:      "duration_seconds",
		Help:      "Cascade run duration in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"status"})

	cascadeConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pyramid",
		Subsystem: "cascade",
		Name:      "conflicts_total",
		Help:      "Total contradiction conflicts detected by cascade runs",
	})
)
