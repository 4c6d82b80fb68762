package tour

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tourTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_tour_total",
		Help: "Tour requests by outcome",
	}, []string{"result"})

	pairwiseDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "planner_tour_pairwise_duration_seconds",
		Help:    "Time spent planning every pair of poses",
		Buckets: []float64{0.001, 0.01, 0.1, 1, 10, 60},
	})

	candidatesVerified = promauto.NewCounter(prometheus.CounterOpts{
		Name: "planner_tour_candidates_verified_total",
		Help: "Candidate tours checked with real searches",
	})
)
