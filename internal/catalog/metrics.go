package catalog

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultSuccess = "success"
	resultFailure = "failure"
)

var (
	batchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wishlist_catalog_batches_total",
			Help: "Course batch fetches by result",
		},
		[]string{"result"},
	)

	batchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wishlist_catalog_batch_duration_seconds",
			Help:    "Duration of course batch fetches in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	rateLimitWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wishlist_catalog_rate_limit_wait_seconds",
			Help:    "Time course requests spent waiting for the client-side rate limiter",
			Buckets: []float64{.001, .01, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)

	coursesFetched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wishlist_catalog_courses_fetched_total",
			Help: "Course records fetched by successful batches",
		},
	)
)
