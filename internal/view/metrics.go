package view

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loadFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wishlist_view_load_failures_total",
		Help: "Wishlist loads whose course batch failed",
	})

	removals = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wishlist_view_removals_total",
		Help: "Courses removed through the confirmation dialog",
	})

	activeViews = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wishlist_view_sessions",
		Help: "Mounted wishlist views",
	})
)
