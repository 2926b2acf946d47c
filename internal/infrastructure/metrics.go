package infrastructure

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline metrics. Registered once on the default registerer; the /metrics
// endpoint serves them via promhttp.
var (
	// RowsLoaded counts raw rows read per source category before cleaning.
	RowsLoaded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pulse",
		Name:      "rows_loaded_total",
		Help:      "Raw rows read from source files, by category.",
	}, []string{"category"})

	// RowsDropped counts rows discarded during normalization, by category
	// and drop reason.
	RowsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pulse",
		Name:      "rows_dropped_total",
		Help:      "Rows dropped during normalization, by category and reason.",
	}, []string{"category", "reason"})

	// LoadsTotal counts completed load passes.
	LoadsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pulse",
		Name:      "loads_total",
		Help:      "Completed dataset load passes.",
	})
)
