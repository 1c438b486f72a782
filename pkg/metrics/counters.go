package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ImportsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "accessinsight_imports_total",
		Help: "Number of spreadsheet imports processed.",
	})

	ImportRowsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "accessinsight_import_rows_total",
		Help: "Number of spreadsheet rows merged across all imports.",
	})

	SnapshotSavesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "accessinsight_snapshot_saves_total",
		Help: "Number of workspace snapshot save attempts by outcome.",
	}, []string{"status"})
)
