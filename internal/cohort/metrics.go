package cohort

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RowsSelected counts aligned cohort rows by note type tag.
var RowsSelected = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "ryland",
		Subsystem: "cohort",
		Name:      "rows_selected_total",
		Help:      "Total number of cohort rows selected, by note type",
	},
	[]string{"note_type"},
)

func recordRowSelected(noteType string) {
	RowsSelected.WithLabelValues(noteType).Inc()
}
