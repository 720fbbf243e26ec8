package extract

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Segment outcomes used as metric label values.
const (
	outcomeExtracted = "extracted"
	outcomeExcluded  = "excluded"
	outcomeFallback  = "fallback"
	outcomeNoInput   = "no_input"
)

var (
	// DocumentsTotal counts documents scanned, by category.
	DocumentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ryland",
			Subsystem: "extract",
			Name:      "documents_total",
			Help:      "Total number of documents run through the segment scanner",
		},
		[]string{"category"},
	)

	// SegmentsTotal counts segment outcomes by category.
	// Labels: category, outcome (extracted, excluded, fallback, no_input)
	SegmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ryland",
			Subsystem: "extract",
			Name:      "segments_total",
			Help:      "Total number of segment outcomes by category and outcome",
		},
		[]string{"category", "outcome"},
	)

	// OverlapsSkipped counts matches dropped by overlap suppression.
	OverlapsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ryland",
			Subsystem: "extract",
			Name:      "overlaps_skipped_total",
			Help:      "Total number of start-keyword matches skipped for overlapping a prior segment",
		},
		[]string{"category"},
	)
)

// recordScan publishes the outcome counts of one scan.
func recordScan(cat Category, stats ScanStats) {
	DocumentsTotal.WithLabelValues(string(cat)).Inc()
	recordSegments(cat, outcomeExtracted, stats.Emitted)
	recordSegments(cat, outcomeExcluded, stats.Excluded)
	if stats.Fallback {
		recordSegments(cat, outcomeFallback, 1)
	}
	if stats.Overlapped > 0 {
		OverlapsSkipped.WithLabelValues(string(cat)).Add(float64(stats.Overlapped))
	}
}

func recordSegments(cat Category, outcome string, n int) {
	if n > 0 {
		SegmentsTotal.WithLabelValues(string(cat), outcome).Add(float64(n))
	}
}
