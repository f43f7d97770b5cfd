package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	FilesScannedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "depdetective_files_scanned_total",
		Help: "Total number of source files enumerated by the scanner.",
	})

	ParseErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "depdetective_parse_errors_total",
		Help: "Total number of files that failed to parse.",
	})

	ExtractionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "depdetective_extraction_seconds",
		Help:    "Time spent extracting imports from a source file.",
		Buckets: prometheus.DefBuckets,
	})

	ImportsExtractedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "depdetective_imports_extracted_total",
		Help: "Total number of import statements extracted.",
	})

	IndexLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "depdetective_index_lookups_total",
		Help: "Package index version lookups by outcome.",
	}, []string{"outcome"})

	IndexLookupDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "depdetective_index_lookup_seconds",
		Help:    "Latency of a single package index lookup.",
		Buckets: prometheus.DefBuckets,
	})

	PipelineDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "depdetective_pipeline_seconds",
		Help:    "Time spent in each pipeline phase.",
		Buckets: prometheus.DefBuckets,
	}, []string{"phase"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "depdetective_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})
)
