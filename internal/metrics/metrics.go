// Package metrics collects prometheus counters for a processing run.
//
// The tool is a batch command, so nothing is served over HTTP; the registry
// is optionally written to a node-exporter textfile when the run ends.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Label values
const (
	StatusSuccess   = "success"
	StatusError     = "error"
	StatusSkipped   = "skipped"
	StatusCancelled = "cancelled"

	TableMatched  = "matched"
	TableFallback = "fallback"

	SegmentWritten     = "written"
	SegmentExisting    = "existing"
	SegmentRegenerated = "regenerated"
	SegmentInvalid     = "invalid"
	SegmentFailed      = "failed"
)

// Histogram buckets for per-recording extraction time, 10ms to ~40s
const (
	bucketStart10ms = 0.01
	bucketFactor2   = 2
	bucketCount12   = 12
)

// PipelineMetrics contains Prometheus metrics for the processing pipeline
type PipelineMetrics struct {
	registry *prometheus.Registry

	foldersTotal        *prometheus.CounterVec
	detectionFilesTotal *prometheus.CounterVec
	detectionsTotal     prometheus.Counter
	unmatchedTotal      prometheus.Counter
	tablesTotal         *prometheus.CounterVec
	segmentsTotal       *prometheus.CounterVec
	recordingsTotal     *prometheus.CounterVec
	extractionSeconds   prometheus.Histogram
}

// NewPipelineMetrics creates the metrics and registers them in a private registry
func NewPipelineMetrics() (*PipelineMetrics, error) {
	m := &PipelineMetrics{registry: prometheus.NewRegistry()}
	m.initMetrics()
	if err := m.registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register pipeline metrics: %w", err)
	}
	return m, nil
}

// initMetrics initializes all Prometheus metrics
func (m *PipelineMetrics) initMetrics() {
	m.foldersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eloc_folders_processed_total",
			Help: "Input folders processed, by outcome",
		},
		[]string{"status"},
	)

	m.detectionFilesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eloc_detection_files_total",
			Help: "Detection CSV files loaded, by outcome",
		},
		[]string{"status"},
	)

	m.detectionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "eloc_detections_total",
		Help: "Detections read from CSV files",
	})

	m.unmatchedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "eloc_detections_unmatched_total",
		Help: "Detections that matched no recording and were placed in fallback tables",
	})

	m.tablesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eloc_selection_tables_total",
			Help: "Selection tables written, by kind",
		},
		[]string{"kind"},
	)

	m.segmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eloc_segments_total",
			Help: "Audio segments handled, by outcome",
		},
		[]string{"outcome"},
	)

	m.recordingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eloc_recordings_extracted_total",
			Help: "Recordings processed by the segment extractor, by outcome",
		},
		[]string{"status"},
	)

	m.extractionSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "eloc_recording_extraction_duration_seconds",
		Help:    "Time taken to cut all segments of one recording",
		Buckets: prometheus.ExponentialBuckets(bucketStart10ms, bucketFactor2, bucketCount12),
	})
}

// Describe implements prometheus.Collector
func (m *PipelineMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.foldersTotal.Describe(ch)
	m.detectionFilesTotal.Describe(ch)
	m.detectionsTotal.Describe(ch)
	m.unmatchedTotal.Describe(ch)
	m.tablesTotal.Describe(ch)
	m.segmentsTotal.Describe(ch)
	m.recordingsTotal.Describe(ch)
	m.extractionSeconds.Describe(ch)
}

// Collect implements prometheus.Collector
func (m *PipelineMetrics) Collect(ch chan<- prometheus.Metric) {
	m.foldersTotal.Collect(ch)
	m.detectionFilesTotal.Collect(ch)
	m.detectionsTotal.Collect(ch)
	m.unmatchedTotal.Collect(ch)
	m.tablesTotal.Collect(ch)
	m.segmentsTotal.Collect(ch)
	m.recordingsTotal.Collect(ch)
	m.extractionSeconds.Collect(ch)
}

// Record methods are no-ops on a nil *PipelineMetrics.

// RecordFolder counts a processed folder
func (m *PipelineMetrics) RecordFolder(status string) {
	if m == nil {
		return
	}
	m.foldersTotal.WithLabelValues(status).Inc()
}

// RecordDetectionFile counts a loaded or rejected detection CSV
func (m *PipelineMetrics) RecordDetectionFile(status string, detections int) {
	if m == nil {
		return
	}
	m.detectionFilesTotal.WithLabelValues(status).Inc()
	if detections > 0 {
		m.detectionsTotal.Add(float64(detections))
	}
}

// RecordUnmatched counts detections placed in fallback tables
func (m *PipelineMetrics) RecordUnmatched(n int) {
	if m == nil {
		return
	}
	if n > 0 {
		m.unmatchedTotal.Add(float64(n))
	}
}

// RecordTable counts a written selection table
func (m *PipelineMetrics) RecordTable(kind string) {
	if m == nil {
		return
	}
	m.tablesTotal.WithLabelValues(kind).Inc()
}

// RecordSegments adds n segments with the given outcome
func (m *PipelineMetrics) RecordSegments(outcome string, n int) {
	if m == nil {
		return
	}
	if n > 0 {
		m.segmentsTotal.WithLabelValues(outcome).Add(float64(n))
	}
}

// RecordRecording counts a recording batch and its duration in seconds
func (m *PipelineMetrics) RecordRecording(status string, seconds float64) {
	if m == nil {
		return
	}
	m.recordingsTotal.WithLabelValues(status).Inc()
	m.extractionSeconds.Observe(seconds)
}

// Registry returns the registry holding the pipeline metrics
func (m *PipelineMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes all metrics in the text exposition format. The file is
// written atomically for the node-exporter textfile collector.
func (m *PipelineMetrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile %s: %w", path, err)
	}
	return nil
}
