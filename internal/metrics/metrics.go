// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for the archive pipeline, grouped by the
// component that records it: the Local Store, the Feed Poller, the Link
// Extractor, the Archive Worker Pool (including its per-domain circuit
// breakers), the capture capabilities, the External Archive Submitters,
// the Backup Scheduler, and the read-only JSON API.

var (
	// Local Store query metrics.
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_query_duration_seconds",
			Help:    "Duration of Local Store (SQLite) queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_query_errors_total",
			Help: "Total number of Local Store query errors",
		},
		[]string{"operation"},
	)

	// API endpoint metrics (read-only browse/search API, spec §6.4
	// SUPPLEMENTED FEATURES).
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Feed Poller metrics (spec §4.1).
	FeedPollDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feed_poll_duration_seconds",
			Help:    "Duration of a full feed poll cycle (all pages) in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	FeedPollErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_poll_errors_total",
			Help: "Total number of feed poll failures",
		},
		[]string{"stage"}, // "fetch", "parse"
	)

	FeedItemsProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_items_processed_total",
			Help: "Total number of feed items (posts) processed",
		},
	)

	FeedItemsChanged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_items_changed_total",
			Help: "Total number of feed items whose content hash changed since last poll",
		},
	)

	FeedPaceInterval = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feed_poll_pace_interval_seconds",
			Help: "Current adaptive polling interval in seconds",
		},
	)

	// Link Extractor metrics (spec §4.2).
	LinksExtracted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "links_extracted_total",
			Help: "Total number of distinct links upserted from extracted occurrences",
		},
	)

	OccurrencesRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "link_occurrences_recorded_total",
			Help: "Total number of link occurrences recorded",
		},
		[]string{"in_quote"}, // "true", "false"
	)

	ArchivesQueued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "archives_queued_total",
			Help: "Total number of archive jobs queued by the ingestor",
		},
	)

	// Archive Worker Pool metrics (spec §4.4).
	ArchiveClaimsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "archive_claims_total",
			Help: "Total number of archive jobs claimed from the pending queue",
		},
	)

	ArchiveOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "archive_outcomes_total",
			Help: "Total number of archive attempts by terminal outcome",
		},
		[]string{"outcome"}, // "complete", "failed", "skipped", "auth_required"
	)

	ArchiveProcessingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "archive_processing_duration_seconds",
			Help:    "Duration of a full archive attempt (handler dispatch through upload) in seconds",
			Buckets: []float64{0.5, 1, 5, 10, 30, 60, 180, 600, 1800},
		},
		[]string{"handler"},
	)

	WorkerActiveJobs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "worker_active_jobs",
			Help: "Current number of archive jobs being processed concurrently",
		},
	)

	WorkerDomainQueueWait = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "worker_domain_admission_wait_seconds",
			Help:    "Time spent waiting for a per-domain concurrency slot",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"domain"},
	)

	// Capture-capability metrics (spec §6.3).
	CaptureDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "capture_duration_seconds",
			Help:    "Duration of a single capture-capability invocation in seconds",
			Buckets: []float64{0.5, 1, 5, 10, 30, 60, 180, 600, 1800},
		},
		[]string{"capability"}, // "video", "gallery", "browser", "monolith"
	)

	CaptureFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "capture_failures_total",
			Help: "Total number of capture-capability failures",
		},
		[]string{"capability", "reason"},
	)

	VideoDedupeHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "video_dedupe_hits_total",
			Help: "Total number of archives that reused an already-uploaded video file",
		},
	)

	// External Archive Submitter metrics (spec §4.7).
	SubmissionAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "submission_attempts_total",
			Help: "Total number of external archive submission attempts",
		},
		[]string{"target"}, // "wayback", "archive_today"
	)

	SubmissionSuccesses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "submission_successes_total",
			Help: "Total number of successful external archive submissions",
		},
		[]string{"target"},
	)

	SubmissionRateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "submission_rate_limited_total",
			Help: "Total number of submissions skipped this tick due to rate limiting",
		},
		[]string{"target"},
	)

	// Backup Scheduler metrics.
	BackupRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backup_runs_total",
			Help: "Total number of backup snapshot runs",
		},
		[]string{"result"}, // "success", "failure"
	)

	BackupDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "backup_duration_seconds",
			Help:    "Duration of a backup snapshot-and-upload cycle in seconds",
			Buckets: []float64{0.5, 1, 5, 10, 30, 60, 180},
		},
	)

	BackupSnapshotBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "backup_snapshot_bytes",
			Help:    "Size in bytes of uploaded backup snapshots",
			Buckets: prometheus.ExponentialBuckets(1<<20, 2, 10), // 1MiB .. 512MiB
		},
	)

	// Circuit breaker metrics, shared by every per-domain breaker the
	// Worker Pool maintains (spec §4.4, `sony/gobreaker/v2`).
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"domain"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through a per-domain circuit breaker",
		},
		[]string{"domain", "result"}, // result: "success", "failure", "rejected"
	)

	// System metrics.
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordDBQuery records a Local Store query metric.
func RecordDBQuery(operation string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation).Inc()
	}
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordFeedPoll records one full poll cycle.
func RecordFeedPoll(duration time.Duration, err error, stage string) {
	FeedPollDuration.Observe(duration.Seconds())
	if err != nil {
		FeedPollErrors.WithLabelValues(stage).Inc()
	}
}

// RecordFeedItem records one processed feed item and whether its content
// changed since the last poll.
func RecordFeedItem(changed bool) {
	FeedItemsProcessed.Inc()
	if changed {
		FeedItemsChanged.Inc()
	}
}

// SetFeedPaceInterval updates the adaptive polling interval gauge.
func SetFeedPaceInterval(interval time.Duration) {
	FeedPaceInterval.Set(interval.Seconds())
}

// RecordOccurrence records one link occurrence and whether it queued a new
// archive.
func RecordOccurrence(inQuote bool, queuedArchive bool) {
	label := "false"
	if inQuote {
		label = "true"
	}
	OccurrencesRecorded.WithLabelValues(label).Inc()
	if queuedArchive {
		ArchivesQueued.Inc()
	}
}

// RecordArchiveClaim records one archive job claimed from the queue.
func RecordArchiveClaim() {
	ArchiveClaimsTotal.Inc()
}

// RecordArchiveOutcome records the terminal outcome and processing
// duration of one archive attempt.
func RecordArchiveOutcome(handler, outcome string, duration time.Duration) {
	ArchiveOutcomesTotal.WithLabelValues(outcome).Inc()
	ArchiveProcessingDuration.WithLabelValues(handler).Observe(duration.Seconds())
}

// RecordCapture records one capture-capability invocation.
func RecordCapture(capability string, duration time.Duration, failureReason string) {
	CaptureDuration.WithLabelValues(capability).Observe(duration.Seconds())
	if failureReason != "" {
		CaptureFailures.WithLabelValues(capability, failureReason).Inc()
	}
}

// RecordVideoDedupeHit records an archive that reused a previously
// uploaded video file instead of downloading again.
func RecordVideoDedupeHit() {
	VideoDedupeHits.Inc()
}

// RecordSubmission records one external archive submission attempt.
func RecordSubmission(target string, success bool) {
	SubmissionAttempts.WithLabelValues(target).Inc()
	if success {
		SubmissionSuccesses.WithLabelValues(target).Inc()
	}
}

// RecordSubmissionRateLimited records a submission skipped due to rate
// limiting.
func RecordSubmissionRateLimited(target string) {
	SubmissionRateLimited.WithLabelValues(target).Inc()
}

// RecordBackupRun records one backup snapshot cycle.
func RecordBackupRun(duration time.Duration, sizeBytes int64, err error) {
	BackupDuration.Observe(duration.Seconds())
	if err != nil {
		BackupRunsTotal.WithLabelValues("failure").Inc()
		return
	}
	BackupRunsTotal.WithLabelValues("success").Inc()
	BackupSnapshotBytes.Observe(float64(sizeBytes))
}

// circuitBreakerStateValue maps a breaker's named state to the gauge's
// numeric encoding.
func circuitBreakerStateValue(state string) float64 {
	switch state {
	case "half-open":
		return 1
	case "open":
		return 2
	default:
		return 0
	}
}

// RecordCircuitBreakerState updates the state gauge for a per-domain
// circuit breaker.
func RecordCircuitBreakerState(domain, state string) {
	CircuitBreakerState.WithLabelValues(domain).Set(circuitBreakerStateValue(state))
}

// RecordCircuitBreakerRequest records one request's outcome through a
// per-domain circuit breaker.
func RecordCircuitBreakerRequest(domain, result string) {
	CircuitBreakerRequests.WithLabelValues(domain, result).Inc()
}
