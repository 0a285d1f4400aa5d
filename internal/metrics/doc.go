// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package metrics provides Prometheus instrumentation for the archive
pipeline, exposed at the read-only API's /metrics endpoint in Prometheus
text format.

# Available metrics

Local Store:
  - store_query_duration_seconds / store_query_errors_total

API:
  - api_requests_total, api_request_duration_seconds, api_active_requests,
    api_rate_limit_hits_total

Feed Poller (spec §4.1):
  - feed_poll_duration_seconds, feed_poll_errors_total,
    feed_items_processed_total, feed_items_changed_total,
    feed_poll_pace_interval_seconds

Link Extractor (spec §4.2):
  - links_extracted_total, link_occurrences_recorded_total,
    archives_queued_total

Archive Worker Pool (spec §4.4):
  - archive_claims_total, archive_outcomes_total,
    archive_processing_duration_seconds, worker_active_jobs,
    worker_domain_admission_wait_seconds

Capture capabilities (spec §6.3):
  - capture_duration_seconds, capture_failures_total,
    video_dedupe_hits_total

External Archive Submitters (spec §4.7):
  - submission_attempts_total, submission_successes_total,
    submission_rate_limited_total

Backup Scheduler:
  - backup_runs_total, backup_duration_seconds, backup_snapshot_bytes

Per-domain circuit breakers (spec §4.4, sony/gobreaker/v2):
  - circuit_breaker_state, circuit_breaker_requests_total
*/
package metrics
