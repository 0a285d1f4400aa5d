// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store implements the Local Store: a single-file SQLite database,
// opened with write-ahead logging and an FTS5 full-text index, that is
// authoritative for every piece of pipeline state — posts, links,
// occurrences, archives, artifacts, deduplicated video files, and job
// steps.
//
// Two entities named in the data model, the Domain Rate-Limit Counter and
// the Submission Rate Bucket, are process-wide in-memory state rather than
// tables here: spec §5 describes them as "lazily created, never shrunk"
// concurrent maps, which is exactly what internal/cache.DomainSemaphores
// and internal/cache.RateBucketStore already are. Persisting them would
// buy nothing — they reset safely on every restart.
//
// Schema evolution is via monotonically numbered migrations applied inside
// a transaction at startup, recorded in schema_migrations so a migration
// never runs twice.
package store
