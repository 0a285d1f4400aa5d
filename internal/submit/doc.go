// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package submit implements the External Archive Submitters (spec §4.7):
// fire-and-forget, independently rate-limited clients that ask a
// third-party archiver to snapshot a Link's original URL once its Archive
// reaches complete. A submitter never fails the Archive and never
// schedules a retry; its result is best-effort redundancy recorded on the
// Archive row when (and only when) it succeeds.
//
// Manager is invoked synchronously as the last step of the worker's
// per-archive pipeline (spec §5's ordering guarantee: "database update →
// submitter"), not as a separately scheduled background sweep. Each
// Submitter is gated by its own internal/cache.RateBucketStore bucket,
// the sliding-window limiter that package's doc comment names as the
// concrete backing for spec §4.7's "Submission Rate Bucket".
package submit
