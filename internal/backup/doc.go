// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backup implements the Backup Scheduler: a long-lived service that
// periodically snapshots the Local Store, compresses the snapshot, and
// uploads it to the Object Store with bounded retention.
//
// A run does three things in sequence:
//  1. Ask the Local Store for a consistent, database-engine-native snapshot
//     (SQLite's VACUUM INTO) to a temporary file.
//  2. Compress the snapshot with zstd and upload it under
//     backups/db/archive_{timestamp}.sqlite.zst.
//  3. Delete uploaded snapshots beyond the configured retention count,
//     oldest first.
//
// Runs are serialized: a tick that arrives while a run is still in flight
// is dropped rather than queued, since the next tick will cover it anyway.
package backup
