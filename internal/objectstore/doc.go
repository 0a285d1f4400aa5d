// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package objectstore implements the Object Store Gateway: an
// S3-compatible blob store for archive artifacts, deduplicated videos,
// and database backup snapshots.
//
// All archive content is keyed by a stable layout:
//
//	archives/{archive_id}/meta.json
//	archives/{archive_id}/fetch/{raw.html,headers.json}
//	archives/{archive_id}/render/{screenshot.webp,page.pdf,complete.html,complete.mhtml}
//	archives/{archive_id}/text/extracted.txt
//	archives/{archive_id}/media/{video.ext,thumb.jpg,info.json,subtitles/*,comments.json}
//	videos/{video_id}.{ext}
//	videos/{video_id}.json
//	backups/db/archive_{timestamp}.sqlite.zst
//
// Blobs are derived data: the Local Store is the recovery ground truth,
// and a missing or stale object does not corrupt the database.
package objectstore
