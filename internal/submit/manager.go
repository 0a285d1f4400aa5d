// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package submit

import (
	"context"
	"time"

	"forumvault/internal/cache"
	"forumvault/internal/config"
	"forumvault/internal/logging"
	"forumvault/internal/metrics"
)

// ArchiveStore is the subset of *store.Store the Manager needs to record a
// successful submission.
type ArchiveStore interface {
	SetSubmissionURLs(ctx context.Context, id int64, waybackURL, archiveTodayURL string) error
}

const submitTimeout = 45 * time.Second

type entry struct {
	submitter Submitter
	bucket    *cache.RateBucketStore
}

// Manager fans a completed Archive's URL out to every enabled Submitter,
// each gated by its own rate bucket, never failing or blocking the caller
// on a submitter's error.
type Manager struct {
	store   ArchiveStore
	entries []entry
}

// NewManager builds a Manager from configuration, wiring one rate bucket
// per enabled submitter (spec §4.7: "Wayback-style... 5/min", "Archive.
// today-style... 3/min").
func NewManager(cfg config.SubmitConfig, store ArchiveStore) *Manager {
	m := &Manager{store: store}

	if cfg.WaybackEnabled {
		m.entries = append(m.entries, entry{
			submitter: NewWaybackSubmitter(submitTimeout),
			bucket:    cache.NewRateBucketStore(orDefault(cfg.WaybackRateLimit, 5), orDefaultDuration(cfg.WaybackRatePeriod, time.Minute)),
		})
	}
	if cfg.ArchiveTodayEnabled {
		m.entries = append(m.entries, entry{
			submitter: NewArchiveTodaySubmitter(submitTimeout),
			bucket:    cache.NewRateBucketStore(orDefault(cfg.ArchiveTodayRateLimit, 3), orDefaultDuration(cfg.ArchiveTodayRatePeriod, time.Minute)),
		})
	}
	return m
}

func orDefault(v, fallback int64) int64 {
	if v <= 0 {
		return fallback
	}
	return v
}

func orDefaultDuration(v, fallback time.Duration) time.Duration {
	if v <= 0 {
		return fallback
	}
	return v
}

// SubmitAll fires every enabled submitter for archiveID/rawURL, skipping
// (and metering) any whose rate bucket is currently exhausted. A
// submitter's failure is logged and never returned: spec §4.7 is explicit
// that submission failures must never fail the archive or be retried.
func (m *Manager) SubmitAll(ctx context.Context, archiveID int64, rawURL string) {
	for _, e := range m.entries {
		name := e.submitter.Name()
		if !e.bucket.Allow(name) {
			metrics.RecordSubmissionRateLimited(name)
			logging.Debug().Str("submitter", name).Int64("archive_id", archiveID).Msg("submit: rate limited, skipping")
			continue
		}

		snapshotURL, err := e.submitter.Submit(ctx, rawURL)
		if err != nil {
			metrics.RecordSubmission(name, false)
			logging.Warn().Err(err).Str("submitter", name).Int64("archive_id", archiveID).Msg("submit: submission failed")
			continue
		}
		metrics.RecordSubmission(name, true)

		var waybackURL, archiveTodayURL string
		switch name {
		case "wayback":
			waybackURL = snapshotURL
		case "archivetoday":
			archiveTodayURL = snapshotURL
		}
		if err := m.store.SetSubmissionURLs(ctx, archiveID, waybackURL, archiveTodayURL); err != nil {
			logging.Warn().Err(err).Int64("archive_id", archiveID).Msg("submit: record snapshot url failed")
		}
	}
}
