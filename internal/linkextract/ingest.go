// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package linkextract

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"forumvault/internal/logging"
)

// Store is the subset of the Local Store the extractor needs to
// materialize links/occurrences and apply the quote-only skip policy
// (spec §4.2 step 5). Kept narrow, mirroring internal/backup's interface
// seams, so this package doesn't depend on internal/store's concrete type.
type Store interface {
	UpsertLink(ctx context.Context, normalizedURL, rawURL, domain string, seenAt time.Time) (LinkRef, bool, error)
	InsertOccurrence(ctx context.Context, linkID int64, postID string, inQuote bool, snippet string, sightedAt time.Time) (int64, error)
	AllOccurrencesInQuote(ctx context.Context, linkID int64) (bool, error)
	HasCompletedArchive(ctx context.Context, linkID int64) (bool, error)
	CreateArchive(ctx context.Context, linkID int64, priority int, createdAt time.Time) (int64, error)
}

// LinkRef is the minimal Link identity the extractor needs back from the
// store after an upsert.
type LinkRef struct {
	ID     int64
	Domain string
}

// Ingestor turns a Post's extracted occurrences into Link/Occurrence rows
// and decides, per link, whether a new Archive should be created.
type Ingestor struct {
	store      Store
	normalizer Normalizer
}

// NewIngestor creates an Ingestor over store, using normalizer to produce
// each occurrence's normalized URL.
func NewIngestor(store Store, normalizer Normalizer) *Ingestor {
	return &Ingestor{store: store, normalizer: normalizer}
}

// IngestPost extracts links from bodyHTML and persists their occurrences,
// creating a new pending Archive for any link that isn't covered by the
// quote-only skip policy (spec §4.2 step 5). Returns the number of
// archives created.
func (ig *Ingestor) IngestPost(ctx context.Context, postID, bodyHTML, postURL string, sightedAt time.Time) (int, error) {
	occurrences, err := Extract(ctx, ig.normalizer, bodyHTML, postURL)
	if err != nil {
		return 0, fmt.Errorf("linkextract: extract post %s: %w", postID, err)
	}

	created := 0
	for _, occ := range occurrences {
		domain := ""
		if u, err := url.Parse(occ.NormalizedURL); err == nil {
			domain = u.Hostname()
		}

		link, isNew, err := ig.store.UpsertLink(ctx, occ.NormalizedURL, occ.RawURL, domain, sightedAt)
		if err != nil {
			logging.Warn().Err(err).Str("url", occ.NormalizedURL).Msg("linkextract: upsert link failed, skipping occurrence")
			continue
		}

		if _, err := ig.store.InsertOccurrence(ctx, link.ID, postID, occ.InQuote, occ.Snippet, sightedAt); err != nil {
			logging.Warn().Err(err).Int64("link_id", link.ID).Msg("linkextract: insert occurrence failed")
			continue
		}

		shouldArchive, err := ig.shouldCreateArchive(ctx, link.ID, isNew)
		if err != nil {
			logging.Warn().Err(err).Int64("link_id", link.ID).Msg("linkextract: quote-only policy check failed, archiving defensively")
			shouldArchive = true
		}
		if !shouldArchive {
			continue
		}

		if _, err := ig.store.CreateArchive(ctx, link.ID, 0, sightedAt); err != nil {
			logging.Warn().Err(err).Int64("link_id", link.ID).Msg("linkextract: create archive failed")
			continue
		}
		created++
	}
	return created, nil
}

// shouldCreateArchive implements spec §4.2 step 5: a brand-new link is
// always queued; an existing link is skipped only when every occurrence
// seen so far is in_quote and it already has a completed archive.
func (ig *Ingestor) shouldCreateArchive(ctx context.Context, linkID int64, isNew bool) (bool, error) {
	if isNew {
		return true, nil
	}
	allQuoted, err := ig.store.AllOccurrencesInQuote(ctx, linkID)
	if err != nil {
		return false, err
	}
	if !allQuoted {
		return true, nil
	}
	hasArchive, err := ig.store.HasCompletedArchive(ctx, linkID)
	if err != nil {
		return false, err
	}
	return !hasArchive, nil
}
