// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Link is a unique referenced URL, identified by its normalized form
// (spec §4.3). Enforced unique at the database level so concurrent
// extraction of the same URL from two posts can never create duplicates.
type Link struct {
	ID             int64
	NormalizedURL  string
	RawURL         string
	FinalURL       string
	Domain         string
	FirstSeenAt    time.Time
	LastArchivedAt time.Time
}

// UpsertLink returns the Link for normalizedURL, creating it if absent.
// isNew reports whether this call created the row (a brand-new Link is
// always queued for archiving per spec §4.2's quote-only policy).
func (s *Store) UpsertLink(ctx context.Context, normalizedURL, rawURL, domain string, seenAt time.Time) (link Link, isNew bool, err error) {
	link, err = s.GetLinkByNormalizedURL(ctx, normalizedURL)
	if err == nil {
		return link, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Link{}, false, err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO links (normalized_url, raw_url, domain, first_seen_at) VALUES (?, ?, ?, ?)`,
		normalizedURL, rawURL, domain, seenAt,
	)
	if err != nil {
		// A concurrent insert may have raced us past the UNIQUE
		// constraint; fall back to reading what won.
		if existing, getErr := s.GetLinkByNormalizedURL(ctx, normalizedURL); getErr == nil {
			return existing, false, nil
		}
		return Link{}, false, fmt.Errorf("store: insert link %s: %w", normalizedURL, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Link{}, false, fmt.Errorf("store: link insert id: %w", err)
	}
	return Link{ID: id, NormalizedURL: normalizedURL, RawURL: rawURL, Domain: domain, FirstSeenAt: seenAt}, true, nil
}

// GetLinkByNormalizedURL returns the Link with the given normalized URL, or
// ErrNotFound.
func (s *Store) GetLinkByNormalizedURL(ctx context.Context, normalizedURL string) (Link, error) {
	var l Link
	var finalURL sql.NullString
	var lastArchived sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT id, normalized_url, raw_url, final_url, domain, first_seen_at, last_archived_at
		FROM links WHERE normalized_url = ?`, normalizedURL,
	).Scan(&l.ID, &l.NormalizedURL, &l.RawURL, &finalURL, &l.Domain, &l.FirstSeenAt, &lastArchived)
	if errors.Is(err, sql.ErrNoRows) {
		return Link{}, ErrNotFound
	}
	if err != nil {
		return Link{}, fmt.Errorf("store: get link %s: %w", normalizedURL, err)
	}
	l.FinalURL = finalURL.String
	l.LastArchivedAt = lastArchived.Time
	return l, nil
}

// GetLink returns the Link with the given id, used by the worker pool to
// recover the URL behind a claimed Archive.
func (s *Store) GetLink(ctx context.Context, id int64) (Link, error) {
	var l Link
	var finalURL sql.NullString
	var lastArchived sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT id, normalized_url, raw_url, final_url, domain, first_seen_at, last_archived_at
		FROM links WHERE id = ?`, id,
	).Scan(&l.ID, &l.NormalizedURL, &l.RawURL, &finalURL, &l.Domain, &l.FirstSeenAt, &lastArchived)
	if errors.Is(err, sql.ErrNoRows) {
		return Link{}, ErrNotFound
	}
	if err != nil {
		return Link{}, fmt.Errorf("store: get link %d: %w", id, err)
	}
	l.FinalURL = finalURL.String
	l.LastArchivedAt = lastArchived.Time
	return l, nil
}

// AllOccurrencesInQuote reports whether linkID has at least one occurrence
// and every occurrence seen so far has in_quote = true.
func (s *Store) AllOccurrencesInQuote(ctx context.Context, linkID int64) (bool, error) {
	var total, nonQuote int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE in_quote = 0)
		FROM link_occurrences WHERE link_id = ?`, linkID,
	).Scan(&total, &nonQuote)
	if err != nil {
		return false, fmt.Errorf("store: occurrence quote check for link %d: %w", linkID, err)
	}
	return total > 0 && nonQuote == 0, nil
}

// HasCompletedArchive reports whether linkID has at least one Archive in
// status 'complete'.
func (s *Store) HasCompletedArchive(ctx context.Context, linkID int64) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM archives WHERE link_id = ? AND status = 'complete'`, linkID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("store: completed-archive check for link %d: %w", linkID, err)
	}
	return count > 0, nil
}

// TouchLinkArchived stamps last_archived_at to now for linkID, called when
// an Archive for it completes.
func (s *Store) TouchLinkArchived(ctx context.Context, linkID int64, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE links SET last_archived_at = ? WHERE id = ?`, at, linkID)
	if err != nil {
		return fmt.Errorf("store: touch link %d archived: %w", linkID, err)
	}
	return nil
}
