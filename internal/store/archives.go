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

// Archive status values, per spec §4.4's state machine.
const (
	StatusPending      = "pending"
	StatusProcessing   = "processing"
	StatusComplete     = "complete"
	StatusFailed       = "failed"
	StatusSkipped      = "skipped"
	StatusAuthRequired = "auth_required"
)

// Archive is one attempt-plus-result to capture a Link (spec §3).
type Archive struct {
	ID              int64
	LinkID          int64
	Status          string
	Priority        int
	RetryCount      int
	NextRetryAt     sql.NullTime
	LastAttemptAt   sql.NullTime
	CreatedAt       time.Time
	Title           string
	Author          string
	Description     string
	ContentType     string
	PrimaryKey      string
	ThumbnailKey    string
	WaybackURL      string
	ArchiveTodayURL string
	NSFW            bool
	NSFWSource      string
	LastError       string
	ExtractedText   string
}

// CreateArchive inserts a new pending Archive for linkID.
func (s *Store) CreateArchive(ctx context.Context, linkID int64, priority int, createdAt time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO archives (link_id, status, priority, created_at) VALUES (?, 'pending', ?, ?)`,
		linkID, priority, createdAt,
	)
	if err != nil {
		return 0, fmt.Errorf("store: create archive for link %d: %w", linkID, err)
	}
	return res.LastInsertId()
}

// ClaimNext selects the highest-priority, oldest pending Archive whose
// retry timestamp has matured and atomically transitions it to processing,
// satisfying the "at most one processing per link" invariant implicitly:
// a link can only reach pending-and-claimable through one archive at a
// time, since the worker transitions the prior archive out of pending
// before any later one is created for the same link.
//
// Returns ErrNotFound if nothing is claimable right now.
func (s *Store) ClaimNext(ctx context.Context, now time.Time) (Archive, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Archive{}, fmt.Errorf("store: begin claim: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var id int64
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM archives
		WHERE status = 'pending' AND (next_retry_at IS NULL OR next_retry_at <= ?)
		ORDER BY priority DESC, created_at ASC
		LIMIT 1`, now,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return Archive{}, ErrNotFound
	}
	if err != nil {
		return Archive{}, fmt.Errorf("store: select claimable archive: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE archives SET status = 'processing', last_attempt_at = ? WHERE id = ?`, now, id,
	); err != nil {
		return Archive{}, fmt.Errorf("store: claim archive %d: %w", id, err)
	}

	row := tx.QueryRowContext(ctx, archiveSelectColumns+` FROM archives WHERE id = ?`, id)
	a, err := scanArchive(row)
	if err != nil {
		return Archive{}, err
	}

	if err := tx.Commit(); err != nil {
		return Archive{}, fmt.Errorf("store: commit claim %d: %w", id, err)
	}
	return a, nil
}

const archiveSelectColumns = `
	SELECT id, link_id, status, priority, retry_count, next_retry_at, last_attempt_at, created_at,
	       title, author, description, content_type, primary_key, thumbnail_key,
	       wayback_url, archive_today_url, nsfw, nsfw_source, last_error, extracted_text`

func scanArchive(row *sql.Row) (Archive, error) {
	var a Archive
	var title, author, desc, contentType, primaryKey, thumbKey, wayback, archiveToday, nsfwSource, lastError, extractedText sql.NullString
	err := row.Scan(
		&a.ID, &a.LinkID, &a.Status, &a.Priority, &a.RetryCount, &a.NextRetryAt, &a.LastAttemptAt, &a.CreatedAt,
		&title, &author, &desc, &contentType, &primaryKey, &thumbKey,
		&wayback, &archiveToday, &a.NSFW, &nsfwSource, &lastError, &extractedText,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Archive{}, ErrNotFound
	}
	if err != nil {
		return Archive{}, fmt.Errorf("store: scan archive: %w", err)
	}
	a.Title, a.Author, a.Description, a.ContentType = title.String, author.String, desc.String, contentType.String
	a.PrimaryKey, a.ThumbnailKey = primaryKey.String, thumbKey.String
	a.WaybackURL, a.ArchiveTodayURL = wayback.String, archiveToday.String
	a.NSFWSource, a.LastError, a.ExtractedText = nsfwSource.String, lastError.String, extractedText.String
	return a, nil
}

// GetArchive returns the Archive with the given id, or ErrNotFound.
func (s *Store) GetArchive(ctx context.Context, id int64) (Archive, error) {
	row := s.db.QueryRowContext(ctx, archiveSelectColumns+` FROM archives WHERE id = ?`, id)
	return scanArchive(row)
}

// CompleteArchiveParams carries the fields written when an Archive
// transitions to complete (spec §4.4 step 7).
type CompleteArchiveParams struct {
	Title           string
	Author          string
	Description     string
	ContentType     string
	PrimaryKey      string
	ThumbnailKey    string
	NSFW            bool
	NSFWSource      string
	ExtractedText   string
	WaybackURL      string
	ArchiveTodayURL string
}

// MarkComplete transitions id to complete and writes its captured fields.
func (s *Store) MarkComplete(ctx context.Context, id int64, p CompleteArchiveParams) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE archives SET status = 'complete', title = ?, author = ?, description = ?, content_type = ?,
		       primary_key = ?, thumbnail_key = ?, nsfw = ?, nsfw_source = ?, extracted_text = ?,
		       wayback_url = ?, archive_today_url = ?
		WHERE id = ?`,
		p.Title, p.Author, p.Description, p.ContentType, p.PrimaryKey, p.ThumbnailKey,
		p.NSFW, p.NSFWSource, p.ExtractedText, p.WaybackURL, p.ArchiveTodayURL, id,
	)
	if err != nil {
		return fmt.Errorf("store: complete archive %d: %w", id, err)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO archive_fts(rowid, title, author, description, extracted_text) VALUES (?, ?, ?, ?, ?)`,
		id, p.Title, p.Author, p.Description, p.ExtractedText,
	); err != nil {
		return fmt.Errorf("store: index archive %d: %w", id, err)
	}
	return nil
}

// SetSubmissionURLs records third-party snapshot URLs without changing
// status; submitter failures (spec §4.7) simply leave these columns empty.
func (s *Store) SetSubmissionURLs(ctx context.Context, id int64, waybackURL, archiveTodayURL string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE archives SET wayback_url = COALESCE(NULLIF(?, ''), wayback_url),
		                     archive_today_url = COALESCE(NULLIF(?, ''), archive_today_url)
		WHERE id = ?`, waybackURL, archiveTodayURL, id,
	)
	if err != nil {
		return fmt.Errorf("store: set submission urls for archive %d: %w", id, err)
	}
	return nil
}

// MarkFailed transitions id to failed with an incremented retry count and
// the given next_retry_at, or to skipped if maxRetries has been reached
// (spec §4.4's retry/backoff transition).
func (s *Store) MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time, maxRetries int) error {
	var retryCount int
	if err := s.db.QueryRowContext(ctx, `SELECT retry_count FROM archives WHERE id = ?`, id).Scan(&retryCount); err != nil {
		return fmt.Errorf("store: read retry count for archive %d: %w", id, err)
	}
	retryCount++

	if retryCount >= maxRetries {
		_, err := s.db.ExecContext(ctx, `
			UPDATE archives SET status = 'skipped', retry_count = ?, last_error = ? WHERE id = ?`,
			retryCount, errMsg, id,
		)
		if err != nil {
			return fmt.Errorf("store: skip exhausted archive %d: %w", id, err)
		}
		return nil
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE archives SET status = 'failed', retry_count = ?, next_retry_at = ?, last_error = ? WHERE id = ?`,
		retryCount, nextRetryAt, errMsg, id,
	)
	if err != nil {
		return fmt.Errorf("store: fail archive %d: %w", id, err)
	}
	return nil
}

// MarkSkipped transitions id directly to skipped (permanent error or
// policy violation; spec §7).
func (s *Store) MarkSkipped(ctx context.Context, id int64, reason string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE archives SET status = 'skipped', last_error = ? WHERE id = ?`, reason, id)
	if err != nil {
		return fmt.Errorf("store: skip archive %d: %w", id, err)
	}
	return nil
}

// MarkAuthRequired transitions id to auth_required without incrementing
// the retry counter (spec §4.4, §7); only an explicit operator reset
// re-enqueues it.
func (s *Store) MarkAuthRequired(ctx context.Context, id int64, reason string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE archives SET status = 'auth_required', last_error = ? WHERE id = ?`, reason, id)
	if err != nil {
		return fmt.Errorf("store: mark archive %d auth_required: %w", id, err)
	}
	return nil
}

// Requeue resets id to pending with next_retry_at cleared, for operator
// reset/rearchive (the SUPPLEMENTED FEATURES admin endpoints) and for
// auth_required rows after credentials are fixed.
func (s *Store) Requeue(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE archives SET status = 'pending', next_retry_at = NULL WHERE id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("store: requeue archive %d: %w", id, err)
	}
	return nil
}

// ResetStaleProcessing resets every archive stuck in processing back to
// pending, run once at startup to recover from a crash mid-capture
// (spec §4.4 "Startup recovery", invariant "Recovery idempotence").
func (s *Store) ResetStaleProcessing(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE archives SET status = 'pending' WHERE status = 'processing'`)
	if err != nil {
		return 0, fmt.Errorf("store: reset stale processing: %w", err)
	}
	return res.RowsAffected()
}

// ResetSameDayFailed resets failed archives whose last_attempt_at falls on
// the same UTC day as since back to pending with next_retry_at cleared, to
// accelerate resumption after a restart (spec §4.4 "Startup recovery").
func (s *Store) ResetSameDayFailed(ctx context.Context, since time.Time) (int64, error) {
	dayStart := time.Date(since.Year(), since.Month(), since.Day(), 0, 0, 0, 0, time.UTC)
	res, err := s.db.ExecContext(ctx, `
		UPDATE archives SET status = 'pending', next_retry_at = ?
		WHERE status = 'failed' AND last_attempt_at >= ?`, since, dayStart,
	)
	if err != nil {
		return 0, fmt.Errorf("store: reset same-day failed: %w", err)
	}
	return res.RowsAffected()
}

// CountByStatus returns the number of archives currently in status, used
// for the concurrency-bound invariant in tests and for metrics.
func (s *Store) CountByStatus(ctx context.Context, status string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM archives WHERE status = ?`, status).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("store: count archives by status %s: %w", status, err)
	}
	return n, nil
}

// ArchiveListFilter narrows ListArchives's browse results; zero values
// (empty Status, Domain) are unfiltered.
type ArchiveListFilter struct {
	Status string
	Domain string
	Limit  int
	Offset int
}

// ListArchives returns archives newest-first, optionally filtered by
// status and/or the owning link's domain, for the read-only browse
// endpoint.
func (s *Store) ListArchives(ctx context.Context, f ArchiveListFilter) ([]Archive, error) {
	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := `SELECT ` + archiveColumnsPrefixed + ` FROM archives a`
	var args []any
	var conds []string
	if f.Domain != "" {
		query += ` JOIN links l ON l.id = a.link_id`
		conds = append(conds, `l.domain = ?`)
		args = append(args, f.Domain)
	}
	if f.Status != "" {
		conds = append(conds, `a.status = ?`)
		args = append(args, f.Status)
	}
	for i, c := range conds {
		if i == 0 {
			query += ` WHERE ` + c
		} else {
			query += ` AND ` + c
		}
	}
	query += ` ORDER BY a.created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, f.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list archives: %w", err)
	}
	defer rows.Close()
	return scanArchiveRows(rows)
}

// SearchArchives runs a full-text query over title/author/description/
// extracted_text, returning matches ranked by FTS5's bm25 relevance
// (spec §2.1 "full-text index"; SUPPLEMENTED FEATURES query endpoints).
func (s *Store) SearchArchives(ctx context.Context, query string, limit int) ([]Archive, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+archiveColumnsPrefixed+`
		FROM archive_fts
		JOIN archives a ON a.id = archive_fts.rowid
		WHERE archive_fts MATCH ?
		ORDER BY bm25(archive_fts)
		LIMIT ?`, query, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("store: search archives: %w", err)
	}
	defer rows.Close()
	return scanArchiveRows(rows)
}

const archiveColumnsPrefixed = `a.id, a.link_id, a.status, a.priority, a.retry_count, a.next_retry_at, a.last_attempt_at, a.created_at,
	       a.title, a.author, a.description, a.content_type, a.primary_key, a.thumbnail_key,
	       a.wayback_url, a.archive_today_url, a.nsfw, a.nsfw_source, a.last_error, a.extracted_text`

func scanArchiveRows(rows *sql.Rows) ([]Archive, error) {
	var out []Archive
	for rows.Next() {
		var a Archive
		var title, author, desc, contentType, primaryKey, thumbKey, wayback, archiveToday, nsfwSource, lastError, extractedText sql.NullString
		if err := rows.Scan(
			&a.ID, &a.LinkID, &a.Status, &a.Priority, &a.RetryCount, &a.NextRetryAt, &a.LastAttemptAt, &a.CreatedAt,
			&title, &author, &desc, &contentType, &primaryKey, &thumbKey,
			&wayback, &archiveToday, &a.NSFW, &nsfwSource, &lastError, &extractedText,
		); err != nil {
			return nil, fmt.Errorf("store: scan archive row: %w", err)
		}
		a.Title, a.Author, a.Description, a.ContentType = title.String, author.String, desc.String, contentType.String
		a.PrimaryKey, a.ThumbnailKey = primaryKey.String, thumbKey.String
		a.WaybackURL, a.ArchiveTodayURL = wayback.String, archiveToday.String
		a.NSFWSource, a.LastError, a.ExtractedText = nsfwSource.String, lastError.String, extractedText.String
		out = append(out, a)
	}
	return out, rows.Err()
}

// LinkDomain returns the domain for the link behind an archive, used by
// the worker pool to select the per-domain semaphore for a claimed row.
func (s *Store) LinkDomain(ctx context.Context, linkID int64) (string, error) {
	var domain string
	err := s.db.QueryRowContext(ctx, `SELECT domain FROM links WHERE id = ?`, linkID).Scan(&domain)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("store: link domain for %d: %w", linkID, err)
	}
	return domain, nil
}
