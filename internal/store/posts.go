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

// Post is a forum post seen in a feed, keyed by the forum's own id.
type Post struct {
	ID               string
	Author           string
	Title            string
	URL              string
	BodyHTML         string
	ContentHash      string
	PublishedAt      time.Time
	ProcessedAt      time.Time
	ThreadID         string
	PositionInThread int
}

// UpsertPost inserts p if its id hasn't been seen, or updates it if the
// content hash differs from what's stored (an edit). It reports whether the
// post is new or edited; both cases should trigger link extraction, per
// spec §4.1. An unchanged content hash is a no-op and reports changed=false.
func (s *Store) UpsertPost(ctx context.Context, p Post) (changed bool, err error) {
	var existingHash string
	err = s.db.QueryRowContext(ctx, `SELECT content_hash FROM posts WHERE id = ?`, p.ID).Scan(&existingHash)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO posts (id, author, title, url, body_html, content_hash, published_at, processed_at, thread_id, position_in_thread)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.Author, p.Title, p.URL, p.BodyHTML, p.ContentHash, p.PublishedAt, p.ProcessedAt, p.ThreadID, p.PositionInThread,
		)
		if err != nil {
			return false, fmt.Errorf("store: insert post %s: %w", p.ID, err)
		}
		return true, nil
	case err != nil:
		return false, fmt.Errorf("store: lookup post %s: %w", p.ID, err)
	}

	if existingHash == p.ContentHash {
		return false, nil
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE posts SET author = ?, title = ?, url = ?, body_html = ?, content_hash = ?, processed_at = ?
		WHERE id = ?`,
		p.Author, p.Title, p.URL, p.BodyHTML, p.ContentHash, p.ProcessedAt, p.ID,
	)
	if err != nil {
		return false, fmt.Errorf("store: update post %s: %w", p.ID, err)
	}
	return true, nil
}

// GetPost returns the post with the given id, or ErrNotFound.
func (s *Store) GetPost(ctx context.Context, id string) (Post, error) {
	var p Post
	var published sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT id, author, title, url, body_html, content_hash, published_at, processed_at, thread_id, position_in_thread
		FROM posts WHERE id = ?`, id,
	).Scan(&p.ID, &p.Author, &p.Title, &p.URL, &p.BodyHTML, &p.ContentHash, &published, &p.ProcessedAt, &p.ThreadID, &p.PositionInThread)
	if errors.Is(err, sql.ErrNoRows) {
		return Post{}, ErrNotFound
	}
	if err != nil {
		return Post{}, fmt.Errorf("store: get post %s: %w", id, err)
	}
	p.PublishedAt = published.Time
	return p, nil
}
