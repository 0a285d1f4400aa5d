// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"fmt"
	"time"
)

// Occurrence is one sighting of a Link inside a Post (spec §3).
type Occurrence struct {
	ID        int64
	LinkID    int64
	PostID    string
	InQuote   bool
	Snippet   string
	SightedAt time.Time
}

// InsertOccurrence records one sighting of linkID inside postID.
func (s *Store) InsertOccurrence(ctx context.Context, o Occurrence) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO link_occurrences (link_id, post_id, in_quote, snippet, sighted_at)
		VALUES (?, ?, ?, ?, ?)`,
		o.LinkID, o.PostID, o.InQuote, o.Snippet, o.SightedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("store: insert occurrence for link %d: %w", o.LinkID, err)
	}
	return res.LastInsertId()
}
