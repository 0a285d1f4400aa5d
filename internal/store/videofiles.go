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

// VideoFile is the canonical, platform-scoped video blob shared by every
// Archive that resolves to the same (platform, video_id) (spec §3).
type VideoFile struct {
	ID              int64
	Platform        string
	VideoID         string
	ObjectKey       string
	MetadataKey     string
	ByteSize        int64
	ContentType     string
	DurationSeconds int
	CreatedAt       time.Time
}

// GetVideoFile looks up an existing canonical video by (platform, videoID),
// or ErrNotFound if this is the first sighting.
func (s *Store) GetVideoFile(ctx context.Context, platform, videoID string) (VideoFile, error) {
	var v VideoFile
	err := s.db.QueryRowContext(ctx, `
		SELECT id, platform, video_id, object_key, metadata_key, byte_size, content_type, duration_seconds, created_at
		FROM video_files WHERE platform = ? AND video_id = ?`, platform, videoID,
	).Scan(&v.ID, &v.Platform, &v.VideoID, &v.ObjectKey, &v.MetadataKey, &v.ByteSize, &v.ContentType, &v.DurationSeconds, &v.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return VideoFile{}, ErrNotFound
	}
	if err != nil {
		return VideoFile{}, fmt.Errorf("store: get video file %s/%s: %w", platform, videoID, err)
	}
	return v, nil
}

// InsertVideoFile records the canonical upload for (platform, videoID).
// The UNIQUE(platform, video_id) constraint is the deduplication
// invariant's enforcement point: a racing second insert fails and the
// caller should fall back to GetVideoFile to find the winner.
func (s *Store) InsertVideoFile(ctx context.Context, v VideoFile) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO video_files (platform, video_id, object_key, metadata_key, byte_size, content_type, duration_seconds, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		v.Platform, v.VideoID, v.ObjectKey, v.MetadataKey, v.ByteSize, v.ContentType, v.DurationSeconds, v.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("store: insert video file %s/%s: %w", v.Platform, v.VideoID, err)
	}
	return res.LastInsertId()
}
