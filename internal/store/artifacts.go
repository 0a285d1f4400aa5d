// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Artifact kinds, per spec §3.
const (
	ArtifactRawHTML       = "raw_html"
	ArtifactCompleteHTML  = "complete_html"
	ArtifactMHTML         = "mhtml"
	ArtifactScreenshot    = "screenshot"
	ArtifactPDF           = "pdf"
	ArtifactVideo         = "video"
	ArtifactThumbnail     = "thumbnail"
	ArtifactMetadata      = "metadata"
	ArtifactSubtitles     = "subtitles"
	ArtifactTranscript    = "transcript"
	ArtifactComments      = "comments"
	ArtifactExtractedText = "extracted_text"
	ArtifactImage         = "image"
)

// Artifact is one stored file produced for an Archive (spec §3).
type Artifact struct {
	ID             int64
	ArchiveID      int64
	Kind           string
	ObjectKey      string
	ContentType    string
	ByteSize       int64
	ContentHash    string
	PerceptualHash string
	VideoFileID    sql.NullInt64
	Metadata       string
	CreatedAt      time.Time
}

// InsertArtifact records one stored file for an archive.
func (s *Store) InsertArtifact(ctx context.Context, a Artifact) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO artifacts (archive_id, kind, object_key, content_type, byte_size, content_hash, perceptual_hash, video_file_id, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ArchiveID, a.Kind, a.ObjectKey, a.ContentType, a.ByteSize, a.ContentHash,
		nullString(a.PerceptualHash), a.VideoFileID, a.Metadata, a.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("store: insert artifact for archive %d: %w", a.ArchiveID, err)
	}
	return res.LastInsertId()
}

// ArtifactsForArchive returns every artifact recorded for archiveID, for
// the read API and for the artifact-integrity invariant check.
func (s *Store) ArtifactsForArchive(ctx context.Context, archiveID int64) ([]Artifact, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, archive_id, kind, object_key, content_type, byte_size, content_hash, perceptual_hash, video_file_id, metadata, created_at
		FROM artifacts WHERE archive_id = ?`, archiveID,
	)
	if err != nil {
		return nil, fmt.Errorf("store: artifacts for archive %d: %w", archiveID, err)
	}
	defer rows.Close()

	var out []Artifact
	for rows.Next() {
		var a Artifact
		var perceptual sql.NullString
		if err := rows.Scan(&a.ID, &a.ArchiveID, &a.Kind, &a.ObjectKey, &a.ContentType, &a.ByteSize,
			&a.ContentHash, &perceptual, &a.VideoFileID, &a.Metadata, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan artifact: %w", err)
		}
		a.PerceptualHash = perceptual.String
		out = append(out, a)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
