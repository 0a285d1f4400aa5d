// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"time"

	"forumvault/internal/store"
)

// archiveDTO mirrors store.Archive with database/sql null types flattened
// to plain, JSON-friendly fields.
type archiveDTO struct {
	ID              int64      `json:"id"`
	LinkID          int64      `json:"link_id"`
	Status          string     `json:"status"`
	Priority        int        `json:"priority"`
	RetryCount      int        `json:"retry_count"`
	NextRetryAt     *time.Time `json:"next_retry_at,omitempty"`
	LastAttemptAt   *time.Time `json:"last_attempt_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	Title           string     `json:"title,omitempty"`
	Author          string     `json:"author,omitempty"`
	Description     string     `json:"description,omitempty"`
	ContentType     string     `json:"content_type,omitempty"`
	PrimaryKey      string     `json:"primary_key,omitempty"`
	ThumbnailKey    string     `json:"thumbnail_key,omitempty"`
	WaybackURL      string     `json:"wayback_url,omitempty"`
	ArchiveTodayURL string     `json:"archive_today_url,omitempty"`
	NSFW            bool       `json:"nsfw"`
	NSFWSource      string     `json:"nsfw_source,omitempty"`
	LastError       string     `json:"last_error,omitempty"`
}

func toArchiveDTO(a store.Archive) archiveDTO {
	d := archiveDTO{
		ID: a.ID, LinkID: a.LinkID, Status: a.Status, Priority: a.Priority,
		RetryCount: a.RetryCount, CreatedAt: a.CreatedAt,
		Title: a.Title, Author: a.Author, Description: a.Description,
		ContentType: a.ContentType, PrimaryKey: a.PrimaryKey, ThumbnailKey: a.ThumbnailKey,
		WaybackURL: a.WaybackURL, ArchiveTodayURL: a.ArchiveTodayURL,
		NSFW: a.NSFW, NSFWSource: a.NSFWSource, LastError: a.LastError,
	}
	if a.NextRetryAt.Valid {
		d.NextRetryAt = &a.NextRetryAt.Time
	}
	if a.LastAttemptAt.Valid {
		d.LastAttemptAt = &a.LastAttemptAt.Time
	}
	return d
}

func toArchiveDTOs(in []store.Archive) []archiveDTO {
	out := make([]archiveDTO, len(in))
	for i, a := range in {
		out[i] = toArchiveDTO(a)
	}
	return out
}

// artifactDTO mirrors store.Artifact, dropping the internal video-file
// foreign key in favor of a simple "has a deduplicated video" flag.
type artifactDTO struct {
	ID             int64  `json:"id"`
	Kind           string `json:"kind"`
	ObjectKey      string `json:"object_key"`
	ContentType    string `json:"content_type"`
	ByteSize       int64  `json:"byte_size"`
	ContentHash    string `json:"content_hash,omitempty"`
	PerceptualHash string `json:"perceptual_hash,omitempty"`
	Deduplicated   bool   `json:"deduplicated"`
}

func toArtifactDTO(a store.Artifact) artifactDTO {
	return artifactDTO{
		ID: a.ID, Kind: a.Kind, ObjectKey: a.ObjectKey, ContentType: a.ContentType,
		ByteSize: a.ByteSize, ContentHash: a.ContentHash, PerceptualHash: a.PerceptualHash,
		Deduplicated: a.VideoFileID.Valid,
	}
}

func toArtifactDTOs(in []store.Artifact) []artifactDTO {
	out := make([]artifactDTO, len(in))
	for i, a := range in {
		out[i] = toArtifactDTO(a)
	}
	return out
}

// jobStepDTO mirrors store.JobStep for the replay/audit endpoint.
type jobStepDTO struct {
	ID        int64      `json:"id"`
	Step      string     `json:"step"`
	Status    string     `json:"status"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	Error     string     `json:"error,omitempty"`
}

func toJobStepDTO(s store.JobStep) jobStepDTO {
	d := jobStepDTO{ID: s.ID, Step: s.Step, Status: s.Status, StartedAt: s.StartedAt, Error: s.Error}
	if s.EndedAt.Valid {
		d.EndedAt = &s.EndedAt.Time
	}
	return d
}

func toJobStepDTOs(in []store.JobStep) []jobStepDTO {
	out := make([]jobStepDTO, len(in))
	for i, s := range in {
		out[i] = toJobStepDTO(s)
	}
	return out
}

// archiveDetail bundles an archive with its artifacts and job step
// history for the get-by-id endpoint (SUPPLEMENTED FEATURES: job step
// replay/audit query).
type archiveDetail struct {
	archiveDTO
	Artifacts []artifactDTO `json:"artifacts"`
	JobSteps  []jobStepDTO  `json:"job_steps"`
}
