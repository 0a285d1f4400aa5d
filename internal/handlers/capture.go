// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package handlers

import "time"

// ContentClass classifies what a Handler actually captured (spec §3's
// Archive content-type classification).
type ContentClass string

const (
	ClassVideo    ContentClass = "video"
	ClassImage    ContentClass = "image"
	ClassGallery  ContentClass = "gallery"
	ClassText     ContentClass = "text"
	ClassPlaylist ContentClass = "playlist"
	ClassThread   ContentClass = "thread"
)

// Capture is the uniform result every Handler produces (spec §4.5): a
// primary file plus whatever sidecars and metadata the capture yielded.
type Capture struct {
	PrimaryPath   string
	ThumbnailPath string
	MetadataPath  string
	ExtraFiles    []string

	Title       string
	Author      string
	Description string
	Class       ContentClass

	Platform string
	VideoID  string

	NSFW       bool
	NSFWSource string

	HTTPStatus int
	CapturedAt time.Time
}
