// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package handlers

import (
	"forumvault/internal/capture/gallery"
	"forumvault/internal/capture/video"
	"forumvault/internal/config"
)

// NewDefaultRegistry wires up the full Site Handler Registry named by spec
// §4.5: one handler instance per platform family, all sharing the same
// capture capabilities, behind the generic fallback.
func NewDefaultRegistry(cfg config.Config) *Registry {
	videoCapturer := video.New(cfg.Video)
	galleryCapturer := gallery.New(cfg.Gallery)

	return NewDefaultRegistryWithCapturers(videoCapturer, galleryCapturer)
}

// NewDefaultRegistryWithCapturers builds the registry from already-constructed
// capturers, letting cmd/archivist share single instances across the
// registry and any other consumer (e.g. direct worker use for generic
// re-downloads).
func NewDefaultRegistryWithCapturers(videoCapturer VideoCapturer, galleryCapturer GalleryCapturer) *Registry {
	youtube := newVideoPlatformHandler("youtube", []string{"youtube.com", "youtu.be"}, videoCapturer)
	tiktok := newVideoPlatformHandler("tiktok", []string{"tiktok.com"}, videoCapturer)
	streamable := newVideoPlatformHandler("streamable", []string{"streamable.com"}, videoCapturer)
	twitter := newVideoPlatformHandler("twitter", []string{"twitter.com", "x.com"}, videoCapturer)
	imgur := newGalleryPlatformHandler("imgur", []string{"imgur.com"}, galleryCapturer)
	instagram := newInstagramHandler(videoCapturer, galleryCapturer)
	reddit := newRedditHandler(videoCapturer, galleryCapturer)
	bluesky := newBlueskyHandler(videoCapturer, galleryCapturer)
	fallback := newGenericHandler()

	return NewRegistry(fallback,
		youtube,
		tiktok,
		streamable,
		twitter,
		imgur,
		instagram,
		reddit,
		bluesky,
	)
}
