// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package handlers

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"forumvault/internal/detection"
)

// instagramHandler is the one platform spec §4.5 names as needing both
// capture capabilities: reels (/reel/, /tv/) are video, everything else
// (/p/ posts, carousels) is gallery.
type instagramHandler struct {
	video   VideoCapturer
	gallery GalleryCapturer
}

func newInstagramHandler(v VideoCapturer, g GalleryCapturer) *instagramHandler {
	return &instagramHandler{video: v, gallery: g}
}

func (h *instagramHandler) ID() string { return "instagram" }

func (h *instagramHandler) Matches(u *url.URL) bool {
	return matchesAnyDomain(u, []string{"instagram.com"})
}

func (h *instagramHandler) Normalize(ctx context.Context, rawURL string) (string, error) {
	return rawURL, nil
}

func (h *instagramHandler) isVideoPath(u *url.URL) bool {
	p := strings.ToLower(u.Path)
	return strings.HasPrefix(p, "/reel/") || strings.HasPrefix(p, "/reels/") || strings.HasPrefix(p, "/tv/")
}

func (h *instagramHandler) Archive(ctx context.Context, rawURL, workdir, cookiesPath string) (Capture, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Capture{}, fmt.Errorf("instagram: parse url: %w", err)
	}

	if h.isVideoPath(u) {
		vc, err := h.video.Download(ctx, rawURL, workdir, cookiesPath)
		if err != nil {
			return Capture{}, fmt.Errorf("instagram: %w", err)
		}
		verdict := detection.Evaluate(detection.Signal{AgeLimit: vc.Metadata.AgeLimit})
		return Capture{
			PrimaryPath:   vc.VideoPath,
			ThumbnailPath: vc.ThumbnailPath,
			MetadataPath:  vc.MetadataPath,
			ExtraFiles:    subtitlePaths(vc.SubtitlePaths),
			Title:         vc.Metadata.Title,
			Class:         ClassVideo,
			Platform:      "instagram",
			VideoID:       vc.Metadata.VideoID,
			NSFW:          verdict.NSFW,
			NSFWSource:    verdict.Source,
			CapturedAt:    time.Now(),
		}, nil
	}

	gc, err := h.gallery.Download(ctx, rawURL, workdir, cookiesPath)
	if err != nil {
		return Capture{}, fmt.Errorf("instagram: %w", err)
	}
	class := ClassImage
	if len(gc.Images) > 1 {
		class = ClassGallery
	}
	var extras []string
	var metadataPath string
	for i, img := range gc.Images {
		if i == 0 {
			metadataPath = img.MetadataPath
			continue
		}
		extras = append(extras, img.Path)
	}
	return Capture{
		PrimaryPath:  gc.PrimaryHint,
		MetadataPath: metadataPath,
		ExtraFiles:   extras,
		Class:        class,
		Platform:     "instagram",
		CapturedAt:   time.Now(),
	}, nil
}
