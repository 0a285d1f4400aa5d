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

// videoPlatformHandler is a domain-matched handler that delegates entirely
// to the video-capture capability: YouTube, TikTok, Streamable, and
// Twitter/X all follow this shape (spec §4.5 "video/media-platform
// handlers"), differing only in which hosts they claim and their stable id.
type videoPlatformHandler struct {
	id      string
	domains []string
	video   VideoCapturer
}

func newVideoPlatformHandler(id string, domains []string, v VideoCapturer) *videoPlatformHandler {
	return &videoPlatformHandler{id: id, domains: domains, video: v}
}

func (h *videoPlatformHandler) ID() string { return h.id }

func (h *videoPlatformHandler) Matches(u *url.URL) bool {
	return matchesAnyDomain(u, h.domains)
}

func (h *videoPlatformHandler) Normalize(ctx context.Context, rawURL string) (string, error) {
	return rawURL, nil
}

func (h *videoPlatformHandler) Archive(ctx context.Context, rawURL, workdir, cookiesPath string) (Capture, error) {
	vc, err := h.video.Download(ctx, rawURL, workdir, cookiesPath)
	if err != nil {
		return Capture{}, fmt.Errorf("%s: %w", h.id, err)
	}

	verdict := detection.Evaluate(detection.Signal{AgeLimit: vc.Metadata.AgeLimit})
	return Capture{
		PrimaryPath:   vc.VideoPath,
		ThumbnailPath: vc.ThumbnailPath,
		MetadataPath:  vc.MetadataPath,
		ExtraFiles:    subtitlePaths(vc.SubtitlePaths),
		Title:         vc.Metadata.Title,
		Class:         ClassVideo,
		Platform:      h.id,
		VideoID:       vc.Metadata.VideoID,
		NSFW:          verdict.NSFW,
		NSFWSource:    verdict.Source,
		CapturedAt:    time.Now(),
	}, nil
}

func subtitlePaths(m map[string]string) []string {
	var out []string
	for _, p := range m {
		out = append(out, p)
	}
	return out
}

func matchesAnyDomain(u *url.URL, domains []string) bool {
	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	for _, d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
