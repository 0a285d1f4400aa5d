// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"forumvault/internal/detection"
)

// redditHandler only invokes the video-capture capability when the post's
// own JSON reports a media payload (spec §4.5 "Reddit only invokes the
// video capture when a media payload is detected in the post JSON");
// everything else falls through to the gallery-capture capability for
// image posts, or is left to the generic handler for link/text posts by
// reporting no match.
type redditHandler struct {
	video      VideoCapturer
	gallery    GalleryCapturer
	httpClient *http.Client
}

func newRedditHandler(v VideoCapturer, g GalleryCapturer) *redditHandler {
	return &redditHandler{video: v, gallery: g, httpClient: &http.Client{Timeout: 15 * time.Second}}
}

func (h *redditHandler) ID() string { return "reddit" }

func (h *redditHandler) Matches(u *url.URL) bool {
	return matchesAnyDomain(u, []string{"reddit.com", "redd.it"})
}

func (h *redditHandler) Normalize(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("reddit: parse url: %w", err)
	}
	u.Host = "old.reddit.com"
	return u.String(), nil
}

// redditPostListing is the subset of Reddit's public .json post listing
// this handler needs: https://www.reddit.com/r/sub/comments/id/.json
type redditPostListing struct {
	Data struct {
		Children []struct {
			Data struct {
				Subreddit string `json:"subreddit"`
				Over18    bool   `json:"over_18"`
				PostHint  string `json:"post_hint"`
				IsVideo   bool   `json:"is_video"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

func (h *redditHandler) fetchPostMeta(ctx context.Context, rawURL string) (subreddit string, over18, hasVideo bool, err error) {
	jsonURL := strings.TrimSuffix(rawURL, "/") + "/.json"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, jsonURL, nil)
	if err != nil {
		return "", false, false, err
	}
	req.Header.Set("User-Agent", "forumvault-archivist/1.0")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return "", false, false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", false, false, fmt.Errorf("reddit: unexpected status %d for %s", resp.StatusCode, jsonURL)
	}

	var listing []redditPostListing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return "", false, false, fmt.Errorf("reddit: decode post listing: %w", err)
	}
	if len(listing) == 0 || len(listing[0].Data.Children) == 0 {
		return "", false, false, fmt.Errorf("reddit: empty post listing")
	}
	post := listing[0].Data.Children[0].Data
	hasVideo = post.IsVideo || post.PostHint == "hosted:video" || post.PostHint == "rich:video"
	return post.Subreddit, post.Over18, hasVideo, nil
}

func (h *redditHandler) Archive(ctx context.Context, rawURL, workdir, cookiesPath string) (Capture, error) {
	subreddit, over18, hasVideo, metaErr := h.fetchPostMeta(ctx, rawURL)
	if metaErr != nil {
		// A failed metadata fetch doesn't block the archive: fall back to
		// a gallery-capture attempt, the safer default for an unknown post.
		hasVideo = false
	}

	var verdict detection.Verdict
	if subreddit != "" || over18 {
		verdict = detection.Evaluate(detection.Signal{Subreddit: subreddit, PlatformFlagged: over18})
	}

	if hasVideo {
		vc, err := h.video.Download(ctx, rawURL, workdir, cookiesPath)
		if err != nil {
			return Capture{}, fmt.Errorf("reddit: %w", err)
		}
		if !verdict.NSFW {
			verdict = detection.Evaluate(detection.Signal{Subreddit: subreddit, AgeLimit: vc.Metadata.AgeLimit, PlatformFlagged: over18})
		}
		return Capture{
			PrimaryPath:   vc.VideoPath,
			ThumbnailPath: vc.ThumbnailPath,
			MetadataPath:  vc.MetadataPath,
			ExtraFiles:    subtitlePaths(vc.SubtitlePaths),
			Title:         vc.Metadata.Title,
			Class:         ClassVideo,
			Platform:      "reddit",
			VideoID:       vc.Metadata.VideoID,
			NSFW:          verdict.NSFW,
			NSFWSource:    verdict.Source,
			CapturedAt:    time.Now(),
		}, nil
	}

	gc, err := h.gallery.Download(ctx, rawURL, workdir, cookiesPath)
	if err != nil {
		return Capture{}, fmt.Errorf("reddit: %w", err)
	}
	class := ClassImage
	if len(gc.Images) > 1 {
		class = ClassGallery
	}
	return Capture{
		PrimaryPath: gc.PrimaryHint,
		Class:       class,
		Platform:    "reddit",
		NSFW:        verdict.NSFW,
		NSFWSource:  verdict.Source,
		CapturedAt:  time.Now(),
	}, nil
}
