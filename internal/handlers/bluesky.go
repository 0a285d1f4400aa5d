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
)

// blueskyHandler talks to the AT Protocol's public AppView HTTP API rather
// than scraping bsky.app's rendered page (spec §4.5 "Bluesky talks to a
// typed HTTP API rather than a scraper"): it resolves the post's handle to
// a DID, builds the at:// record URI, and fetches the post thread to find
// an embedded video or image set.
type blueskyHandler struct {
	video      VideoCapturer
	gallery    GalleryCapturer
	httpClient *http.Client
	apiBase    string
}

func newBlueskyHandler(v VideoCapturer, g GalleryCapturer) *blueskyHandler {
	return &blueskyHandler{
		video:      v,
		gallery:    g,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		apiBase:    "https://public.api.bsky.app",
	}
}

func (h *blueskyHandler) ID() string { return "bluesky" }

func (h *blueskyHandler) Matches(u *url.URL) bool {
	return matchesAnyDomain(u, []string{"bsky.app"})
}

func (h *blueskyHandler) Normalize(ctx context.Context, rawURL string) (string, error) {
	return rawURL, nil
}

// parsePostURL extracts the handle and record key from a
// https://bsky.app/profile/<handle>/post/<rkey> URL.
func parseBlueskyPostURL(rawURL string) (handle, rkey string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", fmt.Errorf("parse url: %w", err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) != 4 || parts[0] != "profile" || parts[2] != "post" {
		return "", "", fmt.Errorf("not a bluesky post url: %s", rawURL)
	}
	return parts[1], parts[3], nil
}

func (h *blueskyHandler) resolveDID(ctx context.Context, handle string) (string, error) {
	if strings.HasPrefix(handle, "did:") {
		return handle, nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		h.apiBase+"/xrpc/com.atproto.identity.resolveHandle?handle="+url.QueryEscape(handle), nil)
	if err != nil {
		return "", err
	}
	resp, err := h.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("resolveHandle: unexpected status %d", resp.StatusCode)
	}
	var out struct {
		DID string `json:"did"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("resolveHandle: decode: %w", err)
	}
	return out.DID, nil
}

// blueskyPostThread is the subset of app.bsky.feed.getPostThread's response
// this handler needs.
type blueskyPostThread struct {
	Thread struct {
		Post struct {
			Record struct {
				Text string `json:"text"`
			} `json:"record"`
			Embed struct {
				Type   string `json:"$type"`
				Video  *struct {
					Playlist string `json:"playlist"`
				} `json:"video"`
				Images []struct {
					Fullsize string `json:"fullsize"`
					Alt      string `json:"alt"`
				} `json:"images"`
			} `json:"embed"`
			Labels []struct {
				Val string `json:"val"`
			} `json:"labels"`
		} `json:"post"`
	} `json:"thread"`
}

func (h *blueskyHandler) fetchThread(ctx context.Context, did, rkey string) (blueskyPostThread, error) {
	atURI := fmt.Sprintf("at://%s/app.bsky.feed.post/%s", did, rkey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		h.apiBase+"/xrpc/app.bsky.feed.getPostThread?uri="+url.QueryEscape(atURI)+"&depth=0", nil)
	if err != nil {
		return blueskyPostThread{}, err
	}
	resp, err := h.httpClient.Do(req)
	if err != nil {
		return blueskyPostThread{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return blueskyPostThread{}, fmt.Errorf("getPostThread: unexpected status %d", resp.StatusCode)
	}
	var out blueskyPostThread
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return blueskyPostThread{}, fmt.Errorf("getPostThread: decode: %w", err)
	}
	return out, nil
}

func (h *blueskyHandler) Archive(ctx context.Context, rawURL, workdir, cookiesPath string) (Capture, error) {
	handle, rkey, err := parseBlueskyPostURL(rawURL)
	if err != nil {
		return Capture{}, fmt.Errorf("bluesky: %w", err)
	}

	did, err := h.resolveDID(ctx, handle)
	if err != nil {
		return Capture{}, fmt.Errorf("bluesky: resolve handle %q: %w", handle, err)
	}

	thread, err := h.fetchThread(ctx, did, rkey)
	if err != nil {
		return Capture{}, fmt.Errorf("bluesky: %w", err)
	}

	flagged := len(thread.Thread.Post.Labels) > 0

	if thread.Thread.Post.Embed.Video != nil && thread.Thread.Post.Embed.Video.Playlist != "" {
		vc, err := h.video.Download(ctx, thread.Thread.Post.Embed.Video.Playlist, workdir, cookiesPath)
		if err != nil {
			return Capture{}, fmt.Errorf("bluesky: %w", err)
		}
		return Capture{
			PrimaryPath:   vc.VideoPath,
			ThumbnailPath: vc.ThumbnailPath,
			MetadataPath:  vc.MetadataPath,
			ExtraFiles:    subtitlePaths(vc.SubtitlePaths),
			Title:         thread.Thread.Post.Record.Text,
			Class:         ClassVideo,
			Platform:      "bluesky",
			NSFW:          flagged,
			NSFWSource:    labelSourceIf(flagged),
			CapturedAt:    time.Now(),
		}, nil
	}

	if len(thread.Thread.Post.Embed.Images) > 0 {
		gc, err := h.gallery.Download(ctx, rawURL, workdir, cookiesPath)
		if err != nil {
			return Capture{}, fmt.Errorf("bluesky: %w", err)
		}
		class := ClassImage
		if len(gc.Images) > 1 {
			class = ClassGallery
		}
		return Capture{
			PrimaryPath: gc.PrimaryHint,
			Title:       thread.Thread.Post.Record.Text,
			Class:       class,
			Platform:    "bluesky",
			NSFW:        flagged,
			NSFWSource:  labelSourceIf(flagged),
			CapturedAt:  time.Now(),
		}, nil
	}

	return Capture{
		Title:      thread.Thread.Post.Record.Text,
		Class:      ClassText,
		Platform:   "bluesky",
		NSFW:       flagged,
		NSFWSource: labelSourceIf(flagged),
		CapturedAt: time.Now(),
	}, nil
}

func labelSourceIf(flagged bool) string {
	if flagged {
		return "bluesky_content_label"
	}
	return ""
}
