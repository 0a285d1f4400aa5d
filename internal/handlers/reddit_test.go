// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package handlers

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"forumvault/internal/capture/gallery"
	"forumvault/internal/capture/video"
)

// roundTripFunc lets a test stub an *http.Client without a real listener.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func jsonResponse(body string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func TestRedditHandler_Matches(t *testing.T) {
	h := newRedditHandler(&fakeVideoCapturer{}, &fakeGalleryCapturer{})
	if !h.Matches(mustParse(t, "https://www.reddit.com/r/aww/comments/abc/title/")) {
		t.Fatal("expected reddit.com to match")
	}
	if !h.Matches(mustParse(t, "https://redd.it/abc")) {
		t.Fatal("expected redd.it to match")
	}
	if h.Matches(mustParse(t, "https://notreddit.com/r/aww")) {
		t.Fatal("notreddit.com must not match")
	}
}

func TestRedditHandler_Normalize_RewritesHostToOldReddit(t *testing.T) {
	h := newRedditHandler(&fakeVideoCapturer{}, &fakeGalleryCapturer{})
	got, err := h.Normalize(context.Background(), "https://www.reddit.com/r/aww/comments/abc/title/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "https://old.reddit.com/r/aww/comments/abc/title/"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

const redditVideoListingJSON = `[{"data":{"children":[{"data":{"subreddit":"aww","over_18":false,"post_hint":"hosted:video","is_video":true}}]}}]`
const redditImageListingJSON = `[{"data":{"children":[{"data":{"subreddit":"nsfw_test","over_18":true,"post_hint":"image","is_video":false}}]}}]`

func TestRedditHandler_Archive_InvokesVideoWhenPostHintIsHostedVideo(t *testing.T) {
	fv := &fakeVideoCapturer{capture: video.Capture{VideoPath: "/tmp/v.mp4", Metadata: video.Metadata{VideoID: "xyz"}}}
	fg := &fakeGalleryCapturer{}
	h := newRedditHandler(fv, fg)
	h.httpClient = &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(redditVideoListingJSON), nil
	})}

	capture, err := h.Archive(context.Background(), "https://old.reddit.com/r/aww/comments/abc/title/", "/tmp/work", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if capture.Class != ClassVideo || capture.VideoID != "xyz" {
		t.Fatalf("expected video capture, got %+v", capture)
	}
}

func TestRedditHandler_Archive_FallsBackToGalleryAndFlagsNSFWFromSubreddit(t *testing.T) {
	fv := &fakeVideoCapturer{}
	fg := &fakeGalleryCapturer{capture: gallery.Capture{Images: []gallery.Image{{Path: "/tmp/1.jpg"}}, PrimaryHint: "/tmp/1.jpg"}}
	h := newRedditHandler(fv, fg)
	h.httpClient = &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(redditImageListingJSON), nil
	})}

	capture, err := h.Archive(context.Background(), "https://old.reddit.com/r/nsfw_test/comments/abc/title/", "/tmp/work", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if capture.Class != ClassImage {
		t.Fatalf("expected image capture, got %+v", capture)
	}
	if !capture.NSFW {
		t.Fatalf("expected NSFW subreddit pattern to flag this post, got %+v", capture)
	}
}

func TestRedditHandler_Archive_FallsBackToGalleryWhenJSONFetchFails(t *testing.T) {
	fv := &fakeVideoCapturer{}
	fg := &fakeGalleryCapturer{capture: gallery.Capture{Images: []gallery.Image{{Path: "/tmp/1.jpg"}}, PrimaryHint: "/tmp/1.jpg"}}
	h := newRedditHandler(fv, fg)
	h.httpClient = &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusInternalServerError, Body: io.NopCloser(strings.NewReader("")), Header: make(http.Header)}, nil
	})}

	capture, err := h.Archive(context.Background(), "https://old.reddit.com/r/aww/comments/abc/title/", "/tmp/work", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if capture.Class != ClassImage {
		t.Fatalf("expected fallback to gallery capture, got %+v", capture)
	}
}

func TestParseBlueskyPostURL(t *testing.T) {
	handle, rkey, err := parseBlueskyPostURL("https://bsky.app/profile/alice.bsky.social/post/3abcxyz")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if handle != "alice.bsky.social" || rkey != "3abcxyz" {
		t.Fatalf("got handle=%q rkey=%q", handle, rkey)
	}

	if _, _, err := parseBlueskyPostURL("https://bsky.app/profile/alice.bsky.social"); err == nil {
		t.Fatal("expected error for non-post URL")
	}
}
