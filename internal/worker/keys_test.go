// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package worker

import "testing"

func TestObjectStoreKeys_MatchDocumentedLayout(t *testing.T) {
	cases := []struct {
		name string
		got  string
		want string
	}{
		{"meta", metaKey(42), "archives/42/meta.json"},
		{"fetch", fetchKey(42, "raw.html"), "archives/42/fetch/raw.html"},
		{"render", renderKey(42, "screenshot.jpg"), "archives/42/render/screenshot.jpg"},
		{"text", textKey(42), "archives/42/text/extracted.txt"},
		{"media", mediaKey(42, "video.mp4"), "archives/42/media/video.mp4"},
		{"video", videoKey("abc123", "mp4"), "videos/abc123.mp4"},
		{"video info", videoInfoKey("abc123"), "videos/abc123.json"},
	}
	for _, c := range cases {
		if c.got != c.want {
			t.Errorf("%s: got %q, want %q", c.name, c.got, c.want)
		}
	}
}
