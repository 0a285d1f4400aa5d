// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package handlers implements the Site Handler Registry (spec §4.5): an
// ordered set of per-site Handlers, resolved by URL, each delegating to the
// video/gallery/browser/monolith capture capabilities in internal/capture
// and recording NSFW signals through internal/detection. The registry
// pattern is grounded on the teacher's internal/detection.Engine (a map/
// slice of named rules evaluated in order, first match wins) repurposed
// here from "rule per anomaly type" to "handler per URL shape".
//
// Handlers depend on capture capabilities through narrow interfaces
// (VideoCapturer, GalleryCapturer, BrowserCapturer, MonolithCapturer)
// rather than the concrete internal/capture/* types, so they can be
// exercised in tests without invoking yt-dlp, gallery-dl, chromedp, or
// monolith.
package handlers
