// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package browser implements the browser-capture capability (spec §6.3.3):
// a headless-Chromium session, driven by chromedp, that can independently
// produce a full-page screenshot, a PDF, an MHTML snapshot, and (via the
// sibling internal/capture/monolith capability) a self-contained HTML page.
// chromedp is named, not grounded, per the out-of-pack-dependency rule: no
// repo in the retrieval pack drives a headless browser from Go, and
// chromedp is the standard ecosystem choice for Go + headless Chrome.
package browser
