// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gallery implements the gallery-capture capability (spec §6.3.2):
// a thin os/exec wrapper around the gallery-dl binary. No Go library exists
// for gallery-dl in the retrieval pack or the wider ecosystem, so this
// package talks to the external binary the same way go-ytdlp talks to
// yt-dlp internally — one isolated subprocess per capture, writing only
// into the archive's temp dir, bounded by a configurable timeout.
package gallery
