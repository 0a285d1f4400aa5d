// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package video implements the video-capture capability (spec §6.3.1): a
// two-step metadata-then-download flow around yt-dlp, wrapped through
// lrstanley/go-ytdlp's typed Command/Result API so capture code never
// shells out or parses CLI output by hand.
//
// Probe fetches metadata only (duration, average bitrate, platform video
// id) so the caller can run it through internal/bandwidth's quality
// decision before committing to a download; Download then does the actual
// fetch, constrained by the chosen quality cap and a hard timeout.
package video
