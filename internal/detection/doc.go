// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package detection implements the NSFW detection heuristics referenced by
// spec §4.5: handler-specific signals (a Reddit subreddit name, yt-dlp's
// reported age_limit, a platform's own content flag) evaluated by a small
// ordered rule registry, in the spirit of the teacher's detection engine
// (rule-type-keyed evaluation producing a single verdict) repurposed here
// from session-anomaly rules to content-classification rules.
package detection
