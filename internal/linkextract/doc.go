// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package linkextract implements the Link Extractor (spec §4.2): it parses
// a Post's rendered HTML body, walks the DOM tagging every anchor with
// whether it sits inside a quote block, and produces the set of links with
// their absolutized URLs and surrounding-text snippets.
//
// The extractor is pure over its inputs — same HTML and post URL always
// produce the same occurrences, in the same order — so it's tested without
// any database or network dependency. The higher-level decision of whether
// a Link's extracted occurrences should create a new Archive (the
// quote-only skip policy) needs Local Store history and lives in
// internal/feed, which is the extractor's only caller.
package linkextract
