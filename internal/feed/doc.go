// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package feed implements the Feed Poller (spec §4.1): a single-threaded
// polling loop over the forum's RSS/Atom feed, grounded on the teacher's
// internal/sync.PlexSessionPoller (Start/Serve/Stop lifecycle, ticker-driven
// pollLoop, LRU-backed seen-set). Where the teacher polls a media server for
// sessions and republishes to NATS, this poller parses a syndication feed
// with mmcdole/gofeed, detects new/edited posts by content hash, and drives
// each one through the Link Extractor's Ingestor.
//
// storeAdapter bridges *internal/store.Store to linkextract.Store: the two
// packages deliberately use different (narrower vs. concrete) signatures,
// so this is where the translation lives rather than leaking Store's
// concrete return types into linkextract's narrow interface.
package feed
