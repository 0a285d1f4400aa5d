// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package normalize implements the URL Normalizer: a pure function from
// a raw URL to the canonical form used as the Link's deduplication key.
//
// Normalization, applied in order:
//  1. Parse; reject non-http(s) schemes.
//  2. Force https on hosts where it is universally available.
//  3. Lowercase the host; strip default ports.
//  4. Strip tracking query parameters (utm_*, fbclid, gclid, ...).
//  5. Remove a trailing slash on non-root paths.
//  6. Site-specific canonicalization: rewrite Reddit hosts to
//     old.reddit.com; resolve known short-link hosts to their long form
//     by following a bounded number of redirects.
//  7. Sort remaining query parameters by key for stable output.
//
// Steps 1-5 and 7 are pure. Step 6's short-host resolution needs a
// network round trip, so it goes through the Resolver interface, which
// a caller backs with a cached, bounded HTTP redirect follower.
package normalize
