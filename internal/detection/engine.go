// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package detection

import (
	"regexp"
	"strings"
)

// Signal is everything a handler can observe about a capture that bears on
// NSFW classification (spec §4.5 "NSFW detection"). Fields are populated
// only as far as the handler that ran knows them; zero values are treated
// as "not observed" rather than "false".
type Signal struct {
	// Subreddit is set by the Reddit handler when the post JSON names a
	// subreddit.
	Subreddit string
	// AgeLimit is yt-dlp's reported age_limit field, 0 if not reported.
	AgeLimit int
	// PlatformFlagged is set when the source platform's own API marks
	// the content (e.g. Twitter/X sensitive-media, Bluesky content
	// labels).
	PlatformFlagged bool
}

// Verdict is the outcome of evaluating a Signal: whether content is NSFW,
// and which rule decided it (recorded on the Archive row as nsfw_source,
// spec §3).
type Verdict struct {
	NSFW   bool
	Source string
}

// knownNSFWSubreddits matches subreddit names carrying an explicit adult
// marker; this is a heuristic allowlist, not a claim of completeness.
var knownNSFWSubreddits = regexp.MustCompile(`(?i)(nsfw|gonewild|porn|hentai|adult)`)

// rule is one entry in the registry: a name and a function that looks at a
// Signal and optionally reports NSFW. Rules are evaluated in order; the
// first to fire wins.
type rule struct {
	name  string
	check func(Signal) bool
}

var rules = []rule{
	{
		name:  "reddit_subreddit_pattern",
		check: func(s Signal) bool { return s.Subreddit != "" && knownNSFWSubreddits.MatchString(s.Subreddit) },
	},
	{
		name:  "yt_dlp_age_limit",
		check: func(s Signal) bool { return s.AgeLimit >= 18 },
	},
	{
		name:  "platform_flag",
		check: func(s Signal) bool { return s.PlatformFlagged },
	},
}

// Evaluate runs the rule registry over sig and returns the first matching
// verdict, or a non-NSFW verdict with an empty Source if nothing matched.
func Evaluate(sig Signal) Verdict {
	for _, r := range rules {
		if r.check(sig) {
			return Verdict{NSFW: true, Source: r.name}
		}
	}
	return Verdict{}
}

// IsKnownNSFWSubreddit exposes the subreddit pattern check directly, for
// handlers that want to short-circuit before other signals are available.
func IsKnownNSFWSubreddit(name string) bool {
	return name != "" && knownNSFWSubreddits.MatchString(strings.ToLower(name))
}
