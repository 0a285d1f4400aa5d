// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package normalize

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrUnsupportedScheme is returned for any URL whose scheme is not
// http or https.
var ErrUnsupportedScheme = errors.New("normalize: unsupported URL scheme")

// alwaysHTTPSHosts are hosts (and their subdomains) known to serve HTTPS
// universally; their links are upgraded even when the source used http.
var alwaysHTTPSHosts = map[string]bool{
	"reddit.com":    true,
	"twitter.com":   true,
	"x.com":         true,
	"youtube.com":   true,
	"youtu.be":      true,
	"imgur.com":     true,
	"github.com":    true,
	"wikipedia.org": true,
}

// trackingParamPrefixes and trackingParamKeys together define which
// query keys are stripped as tracking noise.
var trackingParamPrefixes = []string{"utm_"}

var trackingParamKeys = map[string]bool{
	"fbclid":  true,
	"gclid":   true,
	"mc_cid":  true,
	"mc_eid":  true,
	"ref":     true,
	"ref_src": true,
	"ref_url": true,
	"igshid":  true,
	"si":      true,
}

// shortHosts maps known link-shortener hosts to the Resolver step; the
// host is matched case-insensitively and without a port.
var shortHosts = map[string]bool{
	"redd.it":       true,
	"vm.tiktok.com": true,
}

// Resolver follows a short link to its long-form destination. Callers
// back this with a bounded-redirect HTTP client and a cache, since the
// same short link is frequently seen across many posts.
type Resolver interface {
	Resolve(ctx context.Context, shortURL string) (string, error)
}

// Normalizer applies the URL Normalizer's rules. The zero value has no
// Resolver and leaves short-link hosts unresolved (normalized but not
// expanded), which is still deterministic and safe for tests.
type Normalizer struct {
	Resolver Resolver
}

// New creates a Normalizer backed by resolver. resolver may be nil.
func New(resolver Resolver) *Normalizer {
	return &Normalizer{Resolver: resolver}
}

// Normalize reduces rawURL to its canonical form.
func (n *Normalizer) Normalize(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("normalize: parse %q: %w", rawURL, err)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	u.Scheme = scheme

	host := strings.ToLower(u.Hostname())
	if forceHTTPS(host) {
		u.Scheme = "https"
	}
	u.Host = stripDefaultPort(u.Scheme, host, u.Port())

	stripTrackingParams(u)

	u.Path = stripTrailingSlash(u.Path)

	canonicalizeSite(u)

	if n.Resolver != nil && isShortHost(u.Hostname()) {
		resolved, err := n.Resolver.Resolve(ctx, u.String())
		if err == nil && resolved != "" {
			long, err := url.Parse(resolved)
			if err == nil && (long.Scheme == "http" || long.Scheme == "https") {
				u = long
				u.Host = strings.ToLower(u.Host)
				stripTrackingParams(u)
				u.Path = stripTrailingSlash(u.Path)
				canonicalizeSite(u)
			}
		}
	}

	// url.Values.Encode sorts keys, so re-encoding here satisfies the
	// stable-query-order rule regardless of which path above set RawQuery.
	u.RawQuery = u.Query().Encode()

	return u.String(), nil
}

func forceHTTPS(host string) bool {
	for suffix := range alwaysHTTPSHosts {
		if host == suffix || strings.HasSuffix(host, "."+suffix) {
			return true
		}
	}
	return false
}

func stripDefaultPort(scheme, host, port string) string {
	if port == "" {
		return host
	}
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		return host
	}
	return host + ":" + port
}

func stripTrackingParams(u *url.URL) {
	q := u.Query()
	for key := range q {
		lower := strings.ToLower(key)
		if trackingParamKeys[lower] {
			q.Del(key)
			continue
		}
		for _, prefix := range trackingParamPrefixes {
			if strings.HasPrefix(lower, prefix) {
				q.Del(key)
				break
			}
		}
	}
	u.RawQuery = q.Encode()
}

func stripTrailingSlash(path string) string {
	if len(path) > 1 && strings.HasSuffix(path, "/") {
		return strings.TrimSuffix(path, "/")
	}
	return path
}

func canonicalizeSite(u *url.URL) {
	host := strings.ToLower(u.Hostname())
	switch {
	case host == "reddit.com" || host == "www.reddit.com" || host == "new.reddit.com":
		u.Host = "old.reddit.com"
	}
}

func isShortHost(host string) bool {
	return shortHosts[strings.ToLower(host)]
}
