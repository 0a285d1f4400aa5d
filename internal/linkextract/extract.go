// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package linkextract

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

// snippetRadius is how many characters of surrounding text spec §4.2
// asks for ("~120 characters of surrounding text").
const snippetRadius = 60

// quoteSelector matches the three quote shapes spec §4.2 names; compiled
// once so the DFS walk below does a single selector match per element
// instead of re-parsing CSS on every node.
var quoteSelector = cascadia.MustCompile("aside.quote, blockquote, div.quote")

var snippetSanitizer = bluemonday.StrictPolicy()

// Normalizer is the subset of normalize.Normalizer the extractor needs,
// kept narrow so this package doesn't import the concrete type.
type Normalizer interface {
	Normalize(ctx context.Context, rawURL string) (string, error)
}

// RawOccurrence is one anchor sighting found in a Post body, before it's
// matched against the Local Store's Link table.
type RawOccurrence struct {
	RawURL        string
	NormalizedURL string
	InQuote       bool
	Snippet       string
}

// Extract parses bodyHTML as a Post body and returns every http(s) anchor
// it contains, each tagged with whether it sits inside a quote block and
// a short surrounding-text snippet. postURL is used to absolutize
// relative hrefs. Anchors with non-http(s) schemes, or that fail to
// normalize, are silently dropped — a single malformed link never fails
// the whole extraction (spec §4.1's "a single bad item never blocks the
// batch" applies equally here).
func Extract(ctx context.Context, n Normalizer, bodyHTML, postURL string) ([]RawOccurrence, error) {
	base, err := url.Parse(postURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(bodyHTML))
	if err != nil {
		return nil, err
	}

	var out []RawOccurrence
	var walk func(node *html.Node, inQuote bool)
	walk = func(node *html.Node, inQuote bool) {
		if node.Type == html.ElementNode {
			if quoteSelector.Match(node) {
				inQuote = true
			}
			if node.Data == "a" {
				if href, ok := attr(node, "href"); ok {
					if occ, ok := buildOccurrence(ctx, n, base, node, href, inQuote); ok {
						out = append(out, occ)
					}
				}
			}
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child, inQuote)
		}
	}
	for _, n := range doc.Nodes {
		walk(n, false)
	}
	return out, nil
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func buildOccurrence(ctx context.Context, n Normalizer, base *url.URL, anchor *html.Node, href string, inQuote bool) (RawOccurrence, bool) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return RawOccurrence{}, false
	}
	absolute := base.ResolveReference(ref)
	if absolute.Scheme != "http" && absolute.Scheme != "https" {
		return RawOccurrence{}, false
	}

	normalized, err := n.Normalize(ctx, absolute.String())
	if err != nil {
		return RawOccurrence{}, false
	}

	return RawOccurrence{
		RawURL:        absolute.String(),
		NormalizedURL: normalized,
		InQuote:       inQuote,
		Snippet:       snippetSanitizer.Sanitize(surroundingText(anchor)),
	}, true
}

// surroundingText collects up to snippetRadius characters of text from
// either side of anchor within its parent, giving reviewers enough context
// to see why a link was archived without fetching the full post.
func surroundingText(anchor *html.Node) string {
	var beforeParts []string
	beforeLen := 0
	for sib := anchor.PrevSibling; sib != nil && beforeLen < snippetRadius; sib = sib.PrevSibling {
		t := textOf(sib)
		beforeParts = append(beforeParts, t)
		beforeLen += len(t)
	}
	// beforeParts was collected nearest-sibling-first; reverse for
	// reading order, then keep only the tail closest to the anchor.
	for i, j := 0, len(beforeParts)-1; i < j; i, j = i+1, j-1 {
		beforeParts[i], beforeParts[j] = beforeParts[j], beforeParts[i]
	}
	before := tailRunes(strings.Join(beforeParts, ""), snippetRadius)

	var after strings.Builder
	for sib := anchor.NextSibling; sib != nil && after.Len() < snippetRadius; sib = sib.NextSibling {
		after.WriteString(textOf(sib))
	}

	snippet := strings.TrimSpace(before + " " + anchorText(anchor) + " " + headRunes(after.String(), snippetRadius))
	return strings.Join(strings.Fields(snippet), " ")
}

func textOf(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textOf(c))
	}
	return sb.String()
}

func anchorText(n *html.Node) string {
	return strings.TrimSpace(textOf(n))
}

func tailRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}

func headRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
