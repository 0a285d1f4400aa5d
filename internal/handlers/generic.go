// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"
)

// politeCrawlInterval is the minimum spacing between two generic fetches of
// the same domain (spec §5 "polite" outbound pacing for handlers without
// their own rate-limited client library).
const politeCrawlInterval = 2 * time.Second

// genericHandler is the always-present fallback (spec §4.5 "Generic HTTP
// handler"): it fetches the page, records the final HTTP status, and
// extracts a title, OpenGraph metadata, and readable text via goquery —
// the same HTML-parsing library the Link Extractor uses. It is never
// matched against directly; Registry.Resolve returns it only when no
// specific handler claims the URL.
type genericHandler struct {
	httpClient *http.Client

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func newGenericHandler() *genericHandler {
	return &genericHandler{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		limiters: make(map[string]*rate.Limiter),
	}
}

// limiterFor returns the per-domain token bucket that paces generic
// fetches, creating one on first use.
func (h *genericHandler) limiterFor(domain string) *rate.Limiter {
	h.mu.Lock()
	defer h.mu.Unlock()
	l, ok := h.limiters[domain]
	if !ok {
		l = rate.NewLimiter(rate.Every(politeCrawlInterval), 1)
		h.limiters[domain] = l
	}
	return l
}

func (h *genericHandler) ID() string { return "generic" }

// Matches is never consulted: the fallback is only reached via Registry's
// dedicated fallback slot.
func (h *genericHandler) Matches(u *url.URL) bool { return false }

func (h *genericHandler) Normalize(ctx context.Context, rawURL string) (string, error) {
	return rawURL, nil
}

func (h *genericHandler) Archive(ctx context.Context, rawURL, workdir, cookiesPath string) (Capture, error) {
	if parsed, err := url.Parse(rawURL); err == nil && parsed.Hostname() != "" {
		if err := h.limiterFor(parsed.Hostname()).Wait(ctx); err != nil {
			return Capture{}, fmt.Errorf("generic: rate limit wait: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Capture{}, fmt.Errorf("generic: build request: %w", err)
	}
	req.Header.Set("User-Agent", "forumvault-archivist/1.0")
	if cookiesPath != "" {
		if body, err := os.ReadFile(cookiesPath); err == nil {
			req.Header.Set("Cookie", strings.TrimSpace(string(body)))
		}
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return Capture{}, fmt.Errorf("generic: %w", err)
	}
	defer resp.Body.Close()

	rawHTML, err := io.ReadAll(resp.Body)
	if err != nil {
		return Capture{}, fmt.Errorf("generic: read body: %w", err)
	}

	if err := os.MkdirAll(workdir, 0o755); err != nil {
		return Capture{}, fmt.Errorf("generic: mkdir workdir: %w", err)
	}
	rawPath := filepath.Join(workdir, "page.html")
	if err := os.WriteFile(rawPath, rawHTML, 0o644); err != nil {
		return Capture{}, fmt.Errorf("generic: write page.html: %w", err)
	}

	title, description, author, text := extractPageMeta(rawHTML)

	var textPath string
	if text != "" {
		textPath = filepath.Join(workdir, "text.txt")
		if err := os.WriteFile(textPath, []byte(text), 0o644); err != nil {
			return Capture{}, fmt.Errorf("generic: write text.txt: %w", err)
		}
	}

	var extras []string
	if textPath != "" {
		extras = append(extras, textPath)
	}

	return Capture{
		PrimaryPath: rawPath,
		ExtraFiles:  extras,
		Title:       title,
		Author:      author,
		Description: description,
		Class:       ClassText,
		Platform:    "generic",
		HTTPStatus:  resp.StatusCode,
		CapturedAt:  time.Now(),
	}, nil
}

// extractPageMeta pulls a title, description, author, and a readable-text
// approximation out of an HTML document, preferring OpenGraph tags over
// their plain-HTML equivalents.
func extractPageMeta(rawHTML []byte) (title, description, author, text string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(rawHTML)))
	if err != nil {
		return "", "", "", ""
	}

	title = metaContent(doc, "meta[property='og:title']")
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	description = metaContent(doc, "meta[property='og:description']")
	if description == "" {
		description = metaContent(doc, "meta[name='description']")
	}

	author = metaContent(doc, "meta[name='author']")
	if author == "" {
		author = metaContent(doc, "meta[property='article:author']")
	}

	doc.Find("script, style, noscript").Remove()
	text = strings.Join(strings.Fields(doc.Find("body").Text()), " ")

	return title, description, author, text
}

func metaContent(doc *goquery.Document, selector string) string {
	val, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(val)
}
