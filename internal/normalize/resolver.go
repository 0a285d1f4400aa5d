// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package normalize

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// ErrTooManyRedirects is returned when a short link redirects more
// times than MaxRedirects allows.
var ErrTooManyRedirects = errors.New("normalize: too many redirects")

const redirectCacheTTL = 30 * 24 * time.Hour

// RedirectResolver resolves short-link hosts to their long-form
// destination by following a bounded chain of HTTP redirects, caching
// the result in BadgerDB so the same short link is only resolved once.
// The cache is a read-through accelerator in front of network calls,
// never authoritative: a cache miss or stale entry just costs a round
// trip, it never produces incorrect data.
type RedirectResolver struct {
	httpClient   *http.Client
	cache        *badger.DB
	maxRedirects int
}

// NewRedirectResolver creates a resolver backed by cache, following at
// most maxRedirects hops per short link. maxRedirects <= 0 defaults to 5.
func NewRedirectResolver(cache *badger.DB, maxRedirects int) *RedirectResolver {
	if maxRedirects <= 0 {
		maxRedirects = 5
	}
	return &RedirectResolver{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return ErrTooManyRedirects
				}
				return nil
			},
		},
		cache:        cache,
		maxRedirects: maxRedirects,
	}
}

func redirectCacheKey(shortURL string) []byte {
	return []byte("redirect:" + shortURL)
}

// Resolve returns shortURL's long-form destination, consulting the
// cache first and populating it on a successful network resolution.
func (r *RedirectResolver) Resolve(ctx context.Context, shortURL string) (string, error) {
	if r.cache != nil {
		if cached, ok := r.lookup(shortURL); ok {
			return cached, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, shortURL, nil)
	if err != nil {
		return "", fmt.Errorf("normalize: build redirect request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("normalize: resolve %s: %w", shortURL, err)
	}
	defer resp.Body.Close() //nolint:errcheck // GET-less HEAD response has no meaningful body

	resolved := resp.Request.URL.String()

	if r.cache != nil {
		r.store(shortURL, resolved)
	}
	return resolved, nil
}

func (r *RedirectResolver) lookup(shortURL string) (string, bool) {
	var value string
	err := r.cache.View(func(txn *badger.Txn) error {
		item, err := txn.Get(redirectCacheKey(shortURL))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			value = string(val)
			return nil
		})
	})
	return value, err == nil
}

func (r *RedirectResolver) store(shortURL, resolved string) {
	_ = r.cache.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(redirectCacheKey(shortURL), []byte(resolved)).WithTTL(redirectCacheTTL)
		return txn.SetEntry(entry)
	})
}
