// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package feed

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"

	"forumvault/internal/config"
	"forumvault/internal/linkextract"
	"forumvault/internal/logging"
	"forumvault/internal/normalize"
	"forumvault/internal/store"
)

// maxPaceMultiplier bounds the geometric backoff on the poll interval (spec
// §4.1 "adaptive pacing"): the interval never grows past base*maxPaceMultiplier.
const maxPaceMultiplier = 8

// Poller drives the Feed Poller's single-threaded polling loop: fetch,
// upsert posts, extract links, adapt its own pace. Lifecycle mirrors the
// teacher's PlexSessionPoller (Start/Serve/Stop over a ticker-driven
// pollLoop); there is no seen-set cache here because the Local Store's
// content-hash comparison in UpsertPost already answers "is this new or
// edited", durably, across restarts.
type Poller struct {
	cfg    config.FeedConfig
	store  *store.Store
	ingest *linkextract.Ingestor
	parser *gofeed.Parser

	mu          sync.Mutex
	running     bool
	stopChan    chan struct{}
	wg          sync.WaitGroup
	curInterval time.Duration
}

// New builds a Poller. normalizer resolves each occurrence's canonical URL;
// archivePolicy carries the quote-only override and archive-mode domain
// policy, enforced by the store adapter bridging to the Link Extractor.
func New(cfg config.FeedConfig, archivePolicy config.ArchivePolicy, s *store.Store, normalizer *normalize.Normalizer) *Poller {
	adapter := newStoreAdapter(s, archivePolicy)
	return &Poller{
		cfg:         cfg,
		store:       s,
		ingest:      linkextract.NewIngestor(adapter, normalizer),
		parser:      gofeed.NewParser(),
		stopChan:    make(chan struct{}),
		curInterval: cfg.PollInterval,
	}
}

// Start begins the polling loop.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.stopChan = make(chan struct{})
	p.mu.Unlock()

	logging.Info().Dur("interval", p.cfg.PollInterval).Str("url", p.cfg.RSSURL).Msg("feed: starting poller")

	p.wg.Add(1)
	go p.pollLoop(ctx)
	return nil
}

// Serve implements suture.Service for supervisor integration.
func (p *Poller) Serve(ctx context.Context) error {
	if err := p.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	p.Stop()
	return ctx.Err()
}

// Stop gracefully stops the polling loop.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stopChan)
	p.mu.Unlock()

	p.wg.Wait()
	logging.Info().Msg("feed: poller stopped")
}

func (p *Poller) pollLoop(ctx context.Context) {
	defer p.wg.Done()

	p.poll(ctx)

	timer := time.NewTimer(p.currentInterval())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopChan:
			return
		case <-timer.C:
			p.poll(ctx)
			timer.Reset(p.currentInterval())
		}
	}
}

func (p *Poller) currentInterval() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.curInterval
}

// poll fetches the feed, paginating up to RSSMaxPages, newest first, until
// either the page limit is reached or a page yields no unseen posts (spec
// §4.1). Adaptive pacing is adjusted once per poll call, not per page.
func (p *Poller) poll(ctx context.Context) {
	anyChanged := false

	for page := 1; page <= max(p.cfg.RSSMaxPages, 1); page++ {
		items, err := p.fetchPage(ctx, page)
		if err != nil {
			logging.Warn().Err(err).Int("page", page).Msg("feed: fetch failed, will retry next tick")
			break
		}
		if len(items) == 0 {
			break
		}

		pageChanged := false
		for _, item := range items {
			changed, err := p.processItem(ctx, item)
			if err != nil {
				logging.Warn().Err(err).Str("item", item.Link).Msg("feed: dropping malformed item")
				continue
			}
			if changed {
				pageChanged = true
			}
		}
		if !pageChanged {
			break
		}
		anyChanged = true
	}

	p.adjustPace(anyChanged)
}

func (p *Poller) fetchPage(ctx context.Context, page int) ([]*gofeed.Item, error) {
	feedURL := p.cfg.RSSURL
	if page > 1 {
		u, err := url.Parse(feedURL)
		if err != nil {
			return nil, fmt.Errorf("feed: parse RSS URL: %w", err)
		}
		q := u.Query()
		q.Set("page", strconv.Itoa(page))
		u.RawQuery = q.Encode()
		feedURL = u.String()
	}

	feed, err := p.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("feed: parse %s: %w", feedURL, err)
	}
	return feed.Items, nil
}

// processItem upserts the Post for item and, if it's new or edited, drives
// it through the Link Extractor. Returns whether the post changed.
func (p *Poller) processItem(ctx context.Context, item *gofeed.Item) (bool, error) {
	post, err := postFromItem(item)
	if err != nil {
		return false, err
	}

	changed, err := p.store.UpsertPost(ctx, post)
	if err != nil {
		return false, fmt.Errorf("upsert post %s: %w", post.ID, err)
	}
	if !changed {
		return false, nil
	}

	if _, err := p.ingest.IngestPost(ctx, post.ID, post.BodyHTML, post.URL, post.ProcessedAt); err != nil {
		return true, fmt.Errorf("ingest post %s: %w", post.ID, err)
	}
	return true, nil
}

func postFromItem(item *gofeed.Item) (store.Post, error) {
	if item.Link == "" {
		return store.Post{}, fmt.Errorf("feed item has no link")
	}

	id := item.GUID
	if id == "" {
		id = item.Link
	}

	body := item.Content
	if body == "" {
		body = item.Description
	}

	var author string
	if item.Author != nil {
		author = item.Author.Name
	}

	published := time.Now()
	if item.PublishedParsed != nil {
		published = *item.PublishedParsed
	}

	now := time.Now()
	return store.Post{
		ID:          id,
		Author:      author,
		Title:       item.Title,
		URL:         item.Link,
		BodyHTML:    body,
		ContentHash: contentHash(body),
		PublishedAt: published,
		ProcessedAt: now,
	}, nil
}

func contentHash(body string) string {
	sum := sha256.Sum256([]byte(body))
	return hex.EncodeToString(sum[:])
}

// adjustPace implements spec §4.1's adaptive pacing: zero new/edited posts
// doubles the interval up to maxPaceMultiplier*base; any change resets it.
func (p *Poller) adjustPace(changed bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	base := p.cfg.PollInterval
	if changed {
		p.curInterval = base
		return
	}
	next := p.curInterval * 2
	if ceiling := base * maxPaceMultiplier; next > ceiling {
		next = ceiling
	}
	p.curInterval = next
}
