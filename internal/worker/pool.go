// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package worker

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"forumvault/internal/cache"
	"forumvault/internal/capture/browser"
	"forumvault/internal/config"
	"forumvault/internal/handlers"
	"forumvault/internal/logging"
	"forumvault/internal/metrics"
	"forumvault/internal/store"
)

// ObjectStore is the subset of internal/objectstore.Gateway the pool
// depends on; *objectstore.Gateway satisfies it directly.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
}

// BrowserCapturer is the subset of internal/capture/browser.Capturer the
// pool needs to request the whole-page artifacts spec §4.5 says every
// handler additionally gets, regardless of which site handler ran.
type BrowserCapturer interface {
	Download(ctx context.Context, url, dir string, cookies []*browser.Cookie) (browser.Capture, error)
}

// MonolithCapturer is the subset of internal/capture/monolith.Capturer the
// pool needs for the self-contained HTML artifact.
type MonolithCapturer interface {
	Download(ctx context.Context, url, dir, cookiesPath string) (string, error)
}

// Submitter is the subset of internal/submit.Manager the pool invokes as
// the last step of a completed archive's pipeline (spec §5: "database
// update → submitter"). Submission failures never reach the caller.
type Submitter interface {
	SubmitAll(ctx context.Context, archiveID int64, rawURL string)
}

// Deps bundles the Pool's external collaborators.
type Deps struct {
	Store    *store.Store
	Registry *handlers.Registry
	Objects  ObjectStore
	Browser  BrowserCapturer
	Monolith MonolithCapturer
	Submit   Submitter
}

// claimInterval is how often an idle worker goroutine polls for a
// claimable archive when it isn't already holding one.
const claimInterval = 2 * time.Second

// Pool drives Archives through the state machine of spec §4.4: a fixed
// number of goroutines (WORKER_CONCURRENCY) each loop claim-dispatch-
// complete, bounded additionally per domain by a counted semaphore and a
// circuit breaker. Lifecycle (Start/Serve/Stop over a WaitGroup) mirrors
// internal/feed.Poller and, behind that, the teacher's
// internal/sync.Manager goroutine-orchestration idiom.
type Pool struct {
	cfg     config.WorkerConfig
	browser config.BrowserConfig
	cookies config.CookiesConfig
	deps    Deps

	domainSem *cache.DomainSemaphores
	breakers  *domainBreakers
	global    chan struct{}

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// New builds a Pool.
func New(cfg config.WorkerConfig, browserCfg config.BrowserConfig, cookiesCfg config.CookiesConfig, deps Deps) *Pool {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Pool{
		cfg:       cfg,
		browser:   browserCfg,
		cookies:   cookiesCfg,
		deps:      deps,
		domainSem: cache.NewDomainSemaphores(maxInt(cfg.PerDomainConcurrency, 1)),
		breakers:  newDomainBreakers(),
		global:    make(chan struct{}, concurrency),
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Start performs crash recovery (spec §4.4 "Startup recovery") and begins
// concurrency-bounded claim loops.
func (p *Pool) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.stopChan = make(chan struct{})
	p.mu.Unlock()

	if n, err := p.deps.Store.ResetStaleProcessing(ctx); err != nil {
		logging.Warn().Err(err).Msg("worker: reset stale processing failed")
	} else if n > 0 {
		logging.Info().Int64("count", n).Msg("worker: recovered stale processing archives")
	}
	if n, err := p.deps.Store.ResetSameDayFailed(ctx, time.Now()); err != nil {
		logging.Warn().Err(err).Msg("worker: reset same-day failed rows failed")
	} else if n > 0 {
		logging.Info().Int64("count", n).Msg("worker: accelerated same-day failed archives")
	}

	concurrency := cap(p.global)
	logging.Info().Int("concurrency", concurrency).Int("per_domain", p.cfg.PerDomainConcurrency).
		Msg("worker: starting archive pool")

	p.wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go p.claimLoop(ctx)
	}
	return nil
}

// Serve implements suture.Service for supervisor integration.
func (p *Pool) Serve(ctx context.Context) error {
	if err := p.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	p.Stop()
	return ctx.Err()
}

// String implements suture.Service's named-service introspection.
func (p *Pool) String() string { return "archive-worker-pool" }

// Stop signals every claim loop to finish its current archive and exit.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stopChan)
	p.mu.Unlock()

	p.wg.Wait()
	logging.Info().Msg("worker: archive pool stopped")
}

func (p *Pool) claimLoop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(claimInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopChan:
			return
		case <-ticker.C:
			p.claimAndProcessOne(ctx)
		}
	}
}

// claimAndProcessOne claims at most one archive and runs it to completion,
// holding the pool's global permit for the duration (the per-domain permit
// is acquired once the archive's domain is known).
func (p *Pool) claimAndProcessOne(ctx context.Context) {
	select {
	case p.global <- struct{}{}:
	case <-ctx.Done():
		return
	case <-p.stopChan:
		return
	}
	defer func() { <-p.global }()

	archive, err := p.deps.Store.ClaimNext(ctx, time.Now())
	if errors.Is(err, store.ErrNotFound) {
		return
	}
	if err != nil {
		logging.Warn().Err(err).Msg("worker: claim failed")
		return
	}
	metrics.RecordArchiveClaim()

	domain, err := p.deps.Store.LinkDomain(ctx, archive.LinkID)
	if err != nil {
		logging.Error().Err(err).Int64("archive_id", archive.ID).Msg("worker: resolve link domain failed")
		p.markFailed(ctx, archive, err)
		return
	}

	if !p.domainSem.Acquire(ctx, domain) {
		p.markFailed(ctx, archive, ctx.Err())
		return
	}
	defer p.domainSem.Release(domain)

	p.process(ctx, archive, domain)
}

// workRoot returns the isolated temporary directory for one archive
// attempt, created fresh and removed unconditionally on every exit path
// (spec §4.4 "Isolation").
func (p *Pool) workRoot(archiveID int64) (string, error) {
	root := p.cfg.WorkRoot
	if root == "" {
		root = os.TempDir()
	}
	dir := filepath.Join(root, "archive-"+strconv.FormatInt(archiveID, 10))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}
