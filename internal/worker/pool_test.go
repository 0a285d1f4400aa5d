// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package worker

import (
	"context"
	"testing"
	"time"

	"forumvault/internal/config"
	"forumvault/internal/handlers"
)

func TestPool_StringIdentifiesTheService(t *testing.T) {
	s := openTestStore(t)
	p := New(config.WorkerConfig{}, config.BrowserConfig{}, config.CookiesConfig{}, Deps{
		Store: s, Registry: handlers.NewRegistry(nil), Objects: newFakeObjectStore(),
	})
	if p.String() != "archive-worker-pool" {
		t.Fatalf("got %q", p.String())
	}
}

func TestPool_New_DefaultsConcurrencyToOne(t *testing.T) {
	s := openTestStore(t)
	p := New(config.WorkerConfig{Concurrency: 0}, config.BrowserConfig{}, config.CookiesConfig{}, Deps{
		Store: s, Registry: handlers.NewRegistry(nil), Objects: newFakeObjectStore(),
	})
	if cap(p.global) != 1 {
		t.Fatalf("expected default concurrency of 1, got %d", cap(p.global))
	}
}

func TestPool_StartAndStop_IsIdempotentAndQuiescesClaimLoops(t *testing.T) {
	s := openTestStore(t)
	p := New(config.WorkerConfig{Concurrency: 2, PerDomainConcurrency: 1}, config.BrowserConfig{}, config.CookiesConfig{}, Deps{
		Store: s, Registry: handlers.NewRegistry(nil), Objects: newFakeObjectStore(),
	})

	ctx := context.Background()
	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	// Starting again while already running must be a no-op, not a second
	// set of goroutines racing the first.
	if err := p.Start(ctx); err != nil {
		t.Fatalf("second Start: %v", err)
	}

	time.Sleep(10 * time.Millisecond)
	p.Stop()
	// Stopping an already-stopped pool must not panic or block.
	p.Stop()
}

func TestPool_Serve_ReturnsWhenContextCancelled(t *testing.T) {
	s := openTestStore(t)
	p := New(config.WorkerConfig{Concurrency: 1}, config.BrowserConfig{}, config.CookiesConfig{}, Deps{
		Store: s, Registry: handlers.NewRegistry(nil), Objects: newFakeObjectStore(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Serve(ctx) }()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected Serve to return the cancellation error")
		}
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after context cancellation")
	}
}
