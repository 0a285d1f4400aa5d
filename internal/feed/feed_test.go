// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package feed

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"

	"forumvault/internal/config"
	"forumvault/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPostFromItem_PrefersGUIDOverLinkForID(t *testing.T) {
	item := &gofeed.Item{GUID: "guid-1", Link: "https://forum.example/t/1", Title: "hi", Content: "<p>body</p>"}
	post, err := postFromItem(item)
	if err != nil {
		t.Fatalf("postFromItem: %v", err)
	}
	if post.ID != "guid-1" {
		t.Fatalf("got id %q", post.ID)
	}
	if post.BodyHTML != "<p>body</p>" {
		t.Fatalf("got body %q", post.BodyHTML)
	}
}

func TestPostFromItem_FallsBackToLinkWhenNoGUID(t *testing.T) {
	item := &gofeed.Item{Link: "https://forum.example/t/2", Description: "desc"}
	post, err := postFromItem(item)
	if err != nil {
		t.Fatalf("postFromItem: %v", err)
	}
	if post.ID != "https://forum.example/t/2" {
		t.Fatalf("got id %q", post.ID)
	}
	if post.BodyHTML != "desc" {
		t.Fatalf("expected description fallback, got %q", post.BodyHTML)
	}
}

func TestPostFromItem_RejectsItemWithNoLink(t *testing.T) {
	if _, err := postFromItem(&gofeed.Item{}); err == nil {
		t.Fatalf("expected an error for a linkless item")
	}
}

func TestContentHash_DeterministicAndSensitiveToContent(t *testing.T) {
	a := contentHash("hello")
	b := contentHash("hello")
	c := contentHash("goodbye")
	if a != b {
		t.Fatalf("expected identical content to hash identically")
	}
	if a == c {
		t.Fatalf("expected different content to hash differently")
	}
}

func TestAdjustPace_DoublesOnNoChangeAndResetsOnChange(t *testing.T) {
	p := &Poller{cfg: config.FeedConfig{PollInterval: time.Minute}, curInterval: time.Minute}

	p.adjustPace(false)
	if p.curInterval != 2*time.Minute {
		t.Fatalf("expected interval to double, got %s", p.curInterval)
	}
	p.adjustPace(false)
	if p.curInterval != 4*time.Minute {
		t.Fatalf("expected interval to double again, got %s", p.curInterval)
	}

	p.adjustPace(true)
	if p.curInterval != time.Minute {
		t.Fatalf("expected a changed poll to reset the interval, got %s", p.curInterval)
	}
}

func TestAdjustPace_CapsAtMaxMultiplier(t *testing.T) {
	p := &Poller{cfg: config.FeedConfig{PollInterval: time.Minute}, curInterval: time.Minute}
	for i := 0; i < 10; i++ {
		p.adjustPace(false)
	}
	if p.curInterval != maxPaceMultiplier*time.Minute {
		t.Fatalf("expected interval to cap at %s, got %s", maxPaceMultiplier*time.Minute, p.curInterval)
	}
}

func TestStoreAdapter_DeletableModeSkipsNonEphemeralDomain(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	link, _, err := s.UpsertLink(ctx, "https://not-ephemeral.example/x", "https://not-ephemeral.example/x", "not-ephemeral.example", time.Now())
	if err != nil {
		t.Fatalf("UpsertLink: %v", err)
	}

	a := newStoreAdapter(s, config.ArchivePolicy{Mode: "deletable", EphemeralDomains: []string{"ephemeral.example"}})
	id, err := a.CreateArchive(ctx, link.ID, 0, time.Now())
	if err != nil {
		t.Fatalf("CreateArchive: %v", err)
	}
	if id != 0 {
		t.Fatalf("expected no archive created for a non-ephemeral domain under deletable mode, got id %d", id)
	}
}

func TestStoreAdapter_DeletableModeArchivesEphemeralDomain(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	link, _, err := s.UpsertLink(ctx, "https://ephemeral.example/x", "https://ephemeral.example/x", "ephemeral.example", time.Now())
	if err != nil {
		t.Fatalf("UpsertLink: %v", err)
	}

	a := newStoreAdapter(s, config.ArchivePolicy{Mode: "deletable", EphemeralDomains: []string{"ephemeral.example"}})
	id, err := a.CreateArchive(ctx, link.ID, 0, time.Now())
	if err != nil {
		t.Fatalf("CreateArchive: %v", err)
	}
	if id == 0 {
		t.Fatalf("expected an archive to be created for an ephemeral domain")
	}
}

func TestStoreAdapter_AllModeArchivesEveryDomain(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	link, _, err := s.UpsertLink(ctx, "https://anything.example/x", "https://anything.example/x", "anything.example", time.Now())
	if err != nil {
		t.Fatalf("UpsertLink: %v", err)
	}

	a := newStoreAdapter(s, config.ArchivePolicy{Mode: "all"})
	id, err := a.CreateArchive(ctx, link.ID, 0, time.Now())
	if err != nil {
		t.Fatalf("CreateArchive: %v", err)
	}
	if id == 0 {
		t.Fatalf("expected archive mode 'all' to archive any domain")
	}
}

func TestStoreAdapter_QuoteOnlyOverrideForcesArchive(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a := newStoreAdapter(s, config.ArchivePolicy{Mode: "all", QuoteOnlyLinks: true})
	allQuoted, err := a.AllOccurrencesInQuote(ctx, 1)
	if err != nil {
		t.Fatalf("AllOccurrencesInQuote: %v", err)
	}
	if allQuoted {
		t.Fatalf("expected override to report not-all-quoted so the Ingestor always archives")
	}
}
