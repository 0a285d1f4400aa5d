// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "forumvault.db")
	s, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpen_AppliesMigrationsIdempotently(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forumvault.db")
	s1, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	s1.Close()

	s2, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("second Open (re-migrate): %v", err)
	}
	defer s2.Close()
}

func TestUpsertPost_NewThenEditedThenUnchanged(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	changed, err := s.UpsertPost(ctx, Post{ID: "p1", Title: "first", BodyHTML: "<p>a</p>", ContentHash: "h1", ProcessedAt: now})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if !changed {
		t.Fatal("expected new post to report changed=true")
	}

	changed, err = s.UpsertPost(ctx, Post{ID: "p1", Title: "first", BodyHTML: "<p>a</p>", ContentHash: "h1", ProcessedAt: now})
	if err != nil {
		t.Fatalf("re-upsert unchanged: %v", err)
	}
	if changed {
		t.Fatal("expected unchanged hash to report changed=false")
	}

	changed, err = s.UpsertPost(ctx, Post{ID: "p1", Title: "first", BodyHTML: "<p>b</p>", ContentHash: "h2", ProcessedAt: now})
	if err != nil {
		t.Fatalf("edit upsert: %v", err)
	}
	if !changed {
		t.Fatal("expected changed hash to report changed=true")
	}

	got, err := s.GetPost(ctx, "p1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ContentHash != "h2" {
		t.Fatalf("got hash %q, want h2", got.ContentHash)
	}
}

func TestUpsertLink_UniqueByNormalizedURL(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	l1, isNew, err := s.UpsertLink(ctx, "https://example.com/x", "https://example.com/x", "example.com", now)
	if err != nil || !isNew {
		t.Fatalf("first upsert: link=%v isNew=%v err=%v", l1, isNew, err)
	}

	l2, isNew, err := s.UpsertLink(ctx, "https://example.com/x", "https://example.com/x?ref=y", "example.com", now)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if isNew {
		t.Fatal("expected second upsert of same normalized URL to report isNew=false")
	}
	if l1.ID != l2.ID {
		t.Fatalf("expected same link id, got %d and %d", l1.ID, l2.ID)
	}
}

func TestQuoteOnlyPolicy(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	link, _, err := s.UpsertLink(ctx, "https://example.com/quoted", "https://example.com/quoted", "example.com", now)
	if err != nil {
		t.Fatalf("upsert link: %v", err)
	}
	if _, err := s.UpsertPost(ctx, Post{ID: "post-a", BodyHTML: "x", ContentHash: "h", ProcessedAt: now}); err != nil {
		t.Fatalf("upsert post: %v", err)
	}
	if _, err := s.InsertOccurrence(ctx, Occurrence{LinkID: link.ID, PostID: "post-a", InQuote: true, SightedAt: now}); err != nil {
		t.Fatalf("insert occurrence: %v", err)
	}

	allQuoted, err := s.AllOccurrencesInQuote(ctx, link.ID)
	if err != nil {
		t.Fatalf("AllOccurrencesInQuote: %v", err)
	}
	if !allQuoted {
		t.Fatal("expected all-in-quote to be true with a single quoted occurrence")
	}

	hasArchive, err := s.HasCompletedArchive(ctx, link.ID)
	if err != nil {
		t.Fatalf("HasCompletedArchive: %v", err)
	}
	if hasArchive {
		t.Fatal("expected no completed archive yet")
	}

	if _, err := s.InsertOccurrence(ctx, Occurrence{LinkID: link.ID, PostID: "post-a", InQuote: false, SightedAt: now}); err != nil {
		t.Fatalf("insert non-quote occurrence: %v", err)
	}
	allQuoted, err = s.AllOccurrencesInQuote(ctx, link.ID)
	if err != nil {
		t.Fatalf("AllOccurrencesInQuote after non-quote sighting: %v", err)
	}
	if allQuoted {
		t.Fatal("expected all-in-quote to become false once a non-quote occurrence exists")
	}
}

func TestArchiveLifecycle_ClaimCompleteFailSkip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	link, _, err := s.UpsertLink(ctx, "https://example.com/a", "https://example.com/a", "example.com", now)
	if err != nil {
		t.Fatalf("upsert link: %v", err)
	}
	archiveID, err := s.CreateArchive(ctx, link.ID, 0, now)
	if err != nil {
		t.Fatalf("create archive: %v", err)
	}

	claimed, err := s.ClaimNext(ctx, now)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claimed.ID != archiveID || claimed.Status != StatusProcessing {
		t.Fatalf("got archive %+v", claimed)
	}

	if _, err := s.ClaimNext(ctx, now); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound with nothing else pending, got %v", err)
	}

	if err := s.MarkComplete(ctx, archiveID, CompleteArchiveParams{Title: "t", ContentType: "text"}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	got, err := s.GetArchive(ctx, archiveID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusComplete {
		t.Fatalf("got status %q, want complete", got.Status)
	}
}

func TestMarkFailed_RetriesThenSkipsAfterMax(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	link, _, _ := s.UpsertLink(ctx, "https://slow.example/1", "https://slow.example/1", "slow.example", now)
	archiveID, err := s.CreateArchive(ctx, link.ID, 0, now)
	if err != nil {
		t.Fatalf("create archive: %v", err)
	}
	if _, err := s.ClaimNext(ctx, now); err != nil {
		t.Fatalf("claim: %v", err)
	}

	if err := s.MarkFailed(ctx, archiveID, "timeout", now.Add(5*time.Minute), 3); err != nil {
		t.Fatalf("mark failed 1: %v", err)
	}
	got, _ := s.GetArchive(ctx, archiveID)
	if got.Status != StatusFailed || got.RetryCount != 1 {
		t.Fatalf("got %+v", got)
	}

	if err := s.MarkFailed(ctx, archiveID, "timeout", now.Add(15*time.Minute), 3); err != nil {
		t.Fatalf("mark failed 2: %v", err)
	}
	if err := s.MarkFailed(ctx, archiveID, "timeout", now.Add(30*time.Minute), 3); err != nil {
		t.Fatalf("mark failed 3: %v", err)
	}
	got, _ = s.GetArchive(ctx, archiveID)
	if got.Status != StatusSkipped {
		t.Fatalf("expected skipped after reaching max retries, got %q", got.Status)
	}
}

func TestResetStaleProcessing_RecoversFromCrash(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	link, _, _ := s.UpsertLink(ctx, "https://example.com/b", "https://example.com/b", "example.com", now)
	archiveID, _ := s.CreateArchive(ctx, link.ID, 0, now)
	if _, err := s.ClaimNext(ctx, now); err != nil {
		t.Fatalf("claim: %v", err)
	}

	n, err := s.ResetStaleProcessing(ctx)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 row reset, got %d", n)
	}
	got, _ := s.GetArchive(ctx, archiveID)
	if got.Status != StatusPending {
		t.Fatalf("expected pending after recovery, got %q", got.Status)
	}

	processing, err := s.CountByStatus(ctx, StatusProcessing)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if processing != 0 {
		t.Fatalf("expected zero processing rows after recovery, got %d", processing)
	}
}

func TestVideoFileDeduplication(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if _, err := s.GetVideoFile(ctx, "youtube", "dQw4w9WgXcQ"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound before first insert, got %v", err)
	}

	id, err := s.InsertVideoFile(ctx, VideoFile{Platform: "youtube", VideoID: "dQw4w9WgXcQ", ObjectKey: "videos/dQw4w9WgXcQ.mp4", ByteSize: 1000, CreatedAt: now})
	if err != nil {
		t.Fatalf("insert video file: %v", err)
	}

	got, err := s.GetVideoFile(ctx, "youtube", "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("get video file: %v", err)
	}
	if got.ID != id || got.ObjectKey != "videos/dQw4w9WgXcQ.mp4" {
		t.Fatalf("got %+v", got)
	}
}

func TestJobSteps_StartAndFinish(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	link, _, _ := s.UpsertLink(ctx, "https://example.com/c", "https://example.com/c", "example.com", now)
	archiveID, _ := s.CreateArchive(ctx, link.ID, 0, now)

	stepID, err := s.StartJobStep(ctx, archiveID, JobStepDownload, now)
	if err != nil {
		t.Fatalf("start step: %v", err)
	}
	if err := s.FinishJobStep(ctx, stepID, JobStepOK, "", now.Add(time.Second)); err != nil {
		t.Fatalf("finish step: %v", err)
	}

	steps, err := s.JobStepsForArchive(ctx, archiveID)
	if err != nil {
		t.Fatalf("list steps: %v", err)
	}
	if len(steps) != 1 || steps[0].Status != JobStepOK {
		t.Fatalf("got %+v", steps)
	}
}

func TestListArchives_FiltersByStatusAndDomain(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	linkA, _, _ := s.UpsertLink(ctx, "https://a.example/1", "https://a.example/1", "a.example", now)
	linkB, _, _ := s.UpsertLink(ctx, "https://b.example/1", "https://b.example/1", "b.example", now)

	idA, _ := s.CreateArchive(ctx, linkA.ID, 0, now)
	idB, _ := s.CreateArchive(ctx, linkB.ID, 0, now.Add(time.Second))
	if err := s.MarkComplete(ctx, idA, CompleteArchiveParams{Title: "a", ContentType: "text"}); err != nil {
		t.Fatalf("complete a: %v", err)
	}

	all, err := s.ListArchives(ctx, ArchiveListFilter{})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 archives, got %d", len(all))
	}
	if all[0].ID != idB {
		t.Fatalf("expected newest-first, got %+v", all[0])
	}

	byStatus, err := s.ListArchives(ctx, ArchiveListFilter{Status: StatusComplete})
	if err != nil {
		t.Fatalf("list by status: %v", err)
	}
	if len(byStatus) != 1 || byStatus[0].ID != idA {
		t.Fatalf("expected only %d complete, got %+v", idA, byStatus)
	}

	byDomain, err := s.ListArchives(ctx, ArchiveListFilter{Domain: "b.example"})
	if err != nil {
		t.Fatalf("list by domain: %v", err)
	}
	if len(byDomain) != 1 || byDomain[0].ID != idB {
		t.Fatalf("expected only %d for b.example, got %+v", idB, byDomain)
	}
}

func TestSearchArchives_MatchesFullTextColumns(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	link, _, _ := s.UpsertLink(ctx, "https://example.com/thread", "https://example.com/thread", "example.com", now)
	id, err := s.CreateArchive(ctx, link.ID, 0, now)
	if err != nil {
		t.Fatalf("create archive: %v", err)
	}
	if err := s.MarkComplete(ctx, id, CompleteArchiveParams{Title: "A rare sighting of a narwhal", ContentType: "text"}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	results, err := s.SearchArchives(ctx, "narwhal", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].ID != id {
		t.Fatalf("expected archive %d to match, got %+v", id, results)
	}

	none, err := s.SearchArchives(ctx, "nonexistentterm", 10)
	if err != nil {
		t.Fatalf("search none: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no matches, got %+v", none)
	}
}

func TestVacuumInto_ProducesOpenableCopy(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	dest := filepath.Join(t.TempDir(), "snapshot.db")
	if err := s.VacuumInto(ctx, dest); err != nil {
		t.Fatalf("vacuum into: %v", err)
	}

	snap, err := Open(ctx, dest)
	if err != nil {
		t.Fatalf("open snapshot copy: %v", err)
	}
	defer snap.Close()
}
