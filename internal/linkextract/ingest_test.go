// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package linkextract

import (
	"context"
	"testing"
	"time"
)

type fakeLink struct {
	id           int64
	occurrences  []bool // in_quote per occurrence
	hasCompleted bool
	archivesMade int
}

type fakeStore struct {
	byURL  map[string]*fakeLink
	nextID int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{byURL: map[string]*fakeLink{}}
}

func (f *fakeStore) UpsertLink(ctx context.Context, normalizedURL, rawURL, domain string, seenAt time.Time) (LinkRef, bool, error) {
	if l, ok := f.byURL[normalizedURL]; ok {
		return LinkRef{ID: l.id, Domain: domain}, false, nil
	}
	f.nextID++
	l := &fakeLink{id: f.nextID}
	f.byURL[normalizedURL] = l
	return LinkRef{ID: l.id, Domain: domain}, true, nil
}

func (f *fakeStore) InsertOccurrence(ctx context.Context, linkID int64, postID string, inQuote bool, snippet string, sightedAt time.Time) (int64, error) {
	for _, l := range f.byURL {
		if l.id == linkID {
			l.occurrences = append(l.occurrences, inQuote)
		}
	}
	return linkID, nil
}

func (f *fakeStore) AllOccurrencesInQuote(ctx context.Context, linkID int64) (bool, error) {
	for _, l := range f.byURL {
		if l.id == linkID {
			if len(l.occurrences) == 0 {
				return false, nil
			}
			for _, q := range l.occurrences {
				if !q {
					return false, nil
				}
			}
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) HasCompletedArchive(ctx context.Context, linkID int64) (bool, error) {
	for _, l := range f.byURL {
		if l.id == linkID {
			return l.hasCompleted, nil
		}
	}
	return false, nil
}

func (f *fakeStore) CreateArchive(ctx context.Context, linkID int64, priority int, createdAt time.Time) (int64, error) {
	for _, l := range f.byURL {
		if l.id == linkID {
			l.archivesMade++
		}
	}
	return linkID, nil
}

func TestIngestPost_NewLinkInQuoteStillArchivedOnFirstSighting(t *testing.T) {
	store := newFakeStore()
	ig := NewIngestor(store, identityNormalizer{})

	body := `<blockquote><a href="https://example.com/x">x</a></blockquote>`
	created, err := ig.IngestPost(context.Background(), "post-1", body, "https://forum.example/t/1", time.Now())
	if err != nil {
		t.Fatalf("IngestPost: %v", err)
	}
	if created != 1 {
		t.Fatalf("expected 1 archive created for first sighting even in quote, got %d", created)
	}
}

func TestIngestPost_QuoteOnlyLinkWithCompletedArchiveSkipsReArchive(t *testing.T) {
	store := newFakeStore()
	ig := NewIngestor(store, identityNormalizer{})

	body := `<blockquote><a href="https://example.com/y">y</a></blockquote>`
	if _, err := ig.IngestPost(context.Background(), "post-1", body, "https://forum.example/t/1", time.Now()); err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	store.byURL["https://example.com/y"].hasCompleted = true

	created, err := ig.IngestPost(context.Background(), "post-2", body, "https://forum.example/t/2", time.Now())
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}
	if created != 0 {
		t.Fatalf("expected no new archive for quote-only link with a completed archive, got %d", created)
	}
	if store.byURL["https://example.com/y"].archivesMade != 1 {
		t.Fatalf("expected exactly 1 archive total, got %d", store.byURL["https://example.com/y"].archivesMade)
	}
}

func TestIngestPost_NonQuoteOccurrenceAlwaysArchives(t *testing.T) {
	store := newFakeStore()
	ig := NewIngestor(store, identityNormalizer{})

	quoted := `<blockquote><a href="https://example.com/z">z</a></blockquote>`
	if _, err := ig.IngestPost(context.Background(), "post-1", quoted, "https://forum.example/t/1", time.Now()); err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	store.byURL["https://example.com/z"].hasCompleted = true

	plain := `<p><a href="https://example.com/z">z again, not quoted</a></p>`
	created, err := ig.IngestPost(context.Background(), "post-2", plain, "https://forum.example/t/2", time.Now())
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}
	if created != 1 {
		t.Fatalf("expected a new archive once a non-quote occurrence appears, got %d", created)
	}
}
