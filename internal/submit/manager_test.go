// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package submit

import (
	"context"
	"errors"
	"testing"
	"time"

	"forumvault/internal/cache"
	"forumvault/internal/config"
)

type fakeSubmitter struct {
	name        string
	snapshotURL string
	err         error
	calls       int
}

func (f *fakeSubmitter) Name() string { return f.name }

func (f *fakeSubmitter) Submit(ctx context.Context, rawURL string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.snapshotURL, nil
}

type fakeArchiveStore struct {
	waybackURL      string
	archiveTodayURL string
	calls           int
}

func (f *fakeArchiveStore) SetSubmissionURLs(ctx context.Context, id int64, waybackURL, archiveTodayURL string) error {
	f.calls++
	if waybackURL != "" {
		f.waybackURL = waybackURL
	}
	if archiveTodayURL != "" {
		f.archiveTodayURL = archiveTodayURL
	}
	return nil
}

func TestManager_SubmitAll_RecordsSnapshotURLOnSuccess(t *testing.T) {
	wayback := &fakeSubmitter{name: "wayback", snapshotURL: "https://web.archive.org/web/1/https://example.com"}
	store := &fakeArchiveStore{}
	m := &Manager{
		store: store,
		entries: []entry{
			{submitter: wayback, bucket: cache.NewRateBucketStore(5, time.Minute)},
		},
	}

	m.SubmitAll(context.Background(), 42, "https://example.com")

	if wayback.calls != 1 {
		t.Fatalf("expected submitter to be called once, got %d", wayback.calls)
	}
	if store.waybackURL != wayback.snapshotURL {
		t.Errorf("got wayback url %q, want %q", store.waybackURL, wayback.snapshotURL)
	}
	if store.archiveTodayURL != "" {
		t.Errorf("expected archive-today url untouched, got %q", store.archiveTodayURL)
	}
}

func TestManager_SubmitAll_FailureIsLoggedNotPropagated(t *testing.T) {
	failing := &fakeSubmitter{name: "wayback", err: errors.New("boom")}
	store := &fakeArchiveStore{}
	m := &Manager{
		store: store,
		entries: []entry{
			{submitter: failing, bucket: cache.NewRateBucketStore(5, time.Minute)},
		},
	}

	m.SubmitAll(context.Background(), 1, "https://example.com")

	if failing.calls != 1 {
		t.Fatalf("expected one attempt, got %d", failing.calls)
	}
	if store.calls != 0 {
		t.Errorf("expected no store write on failure, got %d calls", store.calls)
	}
}

func TestManager_SubmitAll_SkipsWhenRateBucketExhausted(t *testing.T) {
	sub := &fakeSubmitter{name: "archivetoday", snapshotURL: "https://archive.ph/abc"}
	store := &fakeArchiveStore{}
	bucket := cache.NewRateBucketStore(1, time.Minute)
	bucket.Allow("archivetoday") // exhaust the single token before the manager runs

	m := &Manager{
		store: store,
		entries: []entry{
			{submitter: sub, bucket: bucket},
		},
	}

	m.SubmitAll(context.Background(), 1, "https://example.com")

	if sub.calls != 0 {
		t.Errorf("expected submitter not to be called once bucket is exhausted, got %d calls", sub.calls)
	}
}

func TestManager_SubmitAll_RunsMultipleSubmittersIndependently(t *testing.T) {
	wayback := &fakeSubmitter{name: "wayback", snapshotURL: "https://web.archive.org/web/1/x"}
	archiveToday := &fakeSubmitter{name: "archivetoday", snapshotURL: "https://archive.ph/xyz"}
	store := &fakeArchiveStore{}
	m := &Manager{
		store: store,
		entries: []entry{
			{submitter: wayback, bucket: cache.NewRateBucketStore(5, time.Minute)},
			{submitter: archiveToday, bucket: cache.NewRateBucketStore(5, time.Minute)},
		},
	}

	m.SubmitAll(context.Background(), 7, "https://example.com")

	if store.waybackURL != wayback.snapshotURL || store.archiveTodayURL != archiveToday.snapshotURL {
		t.Errorf("expected both snapshot urls recorded, got wayback=%q archivetoday=%q", store.waybackURL, store.archiveTodayURL)
	}
}

func TestNewManager_BuildsOneEntryPerEnabledSubmitter(t *testing.T) {
	cfg := config.SubmitConfig{
		WaybackEnabled:      true,
		ArchiveTodayEnabled: true,
	}
	m := NewManager(cfg, &fakeArchiveStore{})
	if len(m.entries) != 2 {
		t.Fatalf("expected 2 entries for both submitters enabled, got %d", len(m.entries))
	}
}

func TestNewManager_DisabledSubmitterIsOmitted(t *testing.T) {
	cfg := config.SubmitConfig{WaybackEnabled: true, ArchiveTodayEnabled: false}
	m := NewManager(cfg, &fakeArchiveStore{})
	if len(m.entries) != 1 {
		t.Fatalf("expected 1 entry with only wayback enabled, got %d", len(m.entries))
	}
	if m.entries[0].submitter.Name() != "wayback" {
		t.Errorf("expected wayback entry, got %q", m.entries[0].submitter.Name())
	}
}
