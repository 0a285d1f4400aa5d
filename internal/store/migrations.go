// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"fmt"
)

// migration is a versioned, append-only schema change. Migrations are
// never edited or removed once released; new ones are added with the next
// version number.
type migration struct {
	Version     int
	Name        string
	Description string
	SQL         string
}

const schemaMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version     INTEGER PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT,
	applied_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// migrations returns every migration in order. The full schema (spec §3)
// is consolidated into version 1 since this is a from-scratch system with
// no installed base to carry forward; later structural changes start at 2.
func migrations() []migration {
	return []migration{
		{
			Version:     1,
			Name:        "initial_schema",
			Description: "posts, links, occurrences, archives, artifacts, video files, job steps",
			SQL: `
CREATE TABLE posts (
	id                 TEXT PRIMARY KEY,
	author             TEXT,
	title              TEXT,
	url                TEXT NOT NULL,
	body_html          TEXT NOT NULL,
	content_hash       TEXT NOT NULL,
	published_at       TIMESTAMP,
	processed_at       TIMESTAMP NOT NULL,
	thread_id          TEXT,
	position_in_thread INTEGER
);

CREATE TABLE links (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	normalized_url   TEXT NOT NULL UNIQUE,
	raw_url          TEXT NOT NULL,
	final_url        TEXT,
	domain           TEXT NOT NULL,
	first_seen_at    TIMESTAMP NOT NULL,
	last_archived_at TIMESTAMP
);
CREATE INDEX idx_links_domain ON links(domain);

CREATE TABLE link_occurrences (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	link_id    INTEGER NOT NULL REFERENCES links(id),
	post_id    TEXT NOT NULL REFERENCES posts(id),
	in_quote   BOOLEAN NOT NULL DEFAULT 0,
	snippet    TEXT,
	sighted_at TIMESTAMP NOT NULL
);
CREATE INDEX idx_occurrences_link ON link_occurrences(link_id);
CREATE INDEX idx_occurrences_post ON link_occurrences(post_id);

CREATE TABLE archives (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	link_id           INTEGER NOT NULL REFERENCES links(id),
	status            TEXT NOT NULL DEFAULT 'pending',
	priority          INTEGER NOT NULL DEFAULT 0,
	retry_count       INTEGER NOT NULL DEFAULT 0,
	next_retry_at     TIMESTAMP,
	last_attempt_at   TIMESTAMP,
	created_at        TIMESTAMP NOT NULL,
	title             TEXT,
	author            TEXT,
	description       TEXT,
	content_type      TEXT,
	primary_key       TEXT,
	thumbnail_key     TEXT,
	wayback_url       TEXT,
	archive_today_url TEXT,
	nsfw              BOOLEAN NOT NULL DEFAULT 0,
	nsfw_source       TEXT,
	last_error        TEXT,
	extracted_text    TEXT
);
CREATE INDEX idx_archives_selection ON archives(status, priority DESC, created_at ASC);
CREATE INDEX idx_archives_link ON archives(link_id);

CREATE VIRTUAL TABLE archive_fts USING fts5(
	title, author, description, extracted_text,
	content='archives', content_rowid='id'
);

CREATE TABLE video_files (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	platform         TEXT NOT NULL,
	video_id         TEXT NOT NULL,
	object_key       TEXT NOT NULL,
	metadata_key     TEXT,
	byte_size        INTEGER NOT NULL,
	content_type     TEXT,
	duration_seconds INTEGER,
	created_at       TIMESTAMP NOT NULL,
	UNIQUE(platform, video_id)
);

CREATE TABLE artifacts (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	archive_id      INTEGER NOT NULL REFERENCES archives(id),
	kind            TEXT NOT NULL,
	object_key      TEXT NOT NULL,
	content_type    TEXT,
	byte_size       INTEGER NOT NULL,
	content_hash    TEXT NOT NULL,
	perceptual_hash TEXT,
	video_file_id   INTEGER REFERENCES video_files(id),
	metadata        TEXT,
	created_at      TIMESTAMP NOT NULL
);
CREATE INDEX idx_artifacts_archive ON artifacts(archive_id);

CREATE TABLE archive_job_steps (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	archive_id INTEGER NOT NULL REFERENCES archives(id),
	step       TEXT NOT NULL,
	status     TEXT NOT NULL,
	started_at TIMESTAMP NOT NULL,
	ended_at   TIMESTAMP,
	error      TEXT
);
CREATE INDEX idx_job_steps_archive ON archive_job_steps(archive_id);
`,
		},
	}
}

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaMigrationsTable); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	applied := make(map[int]bool)
	rows, err := s.db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("query applied migrations: %w", err)
	}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return fmt.Errorf("scan applied migration: %w", err)
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	for _, m := range migrations() {
		if applied[m.Version] {
			continue
		}
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration v%d: %w", m.Version, err)
		}
		if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("apply migration v%d (%s): %w", m.Version, m.Name, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO schema_migrations (version, name, description) VALUES (?, ?, ?)`,
			m.Version, m.Name, m.Description,
		); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("record migration v%d: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration v%d: %w", m.Version, err)
		}
	}
	return nil
}
