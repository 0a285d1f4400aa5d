// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

var errBackupInProgress = errors.New("backup: a run is already in progress")

// defaultKeyTimeFormat matches spec's backups/db/archive_{timestamp}.sqlite.zst
// layout; colons are avoided since some object stores reject them in keys.
const defaultKeyTimeFormat = "20060102T150405Z"

// runOnce produces one snapshot and uploads it, returning the object key
// and uploaded size on success.
func (s *Scheduler) runOnce(ctx context.Context) (string, int64, error) {
	tmpDir, err := os.MkdirTemp("", "forumvault-backup-*")
	if err != nil {
		return "", 0, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir) //nolint:errcheck // best-effort cleanup

	snapshotPath := filepath.Join(tmpDir, "snapshot.sqlite")
	if err := s.store.VacuumInto(ctx, snapshotPath); err != nil {
		return "", 0, fmt.Errorf("vacuum into snapshot: %w", err)
	}

	compressedPath := filepath.Join(tmpDir, "snapshot.sqlite.zst")
	if err := compressFile(snapshotPath, compressedPath); err != nil {
		return "", 0, fmt.Errorf("compress snapshot: %w", err)
	}

	f, err := os.Open(compressedPath)
	if err != nil {
		return "", 0, fmt.Errorf("open compressed snapshot: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only handle

	info, err := f.Stat()
	if err != nil {
		return "", 0, fmt.Errorf("stat compressed snapshot: %w", err)
	}

	key := s.cfg.Prefix + "archive_" + timeNowFunc().UTC().Format(defaultKeyTimeFormat) + ".sqlite.zst"
	if err := s.obj.Put(ctx, key, f, info.Size()); err != nil {
		return "", 0, fmt.Errorf("upload snapshot: %w", err)
	}

	return key, info.Size(), nil
}

// compressFile streams src through a zstd encoder into dst.
func compressFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close() //nolint:errcheck // read-only handle

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		closeErr := out.Close()
		if err == nil {
			err = closeErr
		}
	}()

	enc, err := zstd.NewWriter(out)
	if err != nil {
		return fmt.Errorf("create zstd encoder: %w", err)
	}
	defer func() {
		closeErr := enc.Close()
		if err == nil {
			err = closeErr
		}
	}()

	if _, err := enc.ReadFrom(in); err != nil {
		return fmt.Errorf("compress: %w", err)
	}
	return nil
}
