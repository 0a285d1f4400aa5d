// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package worker

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"time"

	"forumvault/internal/store"
)

// uploadArtifact uploads the file at localPath to the object store under
// key, computes its content hash, and records an Artifact row for
// archiveID (spec §4.4 step 5: "classify, compute content hash, upload,
// insert an Artifact row"). Zero-byte files are skipped rather than
// rejected outright, since a sub-capability producing no output (e.g. no
// thumbnail) is routine, not an error.
func (p *Pool) uploadArtifact(ctx context.Context, archiveID int64, kind, localPath, key string) (store.Artifact, bool, error) {
	info, err := os.Stat(localPath)
	if err != nil {
		return store.Artifact{}, false, nil //nolint:nilerr // missing sub-capability output, not a failure
	}
	if info.Size() == 0 {
		return store.Artifact{}, false, nil
	}

	f, err := os.Open(localPath)
	if err != nil {
		return store.Artifact{}, false, fmt.Errorf("worker: open %s: %w", localPath, err)
	}
	defer f.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return store.Artifact{}, false, fmt.Errorf("worker: hash %s: %w", localPath, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return store.Artifact{}, false, fmt.Errorf("worker: rewind %s: %w", localPath, err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(localPath))
	if err := p.deps.Objects.Put(ctx, key, f, info.Size(), contentType); err != nil {
		return store.Artifact{}, false, fmt.Errorf("worker: upload %s: %w", key, err)
	}

	a := store.Artifact{
		ArchiveID:   archiveID,
		Kind:        kind,
		ObjectKey:   key,
		ContentType: contentType,
		ByteSize:    info.Size(),
		ContentHash: hex.EncodeToString(hasher.Sum(nil)),
		CreatedAt:   time.Now(),
	}
	id, err := p.deps.Store.InsertArtifact(ctx, a)
	if err != nil {
		return store.Artifact{}, false, fmt.Errorf("worker: record artifact %s: %w", key, err)
	}
	a.ID = id
	return a, true, nil
}
