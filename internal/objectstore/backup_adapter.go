// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package objectstore

import (
	"context"
	"io"

	"forumvault/internal/backup"
)

// BackupAdapter narrows a Gateway to the three-method shape the backup
// scheduler depends on (forumvault/internal/backup.ObjectStore), so the
// scheduler package never has to import the AWS SDK directly.
type BackupAdapter struct {
	gw *Gateway
}

// NewBackupAdapter wraps gw for use as a backup.ObjectStore.
func NewBackupAdapter(gw *Gateway) *BackupAdapter {
	return &BackupAdapter{gw: gw}
}

// Put uploads a database snapshot; content type is fixed since backup
// snapshots are always zstd-compressed SQLite files.
func (a *BackupAdapter) Put(ctx context.Context, key string, body io.Reader, size int64) error {
	return a.gw.Put(ctx, key, body, size, "application/zstd")
}

// List converts Gateway.List's result into the shape backup.ObjectStore
// expects.
func (a *BackupAdapter) List(ctx context.Context, prefix string) ([]backup.ObjectInfo, error) {
	objs, err := a.gw.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	out := make([]backup.ObjectInfo, len(objs))
	for i, o := range objs {
		out[i] = backup.ObjectInfo{Key: o.Key, Size: o.Size, LastModified: o.LastModified}
	}
	return out, nil
}

// Delete mirrors Gateway.Delete verbatim.
func (a *BackupAdapter) Delete(ctx context.Context, key string) error {
	return a.gw.Delete(ctx, key)
}
