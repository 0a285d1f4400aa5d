// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package backup

import (
	"context"
	"fmt"
	"sort"

	"forumvault/internal/logging"
)

// enforceRetention deletes uploaded snapshots beyond the configured
// retention count, oldest first. The object key's timestamp segment sorts
// lexicographically, but LastModified is used directly since it is already
// available from the store listing and does not depend on key format.
func (s *Scheduler) enforceRetention(ctx context.Context) error {
	if s.cfg.RetentionCount <= 0 {
		return nil
	}

	objects, err := s.obj.List(ctx, s.cfg.Prefix)
	if err != nil {
		return fmt.Errorf("list snapshots: %w", err)
	}
	if len(objects) <= s.cfg.RetentionCount {
		return nil
	}

	sort.Slice(objects, func(i, j int) bool {
		return objects[i].LastModified.Before(objects[j].LastModified)
	})

	stale := objects[:len(objects)-s.cfg.RetentionCount]
	var firstErr error
	for _, obj := range stale {
		if err := s.obj.Delete(ctx, obj.Key); err != nil {
			logging.Error().Err(err).Str("key", obj.Key).Msg("failed to delete stale backup snapshot")
			if firstErr == nil {
				firstErr = fmt.Errorf("delete %s: %w", obj.Key, err)
			}
			continue
		}
		logging.Info().Str("key", obj.Key).Msg("deleted stale backup snapshot")
	}
	return firstErr
}
