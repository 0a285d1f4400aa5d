// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package submit

import "context"

// Submitter asks one third-party archiver to snapshot rawURL, returning
// the archiver's own URL for the resulting snapshot.
type Submitter interface {
	// Name identifies the submitter for rate limiting, metrics, and the
	// Archive row column it is allowed to set.
	Name() string
	Submit(ctx context.Context, rawURL string) (snapshotURL string, err error)
}
