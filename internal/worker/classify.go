// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package worker

import (
	"errors"
	"net/url"

	"forumvault/internal/capture/video"
)

// outcome is what processArchive decides an attempt resolved to, driving
// which store transition the pool applies (spec §4.4's state machine).
type outcome int

const (
	outcomeComplete outcome = iota
	outcomeAuthRequired
	outcomeSkipped
	outcomeFailed
)

// classifyError maps a capture failure to a state machine outcome, per
// spec §4.4: "authentication failures -> auth_required (no retry counter
// increment); malformed URL / permanent HTTP 4xx -> skipped; everything
// else -> failed with backoff".
func classifyError(err error) outcome {
	if err == nil {
		return outcomeComplete
	}

	var captureErr *video.CaptureError
	if errors.As(err, &captureErr) {
		switch captureErr.Class {
		case video.FailureAuthRequired:
			return outcomeAuthRequired
		case video.FailureUnsupportedURL, video.FailureOverDuration:
			return outcomeSkipped
		default:
			return outcomeFailed
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && !urlErr.Temporary() { //nolint:staticcheck // Temporary is the cheapest classification signal go-ytdlp/http give us
		return outcomeSkipped
	}

	return outcomeFailed
}
