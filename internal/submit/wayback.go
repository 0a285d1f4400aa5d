// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package submit

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// WaybackBaseURL is the Internet Archive's Save Page Now endpoint.
const WaybackBaseURL = "https://web.archive.org"

// WaybackSubmitter asks the Wayback Machine to snapshot a URL via its
// "Save Page Now" endpoint (spec §4.7 "POST save/{url}").
type WaybackSubmitter struct {
	baseURL string
	client  *http.Client
}

// NewWaybackSubmitter builds a WaybackSubmitter.
func NewWaybackSubmitter(timeout time.Duration) *WaybackSubmitter {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &WaybackSubmitter{
		baseURL: WaybackBaseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (w *WaybackSubmitter) Name() string { return "wayback" }

// Submit requests a fresh snapshot and returns its URL, read off the
// Content-Location header the Save Page Now endpoint sets on success.
func (w *WaybackSubmitter) Submit(ctx context.Context, rawURL string) (string, error) {
	resp, err := doWithBackoff(ctx, w.client, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodPost, w.baseURL+"/save/"+rawURL, nil)
	})
	if err != nil {
		return "", fmt.Errorf("wayback: submit %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return "", fmt.Errorf("wayback: submit %s: unexpected status %d", rawURL, resp.StatusCode)
	}

	loc := resp.Header.Get("Content-Location")
	if loc == "" {
		return "", fmt.Errorf("wayback: submit %s: no Content-Location in response", rawURL)
	}
	return w.baseURL + loc, nil
}
