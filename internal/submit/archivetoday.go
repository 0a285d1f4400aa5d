// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package submit

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ArchiveTodayBaseURL is the archive.today submission endpoint.
const ArchiveTodayBaseURL = "https://archive.ph"

// ArchiveTodaySubmitter asks archive.today to snapshot a URL via its form
// submission endpoint (spec §4.7 "form submission with a tighter bucket").
type ArchiveTodaySubmitter struct {
	baseURL string
	client  *http.Client
}

// NewArchiveTodaySubmitter builds an ArchiveTodaySubmitter. Redirects are
// not followed automatically: the snapshot URL is read off the Location
// header of the first redirect the submission endpoint returns.
func NewArchiveTodaySubmitter(timeout time.Duration) *ArchiveTodaySubmitter {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ArchiveTodaySubmitter{
		baseURL: ArchiveTodayBaseURL,
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (a *ArchiveTodaySubmitter) Name() string { return "archivetoday" }

func (a *ArchiveTodaySubmitter) Submit(ctx context.Context, rawURL string) (string, error) {
	form := url.Values{"url": {rawURL}}

	resp, err := doWithBackoff(ctx, a.client, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/submit/", strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	})
	if err != nil {
		return "", fmt.Errorf("archivetoday: submit %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	loc := resp.Header.Get("Location")
	if loc == "" {
		return "", fmt.Errorf("archivetoday: submit %s: no Location in response (status %d)", rawURL, resp.StatusCode)
	}
	if strings.HasPrefix(loc, "/") {
		loc = a.baseURL + loc
	}
	return loc, nil
}
