// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package submit

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// maxRetries and the backoff schedule below mirror the teacher's
// doRequestWithRateLimit pattern (rate_limiting_test.go): a request that
// comes back 429 is retried with exponential backoff (1s, 2s, 4s, ...)
// before giving up.
const maxRetries = 3

// doWithBackoff executes req, retrying on HTTP 429 with exponential
// backoff. The caller's request body, if any, must be re-buildable via
// buildReq since a request can only be sent once.
func doWithBackoff(ctx context.Context, client *http.Client, buildReq func(ctx context.Context) (*http.Request, error)) (*http.Response, error) {
	var lastErr error
	delay := time.Second

	for attempt := 0; attempt <= maxRetries; attempt++ {
		req, err := buildReq(ctx)
		if err != nil {
			return nil, fmt.Errorf("submit: build request: %w", err)
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}
		resp.Body.Close()
		lastErr = fmt.Errorf("submit: rate limited (HTTP 429)")

		if attempt == maxRetries {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		delay *= 2
	}
	return nil, fmt.Errorf("%w after %d attempts", lastErr, maxRetries+1)
}
