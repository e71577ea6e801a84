// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across stages.
package httputil

import (
	"context"
	"io"
	"net/http"
	"time"
)

// RetryBaseDelay scales the exponential backoff on HTTP 429 responses.
// Tests override this to avoid real sleeps.
var RetryBaseDelay = time.Second

const defaultMaxAttempts = 4

// DoWithRetry executes an HTTP request and retries on HTTP 429 (Too Many
// Requests). The wait before retry n is (2^n + 1) × RetryBaseDelay, so with
// the default base the delays run 2 s, 3 s, 5 s.
//
// maxAttempts counts total tries; when it is 0 the default (4) is used.
// Transport errors abort immediately without retrying. On each 429 the
// response body is drained and closed before sleeping, and requests with a
// body are re-materialized via GetBody. If the context is cancelled during a
// backoff wait the function returns ctx.Err(). After exhausting attempts the
// last 429 response is returned so the caller can inspect it.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxAttempts int) (*http.Response, error) {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	for attempt := 0; ; attempt++ {
		clone := req.Clone(ctx)
		if attempt > 0 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			clone.Body = body
		}

		resp, err := client.Do(clone)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		// Exhausted attempts; return the 429 response as-is.
		if attempt >= maxAttempts-1 {
			return resp, nil
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		backoff := time.Duration(1<<uint(attempt)+1) * RetryBaseDelay

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}
