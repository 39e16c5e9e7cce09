package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/mydarah/bot/constants"
	"github.com/mydarah/bot/logger"
)

// NewHTTPClient returns the client used for every dataset download.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout, // Whole-body timeout; the granular parquet file is large
	}
}

// FetchSource downloads url fully into memory.
// Transport errors, 5xx and 429 responses are retried up to maxRetries times with
// exponential backoff; any other non-200 status fails immediately.
// All failures wrap constants.ErrSourceUnavailable.
func FetchSource(ctx context.Context, client *http.Client, url string, maxRetries int) ([]byte, error) {
	logger.Infof(ctx, "Scraper: downloading %s", url)

	var body []byte
	attempt := 0
	operation := func() error {
		attempt++
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to build request for %s: %w", url, err))
		}

		resp, err := client.Do(req)
		if err != nil {
			logger.Warnf(ctx, "Scraper: attempt %d for %s failed: %v", attempt, url, err)
			return fmt.Errorf("failed to make GET request to %s: %w", url, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			statusErr := fmt.Errorf("failed to download %s: received status code %d", url, resp.StatusCode)
			if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
				logger.Warnf(ctx, "Scraper: attempt %d for %s got status %d", attempt, url, resp.StatusCode)
				return statusErr
			}
			return backoff.Permanent(statusErr)
		}

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read body of %s: %w", url, err)
		}
		if len(data) == 0 {
			return backoff.Permanent(fmt.Errorf("empty body from %s", url))
		}
		body = data
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(maxRetries)), ctx))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", constants.ErrSourceUnavailable, err)
	}

	logger.Infof(ctx, "Scraper: downloaded %d bytes from %s", len(body), url)
	return body, nil
}
