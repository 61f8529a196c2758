package tle

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// DefaultSourceURL is the CelesTrak amateur radio group.
const DefaultSourceURL = "https://celestrak.org/NORAD/elements/gp.php?GROUP=amateur&FORMAT=tle"

// maxBodyBytes caps a single response so a misbehaving source cannot exhaust memory.
const maxBodyBytes = 50 << 20

// Default retry policy for the primary source.
const (
	DefaultMaxTries        = 3
	DefaultInitialInterval = time.Second
)

// Fetcher retrieves raw TLE data from a primary source and any number of
// extra sources whose bodies are appended to the primary one.
type Fetcher struct {
	sourceURL  string
	extraURLs  []string
	httpClient *http.Client
	logger     *slog.Logger

	maxTries        uint
	initialInterval time.Duration
}

// NewFetcher creates a Fetcher for the given source URL. An empty URL selects
// DefaultSourceURL.
func NewFetcher(sourceURL string, logger *slog.Logger, extraURLs ...string) *Fetcher {
	if sourceURL == "" {
		sourceURL = DefaultSourceURL
	}
	return &Fetcher{
		sourceURL: sourceURL,
		extraURLs: extraURLs,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:          logger,
		maxTries:        DefaultMaxTries,
		initialInterval: DefaultInitialInterval,
	}
}

// SetRetry changes how often the primary source is attempted and the first
// wait between attempts. maxTries below 1 is treated as 1.
func (f *Fetcher) SetRetry(maxTries uint, initialInterval time.Duration) {
	if maxTries < 1 {
		maxTries = 1
	}
	f.maxTries = maxTries
	f.initialInterval = initialInterval
}

// SourceURL returns the configured primary source URL.
func (f *Fetcher) SourceURL() string {
	return f.sourceURL
}

// Fetch downloads the primary source, then each extra source. The primary
// source is retried with exponential backoff on transport errors and 5xx
// responses; once it gives up the fetch fails. A failing extra source is
// logged and skipped.
func (f *Fetcher) Fetch(ctx context.Context) ([]byte, error) {
	body, err := f.getWithRetry(ctx, f.sourceURL)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Write(body)
	for _, u := range f.extraURLs {
		extra, err := f.get(ctx, u)
		if err != nil {
			f.logger.Warn("skipping extra TLE source", "url", u, "error", err)
			continue
		}
		if buf.Len() > 0 && buf.Bytes()[buf.Len()-1] != '\n' {
			buf.WriteByte('\n')
		}
		buf.Write(extra)
	}
	return buf.Bytes(), nil
}

func (f *Fetcher) getWithRetry(ctx context.Context, url string) ([]byte, error) {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = f.initialInterval

	return backoff.Retry(ctx, func() ([]byte, error) {
		return f.get(ctx, url)
	},
		backoff.WithBackOff(eb),
		backoff.WithMaxTries(f.maxTries),
		backoff.WithNotify(func(err error, wait time.Duration) {
			f.logger.Warn("TLE fetch failed, retrying", "url", url, "error", err, "wait", wait)
		}),
	)
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("creating request: %w", err))
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching TLE data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("unexpected status code %d from %s", resp.StatusCode, url)
		if resp.StatusCode < http.StatusInternalServerError {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if len(body) > maxBodyBytes {
		return nil, backoff.Permanent(fmt.Errorf("response from %s exceeds %d byte limit", url, maxBodyBytes))
	}

	return body, nil
}
