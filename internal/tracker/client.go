package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"flowsense/internal/config"
	"flowsense/internal/logger"
)

// ErrNoBucket is returned when no bucket matches a required prefix.
// The analysis cycle that hit it is abandoned; the scheduler retries
// on the next tick.
var ErrNoBucket = errors.New("no matching bucket")

// BucketInfo is the metadata the tracking service reports per bucket.
type BucketInfo struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Client   string `json:"client"`
	Hostname string `json:"hostname"`
}

// Client talks to the local activity-tracking service.
type Client struct {
	baseURL      string
	windowPrefix string
	afkPrefix    string
	httpClient   *http.Client
	timeout      time.Duration
}

func NewClient(cfg *config.TrackerConfig) (*Client, error) {
	timeout, err := cfg.GetTimeoutDuration()
	if err != nil {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:      cfg.BaseURL(),
		windowPrefix: cfg.WindowBucketPrefix,
		afkPrefix:    cfg.AFKBucketPrefix,
		httpClient:   &http.Client{Timeout: timeout},
		timeout:      timeout,
	}, nil
}

// Buckets lists the bucket map exposed by the tracking service.
func (c *Client) Buckets(ctx context.Context) (map[string]BucketInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/buckets/", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create buckets request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to list buckets: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("buckets request failed (status %d): %s", resp.StatusCode, string(body))
	}

	var buckets map[string]BucketInfo
	if err := json.NewDecoder(resp.Body).Decode(&buckets); err != nil {
		return nil, fmt.Errorf("failed to decode buckets response: %w", err)
	}
	return buckets, nil
}

// FindBucket returns the first bucket ID whose name starts with prefix.
func (c *Client) FindBucket(ctx context.Context, prefix string) (string, error) {
	buckets, err := c.Buckets(ctx)
	if err != nil {
		return "", err
	}
	for id := range buckets {
		if strings.HasPrefix(id, prefix) {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: prefix %q", ErrNoBucket, prefix)
}

// Events fetches raw events for one bucket in [start, end).
// Timestamps are rounded to whole seconds before querying; a future end
// is clipped to now. A 500 response means the bucket has no data for the
// range and yields an empty slice.
func (c *Client) Events(ctx context.Context, bucketID string, start, end time.Time) ([]Event, error) {
	now := time.Now()
	if end.After(now) {
		end = now
	}
	start = start.Truncate(time.Second)
	end = end.Truncate(time.Second)
	if !start.Before(end) {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/buckets/%s/events?start=%s&end=%s",
		c.baseURL,
		url.PathEscape(bucketID),
		url.QueryEscape(start.Format(time.RFC3339)),
		url.QueryEscape(end.Format(time.RFC3339)))

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create events request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch events: %w", err)
	}
	defer resp.Body.Close()

	// The service answers 500 for ranges it has no data for
	if resp.StatusCode == http.StatusInternalServerError {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("events request failed (status %d): %s", resp.StatusCode, string(body))
	}

	var events []Event
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return nil, fmt.Errorf("failed to decode events response: %w", err)
	}
	return events, nil
}

// FetchRange retrieves window and idle events for [start, end).
// A missing window bucket fails the cycle; everything softer (missing
// idle bucket, per-bucket fetch errors) degrades to empty data so one
// flaky watcher cannot blank the whole analysis.
func (c *Client) FetchRange(ctx context.Context, start, end time.Time) ([]Event, []Event, error) {
	windowBucket, err := c.FindBucket(ctx, c.windowPrefix)
	if err != nil {
		return nil, nil, err
	}

	windowEvents, err := c.Events(ctx, windowBucket, start, end)
	if err != nil {
		logger.GetLogger().Warnf("Window events fetch failed, treating as empty: %v", err)
		windowEvents = nil
	}

	var idleEvents []Event
	afkBucket, err := c.FindBucket(ctx, c.afkPrefix)
	if err != nil {
		logger.GetLogger().Warnf("No idle bucket found, skipping idle filtering: %v", err)
	} else {
		idleEvents, err = c.Events(ctx, afkBucket, start, end)
		if err != nil {
			logger.GetLogger().Warnf("Idle events fetch failed, treating as empty: %v", err)
			idleEvents = nil
		}
	}

	return windowEvents, idleEvents, nil
}

// Ping reports whether the tracking service is reachable.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Buckets(ctx)
	return err
}
