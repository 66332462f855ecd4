// Package fetcher handles RSS feed downloading and parsing.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"comics_mailer/internal/model"
)

// ErrNoFeed is returned when the feed cannot be retrieved or has no entries.
var ErrNoFeed = errors.New("could not retrieve feed contents")

const maxBodySize = 5 * 1024 * 1024

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher downloads and parses RSS feeds.
type Fetcher struct {
	client  HTTPClient
	timeout time.Duration
}

// New creates a Fetcher with the given HTTP client.
func New(client HTTPClient) *Fetcher {
	return &Fetcher{
		client:  client,
		timeout: 30 * time.Second,
	}
}

// SetTimeout overrides the default 30-second request timeout.
func (f *Fetcher) SetTimeout(d time.Duration) {
	f.timeout = d
}

// Fetch downloads and parses an RSS feed from the given URL.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*gofeed.Feed, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "ComicsMailer/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	parser := gofeed.NewParser()
	feed, err := parser.ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return feed, nil
}

// Entries fetches the feed at url and returns its items in feed order.
func (f *Fetcher) Entries(ctx context.Context, url string) ([]model.FeedEntry, error) {
	feed, err := f.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoFeed, err)
	}
	if len(feed.Items) == 0 {
		return nil, fmt.Errorf("%w: feed %q has no entries", ErrNoFeed, url)
	}

	entries := make([]model.FeedEntry, 0, len(feed.Items))
	for _, item := range feed.Items {
		entries = append(entries, ToEntry(item))
	}
	return entries, nil
}

// ToEntry converts a parsed feed item into a FeedEntry.
// The item description is used as the summary, falling back to its content.
func ToEntry(item *gofeed.Item) model.FeedEntry {
	summary := item.Description
	if summary == "" {
		summary = item.Content
	}
	return model.FeedEntry{
		Title:       item.Title,
		SummaryHTML: summary,
	}
}
