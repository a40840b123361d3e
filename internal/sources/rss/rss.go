package rss

import (
	"context"
	"time"
)

// FetchOptions controls RSS fetch behavior.
type FetchOptions struct {
	Limit int
}

// Item is a feed entry reduced to what a crawl target needs.
type Item struct {
	ID          string
	Title       string
	Link        string
	Description string
	PublishedAt time.Time
}

// Fetcher fetches and parses RSS/Atom feeds.
type Fetcher interface {
	Fetch(ctx context.Context, feedURL string, options FetchOptions) ([]Item, error)
}
