package fetch

import (
	"context"
	"log/slog"
)

// HTMLStore is a page cache keyed by URL.
type HTMLStore interface {
	Get(ctx context.Context, url string) (string, bool, error)
	Set(ctx context.Context, url, html string) error
}

// CachedFetcher serves pages from an HTMLStore and falls back to the wrapped
// Fetcher on a miss. Store failures never fail a fetch.
type CachedFetcher struct {
	next   Fetcher
	store  HTMLStore
	logger *slog.Logger
}

func NewCachedFetcher(next Fetcher, store HTMLStore, logger *slog.Logger) *CachedFetcher {
	return &CachedFetcher{
		next:   next,
		store:  store,
		logger: logger.With("component", "html_cache"),
	}
}

func (f *CachedFetcher) Fetch(ctx context.Context, url string) (string, error) {
	html, found, err := f.store.Get(ctx, url)
	if err != nil {
		f.logger.Warn("cache read failed", "url", url, "error", err)
	} else if found {
		f.logger.Debug("cache hit", "url", url)
		return html, nil
	}

	html, err = f.next.Fetch(ctx, url)
	if err != nil {
		return "", err
	}

	if err := f.store.Set(ctx, url, html); err != nil {
		f.logger.Warn("cache write failed", "url", url, "error", err)
	}
	return html, nil
}
