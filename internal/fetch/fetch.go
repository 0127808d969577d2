package fetch

import (
	"context"
	"errors"
)

var (
	// ErrUpstream is returned when the unlocker answers with a failure status
	// or cannot be reached after all retries.
	ErrUpstream = errors.New("upstream fetch failed")
	// ErrEmptyBody is returned when the unlocker answers 200 with no HTML.
	ErrEmptyBody = errors.New("upstream returned empty body")
)

// Fetcher returns the raw HTML of a page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, url string) (string, error)

func (f FetcherFunc) Fetch(ctx context.Context, url string) (string, error) {
	return f(ctx, url)
}
