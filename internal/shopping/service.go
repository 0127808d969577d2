package shopping

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/maltedev/price-tracker/internal/fetch"
	"github.com/maltedev/price-tracker/internal/models"
	"github.com/maltedev/price-tracker/internal/parser"
)

const (
	DefaultMaxResults  = 10
	MaxResultsLimit    = 50
	DefaultMinDiscount = 10.0
)

var (
	ErrInvalidURL     = errors.New("invalid product url")
	ErrInvalidRequest = errors.New("invalid request")
)

// PlatformResult is the outcome of a search on one platform. Exactly one of
// Data and Error is meaningful.
type PlatformResult struct {
	Platform  models.Platform         `json:"platform"`
	SearchURL string                  `json:"search_url,omitempty"`
	Data      []models.ScrapedProduct `json:"data,omitempty"`
	Error     string                  `json:"error,omitempty"`
}

type SearchResponse struct {
	Query   string           `json:"query"`
	Results []PlatformResult `json:"results"`
}

type PlatformDeals struct {
	Platform models.Platform      `json:"platform"`
	DealsURL string               `json:"deals_url,omitempty"`
	Data     []models.DealProduct `json:"data,omitempty"`
	Error    string               `json:"error,omitempty"`
}

type DealsResponse struct {
	Timestamp time.Time       `json:"timestamp"`
	Deals     []PlatformDeals `json:"deals"`
}

type SearchRequest struct {
	Query      string            `json:"query"`
	Platforms  []models.Platform `json:"platforms,omitempty"`
	MaxResults int               `json:"max_results,omitempty"`
}

type DealsRequest struct {
	Platforms          []models.Platform `json:"platforms,omitempty"`
	MaxResults         int               `json:"max_results,omitempty"`
	MinDiscountPercent *float64          `json:"min_discount_percent,omitempty"`
}

type Options struct {
	Concurrency      int
	DefaultPlatforms []models.Platform
}

// Service fetches pages through a Fetcher and runs them through the parser.
type Service struct {
	fetcher          fetch.Fetcher
	parser           parser.Parser
	concurrency      int
	defaultPlatforms []models.Platform
	logger           *slog.Logger
}

func NewService(fetcher fetch.Fetcher, p parser.Parser, opts Options, logger *slog.Logger) *Service {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if len(opts.DefaultPlatforms) == 0 {
		opts.DefaultPlatforms = []models.Platform{models.PlatformAmazon, models.PlatformEbay, models.PlatformWalmart}
	}

	return &Service{
		fetcher:          fetcher,
		parser:           p,
		concurrency:      opts.Concurrency,
		defaultPlatforms: opts.DefaultPlatforms,
		logger:           logger.With("component", "shopping"),
	}
}

// ProductDetails fetches and extracts a single product page. The platform is
// detected from the URL; unsupported sites fail before any fetch.
func (s *Service) ProductDetails(ctx context.Context, rawURL string) (*models.ProductDetail, error) {
	rawURL = strings.TrimSpace(rawURL)
	origin, err := Origin(rawURL)
	if err != nil {
		return nil, err
	}

	platform := models.DetectPlatform(rawURL)
	if !platform.IsSupported() {
		return nil, fmt.Errorf("%w: %s", parser.ErrUnsupportedPlatform, platform)
	}

	html, err := s.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product page: %w", err)
	}

	detail, err := s.parser.ParseProductDetails(html, platform, origin)
	if err != nil {
		return nil, err
	}
	detail.URL = rawURL

	s.logger.Debug("product details extracted",
		"url", rawURL,
		"platform", platform,
		"has_price", detail.HasPrice())

	return detail, nil
}

// Search queries every requested platform concurrently. A failing platform is
// reported in its own result and never fails the call.
func (s *Service) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", ErrInvalidRequest)
	}
	platforms, err := s.platforms(req.Platforms)
	if err != nil {
		return nil, err
	}
	maxResults, err := normalizeMaxResults(req.MaxResults)
	if err != nil {
		return nil, err
	}

	results := make([]PlatformResult, len(platforms))
	s.fanOut(ctx, platforms, func(ctx context.Context, i int, platform models.Platform) {
		results[i] = s.searchPlatform(ctx, platform, query, maxResults)
	})

	return &SearchResponse{Query: query, Results: results}, nil
}

func (s *Service) searchPlatform(ctx context.Context, platform models.Platform, query string, maxResults int) PlatformResult {
	result := PlatformResult{Platform: platform}

	searchURL, err := SearchURL(platform, query)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	html, err := s.fetcher.Fetch(ctx, searchURL)
	if err != nil {
		s.logger.Warn("search fetch failed", "platform", platform, "url", searchURL, "error", err)
		result.Error = err.Error()
		return result
	}

	origin, _ := Origin(searchURL)
	products := s.parser.ParseSearchResults(html, platform, origin)
	if len(products) > maxResults {
		products = products[:maxResults]
	}

	result.SearchURL = searchURL
	result.Data = products
	return result
}

// TopDeals reads the deals page of every requested platform and keeps deals
// discounted by at least MinDiscountPercent.
func (s *Service) TopDeals(ctx context.Context, req DealsRequest) (*DealsResponse, error) {
	platforms, err := s.platforms(req.Platforms)
	if err != nil {
		return nil, err
	}
	maxResults, err := normalizeMaxResults(req.MaxResults)
	if err != nil {
		return nil, err
	}

	minDiscount := DefaultMinDiscount
	if req.MinDiscountPercent != nil {
		minDiscount = *req.MinDiscountPercent
	}
	if minDiscount < 0 || minDiscount > 100 {
		return nil, fmt.Errorf("%w: min_discount_percent must be between 0 and 100", ErrInvalidRequest)
	}

	deals := make([]PlatformDeals, len(platforms))
	s.fanOut(ctx, platforms, func(ctx context.Context, i int, platform models.Platform) {
		deals[i] = s.dealsForPlatform(ctx, platform, maxResults, minDiscount)
	})

	return &DealsResponse{Timestamp: time.Now().UTC(), Deals: deals}, nil
}

func (s *Service) dealsForPlatform(ctx context.Context, platform models.Platform, maxResults int, minDiscount float64) PlatformDeals {
	result := PlatformDeals{Platform: platform}

	dealsURL, err := DealsURL(platform)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	html, err := s.fetcher.Fetch(ctx, dealsURL)
	if err != nil {
		s.logger.Warn("deals fetch failed", "platform", platform, "url", dealsURL, "error", err)
		result.Error = err.Error()
		return result
	}

	origin, _ := Origin(dealsURL)
	filtered := make([]models.DealProduct, 0)
	for _, deal := range s.parser.ParseDeals(html, platform, origin) {
		if deal.DiscountPercentage >= minDiscount {
			filtered = append(filtered, deal)
		}
		if len(filtered) == maxResults {
			break
		}
	}

	result.DealsURL = dealsURL
	result.Data = filtered
	return result
}

// fanOut runs fn for every platform with at most s.concurrency in flight.
func (s *Service) fanOut(ctx context.Context, platforms []models.Platform, fn func(ctx context.Context, i int, platform models.Platform)) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, platform := range platforms {
		i, platform := i, platform
		g.Go(func() error {
			fn(ctx, i, platform)
			return nil
		})
	}
	_ = g.Wait()
}

func (s *Service) platforms(requested []models.Platform) ([]models.Platform, error) {
	if len(requested) == 0 {
		return s.defaultPlatforms, nil
	}
	for _, p := range requested {
		if !p.IsSupported() {
			return nil, fmt.Errorf("%w: %s", parser.ErrUnsupportedPlatform, p)
		}
	}
	return requested, nil
}

func normalizeMaxResults(n int) (int, error) {
	if n == 0 {
		return DefaultMaxResults, nil
	}
	if n < 1 || n > MaxResultsLimit {
		return 0, fmt.Errorf("%w: max_results must be between 1 and %d", ErrInvalidRequest, MaxResultsLimit)
	}
	return n, nil
}
