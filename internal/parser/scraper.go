package parser

import (
	"github.com/maltedev/price-tracker/internal/models"
)

// Scraper is the Parser used in production. It holds no state, so a single
// value can be shared between goroutines.
type Scraper struct{}

func NewScraper() *Scraper {
	return &Scraper{}
}

// ParseProductDetails extracts a product page. The returned detail carries
// baseURL as its URL. It fails only for platforms without an extractor.
func (s *Scraper) ParseProductDetails(html string, platform models.Platform, baseURL string) (*models.ProductDetail, error) {
	return dispatchDetail(Load(html), platform, baseURL)
}

// ParseSearchResults extracts every valid result card in document order.
// Unsupported platforms yield an empty slice.
func (s *Scraper) ParseSearchResults(html string, platform models.Platform, baseURL string) []models.ScrapedProduct {
	return dispatchSearch(Load(html), platform, baseURL)
}

// ParseDeals extracts deal cards with their discount. Unsupported platforms
// yield an empty slice.
func (s *Scraper) ParseDeals(html string, platform models.Platform, baseURL string) []models.DealProduct {
	return dispatchDeals(Load(html), platform, baseURL)
}
