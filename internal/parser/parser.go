package parser

import (
	"errors"

	"github.com/maltedev/price-tracker/internal/models"
)

var ErrUnsupportedPlatform = errors.New("Unsupported platform")

// Parser turns raw HTML returned by the unlocker into product records.
type Parser interface {
	ParseProductDetails(html string, platform models.Platform, baseURL string) (*models.ProductDetail, error)
	ParseSearchResults(html string, platform models.Platform, baseURL string) []models.ScrapedProduct
	ParseDeals(html string, platform models.Platform, baseURL string) []models.DealProduct
}
