package parser

import (
	"github.com/maltedev/price-tracker/internal/models"
)

var walmartExtractor = extractor{
	detail: parseWalmartProduct,
	search: searchSpec{
		cards: []string{"[data-item-id]"},
		card:  parseWalmartCard,
	},
	deals: dealSpec{
		cards:     []string{"[data-testid='deal-item-tile']"},
		listPrice: []string{"[data-automation-id='strikethrough-price']", ".strike-through"},
		badge:     []string{"[data-testid='savings-badge']"},
	},
}

func parseWalmartProduct(doc *Document, baseURL string) *models.ProductDetail {
	d := models.NewProductDetail(models.PlatformWalmart, baseURL)

	d.Name = doc.Text("[data-testid='product-title']", "h1[itemprop='name']")
	d.Price = ParsePrice(doc.FirstText("[data-testid='price-value']", "[itemprop='price']"))
	d.Description = doc.Text(".about-product", "[data-testid='product-description']")
	d.Availability = doc.Text(".prod-ProductOffer-oosMsg")
	d.Seller = doc.Text(".seller-name", "[data-testid='seller-name']")
	d.Image = ResolveURL(baseURL, doc.Attr("src", "[data-testid='hero-image']"))

	collectSpecs(d.Specifications, doc.Node, ".specification-table td", ".specification-label", ".specification-value")

	return d
}

// parseWalmartCard does not require a link: a card without one points at the
// site origin.
func parseWalmartCard(card Node, baseURL string) (models.ScrapedProduct, bool) {
	p := models.NewScrapedProduct(models.PlatformWalmart)

	p.Name = card.Text("[data-automation-id='product-title']")
	priceText := card.Text("[data-automation-id='product-price']")

	if p.Name == "" || priceText == "" {
		return p, false
	}

	p.Price = ParsePrice(priceText)
	p.URL = ResolveURL(baseURL, card.Attr("href", "a"))
	if p.URL == "" {
		p.URL = baseURL
	}
	p.Image = ResolveURL(baseURL, card.Attr("src", "img"))

	return p, true
}
