package parser

import (
	"github.com/maltedev/price-tracker/internal/models"
)

var bestBuyExtractor = extractor{
	detail: parseBestBuyProduct,
	search: searchSpec{
		cards: []string{".sku-item"},
		card:  parseBestBuyCard,
	},
	deals: dealSpec{
		cards:     []string{".offer-item", ".wf-offer"},
		listPrice: []string{".pricing-price__regular-price", ".priceView-was-price"},
		badge:     []string{".pricing-price__savings"},
	},
}

func parseBestBuyProduct(doc *Document, baseURL string) *models.ProductDetail {
	d := models.NewProductDetail(models.PlatformBestBuy, baseURL)

	d.Name = doc.Text(".sku-title h1", "h1.heading-5")
	d.Price = ParsePrice(doc.FirstText(".priceView-customer-price span"))
	d.Description = doc.Text(".product-description")
	d.Brand = doc.FirstText(".product-brand a", ".product-data-value")
	d.Availability = doc.Text(".fulfillment-add-to-cart-button")
	d.Image = ResolveURL(baseURL, doc.Attr("src", ".primary-image"))

	collectSpecs(d.Specifications, doc.Node, ".product-data-item", ".product-data-key", ".product-data-value")

	return d
}

func parseBestBuyCard(card Node, baseURL string) (models.ScrapedProduct, bool) {
	p := models.NewScrapedProduct(models.PlatformBestBuy)

	p.Name = card.Text(".sku-header")
	priceText := card.FirstText(".priceView-customer-price span")
	p.URL = ResolveURL(baseURL, card.Attr("href", ".sku-header a"))

	if p.Name == "" || priceText == "" || p.URL == "" {
		return p, false
	}

	p.Price = ParsePrice(priceText)
	p.Image = ResolveURL(baseURL, card.Attr("src", "img.product-image"))

	return p, true
}
