package parser

import (
	"github.com/maltedev/price-tracker/internal/models"
)

var homeDepotExtractor = extractor{
	detail: parseHomeDepotProduct,
	search: searchSpec{
		cards: []string{".product-pod"},
		card:  parseHomeDepotCard,
	},
	deals: dealSpec{
		cards:     []string{"[data-testid='savings-center-pod']", ".savings-center__pod"},
		listPrice: []string{".price-format__was-price", ".price__was-price"},
		badge:     []string{".price__savings", ".price-format__savings"},
	},
}

func parseHomeDepotProduct(doc *Document, baseURL string) *models.ProductDetail {
	d := models.NewProductDetail(models.PlatformHomeDepot, baseURL)

	d.Name = doc.Text(".product-title__title", "[data-component='ProductDetailsTitle'] h1")
	d.Price = ParsePrice(doc.FirstText(".price-format__main-price"))
	d.Description = doc.Text(".product-description")
	d.Brand = doc.Text(".product-details__brand-name")
	d.Availability = doc.Text(".product-availability")
	d.Image = ResolveURL(baseURL, doc.Attr("src", ".highlight-image"))

	collectSpecs(d.Specifications, doc.Node, ".specifications__list li", ".specifications__name", ".specifications__value")

	return d
}

// parseHomeDepotCard gates on the dollars part of the price; cents are
// appended when the pod shows them separately.
func parseHomeDepotCard(card Node, baseURL string) (models.ScrapedProduct, bool) {
	p := models.NewScrapedProduct(models.PlatformHomeDepot)

	p.Name = card.Text(".product-pod--title")
	dollars := card.FirstText(".price__dollars")
	p.URL = ResolveURL(baseURL, card.Attr("href", ".product-pod--link"))

	if p.Name == "" || dollars == "" || p.URL == "" {
		return p, false
	}

	priceText := nonDigitChars.ReplaceAllString(dollars, "")
	if cents := nonDigitChars.ReplaceAllString(card.FirstText(".price__cents"), ""); cents != "" {
		priceText += "." + cents
	}
	p.Price = ParsePrice(priceText)
	p.Image = ResolveURL(baseURL, card.Attr("src", ".product-pod--photo img"))

	return p, true
}
