package parser

import (
	"github.com/maltedev/price-tracker/internal/models"
)

var etsyExtractor = extractor{
	detail: parseEtsyProduct,
	search: searchSpec{
		cards: []string{".v2-listing-card"},
		card:  parseEtsyCard,
	},
	deals: dealSpec{
		cards:     []string{"[data-listing-id].wt-list-unstyled", ".listing-card-sale"},
		listPrice: []string{".wt-text-strikethrough .currency-value", ".wt-text-strikethrough"},
		badge:     []string{".search-collage-promotion-price", ".wt-badge--sale"},
	},
}

func parseEtsyProduct(doc *Document, baseURL string) *models.ProductDetail {
	d := models.NewProductDetail(models.PlatformEtsy, baseURL)

	d.Name = doc.FirstText("h1[data-buy-box-listing-title]", ".wt-text-body-01")
	d.Price = ParsePrice(doc.FirstText(".wt-text-title-03", "p.wt-text-title-larger"))
	d.Description = doc.Text("#product-description-content")
	d.Seller = doc.Text(".shop-name-and-title-container")
	d.Image = ResolveURL(baseURL, doc.Attr("src", ".carousel-image"))

	collectSpecs(d.Specifications, doc.Node, ".wt-grid__item-xs-12", ".wt-text-caption", ".wt-text-body-01")

	return d
}

func parseEtsyCard(card Node, baseURL string) (models.ScrapedProduct, bool) {
	p := models.NewScrapedProduct(models.PlatformEtsy)

	p.Name = card.Text(".v2-listing-card__title")
	priceText := card.FirstText(".currency-value")
	p.URL = ResolveURL(baseURL, card.Attr("href", ".listing-link"))

	if p.Name == "" || priceText == "" || p.URL == "" {
		return p, false
	}

	p.Price = ParsePrice(priceText)
	p.Image = ResolveURL(baseURL, card.Attr("src", "img.main-image"))

	return p, true
}
