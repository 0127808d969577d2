package parser

import (
	"github.com/maltedev/price-tracker/internal/models"
)

var zaraExtractor = extractor{
	detail: parseZaraProduct,
	search: searchSpec{
		cards: []string{".product-grid-product"},
		card:  parseZaraCard,
	},
	deals: dealSpec{
		cards:     []string{".product-grid-block-dynamic__product"},
		listPrice: []string{".price-old__amount", ".price__amount--old"},
		badge:     []string{".price-current__discount-percentage", ".price__discount-percentage"},
	},
}

func parseZaraProduct(doc *Document, baseURL string) *models.ProductDetail {
	d := models.NewProductDetail(models.PlatformZara, baseURL)

	d.Name = doc.Text(".product-detail-info__header h1", ".product-detail-info__header-name")
	d.Price = ParsePrice(doc.FirstText(".price-current__amount", ".price__amount"))
	d.Description = doc.Text(".product-detail-description")
	d.Availability = doc.Text(".product-detail-size-info")
	d.Image = ResolveURL(baseURL, doc.Attr("src", ".product-detail-images img"))

	collectSpecs(d.Specifications, doc.Node, ".product-detail-info__content", ".product-detail-info__title", ".product-detail-info__content")

	doc.Each(".size-selector__size-list button", func(size Node) {
		name := size.OwnText()
		if name == "" {
			return
		}
		d.Variants = append(d.Variants, models.Variant{
			Name:      name,
			Price:     optionalPrice(size.FirstText(".price__amount")),
			Available: !size.HasClass("is-disabled"),
		})
	})

	return d
}

func parseZaraCard(card Node, baseURL string) (models.ScrapedProduct, bool) {
	p := models.NewScrapedProduct(models.PlatformZara)

	p.Name = card.Text(".product-grid-product-info__name")
	priceText := card.FirstText(".price-current__amount", ".money-amount__main")
	p.URL = ResolveURL(baseURL, card.Attr("href", "a"))

	if p.Name == "" || priceText == "" || p.URL == "" {
		return p, false
	}

	p.Price = ParsePrice(priceText)
	p.Image = ResolveURL(baseURL, card.Attr("src", "img"))

	return p, true
}
