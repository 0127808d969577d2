package parser

import (
	"strings"

	"github.com/maltedev/price-tracker/internal/models"
)

var ebayExtractor = extractor{
	detail: parseEbayProduct,
	search: searchSpec{
		cards: []string{".s-item"},
		card:  parseEbayCard,
	},
	deals: dealSpec{
		cards:     []string{".dne-itemtile", ".ebayui-dne-item-featured-card"},
		listPrice: []string{".s-item__trending-price .STRIKETHROUGH", ".s-item__original-price"},
		badge:     []string{".s-item__discount"},
	},
}

func parseEbayProduct(doc *Document, baseURL string) *models.ProductDetail {
	d := models.NewProductDetail(models.PlatformEbay, baseURL)

	title := doc.Text("#itemTitle", "h1.x-item-title__mainTitle")
	d.Name = strings.TrimSpace(strings.Replace(title, "Details about", "", 1))
	d.Price = ParsePrice(doc.FirstText("#prcIsum", ".x-price-primary"))
	d.Description = doc.Text("#ds_div")
	d.Seller = doc.Text(".mbg-nw", ".x-sellercard-atf__info__about-seller")
	d.Availability = doc.Text("#qtySubTxt", ".x-quantity__availability")
	d.ShippingInfo = doc.FirstText("#fshippingCost", ".ux-labels-values--shipping .ux-textspans")
	d.Image = ResolveURL(baseURL, doc.Attr("src", "#icImg", ".ux-image-carousel-item img"))

	collectSpecs(d.Specifications, doc.Node, ".itemAttr table tr", "th", "td")
	if condition := doc.Text("#vi-itm-cond", ".x-item-condition-text .ux-textspans"); condition != "" {
		d.Specifications["condition"] = condition
	}

	return d
}

func parseEbayCard(card Node, baseURL string) (models.ScrapedProduct, bool) {
	p := models.NewScrapedProduct(models.PlatformEbay)

	p.Name = card.Text(".s-item__title")
	priceText := card.FirstText(".s-item__price")
	p.URL = ResolveURL(baseURL, card.Attr("href", ".s-item__link"))

	if p.Name == "" || priceText == "" || p.URL == "" {
		return p, false
	}

	p.Price = ParsePrice(priceText)
	p.Image = ResolveURL(baseURL, card.Attr("src", ".s-item__image-img"))

	return p, true
}
