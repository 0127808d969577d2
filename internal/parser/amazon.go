package parser

import (
	"strings"

	"github.com/maltedev/price-tracker/internal/models"
)

var amazonExtractor = extractor{
	detail: parseAmazonProduct,
	search: searchSpec{
		cards: []string{
			".s-result-item[data-asin]",
			"[data-component-type='s-search-result']",
		},
		card: parseAmazonCard,
	},
	deals: dealSpec{
		cards: []string{
			"[data-testid='deal-card']",
			".DealGridItem-module__dealItem",
		},
		listPrice: []string{
			".a-price.a-text-price .a-offscreen",
			".a-text-price span[aria-hidden='true']",
		},
		badge: []string{
			".savingsPercentage",
			".a-badge-text",
		},
	},
}

var amazonDetail = struct {
	title, price, description, brand, category      []string
	rating, reviews, availability, seller, shipping []string
	image                                           []string
}{
	title: []string{"#productTitle"},
	price: []string{
		"#priceblock_ourprice",
		"#price_inside_buybox",
		"#priceblock_dealprice",
		"#corePrice_feature_div .a-offscreen",
	},
	description:  []string{"#feature-bullets", "#productDescription"},
	brand:        []string{"#bylineInfo"},
	rating:       []string{"#averageCustomerReviews .a-icon-alt"},
	reviews:      []string{"#acrCustomerReviewText"},
	availability: []string{"#availability"},
	seller:       []string{"#merchant-info", "#sellerProfileTriggerId"},
	shipping:     []string{"#mir-layout-DELIVERY_BLOCK", "#deliveryBlockMessage"},
	image:        []string{"#landingImage", "#imgBlkFront"},
}

func parseAmazonProduct(doc *Document, baseURL string) *models.ProductDetail {
	d := models.NewProductDetail(models.PlatformAmazon, baseURL)

	d.Name = doc.Text(amazonDetail.title...)
	d.Price = ParsePrice(doc.FirstText(amazonDetail.price...))
	d.Description = doc.Text(amazonDetail.description...)
	d.Brand = cleanAmazonBrand(doc.Text(amazonDetail.brand...))
	d.Category = doc.LastText("#wayfinding-breadcrumbs_feature_div .a-list-item")
	d.Rating = optionalRating(doc.FirstText(amazonDetail.rating...))
	d.Reviews = ParseReviews(doc.FirstText(amazonDetail.reviews...))
	d.Availability = doc.Text(amazonDetail.availability...)
	d.Seller = doc.Text(amazonDetail.seller...)
	d.ShippingInfo = doc.FirstText(amazonDetail.shipping...)
	d.Image = ResolveURL(baseURL, doc.Attr("src", amazonDetail.image...))

	collectSpecs(d.Specifications, doc.Node, "#productDetails_techSpec_section_1 tr", "th", "td")
	collectSpecs(d.Specifications, doc.Node, "#productDetails_detailBullets_sections1 tr", "th", "td")

	doc.Each("#variation_color_name .swatches li", func(swatch Node) {
		name := strings.TrimSpace(strings.TrimPrefix(swatch.OwnAttr("title"), "Click to select "))
		if name == "" {
			return
		}
		d.Variants = append(d.Variants, models.Variant{
			Name:      name,
			Price:     optionalPrice(swatch.FirstText(".a-color-price")),
			Available: !swatch.HasClass("swatchUnavailable"),
		})
	})

	return d
}

func parseAmazonCard(card Node, baseURL string) (models.ScrapedProduct, bool) {
	p := models.NewScrapedProduct(models.PlatformAmazon)

	p.Name = card.Text("h2 span")
	whole := nonDigitChars.ReplaceAllString(card.FirstText(".a-price-whole"), "")
	fraction := nonDigitChars.ReplaceAllString(card.FirstText(".a-price-fraction"), "")
	p.URL = ResolveURL(baseURL, card.Attr("href", "h2 a"))

	if p.Name == "" || (whole == "" && fraction == "") || p.URL == "" {
		return p, false
	}

	p.Price = ParsePrice(whole + "." + fraction)
	p.Rating = optionalRating(card.FirstText(".a-icon-star-small .a-icon-alt"))
	p.Reviews = ParseReviews(card.FirstText(".a-size-base.s-underline-text"))
	p.Image = ResolveURL(baseURL, card.Attr("src", "img.s-image"))

	return p, true
}

func cleanAmazonBrand(brand string) string {
	brand = strings.TrimPrefix(brand, "Brand: ")
	brand = strings.TrimPrefix(brand, "Visit the ")
	brand = strings.TrimSuffix(brand, " Store")
	return strings.TrimSpace(brand)
}
