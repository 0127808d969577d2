package parser

import (
	"fmt"

	"github.com/maltedev/price-tracker/internal/models"
)

type detailFunc func(doc *Document, baseURL string) *models.ProductDetail

// cardFunc maps one result card to a product. It reports false when the card
// lacks the fields its platform requires, in which case the card is skipped.
type cardFunc func(card Node, baseURL string) (models.ScrapedProduct, bool)

type searchSpec struct {
	cards []string
	card  cardFunc
}

// dealSpec describes the cards of a deals page and where a card shows its
// list price and discount badge. Cards are tried with the deals-page selectors
// first, then the search card selectors, and mapped with the search mapper.
type dealSpec struct {
	cards     []string
	listPrice []string
	badge     []string
}

type extractor struct {
	detail detailFunc
	search searchSpec
	deals  dealSpec
}

var extractors = map[models.Platform]extractor{
	models.PlatformAmazon:    amazonExtractor,
	models.PlatformBestBuy:   bestBuyExtractor,
	models.PlatformEbay:      ebayExtractor,
	models.PlatformEtsy:      etsyExtractor,
	models.PlatformHomeDepot: homeDepotExtractor,
	models.PlatformWalmart:   walmartExtractor,
	models.PlatformZara:      zaraExtractor,
}

func lookup(platform models.Platform) (extractor, bool) {
	e, ok := extractors[platform]
	return e, ok
}

func dispatchDetail(doc *Document, platform models.Platform, baseURL string) (*models.ProductDetail, error) {
	e, ok := lookup(platform)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, platform)
	}
	return e.detail(doc, baseURL), nil
}

func dispatchSearch(doc *Document, platform models.Platform, baseURL string) []models.ScrapedProduct {
	products := make([]models.ScrapedProduct, 0)
	e, ok := lookup(platform)
	if !ok {
		return products
	}

	doc.EachFirst(e.search.cards, func(card Node) {
		if p, ok := e.search.card(card, baseURL); ok {
			products = append(products, p)
		}
	})
	return products
}

func dispatchDeals(doc *Document, platform models.Platform, baseURL string) []models.DealProduct {
	deals := make([]models.DealProduct, 0)
	e, ok := lookup(platform)
	if !ok {
		return deals
	}

	selectors := make([]string, 0, len(e.deals.cards)+len(e.search.cards))
	selectors = append(selectors, e.deals.cards...)
	selectors = append(selectors, e.search.cards...)

	doc.EachFirst(selectors, func(card Node) {
		p, ok := e.search.card(card, baseURL)
		if !ok {
			return
		}

		deal := models.DealProduct{ScrapedProduct: p}
		if text := card.FirstText(e.deals.listPrice...); text != "" {
			if original := ParsePrice(text); original.Valid() {
				deal.OriginalPrice = &original
			}
		}

		if pct, ok := ParseDiscount(card.FirstText(e.deals.badge...)); ok {
			deal.DiscountPercentage = pct
		} else if deal.OriginalPrice != nil {
			deal.DiscountPercentage = DiscountPercent(p.Price, *deal.OriginalPrice)
		}

		deals = append(deals, deal)
	})
	return deals
}
