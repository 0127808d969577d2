package shopping

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/maltedev/price-tracker/internal/models"
	"github.com/maltedev/price-tracker/internal/parser"
)

var searchURLs = map[models.Platform]string{
	models.PlatformAmazon:    "https://www.amazon.com/s?k=%s",
	models.PlatformBestBuy:   "https://www.bestbuy.com/site/searchpage.jsp?st=%s&intl=nosplash",
	models.PlatformEbay:      "https://www.ebay.com/sch/i.html?_nkw=%s",
	models.PlatformEtsy:      "https://www.etsy.com/search?q=%s",
	models.PlatformHomeDepot: "https://www.homedepot.com/search?q=%s",
	models.PlatformWalmart:   "https://www.walmart.com/search?q=%s",
	models.PlatformZara:      "https://www.zara.com/us/en/search?q=%s",
}

var dealsURLs = map[models.Platform]string{
	models.PlatformAmazon:    "https://www.amazon.com/deals",
	models.PlatformBestBuy:   "https://www.bestbuy.com/site/deals",
	models.PlatformEbay:      "https://www.ebay.com/deals",
	models.PlatformEtsy:      "https://www.etsy.com/sales-and-deals",
	models.PlatformHomeDepot: "https://www.homedepot.com/deals",
	models.PlatformWalmart:   "https://www.walmart.com/deals",
	models.PlatformZara:      "https://www.zara.com/us/en/sale",
}

// SearchURL builds the search page URL for query on platform.
func SearchURL(platform models.Platform, query string) (string, error) {
	tmpl, ok := searchURLs[platform]
	if !ok {
		return "", fmt.Errorf("%w: %s", parser.ErrUnsupportedPlatform, platform)
	}
	return fmt.Sprintf(tmpl, escapeQuery(query)), nil
}

func DealsURL(platform models.Platform) (string, error) {
	u, ok := dealsURLs[platform]
	if !ok {
		return "", fmt.Errorf("%w: %s", parser.ErrUnsupportedPlatform, platform)
	}
	return u, nil
}

// Origin returns the scheme and host of rawURL, e.g. "https://www.ebay.com".
func Origin(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	return u.Scheme + "://" + u.Host, nil
}

// escapeQuery percent-encodes a query the way browsers encode a URI
// component, spaces included.
func escapeQuery(q string) string {
	return strings.ReplaceAll(url.QueryEscape(q), "+", "%20")
}
