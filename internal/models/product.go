package models

import (
	"encoding/json"
	"math"
	"strings"
)

const CurrencyUSD = "USD"

type Platform string

const (
	PlatformAmazon    Platform = "amazon"
	PlatformEbay      Platform = "ebay"
	PlatformWalmart   Platform = "walmart"
	PlatformEtsy      Platform = "etsy"
	PlatformBestBuy   Platform = "bestbuy"
	PlatformHomeDepot Platform = "homedepot"
	PlatformZara      Platform = "zara"
	PlatformUnknown   Platform = "unknown"
)

// domainFragments is checked in order; the first fragment found in a URL wins.
var domainFragments = []struct {
	fragment string
	platform Platform
}{
	{"amazon.", PlatformAmazon},
	{"ebay.", PlatformEbay},
	{"walmart.", PlatformWalmart},
	{"etsy.", PlatformEtsy},
	{"bestbuy.", PlatformBestBuy},
	{"homedepot.", PlatformHomeDepot},
	{"zara.", PlatformZara},
}

// Platforms returns the supported platforms in their canonical order.
func Platforms() []Platform {
	return []Platform{
		PlatformAmazon,
		PlatformEbay,
		PlatformWalmart,
		PlatformEtsy,
		PlatformBestBuy,
		PlatformHomeDepot,
		PlatformZara,
	}
}

// ParsePlatform maps a platform name to a Platform. Unrecognised names map to
// PlatformUnknown.
func ParsePlatform(s string) Platform {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	if p.IsSupported() {
		return p
	}
	return PlatformUnknown
}

// DetectPlatform guesses the platform of a product URL from its domain.
func DetectPlatform(url string) Platform {
	for _, d := range domainFragments {
		if strings.Contains(url, d.fragment) {
			return d.platform
		}
	}
	return PlatformUnknown
}

func (p Platform) IsSupported() bool {
	for _, known := range Platforms() {
		if p == known {
			return true
		}
	}
	return false
}

func (p Platform) String() string {
	return string(p)
}

// Number is a parsed decimal. It is NaN when the source text held no digits,
// so callers must check Valid before doing arithmetic with it.
type Number float64

func NaN() Number {
	return Number(math.NaN())
}

func (n Number) Valid() bool {
	f := float64(n)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func (n Number) Float64() float64 {
	return float64(n)
}

// Cents converts a currency amount to integer cents. It reports false for
// NaN or infinite values.
func (n Number) Cents() (int64, bool) {
	if !n.Valid() {
		return 0, false
	}
	return int64(math.Round(float64(n) * 100)), true
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(n))
}

func (n *Number) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = NaN()
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*n = Number(f)
	return nil
}

// ScrapedProduct is one product card from a search or listing page.
type ScrapedProduct struct {
	Name     string   `json:"name"`
	Price    Number   `json:"price"`
	Currency string   `json:"currency"`
	URL      string   `json:"url"`
	Image    string   `json:"image,omitempty"`
	Rating   *Number  `json:"rating,omitempty"`
	Reviews  *int     `json:"reviews,omitempty"`
	Platform Platform `json:"platform"`
}

// Variant is one selectable option of a product, such as a colour swatch or a
// size. Price is set only when the option shows its own price.
type Variant struct {
	Name      string  `json:"name"`
	Price     *Number `json:"price,omitempty"`
	Available bool    `json:"available"`
}

// ProductDetail is the data extracted from a single product page.
type ProductDetail struct {
	ScrapedProduct
	Description    string            `json:"description,omitempty"`
	Brand          string            `json:"brand,omitempty"`
	Category       string            `json:"category,omitempty"`
	Seller         string            `json:"seller,omitempty"`
	Availability   string            `json:"availability,omitempty"`
	ShippingInfo   string            `json:"shippingInfo,omitempty"`
	Specifications map[string]string `json:"specifications,omitempty"`
	Variants       []Variant         `json:"variants,omitempty"`
}

// DealProduct is a listing card from a deals page with its discount.
type DealProduct struct {
	ScrapedProduct
	OriginalPrice      *Number `json:"originalPrice,omitempty"`
	DiscountPercentage float64 `json:"discountPercentage"`
}

func NewScrapedProduct(platform Platform) ScrapedProduct {
	return ScrapedProduct{
		Price:    NaN(),
		Currency: CurrencyUSD,
		Platform: platform,
	}
}

func NewProductDetail(platform Platform, baseURL string) *ProductDetail {
	d := &ProductDetail{
		ScrapedProduct: NewScrapedProduct(platform),
		Specifications: make(map[string]string),
	}
	d.URL = baseURL
	return d
}

// HasPrice reports whether the product carries a usable price.
func (p *ScrapedProduct) HasPrice() bool {
	return p.Price.Valid()
}
