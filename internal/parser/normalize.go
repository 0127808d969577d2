package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/maltedev/price-tracker/internal/models"
)

var (
	nonPriceChars  = regexp.MustCompile(`[^0-9.]`)
	nonDigitChars  = regexp.MustCompile(`[^0-9]`)
	discountRegexp = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)
)

// ParsePrice strips every character except digits and dots and parses the
// leading decimal of the remainder. Text without digits yields NaN.
func ParsePrice(text string) models.Number {
	return parseLeadingDecimal(nonPriceChars.ReplaceAllString(text, ""))
}

// ParseRating parses the decimal at the start of a rating text such as
// "4.5 out of 5 stars". It yields NaN when the text does not start with one.
func ParseRating(text string) models.Number {
	return parseLeadingDecimal(text)
}

// ParseReviews keeps only the digits of a review count text. It returns nil
// when no digits are present.
func ParseReviews(text string) *int {
	digits := nonDigitChars.ReplaceAllString(text, "")
	if digits == "" {
		return nil
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return nil
	}
	return &n
}

// ResolveURL makes href absolute against baseURL. Hrefs starting with "http"
// are returned unchanged, protocol-relative ones take the scheme of baseURL,
// and anything else is appended to baseURL as is. An empty href resolves to "".
func ResolveURL(baseURL, href string) string {
	href = strings.TrimSpace(href)
	switch {
	case href == "":
		return ""
	case strings.HasPrefix(href, "http"):
		return href
	case strings.HasPrefix(href, "//"):
		scheme := "https:"
		if i := strings.Index(baseURL, "//"); i > 0 {
			scheme = baseURL[:i]
		}
		return scheme + href
	default:
		return baseURL + href
	}
}

// ParseDiscount finds the first percentage in a badge text like "Save 25%"
// or "-30% off".
func ParseDiscount(text string) (float64, bool) {
	m := discountRegexp.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	pct, err := strconv.ParseFloat(m[1], 64)
	if err != nil || pct <= 0 || pct > 100 {
		return 0, false
	}
	return pct, true
}

// DiscountPercent is the reduction from original to price in percent, rounded
// to one decimal. It is 0 unless both prices are valid and price is lower.
func DiscountPercent(price, original models.Number) float64 {
	if !price.Valid() || !original.Valid() || original <= 0 || price >= original {
		return 0
	}
	pct := float64(original-price) / float64(original) * 100
	return math.Round(pct*10) / 10
}

// parseLeadingDecimal parses the longest decimal prefix of s after leading
// whitespace, the way a lenient float parser would.
func parseLeadingDecimal(s string) models.Number {
	s = strings.TrimLeft(s, " \t\r\n ")

	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
		digits++
	}
	if end < len(s) && s[end] == '.' {
		end++
		for end < len(s) && s[end] >= '0' && s[end] <= '9' {
			end++
			digits++
		}
	}
	if digits == 0 {
		return models.NaN()
	}

	f, err := strconv.ParseFloat(strings.TrimSuffix(s[:end], "."), 64)
	if err != nil {
		return models.NaN()
	}
	return models.Number(f)
}
