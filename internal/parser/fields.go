package parser

import (
	"github.com/maltedev/price-tracker/internal/models"
)

// collectSpecs adds one entry per row matched by rowSelector. Rows where the
// label or the value is empty are skipped.
func collectSpecs(specs map[string]string, doc Node, rowSelector, labelSelector, valueSelector string) {
	doc.Each(rowSelector, func(row Node) {
		label := row.Text(labelSelector)
		value := row.Text(valueSelector)
		if label != "" && value != "" {
			specs[label] = value
		}
	})
}

// optionalRating returns nil when no rating text exists at all, and a possibly
// NaN rating otherwise.
func optionalRating(text string) *models.Number {
	if text == "" {
		return nil
	}
	r := ParseRating(text)
	return &r
}

func optionalPrice(text string) *models.Number {
	if text == "" {
		return nil
	}
	p := ParsePrice(text)
	return &p
}
