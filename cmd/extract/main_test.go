package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maltedev/price-tracker/internal/shopping"
)

func TestPageOrigin(t *testing.T) {
	tests := []struct {
		name    string
		mode    string
		url     string
		want    string
		wantErr error
	}{
		{name: "detail without url", mode: "detail"},
		{name: "detail with url", mode: "detail", url: "https://www.amazon.com/dp/B01", want: "https://www.amazon.com"},
		{name: "search needs url", mode: "search", wantErr: errURLRequired},
		{name: "deals needs url", mode: "deals", wantErr: errURLRequired},
		{name: "search with url", mode: "search", url: "https://www.ebay.com/sch/i.html?_nkw=mouse", want: "https://www.ebay.com"},
		{name: "relative url rejected", mode: "deals", url: "/deals", wantErr: shopping.ErrInvalidURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := pageOrigin(tt.mode, tt.url)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := pageOrigin("reviews", "https://www.amazon.com")
	assert.ErrorContains(t, err, "unknown mode")
}
