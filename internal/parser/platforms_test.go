package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maltedev/price-tracker/internal/models"
)

type expectedProduct struct {
	name  string
	price float64
	url   string
	image string
}

func TestSearchResultsPerPlatform(t *testing.T) {
	tests := []struct {
		name     string
		platform models.Platform
		baseURL  string
		html     string
		expected []expectedProduct
	}{
		{
			name:     "ebay skips cards without link",
			platform: models.PlatformEbay,
			baseURL:  "https://www.ebay.com",
			html: `
			<li class="s-item">
				<img class="s-item__image-img" src="https://i.ebayimg.com/1.jpg">
				<a class="s-item__link" href="https://www.ebay.com/itm/1"><div class="s-item__title">Vintage Camera</div></a>
				<span class="s-item__price">$120.50</span>
			</li>
			<li class="s-item">
				<div class="s-item__title">No Link</div>
				<span class="s-item__price">$5.00</span>
			</li>`,
			expected: []expectedProduct{
				{"Vintage Camera", 120.5, "https://www.ebay.com/itm/1", "https://i.ebayimg.com/1.jpg"},
			},
		},
		{
			name:     "walmart keeps cards without link",
			platform: models.PlatformWalmart,
			baseURL:  "https://www.walmart.com",
			html: `
			<div data-item-id="1">
				<a href="/ip/tv/1"><span data-automation-id="product-title">55" TV</span></a>
				<div data-automation-id="product-price">current price $298.00</div>
				<img src="//i5.walmartimages.com/tv.jpg">
			</div>
			<div data-item-id="2">
				<span data-automation-id="product-title">Soundbar</span>
				<div data-automation-id="product-price">$79.99</div>
			</div>
			<div data-item-id="3">
				<span data-automation-id="product-title">Out of stock item</span>
			</div>`,
			expected: []expectedProduct{
				{`55" TV`, 298, "https://www.walmart.com/ip/tv/1", "https://i5.walmartimages.com/tv.jpg"},
				{"Soundbar", 79.99, "https://www.walmart.com", ""},
			},
		},
		{
			name:     "etsy uses first currency value",
			platform: models.PlatformEtsy,
			baseURL:  "https://www.etsy.com",
			html: `
			<div class="v2-listing-card">
				<a class="listing-link" href="https://www.etsy.com/listing/42/mug">
					<img class="main-image" src="https://i.etsystatic.com/mug.jpg">
					<h3 class="v2-listing-card__title">Handmade Mug</h3>
				</a>
				<span class="currency-value">24.00</span>
				<span class="wt-text-strikethrough"><span class="currency-value">30.00</span></span>
			</div>`,
			expected: []expectedProduct{
				{"Handmade Mug", 24, "https://www.etsy.com/listing/42/mug", "https://i.etsystatic.com/mug.jpg"},
			},
		},
		{
			name:     "best buy",
			platform: models.PlatformBestBuy,
			baseURL:  "https://www.bestbuy.com",
			html: `
			<li class="sku-item">
				<img class="product-image" src="https://pisces.bbystatic.com/laptop.jpg">
				<h4 class="sku-header"><a href="/site/laptop/123.p">Gaming Laptop</a></h4>
				<div class="priceView-customer-price"><span>$1,199.99</span><span>Your price for this item is $1,199.99</span></div>
			</li>
			<li class="sku-item">
				<h4 class="sku-header"><a href="/site/mouse/456.p">Mouse</a></h4>
			</li>`,
			expected: []expectedProduct{
				{"Gaming Laptop", 1199.99, "https://www.bestbuy.com/site/laptop/123.p", "https://pisces.bbystatic.com/laptop.jpg"},
			},
		},
		{
			name:     "home depot joins dollars and cents",
			platform: models.PlatformHomeDepot,
			baseURL:  "https://www.homedepot.com",
			html: `
			<div class="product-pod">
				<div class="product-pod--photo"><img src="https://images.thdstatic.com/drill.jpg"></div>
				<a class="product-pod--link" href="/p/drill/1"><span class="product-pod--title">Cordless Drill</span></a>
				<div class="price"><span class="price__dollars">$99</span><span class="price__cents">97</span></div>
			</div>
			<div class="product-pod">
				<a class="product-pod--link" href="/p/saw/2"><span class="product-pod--title">Hand Saw</span></a>
				<div class="price"><span class="price__dollars">$15</span></div>
			</div>`,
			expected: []expectedProduct{
				{"Cordless Drill", 99.97, "https://www.homedepot.com/p/drill/1", "https://images.thdstatic.com/drill.jpg"},
				{"Hand Saw", 15, "https://www.homedepot.com/p/saw/2", ""},
			},
		},
		{
			name:     "zara requires link",
			platform: models.PlatformZara,
			baseURL:  "https://www.zara.com",
			html: `
			<li class="product-grid-product">
				<a href="https://www.zara.com/us/en/linen-shirt-p1.html"><img src="https://static.zara.net/shirt.jpg"></a>
				<h3 class="product-grid-product-info__name">Linen Shirt</h3>
				<span class="money-amount__main">49.90 USD</span>
			</li>
			<li class="product-grid-product">
				<h3 class="product-grid-product-info__name">Sold Out Dress</h3>
				<span class="price-current__amount">69.90 USD</span>
			</li>`,
			expected: []expectedProduct{
				{"Linen Shirt", 49.9, "https://www.zara.com/us/en/linen-shirt-p1.html", "https://static.zara.net/shirt.jpg"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := NewScraper().ParseSearchResults(tt.html, tt.platform, tt.baseURL)
			require.Len(t, results, len(tt.expected))

			for i, want := range tt.expected {
				got := results[i]
				assert.Equal(t, want.name, got.Name)
				assert.InDelta(t, want.price, got.Price.Float64(), 1e-9)
				assert.Equal(t, want.url, got.URL)
				assert.Equal(t, want.image, got.Image)
				assert.Equal(t, tt.platform, got.Platform)
				assert.Equal(t, models.CurrencyUSD, got.Currency)
			}
		})
	}
}

func TestEbayProductDetails(t *testing.T) {
	html := `
	<h1 id="itemTitle"><span>Details about</span> Vintage Film Camera</h1>
	<span id="prcIsum">US $120.50</span>
	<div id="ds_div">Works great.</div>
	<span class="mbg-nw">camera_shop</span>
	<span id="qtySubTxt">3 available</span>
	<img id="icImg" src="https://i.ebayimg.com/cam.jpg">
	<div id="vi-itm-cond">Used</div>
	<div class="itemAttr"><table>
		<tr><th>Brand:</th><td>Canon</td></tr>
		<tr><th>Model:</th><td>AE-1</td></tr>
	</table></div>`

	d, err := NewScraper().ParseProductDetails(html, models.PlatformEbay, "https://www.ebay.com")
	require.NoError(t, err)

	assert.Equal(t, "Vintage Film Camera", d.Name)
	assert.InDelta(t, 120.5, d.Price.Float64(), 1e-9)
	assert.Equal(t, "Works great.", d.Description)
	assert.Equal(t, "camera_shop", d.Seller)
	assert.Equal(t, "3 available", d.Availability)
	assert.Equal(t, "https://i.ebayimg.com/cam.jpg", d.Image)
	assert.Equal(t, map[string]string{"Brand:": "Canon", "Model:": "AE-1", "condition": "Used"}, d.Specifications)
}

func TestEbayProductDetailsWithoutCondition(t *testing.T) {
	html := `<h1 class="x-item-title__mainTitle">Lens Cap</h1><div class="x-price-primary">$4.99</div>`

	d, err := NewScraper().ParseProductDetails(html, models.PlatformEbay, "https://www.ebay.com")
	require.NoError(t, err)

	assert.Equal(t, "Lens Cap", d.Name)
	assert.InDelta(t, 4.99, d.Price.Float64(), 1e-9)
	assert.NotContains(t, d.Specifications, "condition")
}

func TestWalmartProductDetails(t *testing.T) {
	html := `
	<h1 data-testid="product-title">Instant Pot</h1>
	<span data-testid="price-value">$89.00</span>
	<div class="about-product">Pressure cooker.</div>
	<div class="seller-name">Walmart.com</div>
	<img data-testid="hero-image" src="https://i5.walmartimages.com/pot.jpg">
	<table class="specification-table"><tr>
		<td><span class="specification-label">Capacity</span><span class="specification-value">6 qt</span></td>
		<td><span class="specification-label">Color</span></td>
	</tr></table>`

	d, err := NewScraper().ParseProductDetails(html, models.PlatformWalmart, "https://www.walmart.com")
	require.NoError(t, err)

	assert.Equal(t, "Instant Pot", d.Name)
	assert.InDelta(t, 89.0, d.Price.Float64(), 1e-9)
	assert.Equal(t, "Pressure cooker.", d.Description)
	assert.Equal(t, "Walmart.com", d.Seller)
	assert.Equal(t, "https://i5.walmartimages.com/pot.jpg", d.Image)
	assert.Equal(t, map[string]string{"Capacity": "6 qt"}, d.Specifications)
}

func TestEtsyProductDetails(t *testing.T) {
	html := `
	<h1 data-buy-box-listing-title="true">Handmade Mug</h1>
	<p class="wt-text-title-03">$24.00+</p>
	<div id="product-description-content">Stoneware mug.</div>
	<div class="shop-name-and-title-container">ClayStudio</div>
	<img class="carousel-image" src="https://i.etsystatic.com/mug.jpg">
	<div class="wt-grid__item-xs-12"><p class="wt-text-caption">Materials</p><p class="wt-text-body-01">Ceramic</p></div>`

	d, err := NewScraper().ParseProductDetails(html, models.PlatformEtsy, "https://www.etsy.com")
	require.NoError(t, err)

	assert.Equal(t, "Handmade Mug", d.Name)
	assert.InDelta(t, 24.0, d.Price.Float64(), 1e-9)
	assert.Equal(t, "Stoneware mug.", d.Description)
	assert.Equal(t, "ClayStudio", d.Seller)
	assert.Equal(t, "https://i.etsystatic.com/mug.jpg", d.Image)
	assert.Equal(t, map[string]string{"Materials": "Ceramic"}, d.Specifications)
}

func TestBestBuyProductDetails(t *testing.T) {
	html := `
	<div class="sku-title"><h1>Gaming Laptop</h1></div>
	<div class="priceView-customer-price"><span>$1,199.99</span><span>Your price $1,199.99</span></div>
	<div class="product-description">Fast.</div>
	<div class="product-data-item"><span class="product-data-key">Brand</span><span class="product-data-value">Acme</span></div>
	<button class="fulfillment-add-to-cart-button">Add to Cart</button>
	<img class="primary-image" src="https://pisces.bbystatic.com/laptop.jpg">`

	d, err := NewScraper().ParseProductDetails(html, models.PlatformBestBuy, "https://www.bestbuy.com")
	require.NoError(t, err)

	assert.Equal(t, "Gaming Laptop", d.Name)
	assert.InDelta(t, 1199.99, d.Price.Float64(), 1e-9)
	assert.Equal(t, "Fast.", d.Description)
	assert.Equal(t, "Acme", d.Brand)
	assert.Equal(t, "Add to Cart", d.Availability)
	assert.Equal(t, "https://pisces.bbystatic.com/laptop.jpg", d.Image)
	assert.Equal(t, map[string]string{"Brand": "Acme"}, d.Specifications)
}

func TestHomeDepotProductDetails(t *testing.T) {
	html := `
	<h1 class="product-title__title">Cordless Drill</h1>
	<div class="price-format__main-price">$99.97</div>
	<div class="product-details__brand-name">DEWALT</div>
	<div class="product-availability">In stock</div>
	<img class="highlight-image" src="https://images.thdstatic.com/drill.jpg">
	<ul class="specifications__list">
		<li><span class="specifications__name">Voltage</span><span class="specifications__value">20 V</span></li>
	</ul>`

	d, err := NewScraper().ParseProductDetails(html, models.PlatformHomeDepot, "https://www.homedepot.com")
	require.NoError(t, err)

	assert.Equal(t, "Cordless Drill", d.Name)
	assert.InDelta(t, 99.97, d.Price.Float64(), 1e-9)
	assert.Equal(t, "DEWALT", d.Brand)
	assert.Equal(t, "In stock", d.Availability)
	assert.Equal(t, map[string]string{"Voltage": "20 V"}, d.Specifications)
}

func TestZaraProductDetails(t *testing.T) {
	html := `
	<div class="product-detail-info__header"><h1>Linen Shirt</h1></div>
	<span class="price__amount">49.90 USD</span>
	<div class="product-detail-description">100% linen.</div>
	<div class="product-detail-size-info">Fits true to size</div>
	<div class="product-detail-images"><img src="https://static.zara.net/1.jpg"><img src="https://static.zara.net/2.jpg"></div>
	<ul class="size-selector__size-list">
		<li><button>S</button></li>
		<li><button class="is-disabled">M</button></li>
		<li><button> </button></li>
	</ul>`

	d, err := NewScraper().ParseProductDetails(html, models.PlatformZara, "https://www.zara.com")
	require.NoError(t, err)

	assert.Equal(t, "Linen Shirt", d.Name)
	assert.InDelta(t, 49.9, d.Price.Float64(), 1e-9)
	assert.Equal(t, "100% linen.", d.Description)
	assert.Equal(t, "Fits true to size", d.Availability)
	assert.Equal(t, "https://static.zara.net/1.jpg", d.Image)

	require.Len(t, d.Variants, 2)
	assert.Equal(t, models.Variant{Name: "S", Available: true}, d.Variants[0])
	assert.Equal(t, models.Variant{Name: "M", Available: false}, d.Variants[1])
}

func TestDealsPerPlatform(t *testing.T) {
	tests := []struct {
		name     string
		platform models.Platform
		baseURL  string
		html     string
		original float64
		discount float64
	}{
		{
			name:     "ebay strikethrough",
			platform: models.PlatformEbay,
			baseURL:  "https://www.ebay.com",
			html: `<li class="s-item">
				<a class="s-item__link" href="/itm/9"><span class="s-item__title">Drone</span></a>
				<span class="s-item__price">$80.00</span>
				<span class="s-item__trending-price"><span class="STRIKETHROUGH">$100.00</span></span>
			</li>`,
			original: 100,
			discount: 20,
		},
		{
			name:     "best buy savings badge",
			platform: models.PlatformBestBuy,
			baseURL:  "https://www.bestbuy.com",
			html: `<li class="sku-item">
				<h4 class="sku-header"><a href="/site/tv/1.p">TV</a></h4>
				<div class="priceView-customer-price"><span>$300.00</span></div>
				<div class="pricing-price__regular-price">Was $400.00</div>
				<div class="pricing-price__savings">Save 25%</div>
			</li>`,
			original: 400,
			discount: 25,
		},
		{
			name:     "zara old price",
			platform: models.PlatformZara,
			baseURL:  "https://www.zara.com",
			html: `<li class="product-grid-product">
				<a href="/us/en/coat-p2.html"></a>
				<h3 class="product-grid-product-info__name">Wool Coat</h3>
				<span class="price-old__amount">199.00 USD</span>
				<span class="price-current__amount">99.50 USD</span>
				<span class="price-current__discount-percentage">-50%</span>
			</li>`,
			original: 199,
			discount: 50,
		},
		{
			name:     "amazon deals page card",
			platform: models.PlatformAmazon,
			baseURL:  "https://www.amazon.com",
			html: `<div data-testid="deal-card">
				<h2><a href="/dp/D1"><span>Smart Speaker</span></a></h2>
				<span class="a-price-whole">24.</span><span class="a-price-fraction">99</span>
				<span class="a-price a-text-price"><span class="a-offscreen">$49.99</span></span>
				<span class="a-badge-text">Up to 50% off</span>
			</div>`,
			original: 49.99,
			discount: 50,
		},
		{
			name:     "ebay daily deals tile",
			platform: models.PlatformEbay,
			baseURL:  "https://www.ebay.com",
			html: `<div class="dne-itemtile">
				<a class="s-item__link" href="/itm/77"><span class="s-item__title">Headphones</span></a>
				<span class="s-item__price">$60.00</span>
				<span class="s-item__original-price">$75.00</span>
			</div>`,
			original: 75,
			discount: 20,
		},
		{
			name:     "walmart deals tile",
			platform: models.PlatformWalmart,
			baseURL:  "https://www.walmart.com",
			html: `<div data-testid="deal-item-tile">
				<a href="/ip/55"><span data-automation-id="product-title">Air Fryer</span></a>
				<div data-automation-id="product-price">$45.00</div>
				<div data-automation-id="strikethrough-price">$90.00</div>
			</div>`,
			original: 90,
			discount: 50,
		},
		{
			name:     "etsy sale listing",
			platform: models.PlatformEtsy,
			baseURL:  "https://www.etsy.com",
			html: `<div class="listing-card-sale">
				<a class="listing-link" href="/listing/8/mug"><h3 class="v2-listing-card__title">Ceramic Mug</h3></a>
				<span class="currency-value">18.00</span>
				<span class="wt-text-strikethrough">$24.00</span>
				<span class="wt-badge--sale">25% off</span>
			</div>`,
			original: 24,
			discount: 25,
		},
		{
			name:     "best buy offer item",
			platform: models.PlatformBestBuy,
			baseURL:  "https://www.bestbuy.com",
			html: `<div class="offer-item">
				<h4 class="sku-header"><a href="/site/laptop/9.p">Laptop</a></h4>
				<div class="priceView-customer-price"><span>$600.00</span></div>
				<div class="pricing-price__regular-price">Was $800.00</div>
			</div>`,
			original: 800,
			discount: 25,
		},
		{
			name:     "home depot savings center pod",
			platform: models.PlatformHomeDepot,
			baseURL:  "https://www.homedepot.com",
			html: `<div data-testid="savings-center-pod">
				<a class="product-pod--link" href="/p/mower/3"><span class="product-pod--title">Lawn Mower</span></a>
				<span class="price__dollars">299.</span><span class="price__cents">00</span>
				<span class="price-format__was-price">$399.00</span>
				<span class="price__savings">Save 25%</span>
			</div>`,
			original: 399,
			discount: 25,
		},
		{
			name:     "zara sale grid block",
			platform: models.PlatformZara,
			baseURL:  "https://www.zara.com",
			html: `<li class="product-grid-block-dynamic__product">
				<a href="/us/en/dress-p3.html"></a>
				<h3 class="product-grid-product-info__name">Linen Dress</h3>
				<span class="price-old__amount">80.00 USD</span>
				<span class="price-current__amount">60.00 USD</span>
			</li>`,
			original: 80,
			discount: 25,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deals := NewScraper().ParseDeals(tt.html, tt.platform, tt.baseURL)
			require.Len(t, deals, 1)
			require.NotNil(t, deals[0].OriginalPrice)
			assert.InDelta(t, tt.original, deals[0].OriginalPrice.Float64(), 1e-9)
			assert.InDelta(t, tt.discount, deals[0].DiscountPercentage, 1e-9)
		})
	}
}

func TestDealsPreferDealsPageCards(t *testing.T) {
	html := `<div id="grid">
		<div data-testid="deal-card">
			<h2><a href="/dp/D1"><span>Deal Item</span></a></h2>
			<span class="a-price-whole">10</span><span class="a-price-fraction">00</span>
			<span class="a-badge-text">30% off</span>
		</div>
		<div class="s-result-item" data-asin="S1">
			<h2><a href="/dp/S1"><span>Search Item</span></a></h2>
			<span class="a-price-whole">5</span><span class="a-price-fraction">00</span>
		</div>
	</div>`

	deals := NewScraper().ParseDeals(html, models.PlatformAmazon, "https://www.amazon.com")
	require.Len(t, deals, 1)
	assert.Equal(t, "Deal Item", deals[0].Name)
	assert.Equal(t, "https://www.amazon.com/dp/D1", deals[0].URL)
	assert.InDelta(t, 30, deals[0].DiscountPercentage, 1e-9)
	assert.Nil(t, deals[0].OriginalPrice)
}

func TestHomeDepotDollarsWithTrailingDot(t *testing.T) {
	html := `<div class="product-pod">
		<a class="product-pod--link" href="/p/drill/1"><span class="product-pod--title">Drill</span></a>
		<span class="price__dollars">$99.</span><span class="price__cents">97</span>
	</div>`

	products := NewScraper().ParseSearchResults(html, models.PlatformHomeDepot, "https://www.homedepot.com")
	require.Len(t, products, 1)
	assert.InDelta(t, 99.97, products[0].Price.Float64(), 1e-9)
}
