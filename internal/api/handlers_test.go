package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/maltedev/price-tracker/internal/database"
	"github.com/maltedev/price-tracker/internal/fetch"
	"github.com/maltedev/price-tracker/internal/models"
	"github.com/maltedev/price-tracker/internal/parser"
	"github.com/maltedev/price-tracker/internal/shopping"
	"github.com/maltedev/price-tracker/internal/tracker"
)

type MockShopping struct {
	mock.Mock
}

func (m *MockShopping) ProductDetails(ctx context.Context, url string) (*models.ProductDetail, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProductDetail), args.Error(1)
}

func (m *MockShopping) Search(ctx context.Context, req shopping.SearchRequest) (*shopping.SearchResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shopping.SearchResponse), args.Error(1)
}

func (m *MockShopping) TopDeals(ctx context.Context, req shopping.DealsRequest) (*shopping.DealsResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shopping.DealsResponse), args.Error(1)
}

type MockProducts struct {
	mock.Mock
}

func (m *MockProducts) TrackProduct(ctx context.Context, userID string, req database.TrackRequest) (*database.TrackedProduct, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*database.TrackedProduct), args.Error(1)
}

func (m *MockProducts) UntrackProduct(ctx context.Context, userID, productID string) error {
	return m.Called(ctx, userID, productID).Error(0)
}

func (m *MockProducts) ListUserProducts(ctx context.Context, userID string, includeHistory bool) ([]*database.TrackedProduct, error) {
	args := m.Called(ctx, userID, includeHistory)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*database.TrackedProduct), args.Error(1)
}

type MockUpdater struct {
	mock.Mock
}

func (m *MockUpdater) RunOnce(ctx context.Context) (*tracker.Summary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tracker.Summary), args.Error(1)
}

type MockHealth struct {
	mock.Mock
}

func (m *MockHealth) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockHealth) OutboxStats(ctx context.Context) (*database.OutboxStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*database.OutboxStats), args.Error(1)
}

type testServer struct {
	shopping *MockShopping
	products *MockProducts
	updater  *MockUpdater
	health   *MockHealth
	handler  http.Handler
}

func newTestServer() *testServer {
	s := &testServer{
		shopping: new(MockShopping),
		products: new(MockProducts),
		updater:  new(MockUpdater),
		health:   new(MockHealth),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandlers(s.shopping, s.products, s.updater, s.health, logger)
	s.handler = NewRouter(h, RouterConfig{})
	return s
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		pingErr    error
		stats      *database.OutboxStats
		wantStatus int
		wantState  string
	}{
		{"ok", nil, &database.OutboxStats{Pending: 3}, http.StatusOK, "ok"},
		{"backlog warning", nil, &database.OutboxStats{Pending: 1001}, http.StatusOK, "warning"},
		{"dead letters", nil, &database.OutboxStats{DeadLetter: 101}, http.StatusServiceUnavailable, "error"},
		{"database down", errors.New("refused"), nil, http.StatusServiceUnavailable, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer()
			s.health.On("Ping", mock.Anything).Return(tt.pingErr)
			if tt.stats != nil {
				s.health.On("OutboxStats", mock.Anything).Return(tt.stats, nil)
			}

			rec := s.do(http.MethodGet, "/health", "")
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantState, decodeBody(t, rec)["status"])
		})
	}
}

func TestProductDetails(t *testing.T) {
	s := newTestServer()

	detail := models.NewProductDetail(models.PlatformAmazon, "https://www.amazon.com/dp/B0001")
	detail.Name = "Wireless Mouse"
	detail.Price = 29.99
	s.shopping.On("ProductDetails", mock.Anything, "https://www.amazon.com/dp/B0001").Return(detail, nil)

	rec := s.do(http.MethodPost, "/api/v1/products/details", `{"url":"https://www.amazon.com/dp/B0001"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decodeBody(t, rec)
	assert.Equal(t, "Wireless Mouse", body["name"])
	assert.Equal(t, 29.99, body["price"])
	assert.Equal(t, "amazon", body["platform"])
}

func TestProductDetails_BadRequests(t *testing.T) {
	s := newTestServer()

	rec := s.do(http.MethodPost, "/api/v1/products/details", `{"url":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid request body", decodeBody(t, rec)["error"])

	rec = s.do(http.MethodPost, "/api/v1/products/details", `{"url":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "url is required", decodeBody(t, rec)["error"])

	s.shopping.AssertNotCalled(t, "ProductDetails", mock.Anything, mock.Anything)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unsupported platform", fmt.Errorf("%w: unknown", parser.ErrUnsupportedPlatform), http.StatusBadRequest},
		{"invalid url", shopping.ErrInvalidURL, http.StatusBadRequest},
		{"upstream failure", fmt.Errorf("failed to fetch product page: %w", fetch.ErrUpstream), http.StatusBadGateway},
		{"empty body", fetch.ErrEmptyBody, http.StatusBadGateway},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer()
			s.shopping.On("ProductDetails", mock.Anything, mock.Anything).Return(nil, tt.err)

			rec := s.do(http.MethodPost, "/api/v1/products/details", `{"url":"https://www.target.com/p/1"}`)
			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, tt.err.Error(), decodeBody(t, rec)["error"])
		})
	}
}

func TestSearchProducts(t *testing.T) {
	s := newTestServer()

	want := shopping.SearchRequest{
		Query:      "mouse",
		Platforms:  []models.Platform{models.PlatformEbay},
		MaxResults: 5,
	}
	s.shopping.On("Search", mock.Anything, want).Return(&shopping.SearchResponse{
		Query: "mouse",
		Results: []shopping.PlatformResult{
			{Platform: models.PlatformEbay, Error: "upstream unavailable"},
		},
	}, nil)

	rec := s.do(http.MethodPost, "/api/v1/products/search", `{"query":"mouse","platforms":["ebay"],"max_results":5}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	results := body["results"].([]interface{})
	require.Len(t, results, 1)
	assert.Equal(t, "upstream unavailable", results[0].(map[string]interface{})["error"])
	s.shopping.AssertExpectations(t)
}

func TestSearchProducts_InvalidRequest(t *testing.T) {
	s := newTestServer()
	s.shopping.On("Search", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("%w: query is required", shopping.ErrInvalidRequest))

	rec := s.do(http.MethodPost, "/api/v1/products/search", `{"query":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTopDeals(t *testing.T) {
	s := newTestServer()
	s.shopping.On("TopDeals", mock.Anything, mock.MatchedBy(func(req shopping.DealsRequest) bool {
		return req.MinDiscountPercent != nil && *req.MinDiscountPercent == 20
	})).Return(&shopping.DealsResponse{Deals: []shopping.PlatformDeals{}}, nil)

	rec := s.do(http.MethodPost, "/api/v1/deals", `{"min_discount_percent":20}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	s.shopping.AssertExpectations(t)
}

func TestTrackProduct(t *testing.T) {
	s := newTestServer()

	target := 19.99
	tracked := &database.TrackedProduct{
		ID:           uuid.New(),
		UserID:       "user-1",
		URL:          "https://www.walmart.com/ip/1",
		Platform:     models.PlatformWalmart,
		TrackingType: database.TrackingTargetPrice,
	}
	s.products.On("TrackProduct", mock.Anything, "user-1", database.TrackRequest{
		URL:          "https://www.walmart.com/ip/1",
		TrackingType: database.TrackingTargetPrice,
		TargetPrice:  &target,
	}).Return(tracked, nil)

	rec := s.do(http.MethodPost, "/api/v1/users/user-1/products",
		`{"url":"https://www.walmart.com/ip/1","tracking_type":"target_price","target_price":19.99}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, tracked.ID.String(), decodeBody(t, rec)["id"])
}

func TestTrackProduct_InvalidInput(t *testing.T) {
	s := newTestServer()
	s.products.On("TrackProduct", mock.Anything, "user-1", mock.Anything).
		Return(nil, fmt.Errorf("%w: invalid url format", database.ErrInvalidInput))

	rec := s.do(http.MethodPost, "/api/v1/users/user-1/products", `{"url":"ftp://x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListUserProducts(t *testing.T) {
	s := newTestServer()
	s.products.On("ListUserProducts", mock.Anything, "user-1", true).
		Return([]*database.TrackedProduct{{ID: uuid.New(), UserID: "user-1"}}, nil)

	rec := s.do(http.MethodGet, "/api/v1/users/user-1/products?include_price_history=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decodeBody(t, rec)["count"])

	rec = s.do(http.MethodGet, "/api/v1/users/user-1/products?include_price_history=maybe", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUntrackProduct(t *testing.T) {
	s := newTestServer()
	s.products.On("UntrackProduct", mock.Anything, "user-1", "p-1").Return(nil)
	s.products.On("UntrackProduct", mock.Anything, "user-1", "p-2").
		Return(fmt.Errorf("%w: product p-2", database.ErrNotFound))

	rec := s.do(http.MethodDelete, "/api/v1/users/user-1/products/p-1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodDelete, "/api/v1/users/user-1/products/p-2", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdatePrices(t *testing.T) {
	s := newTestServer()
	s.updater.On("RunOnce", mock.Anything).Return(&tracker.Summary{Total: 4, Updated: 3, Failed: 1, Alerts: 2, Batches: 1}, nil).Once()
	s.updater.On("RunOnce", mock.Anything).Return(nil, tracker.ErrRunInProgress).Once()

	rec := s.do(http.MethodPost, "/api/v1/cron/update-prices", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(3), body["updated"])
	assert.Equal(t, float64(2), body["alerts"])

	rec = s.do(http.MethodPost, "/api/v1/cron/update-prices", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestUpdatePrices_OutlivesRequestContext(t *testing.T) {
	updater := new(MockUpdater)
	h := NewHandlers(new(MockShopping), new(MockProducts), updater, new(MockHealth), slog.New(slog.NewTextHandler(io.Discard, nil)))

	reqCtx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	<-reqCtx.Done()

	updater.On("RunOnce", mock.MatchedBy(func(ctx context.Context) bool {
		deadline, ok := ctx.Deadline()
		return ctx.Err() == nil && ok && time.Until(deadline) > time.Minute
	})).Return(&tracker.Summary{Total: 1, Updated: 1}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cron/update-prices", nil).WithContext(reqCtx)
	rec := httptest.NewRecorder()
	h.UpdatePrices(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	updater.AssertExpectations(t)
}
