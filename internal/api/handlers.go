package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/maltedev/price-tracker/internal/database"
	"github.com/maltedev/price-tracker/internal/fetch"
	"github.com/maltedev/price-tracker/internal/models"
	"github.com/maltedev/price-tracker/internal/parser"
	"github.com/maltedev/price-tracker/internal/shopping"
	"github.com/maltedev/price-tracker/internal/tracker"
)

type ShoppingService interface {
	ProductDetails(ctx context.Context, url string) (*models.ProductDetail, error)
	Search(ctx context.Context, req shopping.SearchRequest) (*shopping.SearchResponse, error)
	TopDeals(ctx context.Context, req shopping.DealsRequest) (*shopping.DealsResponse, error)
}

type ProductStore interface {
	TrackProduct(ctx context.Context, userID string, req database.TrackRequest) (*database.TrackedProduct, error)
	UntrackProduct(ctx context.Context, userID, productID string) error
	ListUserProducts(ctx context.Context, userID string, includeHistory bool) ([]*database.TrackedProduct, error)
}

type PriceUpdater interface {
	RunOnce(ctx context.Context) (*tracker.Summary, error)
}

type HealthChecker interface {
	Ping(ctx context.Context) error
	OutboxStats(ctx context.Context) (*database.OutboxStats, error)
}

const (
	pendingWarnThreshold     = 1000
	deadLetterErrorThreshold = 100
)

type Handlers struct {
	shopping ShoppingService
	products ProductStore
	updater  PriceUpdater
	health   HealthChecker
	logger   *slog.Logger
}

func NewHandlers(shopping ShoppingService, products ProductStore, updater PriceUpdater, health HealthChecker, logger *slog.Logger) *Handlers {
	return &Handlers{
		shopping: shopping,
		products: products,
		updater:  updater,
		health:   health,
		logger:   logger.With("component", "api"),
	}
}

// Health reports database reachability and the outbox backlog.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.health.Ping(ctx); err != nil {
		h.logger.Error("health check failed", "error", err)
		h.respondJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":  "error",
			"message": "database unreachable",
		})
		return
	}

	health := map[string]interface{}{"status": "ok"}
	status := http.StatusOK

	stats, err := h.health.OutboxStats(ctx)
	if err != nil {
		h.logger.Warn("failed to read outbox stats", "error", err)
	} else {
		health["outbox"] = stats
		if stats.Pending > pendingWarnThreshold {
			health["status"] = "warning"
			health["message"] = "High number of pending outbox events"
		}
		if stats.DeadLetter > deadLetterErrorThreshold {
			health["status"] = "error"
			health["message"] = "High number of dead letter events"
			status = http.StatusServiceUnavailable
		}
	}

	h.respondJSON(w, status, health)
}

type DetailsRequest struct {
	URL string `json:"url"`
}

// ProductDetails extracts a single product page.
func (h *Handlers) ProductDetails(w http.ResponseWriter, r *http.Request) {
	var req DetailsRequest
	if !h.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		h.respondError(w, http.StatusBadRequest, "url is required")
		return
	}

	detail, err := h.shopping.ProductDetails(r.Context(), req.URL)
	if err != nil {
		h.handleError(w, "failed to get product details", err)
		return
	}

	h.respondJSON(w, http.StatusOK, detail)
}

// SearchProducts searches the requested platforms.
func (h *Handlers) SearchProducts(w http.ResponseWriter, r *http.Request) {
	var req shopping.SearchRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.shopping.Search(r.Context(), req)
	if err != nil {
		h.handleError(w, "failed to search products", err)
		return
	}

	h.respondJSON(w, http.StatusOK, resp)
}

func (h *Handlers) TopDeals(w http.ResponseWriter, r *http.Request) {
	var req shopping.DealsRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.shopping.TopDeals(r.Context(), req)
	if err != nil {
		h.handleError(w, "failed to get deals", err)
		return
	}

	h.respondJSON(w, http.StatusOK, resp)
}

func (h *Handlers) TrackProduct(w http.ResponseWriter, r *http.Request) {
	var req database.TrackRequest
	if !h.decode(w, r, &req) {
		return
	}

	product, err := h.products.TrackProduct(r.Context(), chi.URLParam(r, "userID"), req)
	if err != nil {
		h.handleError(w, "failed to track product", err)
		return
	}

	h.respondJSON(w, http.StatusCreated, product)
}

func (h *Handlers) ListUserProducts(w http.ResponseWriter, r *http.Request) {
	includeHistory := false
	if v := r.URL.Query().Get("include_price_history"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "include_price_history must be a boolean")
			return
		}
		includeHistory = parsed
	}

	products, err := h.products.ListUserProducts(r.Context(), chi.URLParam(r, "userID"), includeHistory)
	if err != nil {
		h.handleError(w, "failed to list products", err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"products": products,
		"count":    len(products),
	})
}

func (h *Handlers) UntrackProduct(w http.ResponseWriter, r *http.Request) {
	err := h.products.UntrackProduct(r.Context(), chi.URLParam(r, "userID"), chi.URLParam(r, "productID"))
	if err != nil {
		h.handleError(w, "failed to untrack product", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// updateRunTimeout bounds a price update started over HTTP.
const updateRunTimeout = 30 * time.Minute

// UpdatePrices runs one price update over every tracked product. The run is
// detached from the request, so neither the router timeout nor a client
// hanging up stops it between batches.
func (h *Handlers) UpdatePrices(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), updateRunTimeout)
	defer cancel()

	summary, err := h.updater.RunOnce(ctx)
	if err != nil {
		h.handleError(w, "failed to update prices", err)
		return
	}

	h.respondJSON(w, http.StatusOK, summary)
}

func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// handleError maps domain errors to HTTP status codes.
func (h *Handlers) handleError(w http.ResponseWriter, msg string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(msg, "error", err)
	} else {
		h.logger.Debug(msg, "error", err)
	}
	h.respondError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, database.ErrInvalidInput),
		errors.Is(err, shopping.ErrInvalidRequest),
		errors.Is(err, shopping.ErrInvalidURL),
		errors.Is(err, parser.ErrUnsupportedPlatform):
		return http.StatusBadRequest
	case errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, tracker.ErrRunInProgress):
		return http.StatusConflict
	case errors.Is(err, fetch.ErrUpstream), errors.Is(err, fetch.ErrEmptyBody):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
