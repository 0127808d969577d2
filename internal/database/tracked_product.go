package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/maltedev/price-tracker/internal/models"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

type TrackingType string

const (
	TrackingPriceChange TrackingType = "price_change"
	TrackingTargetPrice TrackingType = "target_price"
)

func (t TrackingType) Valid() bool {
	return t == TrackingPriceChange || t == TrackingTargetPrice
}

// TrackedProduct is a product page a user watches for price changes.
type TrackedProduct struct {
	ID               uuid.UUID       `json:"id"`
	UserID           string          `json:"user_id"`
	URL              string          `json:"url"`
	Name             string          `json:"name"`
	Platform         models.Platform `json:"platform"`
	TrackingType     TrackingType    `json:"tracking_type"`
	TargetPriceCents *int64          `json:"target_price_cents,omitempty"`
	LatestPriceCents *int64          `json:"latest_price_cents,omitempty"`
	LastCheckedAt    *time.Time      `json:"last_checked_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	PriceHistory     []PricePoint    `json:"price_history,omitempty"`
}

type PricePoint struct {
	PriceCents int64     `json:"price_cents"`
	Currency   string    `json:"currency"`
	RecordedAt time.Time `json:"recorded_at"`
}

// TrackRequest describes a product to start tracking. TargetPrice is in
// currency units, not cents.
type TrackRequest struct {
	Name         string          `json:"name"`
	URL          string          `json:"url"`
	Platform     models.Platform `json:"platform,omitempty"`
	TrackingType TrackingType    `json:"tracking_type,omitempty"`
	TargetPrice  *float64        `json:"target_price,omitempty"`
}

// PriceUpdate is one observed price for a tracked product.
type PriceUpdate struct {
	ProductID  uuid.UUID
	PriceCents int64
	Currency   string
}

// Normalize validates req and fills defaults: price_change tracking and a
// platform detected from the URL.
func (req *TrackRequest) Normalize() error {
	req.URL = strings.TrimSpace(req.URL)
	req.Name = strings.TrimSpace(req.Name)

	if req.URL == "" {
		return fmt.Errorf("%w: url is required", ErrInvalidInput)
	}
	if !strings.HasPrefix(req.URL, "http") {
		return fmt.Errorf("%w: invalid url format", ErrInvalidInput)
	}
	if req.TrackingType == "" {
		req.TrackingType = TrackingPriceChange
	}
	if !req.TrackingType.Valid() {
		return fmt.Errorf("%w: unknown tracking type %q", ErrInvalidInput, req.TrackingType)
	}
	if req.TargetPrice != nil && *req.TargetPrice < 0 {
		return fmt.Errorf("%w: target price must not be negative", ErrInvalidInput)
	}
	if req.Platform == "" || req.Platform == models.PlatformUnknown {
		req.Platform = models.DetectPlatform(req.URL)
	}
	return nil
}

func (req *TrackRequest) targetCents() *int64 {
	if req.TargetPrice == nil {
		return nil
	}
	cents, ok := models.Number(*req.TargetPrice).Cents()
	if !ok {
		return nil
	}
	return &cents
}

// TrackProduct starts tracking a product for userID.
func (db *DB) TrackProduct(ctx context.Context, userID string, req TrackRequest) (*TrackedProduct, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if err := req.Normalize(); err != nil {
		return nil, err
	}

	p := &TrackedProduct{
		ID:               uuid.New(),
		UserID:           userID,
		URL:              req.URL,
		Name:             req.Name,
		Platform:         req.Platform,
		TrackingType:     req.TrackingType,
		TargetPriceCents: req.targetCents(),
	}

	query := `
		INSERT INTO tracked_products (
			id, user_id, url, name, platform, tracking_type, target_price_cents
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
		RETURNING created_at, updated_at`

	err := db.pool.QueryRow(ctx, query,
		p.ID, p.UserID, p.URL, p.Name, string(p.Platform), string(p.TrackingType), p.TargetPriceCents,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to track product: %w", err)
	}

	return p, nil
}

// UntrackProduct deletes a tracked product owned by userID together with its
// price history.
func (db *DB) UntrackProduct(ctx context.Context, userID, productID string) error {
	id, err := uuid.Parse(productID)
	if err != nil {
		return fmt.Errorf("%w: product %s", ErrNotFound, productID)
	}

	result, err := db.pool.Exec(ctx,
		"DELETE FROM tracked_products WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return fmt.Errorf("failed to untrack product: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: product %s", ErrNotFound, productID)
	}

	return nil
}

const selectTrackedProducts = `
	SELECT
		p.id, p.user_id, p.url, p.name, p.platform, p.tracking_type,
		p.target_price_cents, lp.price_cents, p.last_checked_at,
		p.created_at, p.updated_at
	FROM tracked_products p
	LEFT JOIN LATERAL (
		SELECT h.price_cents
		FROM price_history h
		WHERE h.product_id = p.id
		ORDER BY h.recorded_at DESC, h.id DESC
		LIMIT 1
	) lp ON TRUE`

// ListUserProducts returns the products userID tracks, oldest first. With
// includeHistory every product carries its price history, newest first.
func (db *DB) ListUserProducts(ctx context.Context, userID string, includeHistory bool) ([]*TrackedProduct, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	products, err := db.queryTrackedProducts(ctx,
		selectTrackedProducts+" WHERE p.user_id = $1 ORDER BY p.created_at, p.id", userID)
	if err != nil {
		return nil, err
	}

	if includeHistory && len(products) > 0 {
		if err := db.attachPriceHistory(ctx, products); err != nil {
			return nil, err
		}
	}

	return products, nil
}

// ListTrackedProducts returns every tracked product with its latest price.
func (db *DB) ListTrackedProducts(ctx context.Context) ([]*TrackedProduct, error) {
	return db.queryTrackedProducts(ctx, selectTrackedProducts+" ORDER BY p.created_at, p.id")
}

func (db *DB) queryTrackedProducts(ctx context.Context, query string, args ...interface{}) ([]*TrackedProduct, error) {
	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracked products: %w", err)
	}
	defer rows.Close()

	products := make([]*TrackedProduct, 0)
	for rows.Next() {
		var (
			p            TrackedProduct
			platform     string
			trackingType string
		)
		err := rows.Scan(
			&p.ID, &p.UserID, &p.URL, &p.Name, &platform, &trackingType,
			&p.TargetPriceCents, &p.LatestPriceCents, &p.LastCheckedAt,
			&p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tracked product: %w", err)
		}
		p.Platform = models.Platform(platform)
		p.TrackingType = TrackingType(trackingType)
		products = append(products, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return products, nil
}

func (db *DB) attachPriceHistory(ctx context.Context, products []*TrackedProduct) error {
	byID := make(map[uuid.UUID]*TrackedProduct, len(products))
	ids := make([]string, 0, len(products))
	for _, p := range products {
		byID[p.ID] = p
		ids = append(ids, p.ID.String())
	}

	query := `
		SELECT product_id, price_cents, currency, recorded_at
		FROM price_history
		WHERE product_id = ANY($1::uuid[])
		ORDER BY recorded_at DESC, id DESC`

	rows, err := db.pool.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("failed to get price history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			productID uuid.UUID
			point     PricePoint
		)
		if err := rows.Scan(&productID, &point.PriceCents, &point.Currency, &point.RecordedAt); err != nil {
			return fmt.Errorf("failed to scan price point: %w", err)
		}
		if p, ok := byID[productID]; ok {
			p.PriceHistory = append(p.PriceHistory, point)
		}
	}

	return rows.Err()
}

// SavePriceUpdates records a batch of observed prices and the events they
// trigger in one transaction. Either everything is stored or nothing is.
func (db *DB) SavePriceUpdates(ctx context.Context, updates []PriceUpdate, events []*OutboxEvent) error {
	if len(updates) == 0 {
		return fmt.Errorf("%w: no price updates", ErrInvalidInput)
	}
	for _, u := range updates {
		if u.ProductID == uuid.Nil || u.PriceCents < 0 {
			return fmt.Errorf("%w: invalid price update for product %s", ErrInvalidInput, u.ProductID)
		}
	}

	outbox := NewOutboxRepository(db)
	return db.Transaction(ctx, func(tx pgx.Tx) error {
		now := time.Now()
		for _, u := range updates {
			currency := u.Currency
			if currency == "" {
				currency = models.CurrencyUSD
			}

			result, err := tx.Exec(ctx, `
				UPDATE tracked_products
				SET last_checked_at = $2, updated_at = $2
				WHERE id = $1`,
				u.ProductID, now)
			if err != nil {
				return fmt.Errorf("failed to update product %s: %w", u.ProductID, err)
			}
			if result.RowsAffected() == 0 {
				return fmt.Errorf("%w: product %s", ErrNotFound, u.ProductID)
			}

			if _, err := tx.Exec(ctx, `
				INSERT INTO price_history (product_id, price_cents, currency, recorded_at)
				VALUES ($1, $2, $3, $4)`,
				u.ProductID, u.PriceCents, currency, now); err != nil {
				return fmt.Errorf("failed to insert price for product %s: %w", u.ProductID, err)
			}
		}

		for _, event := range events {
			if err := outbox.InsertWithTx(ctx, tx, event); err != nil {
				return err
			}
		}
		return nil
	})
}
