package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/maltedev/price-tracker/internal/database"
	"github.com/maltedev/price-tracker/internal/events"
	"github.com/maltedev/price-tracker/internal/models"
)

var (
	ErrPriceUnavailable = errors.New("price unavailable")
	ErrRunInProgress    = errors.New("price update already running")
)

// Store is the persistence the updater needs.
type Store interface {
	ListTrackedProducts(ctx context.Context) ([]*database.TrackedProduct, error)
	SavePriceUpdates(ctx context.Context, updates []database.PriceUpdate, events []*database.OutboxEvent) error
}

// DetailSource fetches and extracts a product page.
type DetailSource interface {
	ProductDetails(ctx context.Context, url string) (*models.ProductDetail, error)
}

type Options struct {
	Concurrency     int
	UpdateBatchSize int
	BatchDelay      time.Duration
}

type Failure struct {
	ProductID string `json:"product_id"`
	URL       string `json:"url"`
	Error     string `json:"error"`
}

// Summary reports the outcome of one update run.
type Summary struct {
	Total      int           `json:"total"`
	Updated    int           `json:"updated"`
	Failed     int           `json:"failed"`
	Alerts     int           `json:"alerts"`
	Batches    int           `json:"batches"`
	Duration   time.Duration `json:"-"`
	DurationMS int64         `json:"duration_ms"`
	Failures   []Failure     `json:"failures,omitempty"`
}

// Updater refreshes the prices of all tracked products and raises price
// alerts through the outbox.
type Updater struct {
	store   Store
	details DetailSource
	opts    Options
	logger  *slog.Logger
	running sync.Mutex
}

func NewUpdater(store Store, details DetailSource, opts Options, logger *slog.Logger) *Updater {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.UpdateBatchSize < 1 {
		opts.UpdateBatchSize = 1
	}

	return &Updater{
		store:   store,
		details: details,
		opts:    opts,
		logger:  logger.With("component", "price_updater"),
	}
}

// observation is one successfully fetched price.
type observation struct {
	product *database.TrackedProduct
	update  database.PriceUpdate
	event   *database.OutboxEvent
}

// RunOnce fetches every tracked product in batches of Concurrency, then
// stores the new prices and alerts in chunks of UpdateBatchSize. Item and
// chunk failures are recorded in the summary and never abort the run.
func (u *Updater) RunOnce(ctx context.Context) (*Summary, error) {
	if !u.running.TryLock() {
		return nil, ErrRunInProgress
	}
	defer u.running.Unlock()

	began := time.Now()
	summary := &Summary{}
	defer func() {
		summary.Duration = time.Since(began)
		summary.DurationMS = summary.Duration.Milliseconds()
	}()

	products, err := u.store.ListTrackedProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracked products: %w", err)
	}
	summary.Total = len(products)
	if len(products) == 0 {
		u.logger.Info("no tracked products to update")
		return summary, nil
	}

	u.logger.Info("starting price update", "products", len(products))

	var observed []observation
	for start := 0; start < len(products); start += u.opts.Concurrency {
		if start > 0 && u.opts.BatchDelay > 0 {
			select {
			case <-ctx.Done():
				return summary, ctx.Err()
			case <-time.After(u.opts.BatchDelay):
			}
		}

		end := min(start+u.opts.Concurrency, len(products))
		summary.Batches++

		batch := u.fetchBatch(ctx, products[start:end])
		for i, result := range batch {
			if result.err != nil {
				p := products[start+i]
				u.logger.Warn("failed to update product price",
					"product_id", p.ID, "url", p.URL, "error", result.err)
				summary.addFailure(p, result.err)
				continue
			}
			observed = append(observed, result.obs)
		}
	}

	for start := 0; start < len(observed); start += u.opts.UpdateBatchSize {
		end := min(start+u.opts.UpdateBatchSize, len(observed))
		chunk := observed[start:end]

		if err := u.persist(ctx, chunk); err != nil {
			u.logger.Error("failed to save price updates", "count", len(chunk), "error", err)
			for _, o := range chunk {
				summary.addFailure(o.product, err)
			}
			continue
		}

		summary.Updated += len(chunk)
		for _, o := range chunk {
			if o.event != nil {
				summary.Alerts++
			}
		}
	}

	u.logger.Info("price update complete",
		"total", summary.Total,
		"updated", summary.Updated,
		"failed", summary.Failed,
		"alerts", summary.Alerts)

	return summary, nil
}

type fetchResult struct {
	obs observation
	err error
}

func (u *Updater) fetchBatch(ctx context.Context, products []*database.TrackedProduct) []fetchResult {
	results := make([]fetchResult, len(products))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.opts.Concurrency)
	for i, p := range products {
		i, p := i, p
		g.Go(func() error {
			obs, err := u.observe(gctx, p)
			results[i] = fetchResult{obs: obs, err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (u *Updater) observe(ctx context.Context, p *database.TrackedProduct) (observation, error) {
	detail, err := u.details.ProductDetails(ctx, p.URL)
	if err != nil {
		return observation{}, err
	}

	cents, ok := detail.Price.Cents()
	if !ok || cents < 0 {
		return observation{}, ErrPriceUnavailable
	}

	currency := detail.Currency
	if currency == "" {
		currency = models.CurrencyUSD
	}

	obs := observation{
		product: p,
		update: database.PriceUpdate{
			ProductID:  p.ID,
			PriceCents: cents,
			Currency:   currency,
		},
	}

	if eventType, fire := detectAlert(p, cents); fire {
		event, err := events.NewPriceAlertEvent(&events.PriceAlertPayload{
			EventType:     eventType,
			ProductID:     p.ID.String(),
			UserID:        p.UserID,
			URL:           p.URL,
			Name:          p.Name,
			Platform:      p.Platform,
			TrackingType:  p.TrackingType,
			PreviousCents: p.LatestPriceCents,
			CurrentCents:  cents,
			TargetCents:   p.TargetPriceCents,
			Currency:      currency,
		})
		if err != nil {
			u.logger.Error("failed to build price alert", "product_id", p.ID, "error", err)
		} else {
			obs.event = event
		}
	}

	return obs, nil
}

func (u *Updater) persist(ctx context.Context, chunk []observation) error {
	updates := make([]database.PriceUpdate, 0, len(chunk))
	var alerts []*database.OutboxEvent
	for _, o := range chunk {
		updates = append(updates, o.update)
		if o.event != nil {
			alerts = append(alerts, o.event)
		}
	}
	return u.store.SavePriceUpdates(ctx, updates, alerts)
}

// detectAlert decides whether a newly observed price raises an alert.
// price_change fires on any drop below the previous price. target_price fires
// once when the price crosses to or below the target.
func detectAlert(p *database.TrackedProduct, current int64) (events.EventType, bool) {
	switch p.TrackingType {
	case database.TrackingPriceChange:
		if p.LatestPriceCents != nil && current < *p.LatestPriceCents {
			return events.EventTypePriceDropped, true
		}
	case database.TrackingTargetPrice:
		if p.TargetPriceCents == nil || current > *p.TargetPriceCents {
			return "", false
		}
		if p.LatestPriceCents == nil || *p.LatestPriceCents > *p.TargetPriceCents {
			return events.EventTypeTargetPriceReached, true
		}
	}
	return "", false
}

func (s *Summary) addFailure(p *database.TrackedProduct, err error) {
	s.Failed++
	s.Failures = append(s.Failures, Failure{
		ProductID: p.ID.String(),
		URL:       p.URL,
		Error:     err.Error(),
	})
}
