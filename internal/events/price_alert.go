package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/maltedev/price-tracker/internal/database"
	"github.com/maltedev/price-tracker/internal/models"
)

type EventType string

const (
	// EventTypePriceDropped is raised for price_change tracking when the new
	// price is below the previous one.
	EventTypePriceDropped EventType = "PRICE_DROPPED"
	// EventTypeTargetPriceReached is raised for target_price tracking the
	// first time the price falls to or below the target.
	EventTypeTargetPriceReached EventType = "TARGET_PRICE_REACHED"

	PriceAlertStream = database.DefaultTargetStream
	aggregateType    = "tracked_product"
)

type PriceAlertPayload struct {
	EventID       string                `json:"event_id"`
	EventType     EventType             `json:"event_type"`
	Timestamp     time.Time             `json:"timestamp"`
	ProductID     string                `json:"product_id"`
	UserID        string                `json:"user_id"`
	URL           string                `json:"url"`
	Name          string                `json:"name"`
	Platform      models.Platform       `json:"platform"`
	TrackingType  database.TrackingType `json:"tracking_type"`
	PreviousCents *int64                `json:"previous_cents,omitempty"`
	CurrentCents  int64                 `json:"current_cents"`
	TargetCents   *int64                `json:"target_cents,omitempty"`
	Currency      string                `json:"currency"`
}

// NewPriceAlertEvent fills in the event id and timestamp when missing and
// wraps the payload in an outbox event for the price alert stream.
func NewPriceAlertEvent(payload *PriceAlertPayload) (*database.OutboxEvent, error) {
	if payload.EventType == "" {
		return nil, fmt.Errorf("%w: price alert needs an event type", database.ErrInvalidInput)
	}
	if payload.EventID == "" {
		payload.EventID = uuid.New().String()
	}
	if payload.Timestamp.IsZero() {
		payload.Timestamp = time.Now().UTC()
	}
	if payload.Currency == "" {
		payload.Currency = models.CurrencyUSD
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}

	return &database.OutboxEvent{
		AggregateType: aggregateType,
		AggregateID:   payload.ProductID,
		EventType:     string(payload.EventType),
		Payload:       data,
		TargetStream:  PriceAlertStream,
	}, nil
}
