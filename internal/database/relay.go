package database

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// EventSource is stamped on every stream entry the relay writes.
const EventSource = "price-tracker"

// StreamWriter is the part of the go-redis client alerts are published with.
type StreamWriter interface {
	XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd
}

// alertQueue is the view of the outbox the relay works on.
type alertQueue interface {
	GetPending(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkProcessed(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, err error) error
}

// Relay publishes price alerts written to the outbox onto their Redis stream,
// one flat stream entry per alert so consumers read fields without decoding.
type Relay struct {
	queue     alertQueue
	streams   StreamWriter
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
	maxLen    int64
}

type RelayConfig struct {
	PollInterval time.Duration
	BatchSize    int
	// MaxStreamLen caps each stream approximately. Zero leaves streams untrimmed.
	MaxStreamLen int64
}

func NewRelay(db *DB, streams StreamWriter, logger *slog.Logger, config RelayConfig) *Relay {
	return newRelay(NewOutboxRepository(db), streams, logger, config)
}

func newRelay(queue alertQueue, streams StreamWriter, logger *slog.Logger, config RelayConfig) *Relay {
	if config.PollInterval <= 0 {
		config.PollInterval = 5 * time.Second
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}

	return &Relay{
		queue:     queue,
		streams:   streams,
		logger:    logger.With("component", "alert_relay"),
		interval:  config.PollInterval,
		batchSize: config.BatchSize,
		maxLen:    config.MaxStreamLen,
	}
}

// Run drains the outbox once, then again on every tick until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	r.logger.Info("alert relay running",
		"interval", r.interval,
		"batch_size", r.batchSize)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		if published, err := r.drain(ctx); err != nil {
			r.logger.Error("failed to drain outbox", "error", err)
		} else if published > 0 {
			r.logger.Info("price alerts published", "count", published)
		}

		select {
		case <-ctx.Done():
			r.logger.Info("alert relay stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// drain publishes full batches back to back so a backlog left by a large
// update run clears within one tick. It stops at the first short batch or
// when a batch publishes nothing, leaving failed alerts to their backoff.
func (r *Relay) drain(ctx context.Context) (int, error) {
	total := 0
	for ctx.Err() == nil {
		fetched, published, err := r.publishBatch(ctx)
		total += published
		if err != nil {
			return total, err
		}
		if fetched < r.batchSize || published == 0 {
			break
		}
	}
	return total, nil
}

func (r *Relay) publishBatch(ctx context.Context) (fetched, published int, err error) {
	alerts, err := r.queue.GetPending(ctx, r.batchSize)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get pending alerts: %w", err)
	}

	for _, alert := range alerts {
		if err := r.deliver(ctx, alert); err != nil {
			r.logger.Error("failed to publish price alert",
				"outbox_id", alert.ID,
				"event_type", alert.EventType,
				"product_id", alert.AggregateID,
				"attempt", alert.RetryCount+1,
				"error", err)
			continue
		}
		published++
	}

	return len(alerts), published, nil
}

// deliver writes one alert and records the outcome. An alert is only marked
// processed after Redis accepted the entry.
func (r *Relay) deliver(ctx context.Context, alert *OutboxEvent) error {
	values, err := streamValues(alert)
	if err == nil {
		args := &redis.XAddArgs{
			Stream: alert.TargetStream,
			Values: values,
		}
		if r.maxLen > 0 {
			args.MaxLen = r.maxLen
			args.Approx = true
		}
		_, err = r.streams.XAdd(ctx, args).Result()
		if err != nil {
			err = fmt.Errorf("failed to add to stream %s: %w", alert.TargetStream, err)
		}
	}

	if err != nil {
		if markErr := r.queue.MarkFailed(ctx, alert.ID, err); markErr != nil {
			r.logger.Error("failed to record publish failure",
				"outbox_id", alert.ID,
				"error", markErr)
		}
		return err
	}

	if err := r.queue.MarkProcessed(ctx, alert.ID); err != nil {
		return fmt.Errorf("published but not marked processed: %w", err)
	}

	r.logger.Debug("price alert published",
		"outbox_id", alert.ID,
		"event_type", alert.EventType,
		"product_id", alert.AggregateID,
		"stream", alert.TargetStream)
	return nil
}

// streamValues flattens the top-level fields of an alert payload into stream
// entry values. Strings and numbers are written as is, absent and null fields
// are left out, nested values are written as JSON. Relay metadata is added
// under keys the payload cannot override.
func streamValues(alert *OutboxEvent) (map[string]interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(alert.Payload))
	dec.UseNumber()

	var fields map[string]interface{}
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("alert payload is not a JSON object: %w", err)
	}

	values := make(map[string]interface{}, len(fields)+5)
	for key, v := range fields {
		switch v := v.(type) {
		case nil:
		case string:
			values[key] = v
		case json.Number:
			values[key] = v.String()
		case bool:
			values[key] = strconv.FormatBool(v)
		default:
			nested, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("failed to encode field %s: %w", key, err)
			}
			values[key] = string(nested)
		}
	}

	if _, ok := values["event_type"]; !ok {
		values["event_type"] = alert.EventType
	}
	if _, ok := values["product_id"]; !ok && alert.AggregateID != "" {
		values["product_id"] = alert.AggregateID
	}
	values["outbox_id"] = alert.ID.String()
	values["source"] = EventSource
	values["attempt"] = strconv.Itoa(alert.RetryCount + 1)

	return values, nil
}

// OutboxStats counts alerts still waiting to be published and alerts that
// gave up.
type OutboxStats struct {
	Pending    int64 `json:"pending"`
	DeadLetter int64 `json:"dead_letter"`
}

func (db *DB) OutboxStats(ctx context.Context) (*OutboxStats, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE status IN ($1, $2)),
			COUNT(*) FILTER (WHERE status = $3)
		FROM outbox_event`

	var stats OutboxStats
	err := db.pool.QueryRow(ctx, query,
		OutboxStatusPending, OutboxStatusFailed, OutboxStatusDeadLetter,
	).Scan(&stats.Pending, &stats.DeadLetter)
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox stats: %w", err)
	}

	return &stats, nil
}
