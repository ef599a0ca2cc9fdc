// Package events publishes rental lifecycle events to a Redis stream.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carhire/carhire/internal/metrics"
)

const (
	// StreamKey is the Redis stream for rental events.
	StreamKey = "stream:rental_events"

	// MaxStreamLen is the approximate max length of the stream.
	MaxStreamLen = 10000

	// PublishTimeout is the max time to wait for Redis publish.
	PublishTimeout = 200 * time.Millisecond
)

// Event types.
const (
	TypeRentalStarted  = "rental.started"
	TypeRentalReturned = "rental.returned"
)

// RentalEvent is the payload written to the stream.
type RentalEvent struct {
	Type       string `json:"type"`
	RentalID   string `json:"rental_id"`
	CarID      string `json:"car_id"`
	UserID     string `json:"user_id"`
	OccurredAt int64  `json:"t"` // Unix milliseconds
}

// Validate checks that the event is complete.
func (e RentalEvent) Validate() error {
	switch e.Type {
	case TypeRentalStarted, TypeRentalReturned:
	default:
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	if e.RentalID == "" {
		return fmt.Errorf("rental_id is required")
	}
	if e.CarID == "" {
		return fmt.Errorf("car_id is required")
	}
	if e.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	if e.OccurredAt <= 0 {
		return fmt.Errorf("occurred_at must be set")
	}
	return nil
}

// streamClient is the subset of the Redis client the publisher needs.
type streamClient interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// Publisher appends rental events to the Redis stream.
type Publisher struct {
	redis   streamClient
	logger  *slog.Logger
	metrics metrics.Recorder

	mu       sync.Mutex
	closed   bool
	inflight sync.WaitGroup
}

// NewPublisher creates a new rental event publisher.
func NewPublisher(client *redis.Client, logger *slog.Logger, recorder metrics.Recorder) *Publisher {
	return newPublisher(client, logger, recorder)
}

func newPublisher(client streamClient, logger *slog.Logger, recorder metrics.Recorder) *Publisher {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		redis:   client,
		logger:  logger.With("component", "events.publisher"),
		metrics: recorder,
	}
}

// Publish adds an event to the stream synchronously and returns its stream ID.
func (p *Publisher) Publish(ctx context.Context, event RentalEvent) (string, error) {
	if err := event.Validate(); err != nil {
		return "", fmt.Errorf("invalid event: %w", err)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}

	id, err := p.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		MaxLen: MaxStreamLen,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{
			"type":    event.Type,
			"payload": string(data),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd: %w", err)
	}

	return id, nil
}

// PublishAsync publishes without blocking the caller.
// Errors are logged and counted, never returned.
// Events arriving after Close are dropped.
func (p *Publisher) PublishAsync(event RentalEvent) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.logger.Warn("publisher closed, dropping rental event",
			"type", event.Type,
			"rental_id", event.RentalID,
		)
		p.metrics.IncEventPublished("dropped")
		return
	}
	p.inflight.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.inflight.Done()
		p.publishBestEffort(event)
	}()
}

// Close stops accepting events and waits for in-flight publishes,
// or until ctx is done. It has the server.ShutdownFunc signature.
func (p *Publisher) Close(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("rental event publisher drained")
		return nil
	case <-ctx.Done():
		p.logger.Warn("rental event publisher drain timed out")
		return fmt.Errorf("drain rental events: %w", ctx.Err())
	}
}

func (p *Publisher) publishBestEffort(event RentalEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), PublishTimeout)
	defer cancel()

	streamID, err := p.Publish(ctx, event)
	if err != nil {
		p.logger.Warn("failed to publish rental event",
			"type", event.Type,
			"rental_id", event.RentalID,
			"error", err,
		)
		p.metrics.IncEventPublished("dropped")
		return
	}

	p.logger.Debug("rental event published",
		"type", event.Type,
		"rental_id", event.RentalID,
		"stream_id", streamID,
	)
	p.metrics.IncEventPublished("success")
}

// NoopPublisher discards events. Used when EVENTS_ENABLED is false.
type NoopPublisher struct{}

// PublishAsync is a no-op.
func (NoopPublisher) PublishAsync(RentalEvent) {}
