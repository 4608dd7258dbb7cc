package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/channelmux/channelmux/internal/db"
	"github.com/channelmux/channelmux/internal/models"
	"github.com/channelmux/channelmux/pkg/config"
	"github.com/channelmux/channelmux/pkg/logging"
)

const baseBackoff = 10 * time.Second

// Enqueue records a relay event in the outbox of the database the write
// happened in. Delivery to the main store happens asynchronously.
func Enqueue(ctx context.Context, repo *db.Repository, kind string, envelope *Envelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to encode relay payload: %w", err)
	}

	now := time.Now().UTC()
	return db.NewOutboxRepository(repo).Enqueue(ctx, &models.RelayEvent{
		ID:            uuid.NewString(),
		Kind:          kind,
		Payload:       payload,
		Status:        models.RelayStatusPending,
		NextAttemptAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
}

// Sender delivers one envelope; satisfied by *Client
type Sender interface {
	Send(ctx context.Context, envelope *Envelope) error
}

// Worker drains the relay outbox: due pending events are posted to the
// main webhook endpoint, failures back off exponentially, and events
// that exhaust their attempts are parked as failed.
type Worker struct {
	outbox      *db.OutboxRepository
	sender      Sender
	interval    time.Duration
	maxAttempts int
	batchSize   int
	logger      *zap.Logger

	now func() time.Time
}

// NewWorker creates a new outbox worker
func NewWorker(repo *db.Repository, sender Sender, cfg *config.RelayConfig) *Worker {
	return &Worker{
		outbox:      db.NewOutboxRepository(repo),
		sender:      sender,
		interval:    cfg.PollInterval,
		maxAttempts: cfg.MaxAttempts,
		batchSize:   cfg.BatchSize,
		logger:      logging.WithComponent("relay-outbox"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Run polls the outbox until ctx is cancelled
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("Outbox worker started", zap.Duration("interval", w.interval))

	// Drain once on start
	w.drain(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Outbox worker stopped")
			return ctx.Err()
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

// drain delivers one batch of due events
func (w *Worker) drain(ctx context.Context) {
	events, err := w.outbox.ListDue(ctx, w.now(), w.batchSize)
	if err != nil {
		w.logger.Error("Failed to list due relay events", zap.Error(err))
		return
	}

	for _, event := range events {
		w.deliver(ctx, event)
	}
}

func (w *Worker) deliver(ctx context.Context, event *models.RelayEvent) {
	var envelope Envelope
	if err := json.Unmarshal(event.Payload, &envelope); err != nil {
		// Unparseable payloads never succeed; park them immediately.
		w.logger.Error("Unreadable relay payload", zap.String("event", event.ID), zap.Error(err))
		if err := w.outbox.MarkFailed(ctx, event.ID, event.Attempts, "unreadable payload: "+err.Error()); err != nil {
			w.logger.Error("Failed to park relay event", zap.String("event", event.ID), zap.Error(err))
		}
		return
	}

	attempts := event.Attempts + 1
	if err := w.sender.Send(ctx, &envelope); err != nil {
		if attempts >= w.maxAttempts {
			w.logger.Error("Relay event exhausted attempts",
				zap.String("event", event.ID),
				zap.Int("attempts", attempts),
				zap.Error(err))
			if dbErr := w.outbox.MarkFailed(ctx, event.ID, attempts, err.Error()); dbErr != nil {
				w.logger.Error("Failed to park relay event", zap.String("event", event.ID), zap.Error(dbErr))
			}
			return
		}

		next := w.now().Add(Backoff(attempts))
		w.logger.Warn("Relay delivery failed, rescheduling",
			zap.String("event", event.ID),
			zap.Int("attempts", attempts),
			zap.Time("next_attempt", next),
			zap.Error(err))
		if dbErr := w.outbox.Reschedule(ctx, event.ID, attempts, next, err.Error()); dbErr != nil {
			w.logger.Error("Failed to reschedule relay event", zap.String("event", event.ID), zap.Error(dbErr))
		}
		return
	}

	if err := w.outbox.MarkDelivered(ctx, event.ID); err != nil {
		// Delivered but not marked: the next drain re-sends. Upserts on
		// the receiving side keep that harmless.
		w.logger.Error("Failed to mark relay event delivered", zap.String("event", event.ID), zap.Error(err))
		return
	}
	w.logger.Info("Relay event delivered", zap.String("event", event.ID), zap.String("kind", event.Kind))
}

// Backoff returns the delay before retry n (1-based), doubling each
// attempt and capped at 30 minutes.
func Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := baseBackoff
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= 30*time.Minute {
			return 30 * time.Minute
		}
	}
	return delay
}
