package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"splitter/internal/amqp"
	"splitter/internal/cache"
	"splitter/internal/gateway"
	"splitter/internal/log"
	"splitter/internal/metrics"
)

const (
	defaultDeliveryTimeout = 10 * time.Second
	recentMessages         = 1024
	recentTTL              = 15 * time.Minute
)

// DeliveryWorker forwards queued notifications to a downstream gateway.
type DeliveryWorker struct {
	downstream gateway.Gateway
	timeout    time.Duration
	recent     *cache.Recent
	logger     *log.Logger
	metrics    *metrics.Metrics
}

func NewDeliveryWorker(downstream gateway.Gateway, timeout time.Duration, logger *log.Logger, m *metrics.Metrics) *DeliveryWorker {
	if logger == nil {
		logger = log.Discard()
	}
	if timeout <= 0 {
		timeout = defaultDeliveryTimeout
	}
	return &DeliveryWorker{
		downstream: downstream,
		timeout:    timeout,
		recent:     cache.NewRecent(recentMessages, recentTTL),
		logger:     logger.WithComponent(log.ComponentWorker),
		metrics:    m,
	}
}

// HandleNotification delivers one message. Messages already delivered
// recently are acknowledged without a second delivery.
func (w *DeliveryWorker) HandleNotification(ctx context.Context, msg *amqp.NotificationMessage) error {
	if msg == nil {
		return errors.New("nil notification message")
	}
	if w.recent.Seen(msg.ID) {
		w.logger.InfoContext(ctx, "Skipping duplicate notification", log.FieldMessageID, msg.ID)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	start := time.Now()
	if err := w.downstream.Deliver(ctx, msg.Title, msg.Body); err != nil {
		w.metrics.Notification(metrics.ResultFailed)
		return fmt.Errorf("deliver notification %s: %w", msg.ID, err)
	}
	w.recent.Mark(msg.ID)
	w.metrics.Notification(metrics.ResultOK)

	w.logger.InfoContext(ctx, "Notification delivered",
		log.FieldOperation, log.OpDeliver,
		log.FieldMessageID, msg.ID,
		log.FieldDuration, time.Since(start).Milliseconds(),
		"queued_for", time.Since(msg.Timestamp).Round(time.Millisecond))
	return nil
}

// CleanupLoop periodically drops expired message ids until ctx is done.
func (w *DeliveryWorker) CleanupLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := w.recent.CleanExpired(); n > 0 {
				w.logger.DebugContext(ctx, "Expired delivered message ids", "count", n)
			}
		}
	}
}
