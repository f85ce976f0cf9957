package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"NewsDigest/internal/metrics"
	"NewsDigest/internal/ports"
)

const deliveryHeader = "🕓 Automatic news digest:\n\n"

// Delivery wires the cron-like driver with the periodic digest and pushes the
// result to every subscriber.
type Delivery struct {
	driver      ports.Scheduler
	pipeline    *Pipeline
	subscribers ports.SubscriberStore
	notifier    ports.Notifier
	logger      *slog.Logger
}

// NewDelivery returns a helper to start/stop the recurring digest.
func NewDelivery(driver ports.Scheduler, pipeline *Pipeline, subscribers ports.SubscriberStore, notifier ports.Notifier, logger *slog.Logger) *Delivery {
	if logger == nil {
		logger = slog.Default()
	}
	return &Delivery{
		driver:      driver,
		pipeline:    pipeline,
		subscribers: subscribers,
		notifier:    notifier,
		logger:      logger.With("component", "delivery"),
	}
}

// Start registers the delivery job with the provided scheduler.
func (d *Delivery) Start(ctx context.Context) error {
	if d.driver == nil || d.pipeline == nil {
		return nil
	}

	job := func(trigger time.Time) {
		if _, err := d.Deliver(ctx, trigger); err != nil {
			d.logger.Error("periodic delivery failed", "trigger", trigger, "error", err)
		}
	}

	return d.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (d *Delivery) Stop(ctx context.Context) error {
	if d.driver == nil {
		return nil
	}

	return d.driver.Stop(ctx)
}

// Deliver builds one periodic digest and sends it to all subscribers. It
// returns the number of chats that received it; per-chat failures are logged.
func (d *Delivery) Deliver(ctx context.Context, trigger time.Time) (int, error) {
	subs, err := d.subscribers.Subscribers(ctx)
	if err != nil {
		return 0, fmt.Errorf("load subscribers: %w", err)
	}
	if len(subs) == 0 {
		d.logger.Debug("no subscribers, skipping digest", "trigger", trigger)
		return 0, nil
	}

	digest, err := d.pipeline.PeriodicDigest(ctx, PeriodicDeps{})
	if err != nil {
		return 0, fmt.Errorf("periodic digest: %w", err)
	}

	sent := 0
	for _, sub := range subs {
		if err := d.notifier.Send(ctx, sub.ChatID, deliveryHeader+digest); err != nil {
			metrics.DeliveriesTotal.WithLabelValues("failed").Inc()
			d.logger.Warn("send digest", "chat_id", sub.ChatID, "error", err)
			continue
		}
		metrics.DeliveriesTotal.WithLabelValues("sent").Inc()
		sent++
	}
	d.logger.Info("periodic digest delivered", "subscribers", len(subs), "sent", sent)
	return sent, nil
}
