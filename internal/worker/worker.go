package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"restaurant-service/internal/broker"
	"restaurant-service/internal/models"
	"restaurant-service/internal/service"
	"restaurant-service/internal/util"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

const dedupeTTL = 24 * time.Hour

// Deduper remembers which events were already handled. *redisclient.Client
// satisfies it.
type Deduper interface {
	CheckIdempotencyKey(ctx context.Context, key string) (bool, error)
	SetIdempotencyKey(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// NotificationWorker turns domain events into dashboard feed entries
type NotificationWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	dedupe       Deduper
	feed         service.NotificationFeed
	feedSize     int
	logger       *zap.Logger
}

// NewNotificationWorker creates a new notification worker
func NewNotificationWorker(
	consumer *broker.Consumer,
	dedupe Deduper,
	feed service.NotificationFeed,
	feedSize int,
) *NotificationWorker {
	w := &NotificationWorker{
		consumer:     consumer,
		eventHandler: broker.NewEventHandler(),
		dedupe:       dedupe,
		feed:         feed,
		feedSize:     feedSize,
		logger:       util.GetLogger(),
	}
	w.eventHandler.OnAny(service.NotificationEventTypes, w.handle)
	return w
}

// handle pushes one event to the feed. Kafka delivers at least once, so an
// event ID is only recorded after its entry is on the feed.
func (w *NotificationWorker) handle(ctx context.Context, base models.BaseEvent, raw []byte) error {
	key := "notification:" + base.EventID

	seen, err := w.dedupe.CheckIdempotencyKey(ctx, key)
	if err != nil {
		return fmt.Errorf("check event %s: %w", base.EventID, err)
	}
	if seen {
		w.logger.Debug("Event already on feed", zap.String("event_id", base.EventID))
		return nil
	}

	n, err := service.NotificationFromEvent(base, raw)
	if err != nil {
		// undecodable events are skipped rather than blocking the partition
		w.logger.Warn("Dropping event", zap.String("event_id", base.EventID), zap.Error(err))
		return nil
	}

	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	if err := w.feed.PushNotification(ctx, payload, w.feedSize); err != nil {
		return fmt.Errorf("push notification: %w", err)
	}

	if _, err := w.dedupe.SetIdempotencyKey(ctx, key, dedupeTTL); err != nil {
		w.logger.Warn("Failed to record event", zap.String("event_id", base.EventID), zap.Error(err))
	}
	return nil
}

// Start consumes events until ctx is cancelled
func (w *NotificationWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting notification worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *NotificationWorker) Stop() error {
	w.logger.Info("Stopping notification worker")
	return w.consumer.Close()
}

// PaymentExpirer is implemented by *service.PaymentService
type PaymentExpirer interface {
	ExpirePendingPayments(ctx context.Context) (int64, error)
}

// PaymentExpiryJob periodically expires pending payments the gateway never
// settled
type PaymentExpiryJob struct {
	scheduler gocron.Scheduler
	payments  PaymentExpirer
	timeout   time.Duration
	logger    *zap.Logger
}

// NewPaymentExpiryJob schedules a sweep every interval. Each sweep is bounded
// by timeout.
func NewPaymentExpiryJob(payments PaymentExpirer, interval, timeout time.Duration) (*PaymentExpiryJob, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	j := &PaymentExpiryJob{
		scheduler: s,
		payments:  payments,
		timeout:   timeout,
		logger:    util.GetLogger(),
	}

	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(j.run),
		gocron.WithName("expire-pending-payments"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, fmt.Errorf("schedule payment expiry: %w", err)
	}
	return j, nil
}

func (j *PaymentExpiryJob) run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if _, err := j.payments.ExpirePendingPayments(ctx); err != nil {
		j.logger.Error("Payment expiry sweep failed", zap.Error(err))
	}
}

// Start starts the scheduler
func (j *PaymentExpiryJob) Start() {
	j.logger.Info("Starting payment expiry job")
	j.scheduler.Start()
}

// Stop waits for a running sweep and stops the scheduler
func (j *PaymentExpiryJob) Stop() error {
	j.logger.Info("Stopping payment expiry job")
	return j.scheduler.Shutdown()
}
