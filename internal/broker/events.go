package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"restaurant-service/internal/models"
	"restaurant-service/internal/util"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// NewBaseEvent stamps a fresh event id and time
func NewBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.NewString(),
		EventType: eventType,
		Timestamp: time.Now(),
	}
}

// PublishSessionStarted publishes SessionStarted event
func (ep *EventPublisher) PublishSessionStarted(ctx context.Context, event *models.SessionStartedEvent) error {
	return ep.producer.PublishEvent(ctx, "table-"+event.TableID, event)
}

// PublishOrderPlaced publishes OrderPlaced event
func (ep *EventPublisher) PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error {
	return ep.producer.PublishEvent(ctx, "order-"+event.OrderID, event)
}

// PublishOrderUpdated publishes OrderUpdated event
func (ep *EventPublisher) PublishOrderUpdated(ctx context.Context, event *models.OrderUpdatedEvent) error {
	return ep.producer.PublishEvent(ctx, "order-"+event.OrderID, event)
}

// PublishPaymentInitiated publishes PaymentInitiated event
func (ep *EventPublisher) PublishPaymentInitiated(ctx context.Context, event *models.PaymentInitiatedEvent) error {
	return ep.producer.PublishEvent(ctx, "order-"+event.OrderID, event)
}

// PublishPaymentSettled publishes PaymentSettled event
func (ep *EventPublisher) PublishPaymentSettled(ctx context.Context, event *models.PaymentSettledEvent) error {
	return ep.producer.PublishEvent(ctx, "order-"+event.OrderID, event)
}

// PublishPaymentUpdated publishes PaymentUpdated event
func (ep *EventPublisher) PublishPaymentUpdated(ctx context.Context, event *models.PaymentUpdatedEvent) error {
	return ep.producer.PublishEvent(ctx, "order-"+event.OrderID, event)
}

// PublishTableReleased publishes TableReleased event
func (ep *EventPublisher) PublishTableReleased(ctx context.Context, event *models.TableReleasedEvent) error {
	return ep.producer.PublishEvent(ctx, "table-"+event.TableID, event)
}

// EventHandler decodes incoming events and hands them to registered callbacks
type EventHandler struct {
	handlers map[string]func(context.Context, models.BaseEvent, []byte) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{handlers: make(map[string]func(context.Context, models.BaseEvent, []byte) error)}
}

// On registers a callback for an event type. The callback receives the
// decoded envelope and the raw payload.
func (eh *EventHandler) On(eventType string, fn func(ctx context.Context, base models.BaseEvent, raw []byte) error) {
	eh.handlers[eventType] = fn
}

// OnAny registers the same callback for several event types
func (eh *EventHandler) OnAny(eventTypes []string, fn func(ctx context.Context, base models.BaseEvent, raw []byte) error) {
	for _, t := range eventTypes {
		eh.On(t, fn)
	}
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	logger := util.GetLogger()
	logger.Debug("Handling event",
		zap.String("type", baseEvent.EventType),
		zap.String("event_id", baseEvent.EventID))

	fn, ok := eh.handlers[baseEvent.EventType]
	if !ok {
		logger.Debug("Unhandled event type", zap.String("type", baseEvent.EventType))
		return nil
	}
	return fn(ctx, baseEvent, msg.Value)
}
