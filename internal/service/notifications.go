package service

import (
	"encoding/json"
	"fmt"

	"restaurant-service/internal/models"
)

// NotificationEventTypes are the events that appear on the live feed
var NotificationEventTypes = []string{
	models.EventTypeSessionStarted,
	models.EventTypeOrderPlaced,
	models.EventTypeOrderUpdated,
	models.EventTypePaymentInitiated,
	models.EventTypePaymentSettled,
	models.EventTypePaymentUpdated,
	models.EventTypeTableReleased,
}

// NotificationFromEvent turns a published domain event into a feed entry
func NotificationFromEvent(base models.BaseEvent, raw []byte) (*models.Notification, error) {
	n := &models.Notification{Date: base.Timestamp}

	switch base.EventType {
	case models.EventTypeSessionStarted:
		var e models.SessionStartedEvent
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, fmt.Errorf("decode %s: %w", base.EventType, err)
		}
		n.ID = e.SessionID
		n.Message = fmt.Sprintf("%s started a session", e.NameCustomer)
		n.Status = models.SessionStatusActive

	case models.EventTypeOrderPlaced:
		var e models.OrderPlacedEvent
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, fmt.Errorf("decode %s: %w", base.EventType, err)
		}
		n.ID = e.OrderID
		n.Message = StatusMessage(models.OrderStatusPending)
		n.Status = models.OrderStatusPending
		n.Subtotal = e.Subtotal

	case models.EventTypeOrderUpdated:
		var e models.OrderUpdatedEvent
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, fmt.Errorf("decode %s: %w", base.EventType, err)
		}
		n.ID = e.OrderID
		n.Message = StatusMessage(e.Status)
		n.Status = e.Status
		n.Subtotal = e.Subtotal

	case models.EventTypePaymentInitiated:
		var e models.PaymentInitiatedEvent
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, fmt.Errorf("decode %s: %w", base.EventType, err)
		}
		n.ID = e.OrderID
		n.Message = "Customer is paying"
		n.Status = models.PaymentStatusPending
		n.Subtotal = e.Amount

	case models.EventTypePaymentSettled:
		var e models.PaymentSettledEvent
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, fmt.Errorf("decode %s: %w", base.EventType, err)
		}
		n.ID = e.OrderID
		n.Message = fmt.Sprintf("Order has been paid via %s", e.MethodName)
		n.Status = models.OrderStatusPaid
		n.Subtotal = e.Amount

	case models.EventTypePaymentUpdated:
		var e models.PaymentUpdatedEvent
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, fmt.Errorf("decode %s: %w", base.EventType, err)
		}
		n.ID = e.OrderID
		n.Message = fmt.Sprintf("Payment is %s", e.Status)
		n.Status = e.Status

	case models.EventTypeTableReleased:
		var e models.TableReleasedEvent
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, fmt.Errorf("decode %s: %w", base.EventType, err)
		}
		n.ID = e.TableID
		n.Message = "Table is available again"
		n.Status = models.TableStatusAvailable

	default:
		return nil, fmt.Errorf("no notification for event type %s", base.EventType)
	}

	return n, nil
}
