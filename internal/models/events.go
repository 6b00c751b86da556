package models

import "time"

// Event types
const (
	EventTypeSessionStarted   = "SESSION_STARTED"
	EventTypeOrderPlaced      = "ORDER_PLACED"
	EventTypeOrderUpdated     = "ORDER_UPDATED"
	EventTypePaymentInitiated = "PAYMENT_INITIATED"
	EventTypePaymentSettled   = "PAYMENT_SETTLED"
	EventTypePaymentUpdated   = "PAYMENT_UPDATED"
	EventTypeTableReleased    = "TABLE_RELEASED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionStartedEvent published when a customer opens a session at a table
type SessionStartedEvent struct {
	BaseEvent
	SessionID    string `json:"session_id"`
	TableID      string `json:"table_id"`
	NameCustomer string `json:"name_customer"`
}

// OrderPlacedEvent published when a cart is submitted
type OrderPlacedEvent struct {
	BaseEvent
	OrderID   string          `json:"order_id"`
	SessionID string          `json:"session_id"`
	Subtotal  int64           `json:"subtotal"`
	Items     []OrderItemData `json:"items"`
}

// OrderUpdatedEvent published when staff change an order's status
type OrderUpdatedEvent struct {
	BaseEvent
	OrderID  string `json:"order_id"`
	Status   string `json:"status"`
	Subtotal int64  `json:"subtotal"`
}

// PaymentInitiatedEvent published when a gateway transaction is created
type PaymentInitiatedEvent struct {
	BaseEvent
	OrderID string `json:"order_id"`
	Amount  int64  `json:"amount"`
}

// PaymentSettledEvent published when the gateway reports money received
type PaymentSettledEvent struct {
	BaseEvent
	OrderID    string `json:"order_id"`
	Amount     int64  `json:"amount"`
	MethodName string `json:"method_name"`
}

// PaymentUpdatedEvent published for non-terminal or failed gateway statuses
type PaymentUpdatedEvent struct {
	BaseEvent
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

// TableReleasedEvent published when a table becomes Available again
type TableReleasedEvent struct {
	BaseEvent
	TableID   string `json:"table_id"`
	SessionID string `json:"session_id"`
}

// OrderItemData represents item data in events
type OrderItemData struct {
	MenuID   string `json:"menu_id"`
	Quantity int    `json:"quantity"`
	Price    int64  `json:"price"`
}
