package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Table is a physical restaurant table customers scan a QR code at.
type Table struct {
	ID          string    `db:"table_id" json:"table_id"`
	TableNumber string    `db:"table_number" json:"table_number"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Session is a customer's ordering context at one table.
type Session struct {
	ID           string    `db:"session_id" json:"session_id"`
	TableID      string    `db:"table_id" json:"table_id"`
	NameCustomer string    `db:"name_customer" json:"name_customer"`
	Status       string    `db:"status" json:"status"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Order is a submitted cart.
type Order struct {
	ID        string    `db:"order_id" json:"order_id"`
	SessionID string    `db:"session_id" json:"session_id"`
	StaffID   *string   `db:"staff_id" json:"staff_id"`
	Status    string    `db:"status" json:"status"`
	Subtotal  int64     `db:"subtotal" json:"subtotal"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// OrderItem is one cart line. Price is the menu price captured at submission.
type OrderItem struct {
	ID        string    `db:"orders_item_id" json:"orders_item_id"`
	OrderID   string    `db:"order_id" json:"order_id"`
	MenuID    string    `db:"menu_id" json:"menu_id"`
	Quantity  int       `db:"quantity" json:"quantity"`
	Price     int64     `db:"price" json:"price"`
	Subtotal  int64     `db:"subtotal" json:"subtotal"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// MenuCategory groups menu items.
type MenuCategory struct {
	ID        string    `db:"category_id" json:"category_id"`
	Name      string    `db:"name" json:"name"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at,omitempty"`
}

// MenuItem is a sellable dish. Categories holds the joined category relation,
// always normalised to a list.
type MenuItem struct {
	ID          string         `db:"menu_id" json:"menu_id"`
	CategoryID  *string        `db:"category_id" json:"category_id"`
	Name        string         `db:"name" json:"name"`
	Description string         `db:"description" json:"description"`
	Price       int64          `db:"price" json:"price"`
	ImageURL    string         `db:"image_url" json:"image_url"`
	IsActive    bool           `db:"is_active" json:"is_active"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	Categories  []MenuCategory `db:"-" json:"menu_category"`
}

// Visible reports whether customers may see the item: the item is active and
// at least one of its categories is active.
func (m MenuItem) Visible() bool {
	if !m.IsActive {
		return false
	}
	for _, c := range m.Categories {
		if c.IsActive {
			return true
		}
	}
	return false
}

// FilterVisible keeps only the items customers may see.
func FilterVisible(items []MenuItem) []MenuItem {
	out := make([]MenuItem, 0, len(items))
	for _, item := range items {
		if item.Visible() {
			out = append(out, item)
		}
	}
	return out
}

// DecodeCategoryRelation resolves a joined category relation that may arrive
// as null, a single object or an array into a list.
func DecodeCategoryRelation(raw []byte) ([]MenuCategory, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []MenuCategory{}, nil
	}

	switch raw[0] {
	case '[':
		var list []MenuCategory
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("decode category list: %w", err)
		}
		if list == nil {
			list = []MenuCategory{}
		}
		return list, nil
	case '{':
		var single MenuCategory
		if err := json.Unmarshal(raw, &single); err != nil {
			return nil, fmt.Errorf("decode category: %w", err)
		}
		return []MenuCategory{single}, nil
	default:
		return nil, fmt.Errorf("unexpected category relation shape: %q", raw)
	}
}

// Payment is the local record of a gateway transaction, one per order.
type Payment struct {
	ID        string     `db:"payment_id" json:"payment_id"`
	OrderID   string     `db:"order_id" json:"order_id"`
	SessionID *string    `db:"session_id" json:"session_id"`
	Amount    int64      `db:"amount" json:"amount"`
	Status    string     `db:"status" json:"status"`
	MethodID  *string    `db:"method_id" json:"method_id"`
	PaidAt    *time.Time `db:"paid_at" json:"paid_at"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// PaymentMethod is a display name for a gateway payment type.
type PaymentMethod struct {
	ID        string    `db:"method_id" json:"method_id"`
	Name      string    `db:"name" json:"name"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Staff is a dashboard user.
type Staff struct {
	ID           string    `db:"staff_id" json:"staff_id"`
	Name         string    `db:"staff_name" json:"staff_name"`
	Email        string    `db:"email" json:"email"`
	Role         string    `db:"role" json:"role"`
	PasswordHash string    `db:"password" json:"-"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Table statuses
const (
	TableStatusAvailable = "Available"
	TableStatusOccupied  = "Occupied"
	TableStatusReserved  = "Reserved"
	TableStatusCleaning  = "Cleaning"
)

// ValidTableStatus reports whether s is a known table status.
func ValidTableStatus(s string) bool {
	switch s {
	case TableStatusAvailable, TableStatusOccupied, TableStatusReserved, TableStatusCleaning:
		return true
	}
	return false
}

// Session statuses
const (
	SessionStatusActive = "Active"
	SessionStatusClosed = "Closed"
)

// Order statuses
const (
	OrderStatusPending = "Pending"
	OrderStatusServe   = "Serve"
	OrderStatusServed  = "Served"
	OrderStatusPaid    = "Paid"
	OrderStatusCancel  = "Cancel"
)

// ValidOrderStatus reports whether s is a known order status.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusServe, OrderStatusServed, OrderStatusPaid, OrderStatusCancel:
		return true
	}
	return false
}

// Payment statuses. Gateway states other than these are stored verbatim.
const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "Paid"
	PaymentStatusExpire  = "expire"
)

// PaymentMethodOther is used for gateway payment types with no mapping.
const PaymentMethodOther = "Other"

// ProcessedEvent for idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
