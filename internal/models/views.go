package models

import "time"

// OrderFilter narrows dashboard order listings.
type OrderFilter struct {
	StaffName string
	From      *time.Time
	To        *time.Time
}

// OrderDetail is an order joined with its session, staff and item names.
type OrderDetail struct {
	OrderID     string      `json:"orderId"`
	StaffName   string      `json:"staffName"`
	SessionName string      `json:"sessionName"`
	Status      string      `json:"status"`
	IsActive    bool        `json:"isActive"`
	Items       []OrderLine `json:"items"`
	Subtotal    int64       `json:"subtotal"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// OrderLine is an item row as shown on the dashboard.
type OrderLine struct {
	MenuID   string `db:"menu_id" json:"-"`
	OrderID  string `db:"order_id" json:"-"`
	ItemName string `db:"item_name" json:"itemName"`
	Quantity int    `db:"quantity" json:"quantity"`
	Price    int64  `db:"price" json:"price"`
}

// OrderItemFilter narrows order item listings.
type OrderItemFilter struct {
	OrderID string
	From    time.Time
	To      time.Time
}

// OrderItemDetail is an order item with its menu name.
type OrderItemDetail struct {
	OrderItem
	MenuName string `db:"menu_name" json:"menu_name"`
}

// PaymentFilter narrows payment listings.
type PaymentFilter struct {
	StaffName string
	From      *time.Time
	To        *time.Time
}

// PaymentDetail is a payment joined with its method and handling staff.
type PaymentDetail struct {
	PaymentID  string    `db:"payment_id" json:"payment_id"`
	OrderID    string    `db:"order_id" json:"order_id"`
	Amount     int64     `db:"amount" json:"amount"`
	Status     string    `db:"status" json:"status"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	MethodName *string   `db:"method_name" json:"method_name"`
	StaffName  *string   `db:"staff_name" json:"staff_name"`
}

// SummaryOrder is an order with its payments, used for dashboard totals.
type SummaryOrder struct {
	OrderID   string
	Status    string
	Subtotal  int64
	CreatedAt time.Time
	Payments  []SummaryPayment
}

// SummaryPayment is a payment row inside SummaryOrder.
type SummaryPayment struct {
	OrderID    string    `db:"order_id"`
	Amount     int64     `db:"amount"`
	Status     string    `db:"status"`
	CreatedAt  time.Time `db:"created_at"`
	MethodName *string   `db:"method_name"`
}

// MenuQuantity is the total quantity ordered of one menu item.
type MenuQuantity struct {
	MenuID   string `db:"menu_id"`
	Quantity int    `db:"quantity"`
}

// Summary is the dashboard overview for a date range.
type Summary struct {
	TotalOrders     int         `json:"totalOrders"`
	TotalPaid       int         `json:"totalPaid"`
	TotalPending    int         `json:"totalPending"`
	TotalCanceled   int         `json:"totalCanceled"`
	TotalServed     int         `json:"totalServed"`
	TotalRevenue    int64       `json:"totalRevenue"`
	TotalItemsSold  int         `json:"totalItemsSold"`
	MostOrderedMenu MenuSummary `json:"mostOrderedMenu"`
}

// MenuSummary names the most ordered menu item, if any.
type MenuSummary struct {
	ID   *string `json:"id"`
	Name *string `json:"name"`
}

// Notification is a dashboard feed entry about an order.
type Notification struct {
	ID       string    `json:"id"`
	Message  string    `json:"message"`
	Date     time.Time `json:"date"`
	Status   string    `json:"status"`
	Subtotal int64     `json:"subtotal"`
}

// Invoice is what the customer sees before paying.
type Invoice struct {
	OrderID      string `json:"order_id"`
	CustomerName string `json:"customer_name"`
	TotalAmount  int64  `json:"total_amount"`
}
