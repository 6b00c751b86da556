package store

import (
	"context"
	"time"

	"restaurant-service/internal/models"

	"github.com/jmoiron/sqlx"
)

const orderColumns = `order_id, session_id, staff_id, status, subtotal, created_at, updated_at`

// CreateOrder creates a new order
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO restaurant.orders (session_id, staff_id, status, subtotal)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + orderColumns

	return translate(s.q.GetContext(ctx, order, query,
		order.SessionID, order.StaffID, order.Status, order.Subtotal))
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := s.get(ctx, &order, "SELECT "+orderColumns+" FROM restaurant.orders WHERE order_id = $1", id)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateOrderStatus updates order status
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID string, status string) error {
	return s.exec(ctx,
		"UPDATE restaurant.orders SET status = $1, updated_at = NOW() WHERE order_id = $2",
		status, orderID)
}

// UpdateOrder overwrites the staff-editable fields of an order
func (s *Store) UpdateOrder(ctx context.Context, order *models.Order) error {
	query := `
		UPDATE restaurant.orders
		SET session_id = $1, staff_id = $2, status = $3, subtotal = $4, updated_at = NOW()
		WHERE order_id = $5
		RETURNING ` + orderColumns

	return s.get(ctx, order, query,
		order.SessionID, order.StaffID, order.Status, order.Subtotal, order.ID)
}

// UpdateOrderSubtotal recomputes the stored subtotal from the order's items
func (s *Store) UpdateOrderSubtotal(ctx context.Context, orderID string) (int64, error) {
	var subtotal int64
	err := s.get(ctx, &subtotal, `
		UPDATE restaurant.orders o
		SET subtotal = COALESCE((SELECT SUM(subtotal) FROM restaurant.orders_items WHERE order_id = o.order_id), 0),
		    updated_at = NOW()
		WHERE o.order_id = $1
		RETURNING o.subtotal`, orderID)
	return subtotal, err
}

// DeleteOrder removes an order and its items
func (s *Store) DeleteOrder(ctx context.Context, id string) error {
	return s.exec(ctx, "DELETE FROM restaurant.orders WHERE order_id = $1", id)
}

const orderItemColumns = `orders_item_id, order_id, menu_id, quantity, price, subtotal, created_at`

// CreateOrderItem creates a new order item
func (s *Store) CreateOrderItem(ctx context.Context, item *models.OrderItem) error {
	query := `
		INSERT INTO restaurant.orders_items (order_id, menu_id, quantity, price, subtotal)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + orderItemColumns

	return translate(s.q.GetContext(ctx, item, query,
		item.OrderID, item.MenuID, item.Quantity, item.Price, item.Subtotal))
}

// GetOrderItemsByOrderID retrieves all items for an order
func (s *Store) GetOrderItemsByOrderID(ctx context.Context, orderID string) ([]models.OrderItem, error) {
	items := []models.OrderItem{}
	err := s.q.SelectContext(ctx, &items,
		"SELECT "+orderItemColumns+" FROM restaurant.orders_items WHERE order_id = $1 ORDER BY created_at", orderID)
	return items, translate(err)
}

// ListOrderItems retrieves order items created in a time window
func (s *Store) ListOrderItems(ctx context.Context, filter models.OrderItemFilter) ([]models.OrderItemDetail, error) {
	items := []models.OrderItemDetail{}
	err := s.q.SelectContext(ctx, &items, `
		SELECT oi.orders_item_id, oi.order_id, oi.menu_id, oi.quantity, oi.price, oi.subtotal,
		       oi.created_at, m.name AS menu_name
		FROM restaurant.orders_items oi
		JOIN restaurant.menu_items m ON m.menu_id = oi.menu_id
		WHERE oi.created_at BETWEEN $1 AND $2
		  AND ($3 = '' OR oi.order_id::text = $3)
		ORDER BY oi.created_at DESC`,
		filter.From, filter.To, filter.OrderID)
	return items, translate(err)
}

type orderDetailRow struct {
	OrderID     string    `db:"order_id"`
	Status      string    `db:"status"`
	Subtotal    int64     `db:"subtotal"`
	CreatedAt   time.Time `db:"created_at"`
	SessionName *string   `db:"name_customer"`
	StaffName   *string   `db:"staff_name"`
}

// ListOrderDetails retrieves orders with session, staff and item names
func (s *Store) ListOrderDetails(ctx context.Context, filter models.OrderFilter) ([]models.OrderDetail, error) {
	var rows []orderDetailRow
	err := s.q.SelectContext(ctx, &rows, `
		SELECT o.order_id, o.status, o.subtotal, o.created_at, ts.name_customer, sp.staff_name
		FROM restaurant.orders o
		LEFT JOIN restaurant.table_session ts ON ts.session_id = o.session_id
		LEFT JOIN restaurant.staff_profiles sp ON sp.staff_id = o.staff_id
		WHERE ($1 = '' OR sp.staff_name = $1)
		  AND ($2::timestamptz IS NULL OR o.created_at >= $2)
		  AND ($3::timestamptz IS NULL OR o.created_at <= $3)
		ORDER BY o.created_at DESC`,
		filter.StaffName, filter.From, filter.To)
	if err != nil {
		return nil, translate(err)
	}

	out := make([]models.OrderDetail, 0, len(rows))
	if len(rows) == 0 {
		return out, nil
	}

	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.OrderID
	}

	query, args, err := sqlx.In(`
		SELECT oi.order_id, oi.menu_id, oi.quantity, oi.price, COALESCE(m.name, '') AS item_name
		FROM restaurant.orders_items oi
		LEFT JOIN restaurant.menu_items m ON m.menu_id = oi.menu_id
		WHERE oi.order_id::text IN (?)
		ORDER BY oi.created_at`, ids)
	if err != nil {
		return nil, err
	}

	var lines []models.OrderLine
	if err := s.q.SelectContext(ctx, &lines, s.q.Rebind(query), args...); err != nil {
		return nil, translate(err)
	}

	byOrder := make(map[string][]models.OrderLine, len(rows))
	for _, l := range lines {
		byOrder[l.OrderID] = append(byOrder[l.OrderID], l)
	}

	for _, r := range rows {
		detail := models.OrderDetail{
			OrderID:     r.OrderID,
			StaffName:   orUnknown(r.StaffName),
			SessionName: orUnknown(r.SessionName),
			Status:      r.Status,
			IsActive:    r.Status == models.OrderStatusPaid,
			Items:       byOrder[r.OrderID],
			Subtotal:    r.Subtotal,
			CreatedAt:   r.CreatedAt,
		}
		if detail.Items == nil {
			detail.Items = []models.OrderLine{}
		}
		out = append(out, detail)
	}
	return out, nil
}

// ListOrdersBetween retrieves orders created in a time window
func (s *Store) ListOrdersBetween(ctx context.Context, from, to time.Time) ([]models.Order, error) {
	orders := []models.Order{}
	err := s.q.SelectContext(ctx, &orders,
		"SELECT "+orderColumns+" FROM restaurant.orders WHERE created_at BETWEEN $1 AND $2 ORDER BY created_at DESC",
		from, to)
	return orders, translate(err)
}

// ListSummaryOrders retrieves orders in a window together with their payments
func (s *Store) ListSummaryOrders(ctx context.Context, from, to time.Time) ([]models.SummaryOrder, error) {
	orders, err := s.ListOrdersBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	out := make([]models.SummaryOrder, 0, len(orders))
	if len(orders) == 0 {
		return out, nil
	}

	ids := make([]string, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}

	query, args, err := sqlx.In(`
		SELECT p.order_id, p.amount, p.status, p.created_at, pm.name AS method_name
		FROM restaurant.payments p
		LEFT JOIN restaurant.payments_method pm ON pm.method_id = p.method_id
		WHERE p.order_id::text IN (?)`, ids)
	if err != nil {
		return nil, err
	}

	var payments []models.SummaryPayment
	if err := s.q.SelectContext(ctx, &payments, s.q.Rebind(query), args...); err != nil {
		return nil, translate(err)
	}

	byOrder := make(map[string][]models.SummaryPayment)
	for _, p := range payments {
		byOrder[p.OrderID] = append(byOrder[p.OrderID], p)
	}

	for _, o := range orders {
		out = append(out, models.SummaryOrder{
			OrderID:   o.ID,
			Status:    o.Status,
			Subtotal:  o.Subtotal,
			CreatedAt: o.CreatedAt,
			Payments:  byOrder[o.ID],
		})
	}
	return out, nil
}

// SumQuantitiesByMenu totals ordered quantities per menu item for the given orders
func (s *Store) SumQuantitiesByMenu(ctx context.Context, orderIDs []string) ([]models.MenuQuantity, error) {
	if len(orderIDs) == 0 {
		return []models.MenuQuantity{}, nil
	}

	query, args, err := sqlx.In(`
		SELECT menu_id, SUM(quantity) AS quantity
		FROM restaurant.orders_items
		WHERE order_id::text IN (?)
		GROUP BY menu_id`, orderIDs)
	if err != nil {
		return nil, err
	}

	quantities := []models.MenuQuantity{}
	err = s.q.SelectContext(ctx, &quantities, s.q.Rebind(query), args...)
	return quantities, translate(err)
}

func orUnknown(s *string) string {
	if s == nil || *s == "" {
		return "Unknown"
	}
	return *s
}
