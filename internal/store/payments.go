package store

import (
	"context"
	"time"

	"restaurant-service/internal/models"
)

const paymentColumns = `payment_id, order_id, session_id, amount, status, method_id, paid_at, created_at`

// UpsertPayment inserts or resets the payment of an order, keyed by order ID
func (s *Store) UpsertPayment(ctx context.Context, payment *models.Payment) error {
	query := `
		INSERT INTO restaurant.payments (order_id, session_id, amount, status, method_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (order_id) DO UPDATE
		SET session_id = EXCLUDED.session_id,
		    amount = EXCLUDED.amount,
		    status = EXCLUDED.status,
		    method_id = EXCLUDED.method_id,
		    created_at = NOW()
		RETURNING ` + paymentColumns

	return translate(s.q.GetContext(ctx, payment, query,
		payment.OrderID, payment.SessionID, payment.Amount, payment.Status, payment.MethodID))
}

// GetPaymentByOrderID retrieves payment for an order
func (s *Store) GetPaymentByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	var payment models.Payment
	err := s.get(ctx, &payment,
		"SELECT "+paymentColumns+" FROM restaurant.payments WHERE order_id = $1", orderID)
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetPaymentByOrderIDForUpdate retrieves the payment of an order and locks its
// row until the surrounding transaction ends
func (s *Store) GetPaymentByOrderIDForUpdate(ctx context.Context, orderID string) (*models.Payment, error) {
	var payment models.Payment
	err := s.get(ctx, &payment,
		"SELECT "+paymentColumns+" FROM restaurant.payments WHERE order_id = $1 FOR UPDATE", orderID)
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// UpdatePaymentStatus records a gateway-reported status on the order's payment
func (s *Store) UpdatePaymentStatus(ctx context.Context, orderID, status string, paidAt *time.Time, methodID *string) (*models.Payment, error) {
	var payment models.Payment
	err := s.get(ctx, &payment, `
		UPDATE restaurant.payments
		SET status = $1, paid_at = $2, method_id = $3
		WHERE order_id = $4
		RETURNING `+paymentColumns,
		status, paidAt, methodID, orderID)
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// ExpirePendingPayments marks pending payments created before cutoff as expired
func (s *Store) ExpirePendingPayments(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.q.ExecContext(ctx,
		"UPDATE restaurant.payments SET status = $1 WHERE status = $2 AND created_at < $3",
		models.PaymentStatusExpire, models.PaymentStatusPending, cutoff)
	if err != nil {
		return 0, translate(err)
	}
	return res.RowsAffected()
}

// ListPaymentDetails retrieves payments with method and staff names
func (s *Store) ListPaymentDetails(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentDetail, error) {
	payments := []models.PaymentDetail{}
	err := s.q.SelectContext(ctx, &payments, `
		SELECT p.payment_id, p.order_id, p.amount, p.status, p.created_at,
		       pm.name AS method_name, sp.staff_name
		FROM restaurant.payments p
		LEFT JOIN restaurant.payments_method pm ON pm.method_id = p.method_id
		LEFT JOIN restaurant.orders o ON o.order_id = p.order_id
		LEFT JOIN restaurant.staff_profiles sp ON sp.staff_id = o.staff_id
		WHERE ($1 = '' OR sp.staff_name = $1)
		  AND ($2::timestamptz IS NULL OR p.created_at >= $2)
		  AND ($3::timestamptz IS NULL OR p.created_at <= $3)
		ORDER BY p.created_at DESC`,
		filter.StaffName, filter.From, filter.To)
	return payments, translate(err)
}

const methodColumns = `method_id, name, is_active, created_at`

// GetPaymentMethodByName returns the method with the given name, or nil if none
func (s *Store) GetPaymentMethodByName(ctx context.Context, name string) (*models.PaymentMethod, error) {
	var method models.PaymentMethod
	err := s.get(ctx, &method,
		"SELECT "+methodColumns+" FROM restaurant.payments_method WHERE name = $1", name)
	if err == ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &method, nil
}

// ListPaymentMethods retrieves all payment methods ordered by name
func (s *Store) ListPaymentMethods(ctx context.Context) ([]models.PaymentMethod, error) {
	methods := []models.PaymentMethod{}
	err := s.q.SelectContext(ctx, &methods,
		"SELECT "+methodColumns+" FROM restaurant.payments_method ORDER BY name")
	return methods, translate(err)
}

// ClaimEvent records an event as processed. It reports false when the event
// was already recorded; a concurrent claim of the same event waits for the
// first transaction to finish.
func (s *Store) ClaimEvent(ctx context.Context, eventID, eventType string) (bool, error) {
	res, err := s.q.ExecContext(ctx,
		"INSERT INTO restaurant.processed_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
		eventID, eventType)
	if err != nil {
		return false, translate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
