package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"restaurant-service/internal/broker"
	"restaurant-service/internal/gateway"
	"restaurant-service/internal/models"
	"restaurant-service/internal/store"
	"restaurant-service/internal/util"

	"go.uber.org/zap"
)

// PaymentConfig tunes the payment service
type PaymentConfig struct {
	// ServerKey verifies notification signatures
	ServerKey       string
	VerifySignature bool
	// PublicBaseURL is where the gateway sends the customer after paying
	PublicBaseURL string
	// PendingTimeout is how long a pending payment waits for settlement
	PendingTimeout time.Duration
}

// PaymentService creates gateway transactions and reconciles their status
type PaymentService struct {
	repo      Repository
	gateway   PaymentGateway
	publisher EventPublisher
	cfg       PaymentConfig
	logger    *zap.Logger
	now       func() time.Time
}

// NewPaymentService creates a new payment service
func NewPaymentService(repo Repository, gw PaymentGateway, publisher EventPublisher, cfg PaymentConfig) *PaymentService {
	return &PaymentService{
		repo:      repo,
		gateway:   gw,
		publisher: publisher,
		cfg:       cfg,
		logger:    util.GetLogger(),
		now:       time.Now,
	}
}

// InitiatePaymentRequest asks for a gateway transaction for an order
type InitiatePaymentRequest struct {
	OrderID      string `json:"order_id"`
	Amount       int64  `json:"amount"`
	CustomerName string `json:"customer_name"`
}

// InitiatePayment creates a gateway transaction for an order and records a
// pending payment keyed by the order.
func (ps *PaymentService) InitiatePayment(ctx context.Context, req *InitiatePaymentRequest) (*gateway.Transaction, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.InitiatePayment")
	defer span.End()

	if req.OrderID == "" || req.Amount <= 0 {
		return nil, validationError("Missing params")
	}

	order, err := ps.repo.GetOrderByID(ctx, req.OrderID)
	if err != nil {
		return nil, fromStore(err, "Order not found")
	}
	if order.Status == models.OrderStatusPaid {
		return nil, conflict("Order is already paid")
	}
	if order.Status == models.OrderStatusCancel {
		return nil, conflict("Order is cancelled")
	}
	if req.Amount != order.Subtotal {
		return nil, validationError(fmt.Sprintf("amount %d does not match order total %d", req.Amount, order.Subtotal))
	}

	existing, err := ps.repo.GetPaymentByOrderID(ctx, order.ID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fromStore(err, "Failed to load payment")
	}
	if existing != nil && existing.Status == models.PaymentStatusPaid {
		return nil, conflict("Order is already paid")
	}

	customerName := strings.TrimSpace(req.CustomerName)
	if customerName == "" {
		customerName = ps.customerName(ctx, order.SessionID)
	}

	start := time.Now()
	txn, err := ps.gateway.CreateTransaction(ctx, gateway.TransactionRequest{
		OrderID:      order.ID,
		Amount:       req.Amount,
		CustomerName: customerName,
		FinishURL:    fmt.Sprintf("%s/invoice/success?order_id=%s", ps.cfg.PublicBaseURL, order.ID),
	})
	util.GatewayLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		util.RecordError(span, err)
		return nil, upstream("Failed to create payment transaction", err)
	}

	sessionID := order.SessionID
	payment := &models.Payment{
		OrderID:   order.ID,
		SessionID: &sessionID,
		Amount:    req.Amount,
		Status:    models.PaymentStatusPending,
	}
	if err := ps.repo.UpsertPayment(ctx, payment); err != nil {
		return nil, fromStore(err, "Failed to record payment")
	}

	util.PaymentsInitiatedTotal.Inc()
	ps.logger.Info("Payment initiated",
		zap.String("order_id", order.ID),
		zap.Int64("amount", req.Amount))

	event := &models.PaymentInitiatedEvent{
		BaseEvent: broker.NewBaseEvent(models.EventTypePaymentInitiated),
		OrderID:   order.ID,
		Amount:    req.Amount,
	}
	if err := ps.publisher.PublishPaymentInitiated(ctx, event); err != nil {
		ps.logger.Error("Failed to publish PaymentInitiated event", zap.Error(err))
	}

	return txn, nil
}

func (ps *PaymentService) customerName(ctx context.Context, sessionID string) string {
	session, err := ps.repo.GetSession(ctx, sessionID)
	if err != nil || session.NameCustomer == "" {
		return "Guest"
	}
	return session.NameCustomer
}

// Invoice summarises what the customer owes for an order
func (ps *PaymentService) Invoice(ctx context.Context, orderID string) (*models.Invoice, error) {
	if orderID == "" {
		return nil, validationError("Missing order_id")
	}

	order, err := ps.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, fromStore(err, "Order not found")
	}

	items, err := ps.repo.GetOrderItemsByOrderID(ctx, order.ID)
	if err != nil {
		return nil, fromStore(err, "Failed to load order items")
	}

	var total int64
	for _, item := range items {
		total += int64(item.Quantity) * item.Price
	}

	return &models.Invoice{
		OrderID:      order.ID,
		CustomerName: ps.customerName(ctx, order.SessionID),
		TotalAmount:  total,
	}, nil
}

// NotificationResult reports what a gateway notification changed
type NotificationResult struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
	Settled   bool   `json:"settled"`
}

// HandleNotification applies a gateway status notification. The payment,
// order, session and table updates commit together, and a notification that
// was already applied changes nothing.
func (ps *PaymentService) HandleNotification(ctx context.Context, n *gateway.Notification) (*NotificationResult, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.HandleNotification")
	defer span.End()

	if n.OrderID == "" {
		return nil, validationError("order_id missing")
	}
	if ps.cfg.VerifySignature && !n.VerifySignature(ps.cfg.ServerKey) {
		ps.logger.Warn("Rejected notification with bad signature", zap.String("order_id", n.OrderID))
		return nil, newError(KindForbidden, "invalid signature", nil)
	}

	util.PaymentNotificationsTotal.WithLabelValues(n.TransactionStatus).Inc()

	result := &NotificationResult{Status: gateway.NormalizeStatus(n.TransactionStatus)}
	methodName := gateway.MethodName(n.PaymentType)
	var payment *models.Payment
	var tableID string

	err := ps.repo.WithTx(ctx, func(tx Repository) error {
		// the claim blocks a concurrent delivery of the same event until this
		// transaction ends, and rolls back with it
		claimed, err := tx.ClaimEvent(ctx, n.EventID(), n.TransactionStatus)
		if err != nil {
			return fromStore(err, "Failed to record notification")
		}
		if !claimed {
			result.Duplicate = true
			return nil
		}

		current, err := tx.GetPaymentByOrderIDForUpdate(ctx, n.OrderID)
		if err != nil {
			return fromStore(err, "Payment not found")
		}

		if current.Status == models.PaymentStatusPaid {
			// settled payments are final; later notifications are recorded only
			result.Duplicate = true
			return nil
		}

		method, err := tx.GetPaymentMethodByName(ctx, methodName)
		if err != nil {
			return fromStore(err, "Failed to resolve payment method")
		}
		var methodID *string
		if method != nil {
			methodID = &method.ID
		}

		// paid_at stays null until the payment settles
		var paidAt *time.Time
		if result.Status == models.PaymentStatusPaid {
			paidAt = n.PaidAt()
			if paidAt == nil {
				now := ps.now()
				paidAt = &now
			}
		}

		payment, err = tx.UpdatePaymentStatus(ctx, n.OrderID, result.Status, paidAt, methodID)
		if err != nil {
			return fromStore(err, "Failed to update payments")
		}

		if result.Status == models.PaymentStatusPaid {
			result.Settled = true
			tableID, err = ps.settle(ctx, tx, payment)
			if err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		util.RecordError(span, err)
		ps.logger.Error("Failed to apply payment notification",
			zap.String("order_id", n.OrderID),
			zap.String("status", n.TransactionStatus),
			zap.Error(err))
		return nil, err
	}

	if result.Duplicate {
		util.PaymentNotificationsDuplicateTotal.Inc()
		ps.logger.Info("Duplicate payment notification ignored",
			zap.String("order_id", n.OrderID),
			zap.String("status", n.TransactionStatus))
		return result, nil
	}

	if !result.Settled {
		event := &models.PaymentUpdatedEvent{
			BaseEvent: broker.NewBaseEvent(models.EventTypePaymentUpdated),
			OrderID:   n.OrderID,
			Status:    result.Status,
		}
		if err := ps.publisher.PublishPaymentUpdated(ctx, event); err != nil {
			ps.logger.Error("Failed to publish PaymentUpdated event", zap.Error(err))
		}
		return result, nil
	}

	util.PaymentsSettledTotal.Inc()
	ps.logger.Info("Payment settled",
		zap.String("order_id", n.OrderID),
		zap.String("method", methodName),
		zap.String("table_id", tableID))

	settled := &models.PaymentSettledEvent{
		BaseEvent:  broker.NewBaseEvent(models.EventTypePaymentSettled),
		OrderID:    payment.OrderID,
		Amount:     payment.Amount,
		MethodName: methodName,
	}
	if err := ps.publisher.PublishPaymentSettled(ctx, settled); err != nil {
		ps.logger.Error("Failed to publish PaymentSettled event", zap.Error(err))
	}

	if tableID != "" {
		released := &models.TableReleasedEvent{
			BaseEvent: broker.NewBaseEvent(models.EventTypeTableReleased),
			TableID:   tableID,
		}
		if payment.SessionID != nil {
			released.SessionID = *payment.SessionID
		}
		if err := ps.publisher.PublishTableReleased(ctx, released); err != nil {
			ps.logger.Error("Failed to publish TableReleased event", zap.Error(err))
		}
	}

	return result, nil
}

// settle marks the order Paid, closes its session and frees its table. It
// returns the released table's ID, or "" when the session was already closed
// and the table may belong to a newer session.
func (ps *PaymentService) settle(ctx context.Context, tx Repository, payment *models.Payment) (string, error) {
	if err := tx.UpdateOrderStatus(ctx, payment.OrderID, models.OrderStatusPaid); err != nil {
		return "", fromStore(err, "Failed to update order status")
	}

	sessionID := ""
	if payment.SessionID != nil {
		sessionID = *payment.SessionID
	} else {
		order, err := tx.GetOrderByID(ctx, payment.OrderID)
		if err != nil {
			return "", fromStore(err, "Order not found")
		}
		sessionID = order.SessionID
	}

	session, err := tx.GetSession(ctx, sessionID)
	if err != nil {
		return "", fromStore(err, "Session not found")
	}

	if !session.IsActive {
		return "", nil
	}
	if err := tx.CloseSession(ctx, session.ID); err != nil {
		return "", fromStore(err, "Failed to close session")
	}

	if err := tx.UpdateTableStatus(ctx, session.TableID, models.TableStatusAvailable); err != nil {
		return "", fromStore(err, "Failed to update table status")
	}
	return session.TableID, nil
}

// ExpirePendingPayments marks pending payments older than the configured
// timeout as expired
func (ps *PaymentService) ExpirePendingPayments(ctx context.Context) (int64, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.ExpirePendingPayments")
	defer span.End()

	cutoff := ps.now().Add(-ps.cfg.PendingTimeout)
	n, err := ps.repo.ExpirePendingPayments(ctx, cutoff)
	if err != nil {
		util.RecordError(span, err)
		return 0, fromStore(err, "Failed to expire payments")
	}
	if n > 0 {
		util.PaymentsExpiredTotal.Add(float64(n))
		ps.logger.Info("Expired pending payments", zap.Int64("count", n), zap.Time("cutoff", cutoff))
	}
	return n, nil
}

// ListPaymentMethods returns the payment methods customers may see
func (ps *PaymentService) ListPaymentMethods(ctx context.Context) ([]models.PaymentMethod, error) {
	methods, err := ps.repo.ListPaymentMethods(ctx)
	if err != nil {
		return nil, fromStore(err, "Failed to load payment methods")
	}
	return methods, nil
}
