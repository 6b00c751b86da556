package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"restaurant-service/internal/gateway"
	"restaurant-service/internal/models"
	"restaurant-service/internal/service"
	"restaurant-service/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testServerKey = "SB-Mid-server-test"

type paymentFixture struct {
	repo     *testutil.MemoryRepo
	pub      *testutil.FakePublisher
	gw       *testutil.FakeGateway
	sessions *service.SessionService
	orders   *service.OrderService
	payments *service.PaymentService
	table    *models.Table
	nasi     *models.MenuItem
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()
	repo := testutil.NewMemoryRepo()
	pub := testutil.NewFakePublisher()
	gw := &testutil.FakeGateway{}
	food := testutil.SeedCategory(t, repo, "Food", true)

	return &paymentFixture{
		repo:     repo,
		pub:      pub,
		gw:       gw,
		sessions: service.NewSessionService(repo, testutil.NewFakeLocker(), pub, time.Second),
		orders:   service.NewOrderService(repo, pub),
		payments: service.NewPaymentService(repo, gw, pub, service.PaymentConfig{
			ServerKey:       testServerKey,
			VerifySignature: true,
			PublicBaseURL:   "https://resto.example",
			PendingTimeout:  time.Hour,
		}),
		table: testutil.SeedTable(t, repo, "T1", models.TableStatusAvailable),
		nasi:  testutil.SeedMenuItem(t, repo, food, "Nasi Goreng", 15000, true),
	}
}

// placeOrder opens a session for Alice and orders three Nasi Goreng
func (f *paymentFixture) placeOrder(t *testing.T) (*models.Session, *service.OrderResult) {
	t.Helper()
	ctx := context.Background()

	sess, err := f.sessions.StartSession(ctx, &service.StartSessionRequest{NameCustomer: "Alice", TableID: f.table.ID})
	require.NoError(t, err)

	order, err := f.orders.PlaceOrder(ctx, &service.PlaceOrderRequest{
		SessionID: sess.ID,
		Items:     []service.OrderItemRequest{{MenuID: f.nasi.ID, Quantity: 3}},
	})
	require.NoError(t, err)
	return sess, order
}

func signedNotification(orderID, status, paymentType string) *gateway.Notification {
	n := &gateway.Notification{
		OrderID:           orderID,
		TransactionID:     "txn-" + orderID,
		TransactionStatus: status,
		TransactionTime:   "2024-03-10 12:30:00",
		PaymentType:       paymentType,
		StatusCode:        "200",
		GrossAmount:       "45000.00",
	}
	n.SignatureKey = gateway.Signature(n.OrderID, n.StatusCode, n.GrossAmount, testServerKey)
	return n
}

func TestOrderToSettlement(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	sess, order := f.placeOrder(t)
	assert.Equal(t, int64(45000), order.Subtotal)

	invoice, err := f.payments.Invoice(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", invoice.CustomerName)
	assert.Equal(t, int64(45000), invoice.TotalAmount)

	txn, err := f.payments.InitiatePayment(ctx, &service.InitiatePaymentRequest{OrderID: order.ID, Amount: 45000})
	require.NoError(t, err)
	assert.NotEmpty(t, txn.Token)
	assert.NotEmpty(t, txn.RedirectURL)
	require.Equal(t, 1, f.gw.Calls())
	assert.Equal(t, "Alice", f.gw.Requests[0].CustomerName)
	assert.Equal(t, "https://resto.example/invoice/success?order_id="+order.ID, f.gw.Requests[0].FinishURL)

	payment, err := f.repo.GetPaymentByOrderID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, payment.Status)
	assert.Equal(t, int64(45000), payment.Amount)

	result, err := f.payments.HandleNotification(ctx, signedNotification(order.ID, gateway.StatusSettlement, "qris"))
	require.NoError(t, err)
	assert.True(t, result.Settled)
	assert.False(t, result.Duplicate)
	assert.Equal(t, models.PaymentStatusPaid, result.Status)

	payment, err = f.repo.GetPaymentByOrderID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, payment.Status)
	require.NotNil(t, payment.PaidAt)
	assert.Equal(t, time.Date(2024, 3, 10, 5, 30, 0, 0, time.UTC), payment.PaidAt.UTC())
	require.NotNil(t, payment.MethodID)

	qris, err := f.repo.GetPaymentMethodByName(ctx, "QRIS")
	require.NoError(t, err)
	assert.Equal(t, qris.ID, *payment.MethodID)

	got, err := f.repo.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, got.Status)

	table, err := f.repo.GetTable(ctx, f.table.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TableStatusAvailable, table.Status)

	closed, err := f.repo.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.False(t, closed.IsActive)

	assert.Equal(t, 1, f.pub.Count(models.EventTypePaymentSettled))
	assert.Equal(t, 1, f.pub.Count(models.EventTypeTableReleased))

	// the table can host the next customer
	_, err = f.sessions.StartSession(ctx, &service.StartSessionRequest{NameCustomer: "Bob", TableID: f.table.ID})
	assert.NoError(t, err)
}

func TestHandleNotificationIsIdempotent(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	_, order := f.placeOrder(t)

	_, err := f.payments.InitiatePayment(ctx, &service.InitiatePaymentRequest{OrderID: order.ID, Amount: 45000})
	require.NoError(t, err)

	n := signedNotification(order.ID, gateway.StatusSettlement, "gopay")
	first, err := f.payments.HandleNotification(ctx, n)
	require.NoError(t, err)
	assert.True(t, first.Settled)

	again, err := f.payments.HandleNotification(ctx, n)
	require.NoError(t, err)
	assert.True(t, again.Duplicate)
	assert.False(t, again.Settled)

	// a stale status after settlement never downgrades the payment
	late, err := f.payments.HandleNotification(ctx, signedNotification(order.ID, gateway.StatusExpire, "gopay"))
	require.NoError(t, err)
	assert.True(t, late.Duplicate)

	payment, err := f.repo.GetPaymentByOrderID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, payment.Status)

	assert.Equal(t, 1, f.pub.Count(models.EventTypePaymentSettled))
	assert.Equal(t, 1, f.pub.Count(models.EventTypeTableReleased))
	assert.Zero(t, f.pub.Count(models.EventTypePaymentUpdated))
}

func TestHandleNotificationConcurrentDeliveries(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	_, order := f.placeOrder(t)

	_, err := f.payments.InitiatePayment(ctx, &service.InitiatePaymentRequest{OrderID: order.ID, Amount: 45000})
	require.NoError(t, err)

	const deliveries = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		settled  int
		failures []error
	)
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := f.payments.HandleNotification(ctx, signedNotification(order.ID, gateway.StatusSettlement, "qris"))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, err)
				return
			}
			if result.Settled {
				settled++
			}
		}()
	}
	wg.Wait()

	assert.Empty(t, failures)
	assert.Equal(t, 1, settled)
	assert.Equal(t, 1, f.pub.Count(models.EventTypePaymentSettled))
	assert.Equal(t, 1, f.pub.Count(models.EventTypeTableReleased))
}

func TestSettlementKeepsNewerSessionsTable(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	first, o1 := f.placeOrder(t)

	o2, err := f.orders.PlaceOrder(ctx, &service.PlaceOrderRequest{
		SessionID: first.ID,
		Items:     []service.OrderItemRequest{{MenuID: f.nasi.ID, Quantity: 3}},
	})
	require.NoError(t, err)

	for _, id := range []string{o1.ID, o2.ID} {
		_, err := f.payments.InitiatePayment(ctx, &service.InitiatePaymentRequest{OrderID: id, Amount: 45000})
		require.NoError(t, err)
	}

	_, err = f.payments.HandleNotification(ctx, signedNotification(o1.ID, gateway.StatusSettlement, "qris"))
	require.NoError(t, err)

	bob, err := f.sessions.StartSession(ctx, &service.StartSessionRequest{NameCustomer: "Bob", TableID: f.table.ID})
	require.NoError(t, err)

	result, err := f.payments.HandleNotification(ctx, signedNotification(o2.ID, gateway.StatusSettlement, "gopay"))
	require.NoError(t, err)
	assert.True(t, result.Settled)

	got, err := f.repo.GetOrderByID(ctx, o2.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, got.Status)

	table, err := f.repo.GetTable(ctx, f.table.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TableStatusOccupied, table.Status)

	current, err := f.repo.GetSession(ctx, bob.ID)
	require.NoError(t, err)
	assert.True(t, current.IsActive)

	assert.Equal(t, 2, f.pub.Count(models.EventTypePaymentSettled))
	assert.Equal(t, 1, f.pub.Count(models.EventTypeTableReleased))
}

func TestHandleNotificationNonTerminal(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	_, order := f.placeOrder(t)

	_, err := f.payments.InitiatePayment(ctx, &service.InitiatePaymentRequest{OrderID: order.ID, Amount: 45000})
	require.NoError(t, err)

	result, err := f.payments.HandleNotification(ctx, signedNotification(order.ID, gateway.StatusDeny, "credit_card"))
	require.NoError(t, err)
	assert.False(t, result.Settled)
	assert.Equal(t, gateway.StatusDeny, result.Status)

	payment, err := f.repo.GetPaymentByOrderID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, gateway.StatusDeny, payment.Status)
	assert.Nil(t, payment.PaidAt)

	got, err := f.repo.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, got.Status)

	table, err := f.repo.GetTable(ctx, f.table.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TableStatusOccupied, table.Status)
	assert.Equal(t, 1, f.pub.Count(models.EventTypePaymentUpdated))
}

func TestHandleNotificationRejected(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	_, order := f.placeOrder(t)

	_, err := f.payments.HandleNotification(ctx, &gateway.Notification{TransactionStatus: gateway.StatusSettlement})
	assert.Equal(t, service.KindValidation, service.KindOf(err))

	forged := signedNotification(order.ID, gateway.StatusSettlement, "qris")
	forged.GrossAmount = "1.00"
	_, err = f.payments.HandleNotification(ctx, forged)
	assert.Equal(t, service.KindForbidden, service.KindOf(err))

	// no payment was initiated for the order
	_, err = f.payments.HandleNotification(ctx, signedNotification(order.ID, gateway.StatusSettlement, "qris"))
	assert.Equal(t, service.KindNotFound, service.KindOf(err))

	got, err := f.repo.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, got.Status)
}

func TestHandleNotificationRollsBack(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	_, order := f.placeOrder(t)

	_, err := f.payments.InitiatePayment(ctx, &service.InitiatePaymentRequest{OrderID: order.ID, Amount: 45000})
	require.NoError(t, err)

	f.repo.FailOn("UpdateTableStatus", errors.New("connection reset"))
	n := signedNotification(order.ID, gateway.StatusSettlement, "qris")
	_, err = f.payments.HandleNotification(ctx, n)
	require.Error(t, err)

	payment, err := f.repo.GetPaymentByOrderID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, payment.Status)

	got, err := f.repo.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, got.Status)

	// the gateway retries and the notification now applies
	f.repo.FailOn("UpdateTableStatus", nil)
	result, err := f.payments.HandleNotification(ctx, n)
	require.NoError(t, err)
	assert.True(t, result.Settled)
}

func TestInitiatePaymentRejected(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	_, order := f.placeOrder(t)

	_, err := f.payments.InitiatePayment(ctx, &service.InitiatePaymentRequest{OrderID: order.ID})
	assert.Equal(t, service.KindValidation, service.KindOf(err))

	_, err = f.payments.InitiatePayment(ctx, &service.InitiatePaymentRequest{OrderID: order.ID, Amount: 1000})
	assert.Equal(t, service.KindValidation, service.KindOf(err))
	assert.Zero(t, f.gw.Calls())

	f.gw.Err = errors.New("midtrans unavailable")
	_, err = f.payments.InitiatePayment(ctx, &service.InitiatePaymentRequest{OrderID: order.ID, Amount: 45000})
	assert.Equal(t, service.KindUpstream, service.KindOf(err))
	_, err = f.repo.GetPaymentByOrderID(ctx, order.ID)
	assert.Error(t, err)

	f.gw.Err = nil
	require.NoError(t, f.repo.UpdateOrderStatus(ctx, order.ID, models.OrderStatusPaid))
	_, err = f.payments.InitiatePayment(ctx, &service.InitiatePaymentRequest{OrderID: order.ID, Amount: 45000})
	assert.Equal(t, service.KindConflict, service.KindOf(err))
}

func TestExpirePendingPayments(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	_, order := f.placeOrder(t)

	f.repo.SetClock(func() time.Time { return time.Now().Add(-2 * time.Hour) })
	_, err := f.payments.InitiatePayment(ctx, &service.InitiatePaymentRequest{OrderID: order.ID, Amount: 45000})
	require.NoError(t, err)

	n, err := f.payments.ExpirePendingPayments(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	payment, err := f.repo.GetPaymentByOrderID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusExpire, payment.Status)

	n, err = f.payments.ExpirePendingPayments(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
