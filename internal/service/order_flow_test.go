package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"restaurant-service/internal/models"
	"restaurant-service/internal/service"
	"restaurant-service/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderFixture struct {
	repo    *testutil.MemoryRepo
	pub     *testutil.FakePublisher
	svc     *service.OrderService
	session *models.Session
	food    *models.MenuCategory
	nasi    *models.MenuItem
	teh     *models.MenuItem
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	repo := testutil.NewMemoryRepo()
	pub := testutil.NewFakePublisher()
	table := testutil.SeedTable(t, repo, "T1", models.TableStatusAvailable)
	food := testutil.SeedCategory(t, repo, "Food", true)

	return &orderFixture{
		repo:    repo,
		pub:     pub,
		svc:     service.NewOrderService(repo, pub),
		session: testutil.SeedSession(t, repo, table, "Alice"),
		food:    food,
		nasi:    testutil.SeedMenuItem(t, repo, food, "Nasi Goreng", 15000, true),
		teh:     testutil.SeedMenuItem(t, repo, food, "Es Teh", 5000, true),
	}
}

func allOrders(t *testing.T, repo *testutil.MemoryRepo) []models.SummaryOrder {
	t.Helper()
	orders, err := repo.ListSummaryOrders(context.Background(), time.Time{}, time.Now().Add(time.Hour))
	require.NoError(t, err)
	return orders
}

func TestPlaceOrderCapturesMenuPrice(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	result, err := f.svc.PlaceOrder(ctx, &service.PlaceOrderRequest{
		SessionID: f.session.ID,
		Items: []service.OrderItemRequest{
			{MenuID: f.nasi.ID, Quantity: 2, Price: 1},
			{MenuID: f.teh.ID, Quantity: 3},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusPending, result.Status)
	assert.Equal(t, int64(2*15000+3*5000), result.Subtotal)
	require.Len(t, result.Items, 2)
	assert.Equal(t, int64(15000), result.Items[0].Price)
	assert.Equal(t, int64(30000), result.Items[0].Subtotal)
	assert.Equal(t, 1, f.pub.Count(models.EventTypeOrderPlaced))

	// later menu price changes do not touch submitted orders
	f.nasi.Price = 20000
	require.NoError(t, f.repo.UpdateMenuItem(ctx, f.nasi))

	got, err := f.svc.GetOrder(ctx, result.ID)
	require.NoError(t, err)
	for _, item := range got.Items {
		if item.MenuID == f.nasi.ID {
			assert.Equal(t, int64(15000), item.Price)
		}
	}
	assert.Equal(t, int64(45000), got.Subtotal)
}

func TestPlaceOrderRejected(t *testing.T) {
	ctx := context.Background()

	t.Run("empty cart", func(t *testing.T) {
		f := newOrderFixture(t)
		_, err := f.svc.PlaceOrder(ctx, &service.PlaceOrderRequest{SessionID: f.session.ID})
		assert.Equal(t, service.KindValidation, service.KindOf(err))
	})

	t.Run("zero quantity", func(t *testing.T) {
		f := newOrderFixture(t)
		_, err := f.svc.PlaceOrder(ctx, &service.PlaceOrderRequest{
			SessionID: f.session.ID,
			Items:     []service.OrderItemRequest{{MenuID: f.nasi.ID}},
		})
		assert.Equal(t, service.KindValidation, service.KindOf(err))
	})

	t.Run("unknown session", func(t *testing.T) {
		f := newOrderFixture(t)
		_, err := f.svc.PlaceOrder(ctx, &service.PlaceOrderRequest{
			SessionID: uuid.NewString(),
			Items:     []service.OrderItemRequest{{MenuID: f.nasi.ID, Quantity: 1}},
		})
		assert.Equal(t, service.KindNotFound, service.KindOf(err))
		assert.Empty(t, allOrders(t, f.repo))
	})

	t.Run("closed session", func(t *testing.T) {
		f := newOrderFixture(t)
		require.NoError(t, f.repo.CloseSession(ctx, f.session.ID))
		_, err := f.svc.PlaceOrder(ctx, &service.PlaceOrderRequest{
			SessionID: f.session.ID,
			Items:     []service.OrderItemRequest{{MenuID: f.nasi.ID, Quantity: 1}},
		})
		assert.Equal(t, service.KindConflict, service.KindOf(err))
	})

	t.Run("unknown menu item", func(t *testing.T) {
		f := newOrderFixture(t)
		_, err := f.svc.PlaceOrder(ctx, &service.PlaceOrderRequest{
			SessionID: f.session.ID,
			Items:     []service.OrderItemRequest{{MenuID: uuid.NewString(), Quantity: 1}},
		})
		assert.Equal(t, service.KindNotFound, service.KindOf(err))
		assert.Empty(t, allOrders(t, f.repo))
	})

	t.Run("inactive menu item", func(t *testing.T) {
		f := newOrderFixture(t)
		sold := testutil.SeedMenuItem(t, f.repo, f.food, "Sate", 25000, false)
		_, err := f.svc.PlaceOrder(ctx, &service.PlaceOrderRequest{
			SessionID: f.session.ID,
			Items:     []service.OrderItemRequest{{MenuID: sold.ID, Quantity: 1}},
		})
		assert.Equal(t, service.KindValidation, service.KindOf(err))
	})

	t.Run("inactive category", func(t *testing.T) {
		f := newOrderFixture(t)
		seasonal := testutil.SeedCategory(t, f.repo, "Seasonal", false)
		durian := testutil.SeedMenuItem(t, f.repo, seasonal, "Es Durian", 20000, true)
		_, err := f.svc.PlaceOrder(ctx, &service.PlaceOrderRequest{
			SessionID: f.session.ID,
			Items:     []service.OrderItemRequest{{MenuID: durian.ID, Quantity: 1}},
		})
		assert.Equal(t, service.KindValidation, service.KindOf(err))
		assert.Empty(t, allOrders(t, f.repo))
	})

	t.Run("quantity too large", func(t *testing.T) {
		f := newOrderFixture(t)
		_, err := f.svc.PlaceOrder(ctx, &service.PlaceOrderRequest{
			SessionID: f.session.ID,
			Items:     []service.OrderItemRequest{{MenuID: f.nasi.ID, Quantity: service.MaxItemQuantity + 1}},
		})
		assert.Equal(t, service.KindValidation, service.KindOf(err))
		assert.Empty(t, allOrders(t, f.repo))
	})
}

func TestPlaceOrderRollsBackOnItemFailure(t *testing.T) {
	f := newOrderFixture(t)
	f.repo.FailOn("CreateOrderItem", errors.New("connection reset"))

	_, err := f.svc.PlaceOrder(context.Background(), &service.PlaceOrderRequest{
		SessionID: f.session.ID,
		Items:     []service.OrderItemRequest{{MenuID: f.nasi.ID, Quantity: 1}},
	})
	require.Error(t, err)
	assert.Equal(t, service.KindUpstream, service.KindOf(err))

	assert.Empty(t, allOrders(t, f.repo))
	assert.Zero(t, f.pub.Count(models.EventTypeOrderPlaced))
}

func TestAddItem(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	result, err := f.svc.PlaceOrder(ctx, &service.PlaceOrderRequest{
		SessionID: f.session.ID,
		Items:     []service.OrderItemRequest{{MenuID: f.nasi.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	item, err := f.svc.AddItem(ctx, &service.AddItemRequest{OrderID: result.ID, MenuID: f.teh.ID, Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5000), item.Price)
	assert.Equal(t, int64(10000), item.Subtotal)

	got, err := f.svc.GetOrder(ctx, result.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(25000), got.Subtotal)
	assert.Len(t, got.Items, 2)

	events := f.pub.Events(models.EventTypeOrderUpdated)
	require.Len(t, events, 1)
	updated := events[0].(*models.OrderUpdatedEvent)
	assert.Equal(t, models.OrderStatusPending, updated.Status)
	assert.Equal(t, int64(25000), updated.Subtotal)

	require.NoError(t, f.repo.UpdateOrderStatus(ctx, result.ID, models.OrderStatusPaid))
	_, err = f.svc.AddItem(ctx, &service.AddItemRequest{OrderID: result.ID, MenuID: f.teh.ID, Quantity: 1})
	assert.Equal(t, service.KindConflict, service.KindOf(err))
}

func TestAddItemRejected(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	result, err := f.svc.PlaceOrder(ctx, &service.PlaceOrderRequest{
		SessionID: f.session.ID,
		Items:     []service.OrderItemRequest{{MenuID: f.nasi.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	sold := testutil.SeedMenuItem(t, f.repo, f.food, "Sate", 25000, false)
	seasonal := testutil.SeedCategory(t, f.repo, "Seasonal", false)
	durian := testutil.SeedMenuItem(t, f.repo, seasonal, "Es Durian", 20000, true)

	tests := []struct {
		name string
		req  service.AddItemRequest
		kind service.Kind
	}{
		{"inactive item", service.AddItemRequest{OrderID: result.ID, MenuID: sold.ID, Quantity: 1}, service.KindValidation},
		{"inactive category", service.AddItemRequest{OrderID: result.ID, MenuID: durian.ID, Quantity: 1}, service.KindValidation},
		{"quantity too large", service.AddItemRequest{OrderID: result.ID, MenuID: f.teh.ID, Quantity: service.MaxItemQuantity + 1}, service.KindValidation},
		{"unknown menu item", service.AddItemRequest{OrderID: result.ID, MenuID: uuid.NewString(), Quantity: 1}, service.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := f.svc.AddItem(ctx, &req)
			assert.Equal(t, tt.kind, service.KindOf(err))
		})
	}

	got, err := f.svc.GetOrder(ctx, result.ID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 1)
	assert.Equal(t, int64(15000), got.Subtotal)
}

func TestStaffOrderLifecycle(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	staff := testutil.SeedStaff(t, f.repo, "Budi", "budi@resto.id", "hash", true)
	subtotal := int64(12000)

	order, err := f.svc.CreateOrder(ctx, &service.StaffOrderRequest{
		SessionID: f.session.ID, StaffID: staff.ID, Status: models.OrderStatusPending, Subtotal: &subtotal,
	})
	require.NoError(t, err)

	served := models.OrderStatusServed
	patched, err := f.svc.PatchOrder(ctx, order.ID, &service.PatchOrderRequest{Status: &served})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusServed, patched.Status)
	assert.Equal(t, subtotal, patched.Subtotal)
	require.NotNil(t, patched.StaffID)
	assert.Equal(t, staff.ID, *patched.StaffID)

	_, err = f.svc.PatchOrder(ctx, order.ID, &service.PatchOrderRequest{})
	assert.Equal(t, service.KindValidation, service.KindOf(err))

	newTotal := int64(30000)
	replaced, err := f.svc.ReplaceOrder(ctx, order.ID, &service.StaffOrderRequest{
		SessionID: f.session.ID, StaffID: staff.ID, Status: models.OrderStatusServe, Subtotal: &newTotal,
	})
	require.NoError(t, err)
	assert.Equal(t, newTotal, replaced.Subtotal)

	require.NoError(t, f.svc.DeleteOrder(ctx, order.ID))
	_, err = f.svc.GetOrder(ctx, order.ID)
	assert.Equal(t, service.KindNotFound, service.KindOf(err))

	assert.Equal(t, service.KindNotFound, service.KindOf(f.svc.DeleteOrder(ctx, order.ID)))
}
