package service

import (
	"context"
	"io"
	"time"

	"restaurant-service/internal/gateway"
	"restaurant-service/internal/models"
	"restaurant-service/internal/store"
)

// Repository is the persistence surface the services depend on.
// *store.Store satisfies it through NewSQLRepository.
type Repository interface {
	// WithTx runs fn with a Repository bound to one transaction. Any error
	// returned by fn rolls the transaction back.
	WithTx(ctx context.Context, fn func(tx Repository) error) error

	CreateTable(ctx context.Context, t *models.Table) error
	GetTable(ctx context.Context, id string) (*models.Table, error)
	GetTableForUpdate(ctx context.Context, id string) (*models.Table, error)
	ListTables(ctx context.Context, status string) ([]models.Table, error)
	UpdateTableStatus(ctx context.Context, id, status string) error

	CreateSession(ctx context.Context, sess *models.Session) error
	GetSession(ctx context.Context, id string) (*models.Session, error)
	GetActiveSessionByTable(ctx context.Context, tableID string) (*models.Session, error)
	CloseSession(ctx context.Context, id string) error

	ListCategories(ctx context.Context, activeOnly bool) ([]models.MenuCategory, error)
	CreateCategory(ctx context.Context, c *models.MenuCategory) error
	UpdateCategory(ctx context.Context, c *models.MenuCategory) error
	DeleteCategory(ctx context.Context, id string) error
	ListMenuItems(ctx context.Context, categoryID string, activeOnly bool) ([]models.MenuItem, error)
	GetMenuItem(ctx context.Context, id string) (*models.MenuItem, error)
	GetMenuItemsByIDs(ctx context.Context, ids []string) ([]models.MenuItem, error)
	CreateMenuItem(ctx context.Context, m *models.MenuItem) error
	UpdateMenuItem(ctx context.Context, m *models.MenuItem) error
	DeleteMenuItem(ctx context.Context, id string) error

	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID, status string) error
	UpdateOrder(ctx context.Context, order *models.Order) error
	UpdateOrderSubtotal(ctx context.Context, orderID string) (int64, error)
	DeleteOrder(ctx context.Context, id string) error
	CreateOrderItem(ctx context.Context, item *models.OrderItem) error
	GetOrderItemsByOrderID(ctx context.Context, orderID string) ([]models.OrderItem, error)
	ListOrderItems(ctx context.Context, filter models.OrderItemFilter) ([]models.OrderItemDetail, error)
	ListOrderDetails(ctx context.Context, filter models.OrderFilter) ([]models.OrderDetail, error)
	ListSummaryOrders(ctx context.Context, from, to time.Time) ([]models.SummaryOrder, error)
	SumQuantitiesByMenu(ctx context.Context, orderIDs []string) ([]models.MenuQuantity, error)

	UpsertPayment(ctx context.Context, payment *models.Payment) error
	GetPaymentByOrderID(ctx context.Context, orderID string) (*models.Payment, error)
	GetPaymentByOrderIDForUpdate(ctx context.Context, orderID string) (*models.Payment, error)
	UpdatePaymentStatus(ctx context.Context, orderID, status string, paidAt *time.Time, methodID *string) (*models.Payment, error)
	ExpirePendingPayments(ctx context.Context, cutoff time.Time) (int64, error)
	ListPaymentDetails(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentDetail, error)
	GetPaymentMethodByName(ctx context.Context, name string) (*models.PaymentMethod, error)
	ListPaymentMethods(ctx context.Context) ([]models.PaymentMethod, error)
	ClaimEvent(ctx context.Context, eventID, eventType string) (bool, error)

	CreateStaff(ctx context.Context, staff *models.Staff) error
	ListStaff(ctx context.Context) ([]models.Staff, error)
	GetStaff(ctx context.Context, id string) (*models.Staff, error)
	GetStaffByEmail(ctx context.Context, email string) (*models.Staff, error)
	UpdateStaff(ctx context.Context, staff *models.Staff) error
	SetStaffActive(ctx context.Context, id string, active bool) error
	DeleteStaff(ctx context.Context, id string) error
}

type sqlRepository struct {
	*store.Store
}

// NewSQLRepository adapts a Postgres store to Repository
func NewSQLRepository(s *store.Store) Repository {
	return sqlRepository{Store: s}
}

func (r sqlRepository) WithTx(ctx context.Context, fn func(tx Repository) error) error {
	return r.Store.WithTx(ctx, func(tx *store.Store) error {
		return fn(sqlRepository{Store: tx})
	})
}

// EventPublisher emits domain events. *broker.EventPublisher satisfies it.
type EventPublisher interface {
	PublishSessionStarted(ctx context.Context, event *models.SessionStartedEvent) error
	PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error
	PublishOrderUpdated(ctx context.Context, event *models.OrderUpdatedEvent) error
	PublishPaymentInitiated(ctx context.Context, event *models.PaymentInitiatedEvent) error
	PublishPaymentSettled(ctx context.Context, event *models.PaymentSettledEvent) error
	PublishPaymentUpdated(ctx context.Context, event *models.PaymentUpdatedEvent) error
	PublishTableReleased(ctx context.Context, event *models.TableReleasedEvent) error
}

// Locker serialises work on a key across instances. *redisclient.Client
// satisfies it.
type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// PaymentGateway creates hosted payment transactions. *gateway.Midtrans
// satisfies it.
type PaymentGateway interface {
	CreateTransaction(ctx context.Context, req gateway.TransactionRequest) (*gateway.Transaction, error)
}

// NotificationFeed stores the dashboard's live notification list.
type NotificationFeed interface {
	PushNotification(ctx context.Context, payload []byte, size int) error
	RecentNotifications(ctx context.Context, limit int) ([][]byte, error)
}

// ImageUploader stores menu images and returns their public URL.
type ImageUploader interface {
	UploadMenuImage(ctx context.Context, menuID string, r io.Reader) (string, error)
}
