// Package testutil provides in-memory stand-ins for the store, broker, lock
// and gateway so services can be tested without infrastructure.
package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"restaurant-service/internal/models"
	"restaurant-service/internal/service"
	"restaurant-service/internal/store"

	"github.com/google/uuid"
)

type state struct {
	tables     map[string]models.Table
	sessions   map[string]models.Session
	categories map[string]models.MenuCategory
	items      map[string]models.MenuItem
	orders     map[string]models.Order
	orderItems []models.OrderItem
	payments   map[string]models.Payment
	methods    map[string]models.PaymentMethod
	staff      map[string]models.Staff
	events     map[string]string
}

func newState() *state {
	return &state{
		tables:     map[string]models.Table{},
		sessions:   map[string]models.Session{},
		categories: map[string]models.MenuCategory{},
		items:      map[string]models.MenuItem{},
		orders:     map[string]models.Order{},
		payments:   map[string]models.Payment{},
		methods:    map[string]models.PaymentMethod{},
		staff:      map[string]models.Staff{},
		events:     map[string]string{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *state) clone() *state {
	return &state{
		tables:     cloneMap(s.tables),
		sessions:   cloneMap(s.sessions),
		categories: cloneMap(s.categories),
		items:      cloneMap(s.items),
		orders:     cloneMap(s.orders),
		orderItems: append([]models.OrderItem(nil), s.orderItems...),
		payments:   cloneMap(s.payments),
		methods:    cloneMap(s.methods),
		staff:      cloneMap(s.staff),
		events:     cloneMap(s.events),
	}
}

type failures struct {
	mu  sync.Mutex
	err map[string]error
}

// MemoryRepo is an in-memory service.Repository. Transactions work on a
// snapshot that replaces the committed state only when fn succeeds, and run
// one at a time.
type MemoryRepo struct {
	mu   *sync.Mutex
	st   *state
	inTx bool
	fail *failures
	now  func() time.Time
}

var _ service.Repository = (*MemoryRepo)(nil)

// PaymentMethodNames are seeded into every MemoryRepo
var PaymentMethodNames = []string{
	"Shopee Pay", "GoPay", "QRIS", "Spaylater", "Bank Transfer", "Credit Card", models.PaymentMethodOther,
}

// NewMemoryRepo returns an empty repository with the payment methods seeded
func NewMemoryRepo() *MemoryRepo {
	r := &MemoryRepo{
		mu:   &sync.Mutex{},
		st:   newState(),
		fail: &failures{err: map[string]error{}},
		now:  time.Now,
	}
	for _, name := range PaymentMethodNames {
		id := uuid.NewString()
		r.st.methods[id] = models.PaymentMethod{ID: id, Name: name, IsActive: true, CreatedAt: r.now()}
	}
	return r
}

// SetClock sets the time stamped on rows created from now on
func (r *MemoryRepo) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

// FailOn makes the named repository method return err until cleared with a
// nil err.
func (r *MemoryRepo) FailOn(method string, err error) {
	r.fail.mu.Lock()
	defer r.fail.mu.Unlock()
	if err == nil {
		delete(r.fail.err, method)
		return
	}
	r.fail.err[method] = err
}

func (r *MemoryRepo) injected(method string) error {
	r.fail.mu.Lock()
	defer r.fail.mu.Unlock()
	return r.fail.err[method]
}

// do runs fn against the visible state, holding the lock outside transactions
func (r *MemoryRepo) do(method string, fn func(st *state) error) error {
	if err := r.injected(method); err != nil {
		return err
	}
	if !r.inTx {
		r.mu.Lock()
		defer r.mu.Unlock()
	}
	return fn(r.st)
}

func (r *MemoryRepo) WithTx(ctx context.Context, fn func(tx service.Repository) error) error {
	if r.inTx {
		return fn(r)
	}
	if err := r.injected("WithTx"); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := r.st.clone()
	tx := &MemoryRepo{mu: r.mu, st: snapshot, inTx: true, fail: r.fail, now: r.now}
	if err := fn(tx); err != nil {
		return err
	}
	r.st = snapshot
	return nil
}

// Tables

func (r *MemoryRepo) CreateTable(ctx context.Context, t *models.Table) error {
	return r.do("CreateTable", func(st *state) error {
		for _, existing := range st.tables {
			if existing.TableNumber == t.TableNumber {
				return store.ErrConflict
			}
		}
		t.ID = uuid.NewString()
		t.CreatedAt = r.now()
		st.tables[t.ID] = *t
		return nil
	})
}

func (r *MemoryRepo) GetTable(ctx context.Context, id string) (*models.Table, error) {
	var out models.Table
	err := r.do("GetTable", func(st *state) error {
		t, ok := st.tables[id]
		if !ok {
			return store.ErrNotFound
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *MemoryRepo) GetTableForUpdate(ctx context.Context, id string) (*models.Table, error) {
	if err := r.injected("GetTableForUpdate"); err != nil {
		return nil, err
	}
	return r.GetTable(ctx, id)
}

func (r *MemoryRepo) ListTables(ctx context.Context, status string) ([]models.Table, error) {
	out := []models.Table{}
	err := r.do("ListTables", func(st *state) error {
		for _, t := range st.tables {
			if status == "" || t.Status == status {
				out = append(out, t)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, err
}

func (r *MemoryRepo) UpdateTableStatus(ctx context.Context, id, status string) error {
	return r.do("UpdateTableStatus", func(st *state) error {
		t, ok := st.tables[id]
		if !ok {
			return store.ErrNotFound
		}
		t.Status = status
		st.tables[id] = t
		return nil
	})
}

// Sessions

func (r *MemoryRepo) CreateSession(ctx context.Context, sess *models.Session) error {
	return r.do("CreateSession", func(st *state) error {
		if _, ok := st.tables[sess.TableID]; !ok {
			return store.ErrNotFound
		}
		if sess.IsActive {
			for _, existing := range st.sessions {
				if existing.TableID == sess.TableID && existing.IsActive {
					return store.ErrConflict
				}
			}
		}
		sess.ID = uuid.NewString()
		sess.CreatedAt = r.now()
		st.sessions[sess.ID] = *sess
		return nil
	})
}

func (r *MemoryRepo) GetSession(ctx context.Context, id string) (*models.Session, error) {
	var out models.Session
	err := r.do("GetSession", func(st *state) error {
		s, ok := st.sessions[id]
		if !ok {
			return store.ErrNotFound
		}
		out = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *MemoryRepo) GetActiveSessionByTable(ctx context.Context, tableID string) (*models.Session, error) {
	var out *models.Session
	err := r.do("GetActiveSessionByTable", func(st *state) error {
		for _, s := range st.sessions {
			if s.TableID == tableID && s.IsActive {
				s := s
				out = &s
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *MemoryRepo) CloseSession(ctx context.Context, id string) error {
	return r.do("CloseSession", func(st *state) error {
		s, ok := st.sessions[id]
		if !ok {
			return store.ErrNotFound
		}
		s.IsActive = false
		s.Status = models.SessionStatusClosed
		st.sessions[id] = s
		return nil
	})
}

// Menu

func (r *MemoryRepo) ListCategories(ctx context.Context, activeOnly bool) ([]models.MenuCategory, error) {
	out := []models.MenuCategory{}
	err := r.do("ListCategories", func(st *state) error {
		for _, c := range st.categories {
			if !activeOnly || c.IsActive {
				out = append(out, c)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, err
}

func (r *MemoryRepo) CreateCategory(ctx context.Context, c *models.MenuCategory) error {
	return r.do("CreateCategory", func(st *state) error {
		c.ID = uuid.NewString()
		c.CreatedAt = r.now()
		st.categories[c.ID] = *c
		return nil
	})
}

func (r *MemoryRepo) UpdateCategory(ctx context.Context, c *models.MenuCategory) error {
	return r.do("UpdateCategory", func(st *state) error {
		existing, ok := st.categories[c.ID]
		if !ok {
			return store.ErrNotFound
		}
		existing.Name = c.Name
		existing.IsActive = c.IsActive
		st.categories[c.ID] = existing
		*c = existing
		return nil
	})
}

func (r *MemoryRepo) DeleteCategory(ctx context.Context, id string) error {
	return r.do("DeleteCategory", func(st *state) error {
		if _, ok := st.categories[id]; !ok {
			return store.ErrNotFound
		}
		delete(st.categories, id)
		for itemID, item := range st.items {
			if item.CategoryID != nil && *item.CategoryID == id {
				item.CategoryID = nil
				st.items[itemID] = item
			}
		}
		return nil
	})
}

func withCategory(st *state, item models.MenuItem) models.MenuItem {
	item.Categories = []models.MenuCategory{}
	if item.CategoryID != nil {
		if c, ok := st.categories[*item.CategoryID]; ok {
			item.Categories = []models.MenuCategory{c}
		}
	}
	return item
}

func (r *MemoryRepo) ListMenuItems(ctx context.Context, categoryID string, activeOnly bool) ([]models.MenuItem, error) {
	out := []models.MenuItem{}
	err := r.do("ListMenuItems", func(st *state) error {
		for _, item := range st.items {
			if categoryID != "" && (item.CategoryID == nil || *item.CategoryID != categoryID) {
				continue
			}
			if activeOnly && !item.IsActive {
				continue
			}
			out = append(out, withCategory(st, item))
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, err
}

func (r *MemoryRepo) GetMenuItem(ctx context.Context, id string) (*models.MenuItem, error) {
	var out models.MenuItem
	err := r.do("GetMenuItem", func(st *state) error {
		item, ok := st.items[id]
		if !ok {
			return store.ErrNotFound
		}
		out = withCategory(st, item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *MemoryRepo) GetMenuItemsByIDs(ctx context.Context, ids []string) ([]models.MenuItem, error) {
	out := []models.MenuItem{}
	err := r.do("GetMenuItemsByIDs", func(st *state) error {
		for _, id := range ids {
			if item, ok := st.items[id]; ok {
				out = append(out, withCategory(st, item))
			}
		}
		return nil
	})
	return out, err
}

func (r *MemoryRepo) CreateMenuItem(ctx context.Context, m *models.MenuItem) error {
	return r.do("CreateMenuItem", func(st *state) error {
		if m.CategoryID != nil {
			if _, ok := st.categories[*m.CategoryID]; !ok {
				return store.ErrNotFound
			}
		}
		m.ID = uuid.NewString()
		m.CreatedAt = r.now()
		stored := *m
		stored.Categories = nil
		st.items[m.ID] = stored
		return nil
	})
}

func (r *MemoryRepo) UpdateMenuItem(ctx context.Context, m *models.MenuItem) error {
	return r.do("UpdateMenuItem", func(st *state) error {
		existing, ok := st.items[m.ID]
		if !ok {
			return store.ErrNotFound
		}
		existing.CategoryID = m.CategoryID
		existing.Name = m.Name
		existing.Description = m.Description
		existing.Price = m.Price
		existing.ImageURL = m.ImageURL
		existing.IsActive = m.IsActive
		st.items[m.ID] = existing
		return nil
	})
}

func (r *MemoryRepo) DeleteMenuItem(ctx context.Context, id string) error {
	return r.do("DeleteMenuItem", func(st *state) error {
		if _, ok := st.items[id]; !ok {
			return store.ErrNotFound
		}
		for _, oi := range st.orderItems {
			if oi.MenuID == id {
				return store.ErrConflict
			}
		}
		delete(st.items, id)
		return nil
	})
}

// Orders

func (r *MemoryRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.do("CreateOrder", func(st *state) error {
		if _, ok := st.sessions[order.SessionID]; !ok {
			return store.ErrNotFound
		}
		order.ID = uuid.NewString()
		order.CreatedAt = r.now()
		order.UpdatedAt = order.CreatedAt
		st.orders[order.ID] = *order
		return nil
	})
}

func (r *MemoryRepo) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	var out models.Order
	err := r.do("GetOrderByID", func(st *state) error {
		o, ok := st.orders[id]
		if !ok {
			return store.ErrNotFound
		}
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *MemoryRepo) UpdateOrderStatus(ctx context.Context, orderID, status string) error {
	return r.do("UpdateOrderStatus", func(st *state) error {
		o, ok := st.orders[orderID]
		if !ok {
			return store.ErrNotFound
		}
		o.Status = status
		o.UpdatedAt = r.now()
		st.orders[orderID] = o
		return nil
	})
}

func (r *MemoryRepo) UpdateOrder(ctx context.Context, order *models.Order) error {
	return r.do("UpdateOrder", func(st *state) error {
		o, ok := st.orders[order.ID]
		if !ok {
			return store.ErrNotFound
		}
		if _, ok := st.sessions[order.SessionID]; !ok {
			return store.ErrNotFound
		}
		o.SessionID = order.SessionID
		o.StaffID = order.StaffID
		o.Status = order.Status
		o.Subtotal = order.Subtotal
		o.UpdatedAt = r.now()
		st.orders[order.ID] = o
		*order = o
		return nil
	})
}

func (r *MemoryRepo) UpdateOrderSubtotal(ctx context.Context, orderID string) (int64, error) {
	var subtotal int64
	err := r.do("UpdateOrderSubtotal", func(st *state) error {
		o, ok := st.orders[orderID]
		if !ok {
			return store.ErrNotFound
		}
		for _, oi := range st.orderItems {
			if oi.OrderID == orderID {
				subtotal += oi.Subtotal
			}
		}
		o.Subtotal = subtotal
		o.UpdatedAt = r.now()
		st.orders[orderID] = o
		return nil
	})
	return subtotal, err
}

func (r *MemoryRepo) DeleteOrder(ctx context.Context, id string) error {
	return r.do("DeleteOrder", func(st *state) error {
		if _, ok := st.orders[id]; !ok {
			return store.ErrNotFound
		}
		delete(st.orders, id)
		delete(st.payments, id)
		kept := st.orderItems[:0]
		for _, oi := range st.orderItems {
			if oi.OrderID != id {
				kept = append(kept, oi)
			}
		}
		st.orderItems = kept
		return nil
	})
}

func (r *MemoryRepo) CreateOrderItem(ctx context.Context, item *models.OrderItem) error {
	return r.do("CreateOrderItem", func(st *state) error {
		if _, ok := st.orders[item.OrderID]; !ok {
			return store.ErrNotFound
		}
		if _, ok := st.items[item.MenuID]; !ok {
			return store.ErrNotFound
		}
		item.ID = uuid.NewString()
		item.CreatedAt = r.now()
		st.orderItems = append(st.orderItems, *item)
		return nil
	})
}

func (r *MemoryRepo) GetOrderItemsByOrderID(ctx context.Context, orderID string) ([]models.OrderItem, error) {
	out := []models.OrderItem{}
	err := r.do("GetOrderItemsByOrderID", func(st *state) error {
		for _, oi := range st.orderItems {
			if oi.OrderID == orderID {
				out = append(out, oi)
			}
		}
		return nil
	})
	return out, err
}

func within(t time.Time, from, to time.Time) bool {
	return !t.Before(from) && !t.After(to)
}

func (r *MemoryRepo) ListOrderItems(ctx context.Context, filter models.OrderItemFilter) ([]models.OrderItemDetail, error) {
	out := []models.OrderItemDetail{}
	err := r.do("ListOrderItems", func(st *state) error {
		for _, oi := range st.orderItems {
			if !within(oi.CreatedAt, filter.From, filter.To) {
				continue
			}
			if filter.OrderID != "" && oi.OrderID != filter.OrderID {
				continue
			}
			out = append(out, models.OrderItemDetail{OrderItem: oi, MenuName: st.items[oi.MenuID].Name})
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, err
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

func (r *MemoryRepo) ListOrderDetails(ctx context.Context, filter models.OrderFilter) ([]models.OrderDetail, error) {
	out := []models.OrderDetail{}
	err := r.do("ListOrderDetails", func(st *state) error {
		for _, o := range st.orders {
			staffName := ""
			if o.StaffID != nil {
				staffName = st.staff[*o.StaffID].Name
			}
			if filter.StaffName != "" && staffName != filter.StaffName {
				continue
			}
			if filter.From != nil && o.CreatedAt.Before(*filter.From) {
				continue
			}
			if filter.To != nil && o.CreatedAt.After(*filter.To) {
				continue
			}

			lines := []models.OrderLine{}
			for _, oi := range st.orderItems {
				if oi.OrderID == o.ID {
					lines = append(lines, models.OrderLine{
						MenuID:   oi.MenuID,
						OrderID:  oi.OrderID,
						ItemName: st.items[oi.MenuID].Name,
						Quantity: oi.Quantity,
						Price:    oi.Price,
					})
				}
			}

			out = append(out, models.OrderDetail{
				OrderID:     o.ID,
				StaffName:   orUnknown(staffName),
				SessionName: orUnknown(st.sessions[o.SessionID].NameCustomer),
				Status:      o.Status,
				IsActive:    o.Status == models.OrderStatusPaid,
				Items:       lines,
				Subtotal:    o.Subtotal,
				CreatedAt:   o.CreatedAt,
			})
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, err
}

func methodName(st *state, id *string) *string {
	if id == nil {
		return nil
	}
	m, ok := st.methods[*id]
	if !ok {
		return nil
	}
	name := m.Name
	return &name
}

func (r *MemoryRepo) ListSummaryOrders(ctx context.Context, from, to time.Time) ([]models.SummaryOrder, error) {
	out := []models.SummaryOrder{}
	err := r.do("ListSummaryOrders", func(st *state) error {
		for _, o := range st.orders {
			if !within(o.CreatedAt, from, to) {
				continue
			}
			so := models.SummaryOrder{
				OrderID:   o.ID,
				Status:    o.Status,
				Subtotal:  o.Subtotal,
				CreatedAt: o.CreatedAt,
			}
			if p, ok := st.payments[o.ID]; ok {
				so.Payments = []models.SummaryPayment{{
					OrderID:    p.OrderID,
					Amount:     p.Amount,
					Status:     p.Status,
					CreatedAt:  p.CreatedAt,
					MethodName: methodName(st, p.MethodID),
				}}
			}
			out = append(out, so)
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, err
}

func (r *MemoryRepo) SumQuantitiesByMenu(ctx context.Context, orderIDs []string) ([]models.MenuQuantity, error) {
	out := []models.MenuQuantity{}
	err := r.do("SumQuantitiesByMenu", func(st *state) error {
		wanted := make(map[string]bool, len(orderIDs))
		for _, id := range orderIDs {
			wanted[id] = true
		}
		totals := map[string]int{}
		for _, oi := range st.orderItems {
			if wanted[oi.OrderID] {
				totals[oi.MenuID] += oi.Quantity
			}
		}
		for id, q := range totals {
			out = append(out, models.MenuQuantity{MenuID: id, Quantity: q})
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].MenuID < out[j].MenuID })
	return out, err
}

// Payments

func (r *MemoryRepo) UpsertPayment(ctx context.Context, payment *models.Payment) error {
	return r.do("UpsertPayment", func(st *state) error {
		if _, ok := st.orders[payment.OrderID]; !ok {
			return store.ErrNotFound
		}
		if existing, ok := st.payments[payment.OrderID]; ok {
			payment.ID = existing.ID
			payment.PaidAt = existing.PaidAt
		} else {
			payment.ID = uuid.NewString()
		}
		payment.CreatedAt = r.now()
		st.payments[payment.OrderID] = *payment
		return nil
	})
}

func (r *MemoryRepo) GetPaymentByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	var out models.Payment
	err := r.do("GetPaymentByOrderID", func(st *state) error {
		p, ok := st.payments[orderID]
		if !ok {
			return store.ErrNotFound
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetPaymentByOrderIDForUpdate reads like GetPaymentByOrderID; transactions
// are already serialised.
func (r *MemoryRepo) GetPaymentByOrderIDForUpdate(ctx context.Context, orderID string) (*models.Payment, error) {
	var out models.Payment
	err := r.do("GetPaymentByOrderIDForUpdate", func(st *state) error {
		p, ok := st.payments[orderID]
		if !ok {
			return store.ErrNotFound
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *MemoryRepo) UpdatePaymentStatus(ctx context.Context, orderID, status string, paidAt *time.Time, methodID *string) (*models.Payment, error) {
	var out models.Payment
	err := r.do("UpdatePaymentStatus", func(st *state) error {
		p, ok := st.payments[orderID]
		if !ok {
			return store.ErrNotFound
		}
		p.Status = status
		p.PaidAt = paidAt
		p.MethodID = methodID
		st.payments[orderID] = p
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *MemoryRepo) ExpirePendingPayments(ctx context.Context, cutoff time.Time) (int64, error) {
	var n int64
	err := r.do("ExpirePendingPayments", func(st *state) error {
		for id, p := range st.payments {
			if p.Status == models.PaymentStatusPending && p.CreatedAt.Before(cutoff) {
				p.Status = models.PaymentStatusExpire
				st.payments[id] = p
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *MemoryRepo) ListPaymentDetails(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentDetail, error) {
	out := []models.PaymentDetail{}
	err := r.do("ListPaymentDetails", func(st *state) error {
		for _, p := range st.payments {
			var staffName *string
			if o, ok := st.orders[p.OrderID]; ok && o.StaffID != nil {
				if s, ok := st.staff[*o.StaffID]; ok {
					name := s.Name
					staffName = &name
				}
			}
			if filter.StaffName != "" && (staffName == nil || *staffName != filter.StaffName) {
				continue
			}
			if filter.From != nil && p.CreatedAt.Before(*filter.From) {
				continue
			}
			if filter.To != nil && p.CreatedAt.After(*filter.To) {
				continue
			}
			out = append(out, models.PaymentDetail{
				PaymentID:  p.ID,
				OrderID:    p.OrderID,
				Amount:     p.Amount,
				Status:     p.Status,
				CreatedAt:  p.CreatedAt,
				MethodName: methodName(st, p.MethodID),
				StaffName:  staffName,
			})
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, err
}

func (r *MemoryRepo) GetPaymentMethodByName(ctx context.Context, name string) (*models.PaymentMethod, error) {
	var out *models.PaymentMethod
	err := r.do("GetPaymentMethodByName", func(st *state) error {
		for _, m := range st.methods {
			if m.Name == name {
				m := m
				out = &m
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *MemoryRepo) ListPaymentMethods(ctx context.Context) ([]models.PaymentMethod, error) {
	out := []models.PaymentMethod{}
	err := r.do("ListPaymentMethods", func(st *state) error {
		for _, m := range st.methods {
			out = append(out, m)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

func (r *MemoryRepo) ClaimEvent(ctx context.Context, eventID, eventType string) (bool, error) {
	var claimed bool
	err := r.do("ClaimEvent", func(st *state) error {
		if _, ok := st.events[eventID]; ok {
			return nil
		}
		st.events[eventID] = eventType
		claimed = true
		return nil
	})
	return claimed, err
}

// Staff

func (r *MemoryRepo) CreateStaff(ctx context.Context, staff *models.Staff) error {
	return r.do("CreateStaff", func(st *state) error {
		for _, s := range st.staff {
			if strings.EqualFold(s.Email, staff.Email) {
				return store.ErrConflict
			}
		}
		staff.ID = uuid.NewString()
		staff.CreatedAt = r.now()
		st.staff[staff.ID] = *staff
		return nil
	})
}

func (r *MemoryRepo) ListStaff(ctx context.Context) ([]models.Staff, error) {
	out := []models.Staff{}
	err := r.do("ListStaff", func(st *state) error {
		for _, s := range st.staff {
			out = append(out, s)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, err
}

func (r *MemoryRepo) GetStaff(ctx context.Context, id string) (*models.Staff, error) {
	var out models.Staff
	err := r.do("GetStaff", func(st *state) error {
		s, ok := st.staff[id]
		if !ok {
			return store.ErrNotFound
		}
		out = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *MemoryRepo) GetStaffByEmail(ctx context.Context, email string) (*models.Staff, error) {
	var out *models.Staff
	err := r.do("GetStaffByEmail", func(st *state) error {
		for _, s := range st.staff {
			if s.Email == email {
				s := s
				out = &s
				return nil
			}
		}
		return store.ErrNotFound
	})
	return out, err
}

func (r *MemoryRepo) UpdateStaff(ctx context.Context, staff *models.Staff) error {
	return r.do("UpdateStaff", func(st *state) error {
		if _, ok := st.staff[staff.ID]; !ok {
			return store.ErrNotFound
		}
		for id, s := range st.staff {
			if id != staff.ID && strings.EqualFold(s.Email, staff.Email) {
				return store.ErrConflict
			}
		}
		st.staff[staff.ID] = *staff
		return nil
	})
}

func (r *MemoryRepo) SetStaffActive(ctx context.Context, id string, active bool) error {
	return r.do("SetStaffActive", func(st *state) error {
		s, ok := st.staff[id]
		if !ok {
			return store.ErrNotFound
		}
		s.IsActive = active
		st.staff[id] = s
		return nil
	})
}

func (r *MemoryRepo) DeleteStaff(ctx context.Context, id string) error {
	return r.do("DeleteStaff", func(st *state) error {
		if _, ok := st.staff[id]; !ok {
			return store.ErrNotFound
		}
		delete(st.staff, id)
		for oid, o := range st.orders {
			if o.StaffID != nil && *o.StaffID == id {
				o.StaffID = nil
				st.orders[oid] = o
			}
		}
		return nil
	})
}
