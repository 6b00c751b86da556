package service

import (
	"context"
	"fmt"
	"strings"

	"restaurant-service/internal/broker"
	"restaurant-service/internal/models"
	"restaurant-service/internal/util"

	"go.uber.org/zap"
)

// OrderService handles order business logic
type OrderService struct {
	repo      Repository
	publisher EventPublisher
	logger    *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(repo Repository, publisher EventPublisher) *OrderService {
	return &OrderService{
		repo:      repo,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// MaxItemQuantity bounds a single cart line
const MaxItemQuantity = 100

// PlaceOrderRequest represents a customer submitting a cart
type PlaceOrderRequest struct {
	SessionID string             `json:"session_id"`
	Items     []OrderItemRequest `json:"items"`
}

// OrderItemRequest represents a cart line. Price is accepted for
// compatibility with older clients and ignored; the menu price is used.
type OrderItemRequest struct {
	MenuID   string `json:"menu_id"`
	Quantity int    `json:"quantity"`
	Price    int64  `json:"price,omitempty"`
}

// OrderResult is an order together with its items
type OrderResult struct {
	models.Order
	Items []models.OrderItem `json:"items"`
}

// PlaceOrder creates a Pending order and its items in one transaction.
// Each item's price is copied from the menu at submission time.
func (s *OrderService) PlaceOrder(ctx context.Context, req *PlaceOrderRequest) (*OrderResult, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.PlaceOrder")
	defer span.End()

	if req.SessionID == "" || len(req.Items) == 0 {
		return nil, validationError("session_id and items are required")
	}
	for _, item := range req.Items {
		if item.MenuID == "" || item.Quantity < 1 {
			return nil, validationError("each item needs a menu_id and a quantity of at least 1")
		}
		if item.Quantity > MaxItemQuantity {
			return nil, validationError(fmt.Sprintf("quantity may not exceed %d", MaxItemQuantity))
		}
	}

	result := &OrderResult{}
	err := s.repo.WithTx(ctx, func(tx Repository) error {
		session, err := tx.GetSession(ctx, req.SessionID)
		if err != nil {
			return fromStore(err, "Session not found")
		}
		if !session.IsActive {
			return conflict("Session is no longer active")
		}

		menu, err := s.loadMenuItems(ctx, tx, req.Items)
		if err != nil {
			return err
		}

		order := &models.Order{
			SessionID: session.ID,
			Status:    models.OrderStatusPending,
			Subtotal:  calculateSubtotal(req.Items, menu),
		}
		if err := tx.CreateOrder(ctx, order); err != nil {
			return fromStore(err, "Failed to create order")
		}

		items := make([]models.OrderItem, 0, len(req.Items))
		for _, line := range req.Items {
			price := menu[line.MenuID].Price
			item := models.OrderItem{
				OrderID:  order.ID,
				MenuID:   line.MenuID,
				Quantity: line.Quantity,
				Price:    price,
				Subtotal: price * int64(line.Quantity),
			}
			if err := tx.CreateOrderItem(ctx, &item); err != nil {
				return fromStore(err, "Failed to create order item")
			}
			items = append(items, item)
		}

		result.Order = *order
		result.Items = items
		return nil
	})
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues(KindOf(err).String()).Inc()
		util.RecordError(span, err)
		return nil, err
	}

	util.OrdersPlacedTotal.Inc()
	s.logger.Info("Order placed",
		zap.String("order_id", result.ID),
		zap.String("session_id", result.SessionID),
		zap.Int64("subtotal", result.Subtotal))

	event := &models.OrderPlacedEvent{
		BaseEvent: broker.NewBaseEvent(models.EventTypeOrderPlaced),
		OrderID:   result.ID,
		SessionID: result.SessionID,
		Subtotal:  result.Subtotal,
		Items:     make([]models.OrderItemData, 0, len(result.Items)),
	}
	for _, item := range result.Items {
		event.Items = append(event.Items, models.OrderItemData{
			MenuID:   item.MenuID,
			Quantity: item.Quantity,
			Price:    item.Price,
		})
	}
	if err := s.publisher.PublishOrderPlaced(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderPlaced event", zap.Error(err))
	}

	return result, nil
}

// loadMenuItems fetches the menu items referenced by a cart
func (s *OrderService) loadMenuItems(ctx context.Context, repo Repository, lines []OrderItemRequest) (map[string]models.MenuItem, error) {
	ids := make([]string, 0, len(lines))
	seen := make(map[string]bool, len(lines))
	for _, line := range lines {
		if !seen[line.MenuID] {
			seen[line.MenuID] = true
			ids = append(ids, line.MenuID)
		}
	}

	items, err := repo.GetMenuItemsByIDs(ctx, ids)
	if err != nil {
		return nil, fromStore(err, "Menu item not found")
	}

	menu := make(map[string]models.MenuItem, len(items))
	for _, item := range items {
		menu[item.ID] = item
	}
	for _, id := range ids {
		item, ok := menu[id]
		if !ok {
			return nil, notFound(fmt.Sprintf("Menu item %s not found", id))
		}
		if !item.Visible() {
			return nil, unavailable(item)
		}
	}
	return menu, nil
}

func unavailable(item models.MenuItem) error {
	return validationError(fmt.Sprintf("Menu item %s is not available", item.Name))
}

// calculateSubtotal sums price x quantity over the cart
func calculateSubtotal(lines []OrderItemRequest, menu map[string]models.MenuItem) int64 {
	var total int64
	for _, line := range lines {
		total += menu[line.MenuID].Price * int64(line.Quantity)
	}
	return total
}

// AddItemRequest adds one line to an existing order
type AddItemRequest struct {
	OrderID  string `json:"order_id"`
	MenuID   string `json:"menu_id"`
	Quantity int    `json:"quantity"`
}

// AddItem appends an item to an order at the current menu price and
// recomputes the order subtotal.
func (s *OrderService) AddItem(ctx context.Context, req *AddItemRequest) (*models.OrderItem, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.AddItem")
	defer span.End()

	if req.OrderID == "" || req.MenuID == "" || req.Quantity < 1 {
		return nil, validationError(`"order_id", "menu_id" and "quantity" are required`)
	}
	if req.Quantity > MaxItemQuantity {
		return nil, validationError(fmt.Sprintf("quantity may not exceed %d", MaxItemQuantity))
	}

	var item *models.OrderItem
	var status string
	var subtotal int64
	err := s.repo.WithTx(ctx, func(tx Repository) error {
		order, err := tx.GetOrderByID(ctx, req.OrderID)
		if err != nil {
			return fromStore(err, "Order not found")
		}
		if order.Status == models.OrderStatusPaid || order.Status == models.OrderStatusCancel {
			return conflict(fmt.Sprintf("Order is already %s", order.Status))
		}
		status = order.Status

		menu, err := tx.GetMenuItem(ctx, req.MenuID)
		if err != nil {
			return fromStore(err, "Menu item not found")
		}
		if !menu.Visible() {
			return unavailable(*menu)
		}

		item = &models.OrderItem{
			OrderID:  order.ID,
			MenuID:   menu.ID,
			Quantity: req.Quantity,
			Price:    menu.Price,
			Subtotal: menu.Price * int64(req.Quantity),
		}
		if err := tx.CreateOrderItem(ctx, item); err != nil {
			return fromStore(err, "Failed to create order item")
		}

		subtotal, err = tx.UpdateOrderSubtotal(ctx, order.ID)
		return fromStore(err, "Failed to update order subtotal")
	})
	if err != nil {
		util.RecordError(span, err)
		return nil, err
	}

	util.OrderItemsAddedTotal.Inc()
	s.publishUpdated(ctx, item.OrderID, status, subtotal)
	return item, nil
}

// GetOrder retrieves an order with its items
func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*OrderResult, error) {
	order, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, fromStore(err, "Order not found")
	}

	items, err := s.repo.GetOrderItemsByOrderID(ctx, orderID)
	if err != nil {
		return nil, fromStore(err, "Failed to load order items")
	}

	return &OrderResult{Order: *order, Items: items}, nil
}

// StaffOrderRequest is the full set of staff-editable order fields
type StaffOrderRequest struct {
	SessionID string `json:"session_id"`
	StaffID   string `json:"staff_id"`
	Status    string `json:"status"`
	Subtotal  *int64 `json:"subtotal"`
}

func (r *StaffOrderRequest) validate() error {
	if r.SessionID == "" || r.StaffID == "" || r.Status == "" || r.Subtotal == nil {
		return validationError("session_id, staff_id, status and subtotal are required")
	}
	if !models.ValidOrderStatus(r.Status) {
		return validationError("invalid order status")
	}
	if *r.Subtotal < 0 {
		return validationError("subtotal must not be negative")
	}
	return nil
}

// CreateOrder records an order entered by staff
func (s *OrderService) CreateOrder(ctx context.Context, req *StaffOrderRequest) (*models.Order, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	order := &models.Order{
		SessionID: req.SessionID,
		StaffID:   &req.StaffID,
		Status:    req.Status,
		Subtotal:  *req.Subtotal,
	}
	if err := s.repo.CreateOrder(ctx, order); err != nil {
		return nil, fromStore(err, "Failed to create order")
	}
	s.publishUpdated(ctx, order.ID, order.Status, order.Subtotal)
	return order, nil
}

// ReplaceOrder overwrites every staff-editable field of an order
func (s *OrderService) ReplaceOrder(ctx context.Context, id string, req *StaffOrderRequest) (*models.Order, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	order := &models.Order{
		ID:        id,
		SessionID: req.SessionID,
		StaffID:   &req.StaffID,
		Status:    req.Status,
		Subtotal:  *req.Subtotal,
	}
	if err := s.repo.UpdateOrder(ctx, order); err != nil {
		return nil, fromStore(err, "Order not found")
	}
	s.publishUpdated(ctx, order.ID, order.Status, order.Subtotal)
	return order, nil
}

// PatchOrderRequest holds the fields to change; nil fields are kept
type PatchOrderRequest struct {
	SessionID *string `json:"session_id"`
	StaffID   *string `json:"staff_id"`
	Status    *string `json:"status"`
	Subtotal  *int64  `json:"subtotal"`
}

// PatchOrder changes a subset of an order's fields
func (s *OrderService) PatchOrder(ctx context.Context, id string, req *PatchOrderRequest) (*models.Order, error) {
	if req.SessionID == nil && req.StaffID == nil && req.Status == nil && req.Subtotal == nil {
		return nil, validationError("No fields to update")
	}
	if req.Status != nil && !models.ValidOrderStatus(*req.Status) {
		return nil, validationError("invalid order status")
	}

	var order *models.Order
	err := s.repo.WithTx(ctx, func(tx Repository) error {
		var err error
		order, err = tx.GetOrderByID(ctx, id)
		if err != nil {
			return fromStore(err, "Order not found")
		}
		if req.SessionID != nil {
			order.SessionID = *req.SessionID
		}
		if req.StaffID != nil {
			staffID := strings.TrimSpace(*req.StaffID)
			if staffID == "" {
				order.StaffID = nil
			} else {
				order.StaffID = &staffID
			}
		}
		if req.Status != nil {
			order.Status = *req.Status
		}
		if req.Subtotal != nil {
			order.Subtotal = *req.Subtotal
		}
		return fromStore(tx.UpdateOrder(ctx, order), "Failed to update order")
	})
	if err != nil {
		return nil, err
	}

	s.publishUpdated(ctx, order.ID, order.Status, order.Subtotal)
	return order, nil
}

// DeleteOrder removes an order and its items
func (s *OrderService) DeleteOrder(ctx context.Context, id string) error {
	if id == "" {
		return validationError("Missing order id")
	}
	return fromStore(s.repo.DeleteOrder(ctx, id), "Order not found")
}

func (s *OrderService) publishUpdated(ctx context.Context, orderID, status string, subtotal int64) {
	event := &models.OrderUpdatedEvent{
		BaseEvent: broker.NewBaseEvent(models.EventTypeOrderUpdated),
		OrderID:   orderID,
		Status:    status,
		Subtotal:  subtotal,
	}
	if err := s.publisher.PublishOrderUpdated(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderUpdated event", zap.Error(err))
	}
}
