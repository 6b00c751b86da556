package service

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"restaurant-service/internal/models"
	"restaurant-service/internal/util"

	"go.uber.org/zap"
)

// Notification ranges accepted by the dashboard
const (
	RangeToday     = "today"
	RangeYesterday = "yesterday"
	RangeSevenDays = "7days"
)

const dateLayout = "2006-01-02"

// DashboardService builds the read-only views staff see on the dashboard
type DashboardService struct {
	repo     Repository
	feed     NotificationFeed
	feedSize int
	loc      *time.Location
	logger   *zap.Logger
	now      func() time.Time
}

// NewDashboardService creates a new dashboard service. Calendar days are
// interpreted in loc. feed may be nil, which disables the live feed.
func NewDashboardService(repo Repository, feed NotificationFeed, feedSize int, loc *time.Location) *DashboardService {
	if loc == nil {
		loc = time.Local
	}
	return &DashboardService{
		repo:     repo,
		feed:     feed,
		feedSize: feedSize,
		loc:      loc,
		logger:   util.GetLogger(),
		now:      time.Now,
	}
}

// dayBounds returns the first and last instant of the calendar day in loc
func dayBounds(day time.Time, loc *time.Location) (time.Time, time.Time) {
	y, m, d := day.In(loc).Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1).Add(-time.Nanosecond)
}

func (s *DashboardService) parseDay(value string) (time.Time, time.Time, error) {
	day, err := time.ParseInLocation(dateLayout, value, s.loc)
	if err != nil {
		return time.Time{}, time.Time{}, validationError("date must be formatted as YYYY-MM-DD")
	}
	from, to := dayBounds(day, s.loc)
	return from, to, nil
}

// rangeWindow resolves a named range relative to now
func (s *DashboardService) rangeWindow(rng string) (time.Time, time.Time, error) {
	now := s.now().In(s.loc)
	switch rng {
	case "", RangeToday:
		from, to := dayBounds(now, s.loc)
		return from, to, nil
	case RangeYesterday:
		from, to := dayBounds(now.AddDate(0, 0, -1), s.loc)
		return from, to, nil
	case RangeSevenDays:
		return now.AddDate(0, 0, -7), now, nil
	}
	return time.Time{}, time.Time{}, validationError("range must be one of today, yesterday, 7days")
}

// ListOrders lists orders with staff, customer and item names. staffName and
// date (YYYY-MM-DD) are optional filters.
func (s *DashboardService) ListOrders(ctx context.Context, staffName, date string) ([]models.OrderDetail, error) {
	ctx, span := util.StartSpan(ctx, "DashboardService.ListOrders")
	defer span.End()

	filter := models.OrderFilter{StaffName: staffName}
	if date != "" {
		from, to, err := s.parseDay(date)
		if err != nil {
			return nil, err
		}
		filter.From, filter.To = &from, &to
	}

	orders, err := s.repo.ListOrderDetails(ctx, filter)
	if err != nil {
		return nil, fromStore(err, "Failed to fetch orders")
	}
	return orders, nil
}

// StatusMessage is the dashboard text for an order status
func StatusMessage(status string) string {
	switch status {
	case models.OrderStatusPending:
		return "New order received"
	case models.OrderStatusServe:
		return "Order is being served"
	case models.OrderStatusServed:
		return "Order has been served"
	case models.OrderStatusPaid:
		return "Order has been paid"
	}
	return "Order was cancelled"
}

// Notifications lists order notifications for a named range
func (s *DashboardService) Notifications(ctx context.Context, rng string) ([]models.Notification, error) {
	from, to, err := s.rangeWindow(rng)
	if err != nil {
		return nil, err
	}

	orders, err := s.repo.ListSummaryOrders(ctx, from, to)
	if err != nil {
		return nil, fromStore(err, "Failed to fetch orders")
	}

	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})

	out := make([]models.Notification, 0, len(orders))
	for _, o := range orders {
		out = append(out, models.Notification{
			ID:       o.OrderID,
			Message:  StatusMessage(o.Status),
			Date:     o.CreatedAt,
			Status:   o.Status,
			Subtotal: o.Subtotal,
		})
	}
	return out, nil
}

// LiveNotifications returns the most recent event-driven notifications
func (s *DashboardService) LiveNotifications(ctx context.Context, limit int) ([]models.Notification, error) {
	out := []models.Notification{}
	if s.feed == nil {
		return out, nil
	}
	if limit <= 0 || limit > s.feedSize {
		limit = s.feedSize
	}

	entries, err := s.feed.RecentNotifications(ctx, limit)
	if err != nil {
		return nil, upstream("Failed to read notification feed", err)
	}
	for _, raw := range entries {
		var n models.Notification
		if err := json.Unmarshal(raw, &n); err != nil {
			s.logger.Warn("Skipping malformed feed entry", zap.Error(err))
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

// ListOrderItems lists order items created in a named range, optionally for
// one order
func (s *DashboardService) ListOrderItems(ctx context.Context, rng, orderID string) ([]models.OrderItemDetail, error) {
	from, to, err := s.rangeWindow(rng)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.ListOrderItems(ctx, models.OrderItemFilter{OrderID: orderID, From: from, To: to})
	if err != nil {
		return nil, fromStore(err, "Failed to fetch order items")
	}
	return items, nil
}

// SummaryQuery selects the window and payment method of a summary. Date is
// the reference day; DateFrom and DateTo override either end.
type SummaryQuery struct {
	Date          string
	DateFrom      string
	DateTo        string
	PaymentMethod string
}

// SummaryResult is the summary together with the window it covers
type SummaryResult struct {
	From          time.Time      `json:"from"`
	To            time.Time      `json:"to"`
	PaymentMethod string         `json:"paymentsMethod"`
	Summary       models.Summary `json:"summary"`
}

// Summary computes dashboard totals for a date window
func (s *DashboardService) Summary(ctx context.Context, q SummaryQuery) (*SummaryResult, error) {
	ctx, span := util.StartSpan(ctx, "DashboardService.Summary")
	defer span.End()

	from, to := dayBounds(s.now(), s.loc)
	if q.Date != "" {
		var err error
		if from, to, err = s.parseDay(q.Date); err != nil {
			return nil, err
		}
	}
	if q.DateFrom != "" {
		start, _, err := s.parseDay(q.DateFrom)
		if err != nil {
			return nil, err
		}
		from = start
	}
	if q.DateTo != "" {
		_, end, err := s.parseDay(q.DateTo)
		if err != nil {
			return nil, err
		}
		to = end
	}
	if to.Before(from) {
		return nil, validationError("dateTo is before dateFrom")
	}

	orders, err := s.repo.ListSummaryOrders(ctx, from, to)
	if err != nil {
		return nil, fromStore(err, "Failed to fetch orders")
	}
	orders = filterByMethod(orders, q.PaymentMethod)

	ids := make([]string, len(orders))
	for i, o := range orders {
		ids[i] = o.OrderID
	}
	quantities, err := s.repo.SumQuantitiesByMenu(ctx, ids)
	if err != nil {
		return nil, fromStore(err, "Failed to fetch order items")
	}

	summary := summarize(orders, quantities, from, to)
	if summary.MostOrderedMenu.ID != nil {
		if item, err := s.repo.GetMenuItem(ctx, *summary.MostOrderedMenu.ID); err == nil {
			summary.MostOrderedMenu.Name = &item.Name
		}
	}

	method := q.PaymentMethod
	if method == "" {
		method = "All"
	}
	return &SummaryResult{From: from, To: to, PaymentMethod: method, Summary: summary}, nil
}

// filterByMethod keeps orders with at least one payment made with method,
// compared case-insensitively. An empty method keeps everything.
func filterByMethod(orders []models.SummaryOrder, method string) []models.SummaryOrder {
	if method == "" {
		return orders
	}
	out := make([]models.SummaryOrder, 0, len(orders))
	for _, o := range orders {
		for _, p := range o.Payments {
			if p.MethodName != nil && strings.EqualFold(*p.MethodName, method) {
				out = append(out, o)
				break
			}
		}
	}
	return out
}

// summarize computes totals. Revenue counts Paid payments created inside the
// window; the most ordered menu breaks ties by menu ID.
func summarize(orders []models.SummaryOrder, quantities []models.MenuQuantity, from, to time.Time) models.Summary {
	var sum models.Summary
	sum.TotalOrders = len(orders)

	for _, o := range orders {
		switch o.Status {
		case models.OrderStatusServed:
			sum.TotalServed++
		case models.OrderStatusPending:
			sum.TotalPending++
		case models.OrderStatusCancel:
			sum.TotalCanceled++
		}

		paid := false
		for _, p := range o.Payments {
			if p.Status != models.PaymentStatusPaid {
				continue
			}
			paid = true
			if !p.CreatedAt.Before(from) && !p.CreatedAt.After(to) {
				sum.TotalRevenue += p.Amount
			}
		}
		if paid {
			sum.TotalPaid++
		}
	}

	best := -1
	for _, q := range quantities {
		sum.TotalItemsSold += q.Quantity
		if q.Quantity > best || (q.Quantity == best && q.MenuID < *sum.MostOrderedMenu.ID) {
			best = q.Quantity
			id := q.MenuID
			sum.MostOrderedMenu.ID = &id
		}
	}
	return sum
}

// ListPayments lists payments with method and staff names. staffName and
// date (YYYY-MM-DD) are optional filters.
func (s *DashboardService) ListPayments(ctx context.Context, staffName, date string) ([]models.PaymentDetail, error) {
	filter := models.PaymentFilter{StaffName: staffName}
	if date != "" {
		from, to, err := s.parseDay(date)
		if err != nil {
			return nil, err
		}
		filter.From, filter.To = &from, &to
	}

	payments, err := s.repo.ListPaymentDetails(ctx, filter)
	if err != nil {
		return nil, fromStore(err, "Failed to fetch payments")
	}
	return payments, nil
}

// Option is a label/value pair for dashboard dropdowns
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// PaymentMethodOptions lists payment methods as dropdown options
func (s *DashboardService) PaymentMethodOptions(ctx context.Context) ([]Option, error) {
	methods, err := s.repo.ListPaymentMethods(ctx)
	if err != nil {
		return nil, fromStore(err, "Failed to fetch payment methods")
	}
	out := make([]Option, 0, len(methods))
	for _, m := range methods {
		out = append(out, Option{Label: m.Name, Value: m.ID})
	}
	return out, nil
}
