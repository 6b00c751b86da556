package api

import (
	"context"
	"net/http"
	"time"

	"restaurant-service/internal/auth"
	"restaurant-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Services bundles the services the HTTP layer calls
type Services struct {
	Sessions  *service.SessionService
	Orders    *service.OrderService
	Payments  *service.PaymentService
	Menu      *service.MenuService
	Tables    *service.TableService
	Staff     *service.StaffService
	Dashboard *service.DashboardService
}

// Config controls the access-control layer
type Config struct {
	// RequireAPIKey turns on the x-api-key check for /api/restaurant
	RequireAPIKey bool
	APIKey        string
	SecureCookies bool
	// ReadyChecks are run by /ready, keyed by dependency name
	ReadyChecks map[string]func(ctx context.Context) error
}

// Handler contains HTTP handlers
type Handler struct {
	svc    Services
	tokens *auth.TokenIssuer
	cfg    Config
}

// NewHandler creates a new HTTP handler
func NewHandler(svc Services, tokens *auth.TokenIssuer, cfg Config) *Handler {
	return &Handler{
		svc:    svc,
		tokens: tokens,
		cfg:    cfg,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(requestID())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())
	router.Use(pageGate())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/", h.landing)
	router.GET("/session", h.sessionPage)
	router.GET("/menu", h.menuPage)
	router.GET("/invoice", h.invoicePage)
	router.GET("/invoice/success", h.invoicePage)

	router.POST("/api/notify", h.paymentNotification)

	restaurant := router.Group("/api/restaurant")
	restaurant.Use(apiKeyGate(h.cfg.RequireAPIKey, h.cfg.APIKey))
	{
		restaurant.POST("/session", h.startSession)
		restaurant.GET("/session", h.getSession)

		restaurant.GET("/table", h.listTables)

		restaurant.GET("/menu", h.customerMenu)
		restaurant.GET("/menu/category", h.activeCategories)
		restaurant.GET("/menu/items", h.visibleItems)

		restaurant.POST("/orders", h.placeOrder)
		restaurant.GET("/orders", h.getOrder)
		restaurant.POST("/orders/orders-items", h.addOrderItem)

		restaurant.POST("/payment", h.initiatePayment)
		restaurant.GET("/payment", h.invoice)
		restaurant.GET("/payments-method", h.paymentMethods)
	}

	h.setupDashboardRoutes(router.Group("/api/dashboard"))
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck reports whether every dependency answers
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	failed := gin.H{}
	for name, check := range h.cfg.ReadyChecks {
		if err := check(ctx); err != nil {
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"failed": failed,
			"time":   time.Now().Unix(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

func (h *Handler) landing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Scan the QR code on your table to start ordering",
	})
}

// sessionPage returns the table a scanned QR code points at
func (h *Handler) sessionPage(c *gin.Context) {
	table, err := h.svc.Tables.GetTable(c.Request.Context(), c.Query("table_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"table": table})
}

// menuPage returns the session with everything the menu screen shows
func (h *Handler) menuPage(c *gin.Context) {
	ctx := c.Request.Context()

	session, err := h.svc.Sessions.GetSession(ctx, c.Query("session_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	categories, err := h.svc.Menu.ActiveCategories(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	items, err := h.svc.Menu.VisibleItems(ctx, "")
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"session":    session,
		"categories": categories,
		"items":      items,
	})
}

func (h *Handler) invoicePage(c *gin.Context) {
	h.invoice(c)
}

func (h *Handler) startSession(c *gin.Context) {
	var req service.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err)
		return
	}

	session, err := h.svc.Sessions.StartSession(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, session)
}

func (h *Handler) getSession(c *gin.Context) {
	session, err := h.svc.Sessions.GetSession(c.Request.Context(), c.Query("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, session)
}

func (h *Handler) listTables(c *gin.Context) {
	tables, err := h.svc.Tables.ListTables(c.Request.Context(), c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, tables)
}

func (h *Handler) customerMenu(c *gin.Context) {
	ctx := c.Request.Context()

	categories, err := h.svc.Menu.ActiveCategories(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	items, err := h.svc.Menu.VisibleItems(ctx, "")
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"categories": categories, "items": items})
}

func (h *Handler) activeCategories(c *gin.Context) {
	categories, err := h.svc.Menu.ActiveCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, categories)
}

func (h *Handler) visibleItems(c *gin.Context) {
	items, err := h.svc.Menu.VisibleItems(c.Request.Context(), c.Query("category_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, items)
}

func (h *Handler) placeOrder(c *gin.Context) {
	var req service.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err)
		return
	}

	order, err := h.svc.Orders.PlaceOrder(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, order)
}

func (h *Handler) getOrder(c *gin.Context) {
	order, err := h.svc.Orders.GetOrder(c.Request.Context(), c.Query("order_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, order)
}

func (h *Handler) addOrderItem(c *gin.Context) {
	var req service.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err)
		return
	}

	item, err := h.svc.Orders.AddItem(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, item)
}

func (h *Handler) initiatePayment(c *gin.Context) {
	var req service.InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Missing params", err)
		return
	}

	txn, err := h.svc.Payments.InitiatePayment(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"token":        txn.Token,
		"redirect_url": txn.RedirectURL,
	})
}

func (h *Handler) invoice(c *gin.Context) {
	invoice, err := h.svc.Payments.Invoice(c.Request.Context(), c.Query("order_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, invoice)
}

func (h *Handler) paymentMethods(c *gin.Context) {
	methods, err := h.svc.Payments.ListPaymentMethods(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, methods)
}
