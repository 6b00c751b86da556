package api

import (
	"net/http"
	"strconv"

	"restaurant-service/internal/gateway"
	"restaurant-service/internal/qr"
	"restaurant-service/internal/service"

	"github.com/gin-gonic/gin"
)

func (h *Handler) setupDashboardRoutes(dashboard *gin.RouterGroup) {
	dashboard.POST("/login", h.login)
	dashboard.POST("/logout", h.logout)

	protected := dashboard.Group("")
	protected.Use(staffAuth(h.tokens))
	{
		protected.GET("/me", h.me)

		protected.GET("/orders", h.listOrders)
		protected.POST("/orders", h.createOrder)
		protected.PUT("/orders/:id", h.replaceOrder)
		protected.PATCH("/orders/:id", h.patchOrder)
		protected.DELETE("/orders/:id", h.deleteOrder)
		protected.GET("/orders/notifications", h.orderNotifications)
		protected.GET("/orders/notifications/live", h.liveNotifications)

		protected.GET("/orders-items", h.listOrderItems)
		protected.POST("/orders-items", h.addOrderItem)

		protected.GET("/summary", h.summary)

		protected.GET("/staff", h.listStaff)
		protected.POST("/staff", h.createStaff)
		protected.PUT("/staff/:id", h.updateStaff)
		protected.PATCH("/staff/:id/active", h.setStaffActive)
		protected.DELETE("/staff/:id", h.deleteStaff)

		protected.GET("/menu/category", h.allCategories)
		protected.POST("/menu/category", h.createCategory)
		protected.PUT("/menu/category/:id", h.updateCategory)
		protected.DELETE("/menu/category/:id", h.deleteCategory)

		protected.GET("/menu/items", h.allItems)
		protected.POST("/menu/items", h.createMenuItem)
		protected.GET("/menu/items/:id", h.getMenuItem)
		protected.PUT("/menu/items/:id", h.updateMenuItem)
		protected.DELETE("/menu/items/:id", h.deleteMenuItem)
		protected.POST("/menu/items/:id/image", h.uploadMenuImage)

		protected.GET("/payments", h.listPayments)
		protected.GET("/payments-method", h.paymentMethodOptions)

		protected.GET("/tables", h.listTables)
		protected.POST("/tables", h.createTable)
		protected.PATCH("/tables/:id/status", h.setTableStatus)
		protected.GET("/tables/:id/qr", h.tableQRCode)
	}
}

// paymentNotification receives gateway status callbacks
func (h *Handler) paymentNotification(c *gin.Context) {
	var n gateway.Notification
	if err := c.ShouldBindJSON(&n); err != nil {
		respondBadRequest(c, "Invalid notification body", err)
		return
	}

	result, err := h.svc.Payments.HandleNotification(c.Request.Context(), &n)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"status":    result.Status,
		"duplicate": result.Duplicate,
	})
}

func (h *Handler) login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err)
		return
	}

	result, err := h.svc.Staff.Login(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(accessTokenCookie, result.Token, int(h.tokens.TTL().Seconds()), "/", "", h.cfg.SecureCookies, true)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Login successful",
		"token":   result.Token,
		"user":    result.Staff,
	})
}

func (h *Handler) logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(accessTokenCookie, "", -1, "/", "", h.cfg.SecureCookies, true)
	respondMessage(c, http.StatusOK, "Logged out")
}

func (h *Handler) me(c *gin.Context) {
	respondOK(c, http.StatusOK, currentStaff(c))
}

func (h *Handler) listOrders(c *gin.Context) {
	orders, err := h.svc.Dashboard.ListOrders(c.Request.Context(), c.Query("staff_name"), c.Query("date"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, orders)
}

// withSignedInStaff fills an empty staff_id with the caller's ID
func withSignedInStaff(c *gin.Context, req *service.StaffOrderRequest) {
	if req.StaffID != "" {
		return
	}
	if claims := currentStaff(c); claims != nil {
		req.StaffID = claims.StaffID
	}
}

func (h *Handler) createOrder(c *gin.Context) {
	var req service.StaffOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err)
		return
	}
	withSignedInStaff(c, &req)

	order, err := h.svc.Orders.CreateOrder(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, order)
}

func (h *Handler) replaceOrder(c *gin.Context) {
	var req service.StaffOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err)
		return
	}
	withSignedInStaff(c, &req)

	order, err := h.svc.Orders.ReplaceOrder(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, order)
}

func (h *Handler) patchOrder(c *gin.Context) {
	var req service.PatchOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err)
		return
	}

	order, err := h.svc.Orders.PatchOrder(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, order)
}

func (h *Handler) deleteOrder(c *gin.Context) {
	if err := h.svc.Orders.DeleteOrder(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "Order deleted")
}

func (h *Handler) orderNotifications(c *gin.Context) {
	notifications, err := h.svc.Dashboard.Notifications(c.Request.Context(), c.Query("range"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, notifications)
}

func (h *Handler) liveNotifications(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	notifications, err := h.svc.Dashboard.LiveNotifications(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, notifications)
}

func (h *Handler) listOrderItems(c *gin.Context) {
	items, err := h.svc.Dashboard.ListOrderItems(c.Request.Context(), c.Query("range"), c.Query("order_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, items)
}

func (h *Handler) summary(c *gin.Context) {
	result, err := h.svc.Dashboard.Summary(c.Request.Context(), service.SummaryQuery{
		Date:          c.Query("date"),
		DateFrom:      c.Query("dateFrom"),
		DateTo:        c.Query("dateTo"),
		PaymentMethod: c.Query("paymentsMethod"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, result)
}

func (h *Handler) listStaff(c *gin.Context) {
	staff, err := h.svc.Staff.ListStaff(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, staff)
}

func (h *Handler) createStaff(c *gin.Context) {
	var req service.StaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err)
		return
	}

	staff, err := h.svc.Staff.CreateStaff(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, staff)
}

func (h *Handler) updateStaff(c *gin.Context) {
	var req service.StaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err)
		return
	}

	staff, err := h.svc.Staff.UpdateStaff(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, staff)
}

type activeRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

func (h *Handler) setStaffActive(c *gin.Context) {
	var req activeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, `Field "is_active" is required`, err)
		return
	}

	if err := h.svc.Staff.SetActive(c.Request.Context(), c.Param("id"), *req.IsActive); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "Staff updated")
}

func (h *Handler) deleteStaff(c *gin.Context) {
	if err := h.svc.Staff.DeleteStaff(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "Staff deleted")
}

func (h *Handler) allCategories(c *gin.Context) {
	categories, err := h.svc.Menu.AllCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, categories)
}

func (h *Handler) createCategory(c *gin.Context) {
	var req service.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err)
		return
	}

	category, err := h.svc.Menu.CreateCategory(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, category)
}

func (h *Handler) updateCategory(c *gin.Context) {
	var req service.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err)
		return
	}

	category, err := h.svc.Menu.UpdateCategory(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, category)
}

func (h *Handler) deleteCategory(c *gin.Context) {
	if err := h.svc.Menu.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "Category deleted")
}

func (h *Handler) allItems(c *gin.Context) {
	items, err := h.svc.Menu.AllItems(c.Request.Context(), c.Query("category_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, items)
}

func (h *Handler) createMenuItem(c *gin.Context) {
	var req service.MenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err)
		return
	}

	item, err := h.svc.Menu.CreateMenuItem(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, item)
}

func (h *Handler) getMenuItem(c *gin.Context) {
	item, err := h.svc.Menu.GetMenuItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, item)
}

func (h *Handler) updateMenuItem(c *gin.Context) {
	var req service.MenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err)
		return
	}

	item, err := h.svc.Menu.UpdateMenuItem(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, item)
}

func (h *Handler) deleteMenuItem(c *gin.Context) {
	if err := h.svc.Menu.DeleteMenuItem(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "Menu item deleted")
}

func (h *Handler) uploadMenuImage(c *gin.Context) {
	header, err := c.FormFile("image")
	if err != nil {
		respondBadRequest(c, `Field "image" is required`, err)
		return
	}
	file, err := header.Open()
	if err != nil {
		respondBadRequest(c, "Unreadable image", err)
		return
	}
	defer file.Close()

	item, err := h.svc.Menu.UploadImage(c.Request.Context(), c.Param("id"), file)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, item)
}

func (h *Handler) listPayments(c *gin.Context) {
	payments, err := h.svc.Dashboard.ListPayments(c.Request.Context(), c.Query("staff_name"), c.Query("date"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, payments)
}

func (h *Handler) paymentMethodOptions(c *gin.Context) {
	options, err := h.svc.Dashboard.PaymentMethodOptions(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, options)
}

func (h *Handler) createTable(c *gin.Context) {
	var req service.CreateTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err)
		return
	}

	table, err := h.svc.Tables.CreateTable(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, table)
}

type tableStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handler) setTableStatus(c *gin.Context) {
	var req tableStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, `Field "status" is required`, err)
		return
	}

	table, err := h.svc.Tables.SetStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, table)
}

func (h *Handler) tableQRCode(c *gin.Context) {
	size := qr.DefaultSize
	if raw := c.Query("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 64 || n > 2048 {
			respondBadRequest(c, "size must be between 64 and 2048", nil)
			return
		}
		size = n
	}

	png, err := h.svc.Tables.QRCode(c.Request.Context(), c.Param("id"), size)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
