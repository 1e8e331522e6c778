package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"nexusmart/internal/handlers"
	"nexusmart/internal/lifecycle"
	"nexusmart/internal/middleware"
	"nexusmart/internal/models"
	"nexusmart/internal/service"
)

type OrderHandler struct {
	orders *service.OrderService
	logger *zap.Logger
}

func NewOrderHandler(orders *service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, logger: logger}
}

var validTabs = map[lifecycle.Tab]bool{
	"":                     true,
	lifecycle.TabPending:   true,
	lifecycle.TabShipped:   true,
	lifecycle.TabDelivered: true,
	lifecycle.TabCancelled: true,
}

// GetAllOrders lists every order for the dashboard, optionally restricted to
// one tab with ?tab=pending|shipped|delivered|cancelled.
func (h *OrderHandler) GetAllOrders(c *gin.Context) {
	tab := lifecycle.Tab(c.Query("tab"))
	if !validTabs[tab] {
		handlers.Fail(c, http.StatusBadRequest, "Unknown tab "+string(tab))
		return
	}

	orders, err := h.orders.ListAll(c.Request.Context(), tab)
	if err != nil {
		handlers.Error(c, h.logger, err)
		return
	}
	handlers.OK(c, http.StatusOK, gin.H{"orders": orders, "count": len(orders)})
}

func (h *OrderHandler) GetStats(c *gin.Context) {
	stats, err := h.orders.Stats(c.Request.Context())
	if err != nil {
		handlers.Error(c, h.logger, err)
		return
	}
	handlers.OK(c, http.StatusOK, gin.H{"stats": stats})
}

func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	var upd models.AdminOrderUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		handlers.BadRequest(c, err)
		return
	}

	order, err := h.orders.AdminUpdate(c.Request.Context(), c.Param("id"), upd, c.GetString(middleware.CtxEmail))
	if err != nil {
		handlers.Error(c, h.logger, err)
		return
	}
	c.Set("audit_after", order)
	handlers.OK(c, http.StatusOK, gin.H{"order": order})
}

// RequestCancelOTP emails the admin a one-time code for cancelling a shipped order.
func (h *OrderHandler) RequestCancelOTP(c *gin.Context) {
	if err := h.orders.RequestCancelOTP(c.Request.Context(), c.Param("id")); err != nil {
		handlers.Error(c, h.logger, err)
		return
	}
	handlers.OK(c, http.StatusOK, gin.H{"message": "Cancellation OTP sent to the admin email"})
}
