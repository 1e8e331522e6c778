package user

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"nexusmart/internal/handlers"
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

// CreateOrder submits the checkout. Prices are recomputed from the catalogue
// and a mismatch rejects the order.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req models.NewOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BadRequest(c, err)
		return
	}

	order, err := h.orders.Create(c.Request.Context(), c.GetString(middleware.CtxUserID), req)
	if err != nil {
		handlers.Error(c, h.logger, err)
		return
	}
	handlers.OK(c, http.StatusCreated, gin.H{"order": order})
}

func (h *OrderHandler) GetMyOrders(c *gin.Context) {
	orders, err := h.orders.ListMine(c.Request.Context(), c.GetString(middleware.CtxUserID))
	if err != nil {
		handlers.Error(c, h.logger, err)
		return
	}
	handlers.OK(c, http.StatusOK, gin.H{"orders": orders})
}

func (h *OrderHandler) GetOrderByID(c *gin.Context) {
	order, err := h.orders.Get(c.Request.Context(), c.Param("id"), c.GetString(middleware.CtxUserID), false)
	if err != nil {
		handlers.Error(c, h.logger, err)
		return
	}
	handlers.OK(c, http.StatusOK, gin.H{"order": order})
}

// CancelOrder cancels the caller's Pending or Processing order. Shipped
// orders are refused; support cancels them through the admin OTP flow.
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	order, err := h.orders.CancelByCustomer(c.Request.Context(), c.GetString(middleware.CtxUserID), c.Param("id"))
	if err != nil {
		handlers.Error(c, h.logger, err)
		return
	}
	handlers.OK(c, http.StatusOK, gin.H{"message": "Order cancelled", "order": order})
}
