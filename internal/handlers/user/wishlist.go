package user

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"nexusmart/internal/handlers"
	"nexusmart/internal/middleware"
	"nexusmart/internal/service"
)

type WishlistHandler struct {
	wishlist *service.WishlistService
	logger   *zap.Logger
}

func NewWishlistHandler(wishlist *service.WishlistService, logger *zap.Logger) *WishlistHandler {
	return &WishlistHandler{wishlist: wishlist, logger: logger}
}

func (h *WishlistHandler) GetWishlist(c *gin.Context) {
	products, err := h.wishlist.List(c.Request.Context(), c.GetString(middleware.CtxUserID))
	if err != nil {
		handlers.Error(c, h.logger, err)
		return
	}
	handlers.OK(c, http.StatusOK, gin.H{"products": products})
}

func (h *WishlistHandler) AddToWishlist(c *gin.Context) {
	var input struct {
		ProductID string `json:"productId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		handlers.BadRequest(c, err)
		return
	}

	if err := h.wishlist.Add(c.Request.Context(), c.GetString(middleware.CtxUserID), input.ProductID); err != nil {
		handlers.Error(c, h.logger, err)
		return
	}
	handlers.OK(c, http.StatusOK, gin.H{"message": "Added to wishlist"})
}

func (h *WishlistHandler) RemoveFromWishlist(c *gin.Context) {
	if err := h.wishlist.Remove(c.Request.Context(), c.GetString(middleware.CtxUserID), c.Param("id")); err != nil {
		handlers.Error(c, h.logger, err)
		return
	}
	handlers.OK(c, http.StatusOK, gin.H{"message": "Removed from wishlist"})
}
