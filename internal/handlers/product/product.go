package product

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"nexusmart/internal/handlers"
	"nexusmart/internal/models"
	"nexusmart/internal/service"
)

type Handler struct {
	catalog *service.CatalogService
	logger  *zap.Logger
}

func NewHandler(catalog *service.CatalogService, logger *zap.Logger) *Handler {
	return &Handler{catalog: catalog, logger: logger}
}

// GetProducts lists the catalogue, filtered by ?keyword= when present.
func (h *Handler) GetProducts(c *gin.Context) {
	products, err := h.catalog.ListProducts(c.Request.Context(), c.Query("keyword"))
	if err != nil {
		handlers.Error(c, h.logger, err)
		return
	}
	handlers.OK(c, http.StatusOK, gin.H{"products": products, "count": len(products)})
}

func (h *Handler) GetProduct(c *gin.Context) {
	p, err := h.catalog.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		handlers.Error(c, h.logger, err)
		return
	}
	handlers.OK(c, http.StatusOK, gin.H{"product": p})
}

func (h *Handler) CreateProduct(c *gin.Context) {
	var req models.NewProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BadRequest(c, err)
		return
	}

	p, err := h.catalog.CreateProduct(c.Request.Context(), req)
	if err != nil {
		handlers.Error(c, h.logger, err)
		return
	}
	c.Set("audit_after", p)
	handlers.OK(c, http.StatusCreated, gin.H{"product": p})
}

func (h *Handler) DeleteProduct(c *gin.Context) {
	if err := h.catalog.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		handlers.Error(c, h.logger, err)
		return
	}
	handlers.OK(c, http.StatusOK, gin.H{"message": "Product deleted"})
}
