package product

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"nexusmart/internal/handlers"
)

func (h *Handler) GetCategories(c *gin.Context) {
	categories, err := h.catalog.ListCategories(c.Request.Context())
	if err != nil {
		handlers.Error(c, h.logger, err)
		return
	}
	handlers.OK(c, http.StatusOK, gin.H{"categories": categories})
}

func (h *Handler) CreateCategory(c *gin.Context) {
	var input struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		handlers.BadRequest(c, err)
		return
	}

	cat, err := h.catalog.CreateCategory(c.Request.Context(), input.Name)
	if err != nil {
		handlers.Error(c, h.logger, err)
		return
	}
	c.Set("audit_after", cat)
	handlers.OK(c, http.StatusCreated, gin.H{"category": cat})
}

func (h *Handler) DeleteCategory(c *gin.Context) {
	if err := h.catalog.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		handlers.Error(c, h.logger, err)
		return
	}
	handlers.OK(c, http.StatusOK, gin.H{"message": "Category deleted"})
}
