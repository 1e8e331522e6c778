package product

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"nexusmart/internal/handlers"
)

// MaxImageSize bounds a single product image upload.
const MaxImageSize = 5 << 20

// UploadProductImage stores the multipart "file" field in object storage and
// appends it to the product's images.
func (h *Handler) UploadProductImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxImageSize+1<<20)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		handlers.Fail(c, http.StatusBadRequest, "Missing image file")
		return
	}
	defer file.Close()

	if header.Size > MaxImageSize {
		handlers.Fail(c, http.StatusRequestEntityTooLarge, "Image is larger than 5MB")
		return
	}

	p, err := h.catalog.AddImage(c.Request.Context(), c.Param("id"), file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		handlers.Error(c, h.logger, err)
		return
	}
	c.Set("audit_after", p)
	handlers.OK(c, http.StatusOK, gin.H{"message": "Image uploaded", "product": p})
}
