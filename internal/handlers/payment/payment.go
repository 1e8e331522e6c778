package payment

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"nexusmart/internal/handlers"
	"nexusmart/internal/utils"
)

type Handler struct {
	payee     string
	payeeName string
	logger    *zap.Logger
}

func NewHandler(payee, payeeName string, logger *zap.Logger) *Handler {
	return &Handler{payee: payee, payeeName: payeeName, logger: logger}
}

// UPIQR renders the UPI deep link for ?amount= as a PNG. With ?format=json
// it answers the link and a data URI instead.
func (h *Handler) UPIQR(c *gin.Context) {
	amount, err := strconv.ParseFloat(c.Query("amount"), 64)
	if err != nil || amount <= 0 {
		handlers.Fail(c, http.StatusBadRequest, "amount must be a positive number")
		return
	}
	link := utils.UPILink(h.payee, h.payeeName, amount)

	if c.Query("format") == "json" {
		uri, err := utils.UPIQRDataURI(link)
		if err != nil {
			handlers.Error(c, h.logger, err)
			return
		}
		handlers.OK(c, http.StatusOK, gin.H{"link": link, "qr": uri})
		return
	}

	png, err := utils.UPIQRCode(link, utils.UPIQRSize)
	if err != nil {
		handlers.Error(c, h.logger, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}
