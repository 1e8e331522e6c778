package payment

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"nexusmart/internal/handlers"
	"nexusmart/internal/models"
)

const (
	checkoutSession = "nexusmart_checkout"
	shippingKey     = "shippingInfo"
)

// ShippingHandler keeps the checkout address draft in the browser session so
// it survives between the shipping, confirm and payment steps.
type ShippingHandler struct {
	store  sessions.Store
	logger *zap.Logger
}

func NewShippingHandler(store sessions.Store, logger *zap.Logger) *ShippingHandler {
	return &ShippingHandler{store: store, logger: logger}
}

func (h *ShippingHandler) GetShipping(c *gin.Context) {
	// A tampered or stale cookie yields a fresh session and an empty draft.
	session, _ := h.store.Get(c.Request, checkoutSession)

	info := models.ShippingInfo{Country: models.DefaultCountry}
	if raw, ok := session.Values[shippingKey].(string); ok {
		if err := json.Unmarshal([]byte(raw), &info); err != nil {
			h.logger.Debug("discarding unreadable shipping draft", zap.Error(err))
			info = models.ShippingInfo{Country: models.DefaultCountry}
		}
	}
	handlers.OK(c, http.StatusOK, gin.H{"shippingInfo": info})
}

func (h *ShippingHandler) SaveShipping(c *gin.Context) {
	var info models.ShippingInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		handlers.BadRequest(c, err)
		return
	}
	info.Address = strings.TrimSpace(info.Address)
	info.City = strings.TrimSpace(info.City)
	info.PostalCode = strings.TrimSpace(info.PostalCode)
	info.PhoneNo = strings.TrimSpace(info.PhoneNo)
	if strings.TrimSpace(info.Country) == "" {
		info.Country = models.DefaultCountry
	}
	if missing := info.MissingFields(); len(missing) > 0 {
		handlers.Fail(c, http.StatusBadRequest, "Please fill in all shipping fields", gin.H{"fields": missing})
		return
	}

	raw, err := json.Marshal(info)
	if err != nil {
		handlers.Error(c, h.logger, err)
		return
	}
	session, _ := h.store.Get(c.Request, checkoutSession)
	session.Values[shippingKey] = string(raw)
	if err := session.Save(c.Request, c.Writer); err != nil {
		handlers.Error(c, h.logger, err)
		return
	}
	handlers.OK(c, http.StatusOK, gin.H{"shippingInfo": info})
}
