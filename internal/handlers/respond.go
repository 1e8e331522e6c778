// Package handlers holds the response helpers shared by the REST handler
// packages and the health endpoint.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"nexusmart/internal/lifecycle"
	"nexusmart/internal/repository"
	"nexusmart/internal/service"
	"nexusmart/internal/services"
)

// Fail writes {"success": false, "message": ...} plus any extra fields.
func Fail(c *gin.Context, status int, message string, extra ...gin.H) {
	body := gin.H{"success": false, "message": message}
	for _, e := range extra {
		for k, v := range e {
			body[k] = v
		}
	}
	c.AbortWithStatusJSON(status, body)
}

// OK writes {"success": true} merged with body.
func OK(c *gin.Context, status int, body gin.H) {
	out := gin.H{"success": true}
	for k, v := range body {
		out[k] = v
	}
	c.JSON(status, out)
}

// BadRequest answers a body that could not be bound.
func BadRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	Fail(c, http.StatusBadRequest, "Invalid request body")
}

var statusByError = []struct {
	err    error
	status int
}{
	{repository.ErrNotFound, http.StatusNotFound},
	{service.ErrNotOwner, http.StatusForbidden},
	{service.ErrNotVerified, http.StatusForbidden},
	{service.ErrInvalidCredential, http.StatusUnauthorized},
	{service.ErrEmailTaken, http.StatusConflict},
	{service.ErrCategoryExists, http.StatusConflict},
	{service.ErrAlreadyVerified, http.StatusConflict},
	{service.ErrPriceMismatch, http.StatusBadRequest},
	{service.ErrUnknownProduct, http.StatusBadRequest},
	{service.ErrUnknownCategory, http.StatusBadRequest},
	{service.ErrInvalidQuantity, http.StatusBadRequest},
	{service.ErrInvalidOTP, http.StatusBadRequest},
	{service.ErrPasswordMismatch, http.StatusBadRequest},
	{service.ErrWeakPassword, http.StatusBadRequest},
	{service.ErrMediaDisabled, http.StatusServiceUnavailable},
	{services.ErrUnsupportedImage, http.StatusUnsupportedMediaType},
}

// Error maps err to a status code and answers with the standard failure body.
// Unexpected errors are logged and reported as 500 without details.
func Error(c *gin.Context, logger *zap.Logger, err error) {
	_ = c.Error(err)

	// Shipped orders need the second cancellation step.
	if errors.Is(err, lifecycle.ErrCancelOTPRequired) || errors.Is(err, service.ErrInvalidCancelOTP) {
		Fail(c, http.StatusBadRequest, err.Error(), gin.H{"requireOtp": true})
		return
	}
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		Fail(c, http.StatusBadRequest, verr.Error(), gin.H{"fields": verr.Fields})
		return
	}
	if lifecycle.IsBusinessError(err) {
		Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	for _, m := range statusByError {
		if errors.Is(err, m.err) {
			msg := err.Error()
			if m.err == repository.ErrNotFound {
				msg = "Resource not found"
			}
			Fail(c, m.status, msg)
			return
		}
	}

	logger.Error("❌ request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	Fail(c, http.StatusInternalServerError, "Internal server error")
}
