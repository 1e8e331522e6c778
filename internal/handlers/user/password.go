package user

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"nexusmart/internal/handlers"
)

// ForgotPassword always answers the same message so that it cannot be used
// to probe for registered addresses.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var input struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		handlers.BadRequest(c, err)
		return
	}

	if err := h.auth.ForgotPassword(c.Request.Context(), input.Email); err != nil {
		handlers.Error(c, h.logger, err)
		return
	}
	handlers.OK(c, http.StatusOK, gin.H{"message": "If the account exists, an OTP has been sent to " + input.Email})
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var input struct {
		Email           string `json:"email" binding:"required"`
		OTP             string `json:"otp" binding:"required"`
		Password        string `json:"password" binding:"required"`
		ConfirmPassword string `json:"confirmPassword" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		handlers.BadRequest(c, err)
		return
	}

	err := h.auth.ResetPassword(c.Request.Context(), input.Email, input.OTP, input.Password, input.ConfirmPassword)
	if err != nil {
		handlers.Error(c, h.logger, err)
		return
	}
	handlers.OK(c, http.StatusOK, gin.H{"message": "Password updated, you can now log in"})
}
