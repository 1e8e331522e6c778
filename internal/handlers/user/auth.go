package user

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"nexusmart/internal/cache"
	"nexusmart/internal/handlers"
	"nexusmart/internal/middleware"
	"nexusmart/internal/models"
	"nexusmart/internal/service"
	"nexusmart/internal/utils"
)

type AuthHandler struct {
	auth         *service.AuthService
	issuer       *utils.TokenIssuer
	cache        *cache.Cache
	cookieSecure bool
	logger       *zap.Logger
}

func NewAuthHandler(auth *service.AuthService, issuer *utils.TokenIssuer, c *cache.Cache, cookieSecure bool, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, issuer: issuer, cache: c, cookieSecure: cookieSecure, logger: logger}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var input struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		handlers.BadRequest(c, err)
		return
	}

	u, err := h.auth.Register(c.Request.Context(), input.Name, input.Email, input.Password)
	if err != nil {
		handlers.Error(c, h.logger, err)
		return
	}
	handlers.OK(c, http.StatusCreated, gin.H{
		"message": "Registration successful, an OTP has been sent to " + u.Email,
		"userId":  u.ID,
	})
}

// Verify activates the account and signs the user in.
func (h *AuthHandler) Verify(c *gin.Context) {
	var input struct {
		Email string `json:"email" binding:"required"`
		OTP   string `json:"otp" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		handlers.BadRequest(c, err)
		return
	}

	u, err := h.auth.Verify(c.Request.Context(), input.Email, input.OTP)
	if err != nil {
		handlers.Error(c, h.logger, err)
		return
	}
	h.signIn(c, u, "Email verified successfully")
}

func (h *AuthHandler) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		handlers.BadRequest(c, err)
		return
	}

	u, err := h.auth.Login(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		handlers.Error(c, h.logger, err)
		return
	}
	h.signIn(c, u, "Logged in successfully")
}

func (h *AuthHandler) signIn(c *gin.Context, u *models.User, message string) {
	token, _, err := h.issuer.Issue(*u, time.Now())
	if err != nil {
		handlers.Error(c, h.logger, err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, token, int(h.issuer.TTL().Seconds()), "/", "", h.cookieSecure, true)
	handlers.OK(c, http.StatusOK, gin.H{"message": message, "user": u, "token": token})
}

// Logout revokes the current token until it would have expired anyway and
// clears the cookie. It succeeds even without a valid session.
func (h *AuthHandler) Logout(c *gin.Context) {
	if tok := middleware.TokenFromRequest(c); tok != "" {
		if claims, err := h.issuer.Parse(tok); err == nil && claims.ExpiresAt != nil {
			ttl := time.Until(claims.ExpiresAt.Time)
			if err := h.cache.BlacklistToken(c.Request.Context(), claims.ID, ttl); err != nil {
				h.logger.Warn("⚠️ could not revoke token", zap.Error(err))
			}
		}
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, "", -1, "/", "", h.cookieSecure, true)
	handlers.OK(c, http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *AuthHandler) Me(c *gin.Context) {
	u, err := h.auth.Me(c.Request.Context(), c.GetString(middleware.CtxUserID))
	if err != nil {
		handlers.Error(c, h.logger, err)
		return
	}
	handlers.OK(c, http.StatusOK, gin.H{"user": u})
}
