package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"nexusmart/internal/cache"
	"nexusmart/internal/utils"
)

// Context keys set by Auth.Required.
const (
	CtxUserID    = "user_id"
	CtxEmail     = "email"
	CtxRole      = "role"
	CtxTokenID   = "token_id"
	CtxTokenExp  = "token_exp"
	TokenCookie  = "token"
	bearerPrefix = "Bearer "
)

type Auth struct {
	issuer *utils.TokenIssuer
	cache  *cache.Cache
	logger *zap.Logger
}

func NewAuth(issuer *utils.TokenIssuer, c *cache.Cache, logger *zap.Logger) *Auth {
	return &Auth{issuer: issuer, cache: c, logger: logger}
}

// TokenFromRequest reads the session token from the token cookie, falling
// back to an Authorization: Bearer header.
func TokenFromRequest(c *gin.Context) string {
	if tok, err := c.Cookie(TokenCookie); err == nil && tok != "" {
		return tok
	}
	h := c.GetHeader("Authorization")
	if strings.HasPrefix(h, bearerPrefix) {
		return strings.TrimSpace(h[len(bearerPrefix):])
	}
	return ""
}

func (a *Auth) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := TokenFromRequest(c)
		if tok == "" {
			abort(c, http.StatusUnauthorized, "Please login to access this resource")
			return
		}
		claims, err := a.issuer.Parse(tok)
		if err != nil {
			a.logger.Debug("invalid token", zap.Error(err))
			abort(c, http.StatusUnauthorized, "Session expired, please login again")
			return
		}
		revoked, err := a.cache.IsTokenBlacklisted(c.Request.Context(), claims.ID)
		if err != nil {
			a.logger.Warn("⚠️ blacklist check failed", zap.Error(err))
		}
		if revoked {
			abort(c, http.StatusUnauthorized, "Session expired, please login again")
			return
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxEmail, claims.Email)
		c.Set(CtxRole, claims.Role)
		c.Set(CtxTokenID, claims.ID)
		if claims.ExpiresAt != nil {
			c.Set(CtxTokenExp, claims.ExpiresAt.Time)
		}
		c.Next()
	}
}
