package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"nexusmart/internal/cache"
	"nexusmart/internal/models"
	"nexusmart/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testCache(t *testing.T) (*cache.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return cache.New(rdb), mr
}

func protectedRouter(auth *Auth, admin bool) *gin.Engine {
	r := gin.New()
	handlers := []gin.HandlerFunc{auth.Required()}
	if admin {
		handlers = append(handlers, RequireAdmin)
	}
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": c.GetString(CtxUserID)})
	})
	r.GET("/p", handlers...)
	return r
}

func TestAuthAcceptsCookieAndBearer(t *testing.T) {
	c, _ := testCache(t)
	issuer := utils.NewTokenIssuer("secret", time.Hour)
	auth := NewAuth(issuer, c, zap.NewNop())
	tok, _, err := issuer.Issue(models.User{ID: "u1", Role: models.RoleUser}, time.Now())
	require.NoError(t, err)
	r := protectedRouter(auth, false)

	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookie, Value: tok})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "u1")

	req = httptest.NewRequest(http.MethodGet, "/p", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/p", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
}

func TestAuthRejectsRevokedToken(t *testing.T) {
	c, _ := testCache(t)
	issuer := utils.NewTokenIssuer("secret", time.Hour)
	auth := NewAuth(issuer, c, zap.NewNop())
	tok, claims, err := issuer.Issue(models.User{ID: "u1"}, time.Now())
	require.NoError(t, err)
	require.NoError(t, c.BlacklistToken(context.Background(), claims.ID, time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	protectedRouter(auth, false).ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAdmin(t *testing.T) {
	c, _ := testCache(t)
	issuer := utils.NewTokenIssuer("secret", time.Hour)
	r := protectedRouter(NewAuth(issuer, c, zap.NewNop()), true)

	for role, want := range map[string]int{models.RoleUser: http.StatusForbidden, models.RoleAdmin: http.StatusOK} {
		tok, _, err := issuer.Issue(models.User{ID: "u1", Role: role}, time.Now())
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/p", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, role)
	}
}

func TestOTPLimit(t *testing.T) {
	c, mr := testCache(t)
	rl := NewRateLimiter(c, zap.NewNop())
	r := gin.New()
	r.POST("/otp", rl.OTP(), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < OTPMaxRequests; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/otp", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/otp", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	mr.FastForward(OTPWindow + time.Second)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/otp", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLoginLimitCountsFailuresOnly(t *testing.T) {
	c, _ := testCache(t)
	rl := NewRateLimiter(c, zap.NewNop())
	status := http.StatusUnauthorized
	r := gin.New()
	r.POST("/login", rl.Login(), func(c *gin.Context) { c.Status(status) })

	hit := func() int {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
		return w.Code
	}
	for i := 0; i < LoginMaxFailures-1; i++ {
		require.Equal(t, http.StatusUnauthorized, hit())
	}
	status = http.StatusOK
	require.Equal(t, http.StatusOK, hit(), "success resets the counter")

	status = http.StatusUnauthorized
	for i := 0; i < LoginMaxFailures; i++ {
		require.Equal(t, http.StatusUnauthorized, hit())
	}
	assert.Equal(t, http.StatusTooManyRequests, hit())
}
