package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/disfruleg/disfruleg-pos/internal/domain/enum"
	"github.com/disfruleg/disfruleg-pos/pkg/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddlewareSetsSession(t *testing.T) {
	jwt := utils.NewJWTManager("secret", time.Hour)
	userID, sid := uuid.New(), uuid.New()
	loginAt := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	token, err := jwt.GenerateAccessToken(userID, "gerente", "admin", loginAt, sid)
	require.NoError(t, err)

	r := gin.New()
	r.GET("/me", AuthMiddleware(jwt), RequireRole(enum.RoleAdmin), func(c *gin.Context) {
		s, ok := GetAuthSession(c)
		require.True(t, ok)
		assert.Equal(t, sid, s.SessionID)
		assert.Equal(t, userID, s.UserID)
		assert.Equal(t, "gerente", s.Username)
		assert.Equal(t, enum.RoleAdmin, s.Role)
		assert.True(t, s.LoginAt.Equal(loginAt))
		assert.False(t, s.ExpiresAt.IsZero())
		c.Status(http.StatusNoContent)
	})

	w := serve(r, http.MethodGet, "/me", map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = serve(r, http.MethodGet, "/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(r, http.MethodGet, "/me", map[string]string{"Authorization": "Token " + token})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	other := utils.NewJWTManager("other-secret", time.Hour)
	forged, err := other.GenerateAccessToken(userID, "gerente", "admin", loginAt, sid)
	require.NoError(t, err)
	w = serve(r, http.MethodGet, "/me", map[string]string{"Authorization": "Bearer " + forged})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRoleRejectsUser(t *testing.T) {
	jwt := utils.NewJWTManager("secret", time.Hour)
	token, err := jwt.GenerateAccessToken(uuid.New(), "cajero", "user", time.Now(), uuid.New())
	require.NoError(t, err)

	r := gin.New()
	r.GET("/admin", AuthMiddleware(jwt), RequireRole(enum.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	w := serve(r, http.MethodGet, "/admin", map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestIPRateLimiter(t *testing.T) {
	rl := NewIPRateLimiter(RateLimiterConfig{RequestsPerSecond: 0.001, BurstSize: 3, EntryTTL: time.Minute})
	defer rl.Stop()

	r := gin.New()
	r.GET("/", rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/", nil).Code)
	}
	w := serve(r, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "3", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("Retry-After"))

	assert.Equal(t, 1, rl.Len())
	rl.cleanup(time.Now())
	assert.Equal(t, 1, rl.Len())
	rl.cleanup(time.Now().Add(2 * time.Minute))
	assert.Zero(t, rl.Len())
}

func TestLoginRateLimiterConfigDefaults(t *testing.T) {
	cfg := LoginRateLimiterConfig(0, 0)
	assert.Equal(t, 20, cfg.BurstSize)
	assert.InDelta(t, 20.0/60.0, cfg.RequestsPerSecond, 1e-9)

	cfg = LoginRateLimiterConfig(5, 10)
	assert.Equal(t, 5, cfg.BurstSize)
	assert.InDelta(t, 0.5, cfg.RequestsPerSecond, 1e-9)
}

func TestIdempotencyKey(t *testing.T) {
	r := gin.New()
	r.Use(Idempotency())
	var got string
	handler := func(c *gin.Context) {
		got = GetIdempotencyKey(c)
		c.Status(http.StatusOK)
	}
	r.POST("/", handler)
	r.GET("/", handler)

	w := serve(r, http.MethodPost, "/", map[string]string{IdempotencyKeyHeader: "  abc-1 "})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc-1", got)

	serve(r, http.MethodGet, "/", map[string]string{IdempotencyKeyHeader: "abc-2"})
	assert.Empty(t, got)

	long := make([]byte, maxIdempotencyKeyLen+1)
	for i := range long {
		long[i] = 'k'
	}
	w = serve(r, http.MethodPost, "/", map[string]string{IdempotencyKeyHeader: string(long)})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoggerMiddlewareRequestID(t *testing.T) {
	r := gin.New()
	r.Use(LoggerMiddleware(zap.NewNop()))
	r.GET("/", func(c *gin.Context) {
		assert.NotEmpty(t, c.GetString("request_id"))
		c.Status(http.StatusOK)
	})

	w := serve(r, http.MethodGet, "/", map[string]string{RequestIDHeader: "req-42"})
	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))

	w = serve(r, http.MethodGet, "/", nil)
	_, err := uuid.Parse(w.Header().Get(RequestIDHeader))
	assert.NoError(t, err)
}
