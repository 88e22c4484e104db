package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/disfruleg/disfruleg-pos/internal/presentation/http/dto/response"
)

const (
	// IdempotencyKeyHeader is the HTTP header for idempotency keys
	IdempotencyKeyHeader = "Idempotency-Key"
	// ReplayedHeader marks a response answered from an earlier request
	ReplayedHeader       = "X-Idempotency-Replayed"

	maxIdempotencyKeyLen = 255
	idempotencyKeyCtx    = "idempotency_key"
)

// Idempotency reads the Idempotency-Key header of POST requests and stores
// it for the handler. Keys longer than the column are rejected. Replay is
// decided by the invoice writer, which compares the cart with the one the
// key was first used for.
func Idempotency() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		key := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKeyLen {
			response.BadRequest(c, "Idempotency-Key is too long")
			c.Abort()
			return
		}

		c.Set(idempotencyKeyCtx, key)
		c.Next()
	}
}

// GetIdempotencyKey returns the key stored by Idempotency, or "".
func GetIdempotencyKey(c *gin.Context) string {
	return c.GetString(idempotencyKeyCtx)
}
