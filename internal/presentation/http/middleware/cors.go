package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/disfruleg/disfruleg-pos/internal/config"
)

// Headers the counter frontend always needs, whatever the configuration says.
var requiredCORSHeaders = []string{"Authorization", "Content-Type", IdempotencyKeyHeader, RequestIDHeader}

// CORSMiddleware allows the counter frontend to call the API. Tokens travel
// in the Authorization header, so cookies are never sent cross-origin.
func CORSMiddleware(cfg *config.CORSConfig) gin.HandlerFunc {
	corsConfig := cors.Config{
		AllowOrigins:  cfg.AllowedOrigins,
		AllowMethods:  cfg.AllowedMethods,
		AllowHeaders:  mergeHeaders(cfg.AllowedHeaders, requiredCORSHeaders),
		ExposeHeaders: []string{"Content-Length", RequestIDHeader, ReplayedHeader, "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if len(corsConfig.AllowOrigins) == 0 {
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
	}
	if len(corsConfig.AllowMethods) == 0 {
		corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	return cors.New(corsConfig)
}

func mergeHeaders(configured, required []string) []string {
	seen := make(map[string]bool, len(configured)+len(required))
	out := make([]string, 0, len(configured)+len(required))
	for _, h := range append(append([]string{}, configured...), required...) {
		if h == "" || seen[h] {
			continue
		}
		seen[h] = true
		out = append(out, h)
	}
	return out
}
