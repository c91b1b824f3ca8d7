package handler

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORSMiddleware creates a CORS middleware. Credentials are allowed so the
// refresh cookie reaches the auth routes, which rules out a wildcard origin.
func CORSMiddleware(allowedOrigins, allowedMethods, allowedHeaders []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     allowedMethods,
		AllowHeaders:     allowedHeaders,
		ExposeHeaders:    []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	origins := make([]string, 0, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			// echo any origin back instead of sending "*", which browsers reject with credentials
			cfg.AllowOriginFunc = func(string) bool { return true }
			continue
		}
		origins = append(origins, o)
	}
	cfg.AllowOrigins = origins

	return cors.New(cfg)
}
