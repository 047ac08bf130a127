package middleware

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS allows every origin in development. In production only the
// comma-separated allowlist is accepted, and an empty list denies all.
func CORS(env, allowedOrigins string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Authorization", "Content-Type", "Accept", RequestIDHeader},
		ExposeHeaders: []string{RequestIDHeader, "Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}

	origins := splitAndTrim(allowedOrigins)
	switch {
	case len(origins) > 0:
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	case env == "production":
		cfg.AllowOriginFunc = func(string) bool { return false }
	default:
		cfg.AllowAllOrigins = true
	}
	return cors.New(cfg)
}

func splitAndTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
