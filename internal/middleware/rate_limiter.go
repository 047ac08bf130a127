package middleware

import (
	"net/http"
	"sync"
	"time"

	"micaja/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ── Fixed-window limiter per client IP ────────────────────────────────────────

type window struct {
	count int
	end   time.Time
}

type ipLimiter struct {
	name   string
	limit  int
	period time.Duration
	now    func() time.Time

	mu      sync.Mutex
	windows map[string]*window
}

func newIPLimiter(name string, limit int, period time.Duration) *ipLimiter {
	return &ipLimiter{
		name:    name,
		limit:   limit,
		period:  period,
		now:     time.Now,
		windows: make(map[string]*window),
	}
}

// allow counts one hit for ip and reports whether it is within the limit,
// plus the end of the current window.
func (l *ipLimiter) allow(ip string) (bool, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[ip]
	if !ok || now.After(w.end) {
		w = &window{end: now.Add(l.period)}
		l.windows[ip] = w
	}
	w.count++
	if len(l.windows) > 10_000 {
		l.purgeLocked(now)
	}
	return w.count <= l.limit, w.end
}

func (l *ipLimiter) purgeLocked(now time.Time) {
	purged := 0
	for ip, w := range l.windows {
		if now.After(w.end) {
			delete(l.windows, ip)
			purged++
		}
	}
	if purged > 0 {
		log.Debug().Str("limiter", l.name).Int("purged", purged).Int("remaining", len(l.windows)).Msg("rate limiter purged")
	}
}

func (l *ipLimiter) handler(msg string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, end := l.allow(c.ClientIP())
		if !ok {
			c.Header("Retry-After", end.UTC().Format(http.TimeFormat))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(msg))
			return
		}
		c.Next()
	}
}

// LoginRateLimiter limits login attempts to 20 per minute per IP.
func LoginRateLimiter() gin.HandlerFunc {
	return newIPLimiter("login", 20, time.Minute).
		handler("Demasiados intentos de login. Intente en 1 minuto.")
}

// RateLimiter is the general API limiter: limit requests per window per IP.
func RateLimiter(limit int, period time.Duration) gin.HandlerFunc {
	return newIPLimiter("api", limit, period).
		handler("Demasiadas solicitudes. Intente nuevamente en un momento.")
}
