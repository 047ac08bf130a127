package middleware

import (
	"net/http"
	"time"

	"micaja/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrorHandler logs errors a handler attached with c.Error and, when nothing
// was written yet, answers a generic 500.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last()
		log.Error().
			Str("request_id", c.GetString(RequestIDKey)).
			Str("path", c.FullPath()).
			Str("method", c.Request.Method).
			Err(err.Err).
			Msg("unhandled error")

		if c.Writer.Written() {
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, apierror.NewWithCode(apierror.CodeInternal, "Error interno del servidor"))
	}
}

// Recovery handles panics and converts them into 500 responses.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Str("request_id", c.GetString(RequestIDKey)).
					Interface("panic", r).
					Msg("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, apierror.NewWithCode(apierror.CodeInternal, "Error interno del servidor"))
			}
		}()
		c.Next()
	}
}

// Probes and scrapes are not operator activity.
var sinLog = map[string]bool{"/health": true, "/metrics": true}

// Logger writes one line per request. The route is the registered template
// (/v1/mi-caja/cierres/:id) so lines group by endpoint, not by id.
// Rejected operations (4xx) go to Warn so refused charges and duplicate
// closings stand out from normal traffic.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if sinLog[c.Request.URL.Path] {
			return
		}
		status := c.Writer.Status()
		var ev *zerolog.Event
		switch {
		case status >= http.StatusInternalServerError:
			ev = log.Error()
		case status >= http.StatusBadRequest:
			ev = log.Warn()
		default:
			ev = log.Info()
		}
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		ev = ev.
			Str("request_id", c.GetString(RequestIDKey)).
			Str("method", c.Request.Method).
			Str("route", route).
			Int("status", status).
			Dur("latency", time.Since(start))
		if claims := GetClaims(c); claims != nil {
			ev = ev.Str("operador", claims.Username).Str("rol", claims.Rol)
		}
		ev.Msg("request")
	}
}
