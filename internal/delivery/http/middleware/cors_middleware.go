package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// DefaultCORSOrigins are the local front-end dev servers that are always allowed.
var DefaultCORSOrigins = []string{
	"http://localhost:3000",
	"http://127.0.0.1:3000",
	"http://localhost:5173",
}

// CORSConfig extends the default origin list.
type CORSConfig struct {
	AllowedOrigins []string
	// PreviewPrefix allows Vercel preview deployments named <prefix>*.vercel.app
	// or *-<prefix>-*.vercel.app. Empty disables the rule.
	PreviewPrefix string
}

// CORSMiddleware adds CORS headers for allowed origins only. Requests from
// other origins get no CORS headers and the browser blocks them.
func CORSMiddleware(cfg CORSConfig) gin.HandlerFunc {
	allowed := make(map[string]bool, len(DefaultCORSOrigins)+len(cfg.AllowedOrigins))
	for _, o := range DefaultCORSOrigins {
		allowed[o] = true
	}
	for _, o := range cfg.AllowedOrigins {
		allowed[strings.TrimSuffix(strings.TrimSpace(o), "/")] = true
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		// Empty origin (same-origin or non-browser requests) - allow
		isAllowed := origin == "" || allowed[origin] || isPreviewOrigin(origin, cfg.PreviewPrefix)

		if isAllowed && origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
			c.Header("Access-Control-Allow-Methods", "POST, GET, OPTIONS, DELETE")
			c.Header("Access-Control-Max-Age", "86400")
		}

		c.Header("Vary", "Origin")

		if c.Request.Method == http.MethodOptions {
			if isAllowed {
				c.AbortWithStatus(http.StatusNoContent)
			} else {
				c.AbortWithStatus(http.StatusForbidden)
			}
			return
		}

		c.Next()
	}
}

// isPreviewOrigin matches https://<prefix>*.vercel.app and
// https://*-<prefix>-*.vercel.app. A prefix merely contained in the
// subdomain (evil<prefix>.vercel.app) does not match.
func isPreviewOrigin(origin, prefix string) bool {
	if prefix == "" || !strings.HasPrefix(origin, "https://") || !strings.HasSuffix(origin, ".vercel.app") {
		return false
	}
	subdomain := strings.TrimSuffix(strings.TrimPrefix(origin, "https://"), ".vercel.app")
	if strings.Contains(subdomain, ".") {
		return false
	}
	return strings.HasPrefix(subdomain, prefix) || strings.Contains(subdomain, "-"+prefix+"-")
}
