package cors

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hr-onboarding-api/pkg/config"
)

const (
	allowHeaders  = "Authorization, Content-Type, X-Requested-With, X-Request-ID"
	allowMethods  = "GET, POST, PATCH, DELETE, OPTIONS"
	exposeHeaders = "Content-Disposition, X-Request-ID"
)

// New returns a CORS middleware for the configured origins. An empty list
// allows any origin. An entry such as "https://*.example.com" matches any
// subdomain of example.com over https.
func New(cfg config.CORSConfig) gin.HandlerFunc {
	match := newMatcher(cfg.AllowedOrigins)

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Add("Vary", "Origin")

		origin := c.GetHeader("Origin")
		if origin != "" && match(origin) {
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Expose-Headers", exposeHeaders)
		}

		if c.Request.Method == http.MethodOptions {
			h.Set("Access-Control-Allow-Headers", allowHeaders)
			h.Set("Access-Control-Allow-Methods", allowMethods)
			h.Set("Access-Control-Max-Age", "600")
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func newMatcher(origins []string) func(string) bool {
	if len(origins) == 0 {
		return func(string) bool { return true }
	}

	exact := make(map[string]struct{}, len(origins))
	var wildcards []string
	for _, origin := range origins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin == "*" {
			return func(string) bool { return true }
		}
		if scheme, host, ok := strings.Cut(origin, "://*."); ok {
			wildcards = append(wildcards, scheme+"://", "."+host)
			continue
		}
		exact[origin] = struct{}{}
	}

	return func(origin string) bool {
		origin = strings.TrimRight(origin, "/")
		if _, ok := exact[origin]; ok {
			return true
		}
		for i := 0; i+1 < len(wildcards); i += 2 {
			scheme, suffix := wildcards[i], wildcards[i+1]
			if strings.HasPrefix(origin, scheme) && strings.HasSuffix(origin, suffix) && len(origin) > len(scheme)+len(suffix) {
				return true
			}
		}
		return false
	}
}
