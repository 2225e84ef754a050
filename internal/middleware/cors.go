package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CORS allows the local dev frontends plus the given extra origins.
func CORS(extraOrigins []string) gin.HandlerFunc {
	allowedOrigins := originSet(extraOrigins)

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		// reflect allowed origins so credentials work
		if origin != "" && allowedOrigins[origin] {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Vary", "Origin")
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		c.Writer.Header().Set("Access-Control-Allow-Headers",
			"Content-Type, Content-Length, Accept, Origin, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")
		c.Writer.Header().Set("Access-Control-Max-Age", "600")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// OriginAllowed reports whether a websocket upgrade from origin should be
// accepted under the same rules as CORS. Requests without an Origin header
// come from non-browser clients and are allowed.
func OriginAllowed(extraOrigins []string) func(r *http.Request) bool {
	allowed := originSet(extraOrigins)
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || allowed[origin] || origin == "http://"+r.Host || origin == "https://"+r.Host
	}
}

func originSet(extra []string) map[string]bool {
	// local development frontends
	set := map[string]bool{
		"http://localhost:3000": true,
		"http://localhost:5173": true,
		"http://127.0.0.1:3000": true,
		"http://127.0.0.1:5173": true,
	}
	for _, o := range extra {
		if o != "" {
			set[o] = true
		}
	}
	return set
}
