package middleware

import (
	"github.com/gin-gonic/gin"
)

// NoStore disables client and proxy caching. Question and attempt payloads
// change between requests and must never be served stale.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store, no-cache, must-revalidate")
		c.Header("Pragma", "no-cache")
		c.Next()
	}
}
