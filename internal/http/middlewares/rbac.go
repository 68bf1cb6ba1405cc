package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireRole guards JSON endpoints. Unlike RequireAuth it never
// redirects; API clients get the error envelope.
func RequireRole(required string) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := UserFrom(c)

		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "unauthorized",
					"message": "Authentication required",
				},
			})
			return
		}
		if u.Role != required {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": gin.H{
					"code":    "forbidden",
					"message": "Admin role required",
				},
			})
			return
		}
		c.Next()
	}
}
