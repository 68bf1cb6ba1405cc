package middlewares

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
)

// RequireAuth guards server-rendered pages. Anonymous visitors are sent
// to the login form with the original URL preserved, so a successful
// login can land them where they were headed.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := UserFrom(c); ok {
			c.Next()
			return
		}

		next := c.Request.URL.Path
		if c.Request.URL.RawQuery != "" {
			next += "?" + c.Request.URL.RawQuery
		}

		c.Redirect(http.StatusSeeOther, "/auth/login?next="+url.QueryEscape(next))
		c.Abort()
	}
}
