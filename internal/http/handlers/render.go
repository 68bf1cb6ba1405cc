package handlers

import (
	"github.com/geocoder89/memberhub/internal/http/flash"
	"github.com/geocoder89/memberhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

// renderPage wraps c.HTML, merging in the bits every template expects:
// the current user (if any) and pending flash messages.
func renderPage(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}

	if u, ok := middlewares.UserFrom(c); ok {
		data["CurrentUser"] = u
	}

	// templates index this unconditionally
	if _, ok := data["FieldErrors"]; !ok {
		data["FieldErrors"] = map[string]string{}
	}

	data["Flashes"] = flash.Pop(c)

	c.HTML(status, name, data)
}
