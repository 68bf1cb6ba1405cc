package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type PagesHandler struct{}

func NewPagesHandler() *PagesHandler {
	return &PagesHandler{}
}

func (h *PagesHandler) Home(c *gin.Context) {
	renderPage(c, http.StatusOK, "home.html", nil)
}

func (h *PagesHandler) About(c *gin.Context) {
	renderPage(c, http.StatusOK, "about.html", nil)
}
