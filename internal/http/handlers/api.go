package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type APIHandler struct{}

func NewAPIHandler() *APIHandler {
	return &APIHandler{}
}

func (h *APIHandler) Hello(c *gin.Context) {
	RespondJSONWithETag(c, http.StatusOK, gin.H{"message": "Hello, World!"})
}
