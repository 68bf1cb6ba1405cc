package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// WSHandler is a minimal message echo: every text frame gets an
// acknowledgement back on the same connection.
type WSHandler struct {
	upgrader websocket.Upgrader
	log      *slog.Logger
}

func NewWSHandler(log *slog.Logger) *WSHandler {
	return &WSHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// same-origin pages only; the app serves no cross-site clients
				return r.Header.Get("Origin") == "" || r.Header.Get("Origin") == "http://"+r.Host || r.Header.Get("Origin") == "https://"+r.Host
			},
		},
		log: log,
	}
}

type wsResponse struct {
	Data string `json:"data"`
}

func (h *WSHandler) Serve(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)

	if err != nil {
		// Upgrade already wrote the HTTP error
		h.log.DebugContext(c.Request.Context(), "websocket upgrade failed", "err", err)
		return
	}

	defer conn.Close()

	for {
		msgType, _, err := conn.ReadMessage()

		if err != nil {
			return
		}

		if msgType != websocket.TextMessage {
			continue
		}

		if err := conn.WriteJSON(wsResponse{Data: "message received"}); err != nil {
			return
		}
	}
}
