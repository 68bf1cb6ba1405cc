// Package flash implements one-shot messages carried in a short-lived
// cookie: set on a redirect, rendered and cleared by the next page load.
package flash

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	cookieName = "flash"

	// messages already queued during this request; the request cookie
	// alone cannot see them
	ctxPendingKey = "flash.pending"
)

const (
	LevelSuccess = "success"
	LevelInfo    = "info"
	LevelDanger  = "danger"
)

type Message struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

// Set appends a message to the pending flash cookie. Repeated calls
// within one request accumulate rather than overwrite.
func Set(c *gin.Context, level, text string) {
	msgs := pending(c)
	msgs = append(msgs, Message{Level: level, Text: text})
	c.Set(ctxPendingKey, msgs)

	b, err := json.Marshal(msgs)
	if err != nil {
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cookieName, base64.RawURLEncoding.EncodeToString(b), 300, "/", "", false, true)
}

func pending(c *gin.Context) []Message {
	if v, ok := c.Get(ctxPendingKey); ok {
		if msgs, ok := v.([]Message); ok {
			return msgs
		}
	}
	return peek(c)
}

// Pop returns pending messages and clears the cookie. A malformed
// cookie is dropped silently.
func Pop(c *gin.Context) []Message {
	msgs := peek(c)

	if _, err := c.Cookie(cookieName); err == nil {
		c.SetCookie(cookieName, "", -1, "/", "", false, true)
	}

	return msgs
}

func peek(c *gin.Context) []Message {
	raw, err := c.Cookie(cookieName)
	if err != nil || raw == "" {
		return nil
	}

	b, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil
	}

	var msgs []Message
	if err := json.Unmarshal(b, &msgs); err != nil {
		return nil
	}
	return msgs
}
